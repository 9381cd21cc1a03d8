package tinsel

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// defaultAxis replaces degenerate burst directions.
var defaultAxis = Vec3{1, 0, 0}

// Thresholds for "at rest" before an explosion impulse is given.
const (
	restVelocitySq = 0.01
	restDistance   = 0.1
)

// FocusPolicy selects which active photo PHOTO_VIEW pulls to the camera.
type FocusPolicy uint8

const (
	// FocusByIndex uses the externally supplied focus index, modulo the
	// number of active photos, in slot order.
	FocusByIndex FocusPolicy = iota
	// FocusMostRecent picks the photo activated last; the focus index steps
	// back through older ones.
	FocusMostRecent
	// FocusNearestCamera picks the active photo closest to the focus point;
	// the focus index steps outward to farther ones.
	FocusNearestCamera
)

// MarshalText implements encoding.TextMarshaler.
func (p FocusPolicy) MarshalText() ([]byte, error) {
	switch p {
	case FocusByIndex:
		return []byte("index"), nil
	case FocusMostRecent:
		return []byte("recent"), nil
	case FocusNearestCamera:
		return []byte("nearest"), nil
	}
	return nil, fmt.Errorf("invalid focus policy %d", p)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *FocusPolicy) UnmarshalText(b []byte) error {
	switch string(b) {
	case "index":
		*p = FocusByIndex
	case "recent":
		*p = FocusMostRecent
	case "nearest":
		*p = FocusNearestCamera
	default:
		return fmt.Errorf("unknown focus policy %q", b)
	}
	return nil
}

// Frame is the per-tick input to the simulator.
type Frame struct {
	// Delta is the raw time since the previous frame in seconds.
	Delta float64
	// Elapsed is the scene clock in seconds.
	Elapsed float64
	Camera  CameraPose
	// FocusIndex is the externally chosen photo for FocusByIndex.
	FocusIndex int
}

// StepStats summarizes one tick.
type StepStats struct {
	// Moving counts particles not yet exactly at their target.
	Moving int
	// Focused is the store index of the focused photo, or -1.
	Focused int
}

// Simulator is the only writer of particle motion state. One Step runs per
// rendered frame.
type Simulator struct {
	cfg    PhysicsConfig
	photos PhotoConfig
	groupY float64
	store  *Store
	rng    *rand.Rand

	groupRotation float64
	focused       int
}

// NewSimulator binds a simulator to the store it mutates.
func NewSimulator(store *Store, cfg Config, rng *rand.Rand) *Simulator {
	return &Simulator{
		cfg:     cfg.Physics,
		photos:  cfg.Photos,
		groupY:  cfg.Tree.GroupOffsetY,
		store:   store,
		rng:     rng,
		focused: -1,
	}
}

// GroupRotation is the accumulated rotation of the tree group around Y.
func (s *Simulator) GroupRotation() float64 {
	return s.groupRotation
}

// Focused returns the store index of the focused photo, or -1.
func (s *Simulator) Focused() int {
	return s.focused
}

// FocusPolicy returns the active photo selection policy.
func (s *Simulator) FocusPolicy() FocusPolicy {
	return s.photos.Focus
}

// SetFocusPolicy changes the photo selection policy.
func (s *Simulator) SetFocusPolicy(p FocusPolicy) {
	s.photos.Focus = p
}

// ClampDelta bounds a frame delta to [0, max]. NaN becomes 0.
func ClampDelta(dt, max float64) float64 {
	if !(dt > 0) {
		return 0
	}
	return math.Min(dt, max)
}

// LerpFactor is the per-tick spring interpolation for a particle of the
// given mass: speed / sqrt(mass), capped at 1. A tick is 1/referenceRate
// seconds; see StepLerp for other deltas.
func LerpFactor(speed, mass float64) float64 {
	if !(mass > 0) {
		mass = 1
	}
	return math.Min(speed/math.Sqrt(mass), 1)
}

// referenceRate is the tick rate per-tick lerp factors are tuned for.
const referenceRate = 60

// StepLerp rescales a per-tick factor to a dt second step, so two half steps
// cover the same distance as one full step.
func StepLerp(factor, dt float64) float64 {
	if factor >= 1 {
		return 1
	}
	return 1 - math.Pow(1-factor, dt*referenceRate)
}

// Step advances every particle under the rule for state.
func (s *Simulator) Step(state SceneState, f Frame) StepStats {
	dt := ClampDelta(f.Delta, s.cfg.MaxDelta)
	ps := s.store.particles
	stats := StepStats{Focused: -1}

	var focus int = -1
	var focusTarget Vec3
	if state == StatePhotoView {
		focusTarget = s.worldToLocal(f.Camera.Position.Add(f.Camera.Forward.Mul(s.photos.FocusDistance)))
		focus = s.pickFocus(f.FocusIndex, focusTarget)
	}
	s.focused = focus
	stats.Focused = focus

	for i := range ps {
		p := &ps[i]
		if p.Type == ParticlePhoto && !p.Active {
			continue
		}
		sanitize(p)

		switch state {
		case StateExploding:
			s.explode(p, dt, f.Elapsed)
		case StateTree, StateReassembling:
			s.spring(p, dt)
		case StatePhotoView:
			switch {
			case i == focus:
				s.pullToFocus(p, focusTarget, dt)
			case p.Type == ParticlePhoto:
				s.bob(p, f.Elapsed)
			default:
				s.clear(p, dt, f.Elapsed)
			}
		}
		if p.CurrentPos != p.TargetPos {
			stats.Moving++
		}
	}

	if state == StateTree {
		s.groupRotation = math.Mod(s.groupRotation+dt*s.cfg.AutoRotateSpeed, 2*math.Pi)
	}
	return stats
}

// explode gives a resting particle an outward burst, then integrates with
// drag and lets slow particles float.
func (s *Simulator) explode(p *Particle, dt, elapsed float64) {
	if p.Velocity.LenSqr() < restVelocitySq && p.CurrentPos.Sub(p.TargetPos).Len() < restDistance {
		s.impulse(p)
	}

	p.CurrentPos = p.CurrentPos.Add(p.Velocity.Mul(dt))
	p.Velocity = p.Velocity.Mul(s.cfg.Damping)
	p.AngularVelocity = p.AngularVelocity.Mul(s.cfg.RotationDamping)
	p.Rotation = p.Rotation.Add(p.AngularVelocity, dt)

	if p.Velocity.Len() < s.cfg.FloatThreshold {
		p.CurrentPos[1] += math.Sin(elapsed+p.PhaseOffset) * s.cfg.GravityDrift
	}
}

func (s *Simulator) impulse(p *Particle) {
	axis := Vec3{0, p.CurrentPos.Y(), 0}
	dir := safeNormalize(p.CurrentPos.Sub(axis), defaultAxis)
	dir = safeNormalize(dir.Add(RandomVector(s.rng, s.cfg.ExplosionJitter)), dir)
	force := s.cfg.ExplosionForce * (s.rng.Float64()*0.5 + 0.5)
	p.Velocity = dir.Mul(force)
	p.AngularVelocity = RandomVector(s.rng, 1).Mul(s.cfg.RotationBurst)
}

// spring interpolates toward the target, heavier particles slower, and snaps
// once within SnapEpsilon. No momentum survives under spring control.
func (s *Simulator) spring(p *Particle, dt float64) {
	p.Velocity = Vec3{}
	p.AngularVelocity = Vec3{}
	if p.CurrentPos.Sub(p.TargetPos).Len() > s.cfg.SnapEpsilon {
		p.CurrentPos = lerpVec(p.CurrentPos, p.TargetPos, StepLerp(LerpFactor(s.cfg.ReassembleSpeed, p.Mass), dt))
		return
	}
	p.CurrentPos = p.TargetPos
}

func (s *Simulator) pullToFocus(p *Particle, target Vec3, dt float64) {
	p.Velocity = Vec3{}
	p.AngularVelocity = Vec3{}
	p.CurrentPos = lerpVec(p.CurrentPos, target, StepLerp(s.photos.FocusLerp, dt))
}

// bob is the gentle vertical float of unfocused photos.
func (s *Simulator) bob(p *Particle, elapsed float64) {
	p.CurrentPos[1] += math.Sin(elapsed+p.PhaseOffset) * s.cfg.GravityDrift * 0.5
}

// clear lets residual explosion motion die out, bobs, and nudges particles
// near the center outward so the focused photo has room.
func (s *Simulator) clear(p *Particle, dt, elapsed float64) {
	if p.Velocity.LenSqr() > 0 {
		p.CurrentPos = p.CurrentPos.Add(p.Velocity.Mul(dt))
		p.Velocity = p.Velocity.Mul(s.cfg.Damping)
		p.AngularVelocity = p.AngularVelocity.Mul(s.cfg.RotationDamping)
		p.Rotation = p.Rotation.Add(p.AngularVelocity, dt)
	}
	s.bob(p, elapsed)
	if p.CurrentPos.Len() < s.cfg.ClearanceRadius {
		radial := safeNormalize(Vec3{p.CurrentPos.X(), 0, p.CurrentPos.Z()}, defaultAxis)
		p.CurrentPos = p.CurrentPos.Add(radial.Mul(s.cfg.ClearancePush * dt))
	}
}

// pickFocus applies the focus policy. Every policy ranks the active photos
// and index selects a rank, so NextPhoto steps through them. It returns -1
// with no active photos.
func (s *Simulator) pickFocus(index int, target Vec3) int {
	active := s.store.ActivePhotos()
	n := len(active)
	if n == 0 {
		return -1
	}
	switch s.photos.Focus {
	case FocusMostRecent:
		slices.SortStableFunc(active, func(a, b int) int {
			return cmp.Compare(s.store.activated[b], s.store.activated[a])
		})
	case FocusNearestCamera:
		// Rank by slot position; the focused photo itself is pulled away.
		slices.SortStableFunc(active, func(a, b int) int {
			da := s.store.particles[a].TargetPos.Sub(target).LenSqr()
			db := s.store.particles[b].TargetPos.Sub(target).LenSqr()
			return cmp.Compare(da, db)
		})
	case FocusByIndex:
	}
	k := index % n
	if k < 0 {
		k += n
	}
	return active[k]
}

// worldToLocal undoes the tree group transform: offset then Y rotation.
func (s *Simulator) worldToLocal(p Vec3) Vec3 {
	p[1] -= s.groupY
	sin, cos := math.Sincos(-s.groupRotation)
	return Vec3{p.X()*cos + p.Z()*sin, p.Y(), -p.X()*sin + p.Z()*cos}
}

// LocalToWorld applies the tree group transform to a particle position.
func (s *Simulator) LocalToWorld(p Vec3) Vec3 {
	return localToWorld(p, s.groupRotation, s.groupY)
}

func localToWorld(p Vec3, rotation, offsetY float64) Vec3 {
	sin, cos := math.Sincos(rotation)
	return Vec3{p.X()*cos + p.Z()*sin, p.Y() + offsetY, -p.X()*sin + p.Z()*cos}
}

// sanitize restores a particle whose state went non-finite.
func sanitize(p *Particle) {
	if finite(p.CurrentPos) && finite(p.Velocity) && finite(p.AngularVelocity) {
		return
	}
	p.CurrentPos = p.TargetPos
	p.Velocity = Vec3{}
	p.AngularVelocity = Vec3{}
}

func finite(v Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// safeNormalize returns v scaled to unit length, or fallback when v is
// zero-length or not finite.
func safeNormalize(v, fallback Vec3) Vec3 {
	l := v.Len()
	if !(l > 1e-9) || math.IsInf(l, 0) {
		return fallback
	}
	return v.Mul(1 / l)
}

func lerpVec(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
