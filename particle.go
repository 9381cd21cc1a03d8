package tinsel

import (
	"image"
	"math"
	"math/rand/v2"
)

// Texture is an externally supplied image handle for photo particles.
// *ebiten.Image and image.Image both satisfy it.
type Texture interface {
	Bounds() image.Rectangle
}

// Particle is one simulated visual element.
//
// CurrentPos, Velocity, AngularVelocity and Rotation are owned by the
// Simulator. Presentation layers receive copies through StoreView.
type Particle struct {
	// ID is stable for the lifetime of the store.
	ID   uint32
	Type ParticleType

	// TargetPos is the assembled position.
	TargetPos  Vec3
	CurrentPos Vec3

	Velocity        Vec3
	AngularVelocity Vec3
	Rotation        Euler

	// Scale 0 hides the particle without removing it.
	Scale float64
	Mass  float64
	// PhaseOffset desynchronizes per-particle oscillation.
	PhaseOffset float64
	Color       Color

	// Active and Texture apply to photo particles only.
	Active  bool
	Texture Texture
}

// StoreView is the read-only face of a Store handed to presentation layers.
// Implementations return copies; the slices returned by Indices are cached
// and MUST NOT be mutated.
type StoreView interface {
	Len() int
	At(i int) Particle
	Indices(t ParticleType) []int
}

// Store is the fixed-length particle array. Its length and indices never
// change after NewStore, so index filters may be cached by consumers.
type Store struct {
	particles []Particle
	byType    [particleTypeCount][]int

	tree   TreeConfig
	photos PhotoConfig

	// activated records the order photo slots were last switched on, for
	// the most-recent focus policy.
	activated []uint64
	seq       uint64
}

var _ StoreView = (*Store)(nil)

// NewStore generates every particle in one deterministic pass: leaves,
// ornament balls, gifts, lights, canes, then the parked photo slots.
// All particles start assembled with zero velocity.
func NewStore(cfg Config, rng *rand.Rand) *Store {
	t := cfg.Tree
	total := t.LeafCount + t.BallCount + t.GiftCount + t.LightCount + t.CaneCount + cfg.Photos.MaxSlots
	s := &Store{
		particles: make([]Particle, 0, total),
		tree:      t,
		photos:    cfg.Photos,
		activated: make([]uint64, total),
	}

	for i := 0; i < t.LeafCount; i++ {
		pos := RandomPointInCone(rng, t.Height, t.Radius)
		s.add(rng, ParticleLeaf, pos, 0.15+rng.Float64()*0.1, ColorEmeraldDeep)
	}
	for i := 0; i < t.BallCount; i++ {
		pos := t.Surface.Sample(rng, t.Height, t.Radius*0.9)
		s.add(rng, ParticleOrnamentBall, pos, 0.2+rng.Float64()*0.2, ballColor(rng))
	}
	for i := 0; i < t.GiftCount; i++ {
		angle := rng.Float64() * 2 * math.Pi
		r := t.GiftRing.Random(rng) * t.Radius
		pos := Vec3{math.Cos(angle) * r, -t.Height * 0.45, math.Sin(angle) * r}
		s.add(rng, ParticleOrnamentGift, pos, 0.6+rng.Float64()*0.4, ColorRedRibbon)
	}
	for i := 0; i < t.LightCount; i++ {
		pos := t.Surface.Sample(rng, t.Height, t.Radius*0.95)
		s.add(rng, ParticleLight, pos, 0.1, ColorWarmWhite)
	}
	for i := 0; i < t.CaneCount; i++ {
		pos := t.Surface.Sample(rng, t.Height, t.Radius*0.85)
		s.add(rng, ParticleCane, pos, 0.2, ColorWhite)
	}
	for i := 0; i < cfg.Photos.MaxSlots; i++ {
		idx := s.add(rng, ParticlePhoto, s.hiddenPos(), 0, ColorGoldMetallic)
		s.particles[idx].Active = false
	}
	return s
}

// add appends one particle and returns its index.
func (s *Store) add(rng *rand.Rand, typ ParticleType, target Vec3, scale float64, c Color) int {
	if typ != ParticlePhoto {
		target[1] = math.Min(target[1], s.tree.MaxY())
	}
	idx := len(s.particles)
	s.particles = append(s.particles, Particle{
		ID:          uint32(idx + 1),
		Type:        typ,
		TargetPos:   target,
		CurrentPos:  target,
		Rotation:    Euler{X: rng.Float64() * math.Pi, Y: rng.Float64() * math.Pi},
		Scale:       scale,
		Mass:        typ.Mass(),
		PhaseOffset: rng.Float64() * 10,
		Color:       c,
	})
	s.byType[typ] = append(s.byType[typ], idx)
	return idx
}

// ballColor mixes gold, silver and emerald ornaments 50/30/20.
func ballColor(rng *rand.Rand) Color {
	r := rng.Float64()
	switch {
	case r < 0.5:
		return ColorGoldMetallic
	case r < 0.8:
		return ColorSilverMetallic
	default:
		return ColorEmeraldLight
	}
}

func (s *Store) hiddenPos() Vec3 {
	return Vec3{0, s.photos.HiddenY, 0}
}

// Len returns the fixed particle count.
func (s *Store) Len() int {
	return len(s.particles)
}

// At returns a copy of particle i.
func (s *Store) At(i int) Particle {
	return s.particles[i]
}

// Indices returns the cached indices of every particle of type t.
func (s *Store) Indices(t ParticleType) []int {
	if int(t) >= particleTypeCount {
		return nil
	}
	return s.byType[t]
}

// PhotoCapacity returns the number of pre-allocated photo slots.
func (s *Store) PhotoCapacity() int {
	return len(s.byType[ParticlePhoto])
}

// ActivePhotos returns the store indices of active photo slots in slot order.
func (s *Store) ActivePhotos() []int {
	var out []int
	for _, idx := range s.byType[ParticlePhoto] {
		if s.particles[idx].Active {
			out = append(out, idx)
		}
	}
	return out
}

// SetPhotos assigns textures to photo slots in order and returns how many
// were placed. Textures beyond the slot capacity are ignored. Slots past the
// supplied count are deactivated, hidden and parked.
func (s *Store) SetPhotos(textures []Texture) int {
	slots := s.byType[ParticlePhoto]
	n := min(len(textures), len(slots))
	for k, idx := range slots {
		p := &s.particles[idx]
		if k >= n {
			p.Active = false
			p.Texture = nil
			p.Scale = 0
			p.TargetPos = s.hiddenPos()
			p.CurrentPos = p.TargetPos
			p.Velocity = Vec3{}
			p.AngularVelocity = Vec3{}
			continue
		}
		target := SpiralTarget(k, n, s.tree, s.photos)
		if !p.Active {
			// Snap parked slots so they don't streak up from below.
			p.CurrentPos = target
			p.Velocity = Vec3{}
			p.AngularVelocity = Vec3{}
			s.seq++
			s.activated[idx] = s.seq
		}
		p.TargetPos = target
		p.Active = true
		p.Texture = textures[k]
		p.Scale = 1
	}
	return n
}

// SpiralTarget is the assembled position of photo i out of n: an ascending
// spiral that follows the cone taper, just outside the foliage. It depends
// only on i, n and the configs.
func SpiralTarget(i, n int, tree TreeConfig, photos PhotoConfig) Vec3 {
	if n <= 0 {
		return Vec3{}
	}
	t := (float64(i) + 0.5) / float64(n)
	frac := photos.SpiralBottom + (photos.SpiralTop-photos.SpiralBottom)*t
	y := tree.Height * frac
	r := coneRadiusAt(y, tree.Height, tree.Radius) + photos.SpiralOffset
	angle := t * photos.SpiralTurns * 2 * math.Pi
	pos := Vec3{math.Cos(angle) * r, y - tree.Height*coneBaseOffset, math.Sin(angle) * r}
	pos[1] = math.Min(pos[1], tree.MaxY())
	return pos
}
