package tinsel

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// CameraPose is the camera placement seen by the simulator.
type CameraPose struct {
	Position Vec3
	// Forward is the unit view direction.
	Forward Vec3
}

// Camera is an orbit camera around Target described by azimuth, polar angle
// and distance. Gesture rotation deltas are eased with a tween rather than
// applied in one frame.
type Camera struct {
	// Azimuth is the rotation around the vertical axis in radians.
	Azimuth float64
	// Polar is the angle from +Y in radians.
	Polar float64
	// Distance from Target.
	Distance float64
	Target   Vec3
	// FOV is the vertical field of view in degrees.
	FOV float64

	MinPolar, MaxPolar       float64
	MinDistance, MaxDistance float64

	rotateDuration float32
	rotateTween    *gween.Tween
	rotateTo       float64
}

// newCamera derives the orbit from the configured eye position.
func newCamera(cfg CameraConfig) *Camera {
	off := cfg.Position.Sub(cfg.Target)
	dist := off.Len()
	c := &Camera{
		Target:         cfg.Target,
		Distance:       dist,
		FOV:            cfg.FOV,
		MinPolar:       cfg.MinPolar,
		MaxPolar:       cfg.MaxPolar,
		MinDistance:    cfg.MinDistance,
		MaxDistance:    cfg.MaxDistance,
		rotateDuration: float32(cfg.RotateDuration),
	}
	if dist > 0 {
		c.Polar = math.Acos(off.Y() / dist)
		c.Azimuth = math.Atan2(off.X(), off.Z())
	}
	c.clamp()
	return c
}

// Rotate eases the azimuth by delta radians. Deltas arriving while a
// rotation is in flight extend its destination.
func (c *Camera) Rotate(delta float64) {
	to := c.Azimuth + delta
	if c.rotateTween != nil {
		to = c.rotateTo + delta
	}
	c.rotateTo = to
	if c.rotateDuration <= 0 {
		c.Azimuth = to
		c.rotateTween = nil
		return
	}
	c.rotateTween = gween.New(float32(c.Azimuth), float32(to), c.rotateDuration, ease.OutCubic)
}

// Rotating reports whether an eased rotation is in flight.
func (c *Camera) Rotating() bool {
	return c.rotateTween != nil
}

// update advances the rotation tween. Called from Scene.UpdateDelta.
func (c *Camera) update(dt float32) {
	if c.rotateTween == nil {
		return
	}
	val, done := c.rotateTween.Update(dt)
	c.Azimuth = float64(val)
	if done {
		c.Azimuth = c.rotateTo
		c.rotateTween = nil
	}
}

func (c *Camera) clamp() {
	if c.MaxPolar > c.MinPolar {
		c.Polar = math.Max(c.MinPolar, math.Min(c.Polar, c.MaxPolar))
	}
	if c.MaxDistance > c.MinDistance {
		c.Distance = math.Max(c.MinDistance, math.Min(c.Distance, c.MaxDistance))
	}
}

// Position returns the eye position in world space.
func (c *Camera) Position() Vec3 {
	sp := math.Sin(c.Polar)
	return c.Target.Add(Vec3{
		c.Distance * sp * math.Sin(c.Azimuth),
		c.Distance * math.Cos(c.Polar),
		c.Distance * sp * math.Cos(c.Azimuth),
	})
}

// Pose returns the eye position and unit view direction.
func (c *Camera) Pose() CameraPose {
	pos := c.Position()
	return CameraPose{Position: pos, Forward: safeNormalize(c.Target.Sub(pos), Vec3{0, 0, -1})}
}

// ViewProjection returns the combined matrix for a viewport aspect ratio.
func (c *Camera) ViewProjection(aspect float64) mgl64.Mat4 {
	view := mgl64.LookAtV(c.Position(), c.Target, Vec3{0, 1, 0})
	proj := mgl64.Perspective(mgl64.DegToRad(c.FOV), aspect, 0.1, 200)
	return proj.Mul4(view)
}

// Project maps a world point to screen pixels in a w x h viewport. depth is
// the clip-space w (distance along the view axis); ok is false behind the
// camera.
func (c *Camera) Project(p Vec3, w, h float64) (sx, sy, depth float64, ok bool) {
	if w <= 0 || h <= 0 {
		return 0, 0, 0, false
	}
	return projectWith(c.ViewProjection(w/h), p, w, h)
}

func projectWith(vp mgl64.Mat4, p Vec3, w, h float64) (sx, sy, depth float64, ok bool) {
	clip := vp.Mul4x1(p.Vec4(1))
	if clip.W() <= 1e-6 {
		return 0, 0, 0, false
	}
	nx := clip.X() / clip.W()
	ny := clip.Y() / clip.W()
	sx = (nx + 1) / 2 * w
	sy = (1 - ny) / 2 * h
	return sx, sy, clip.W(), true
}
