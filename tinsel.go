package tinsel

import (
	"fmt"
	"image/color"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// Vec3 is a 3D vector used for positions, velocities and directions
// throughout the API. Y is up.
type Vec3 = mgl64.Vec3

// Euler is a rotation expressed as three angles in radians, applied X then Y
// then Z by presentation layers.
type Euler struct {
	X, Y, Z float64
}

// Add returns the rotation advanced by the angular velocity w over dt seconds.
func (e Euler) Add(w Vec3, dt float64) Euler {
	return Euler{e.X + w.X()*dt, e.Y + w.Y()*dt, e.Z + w.Z()*dt}
}

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at render submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// toRGBA converts to a premultiplied color.RGBA.
func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// hexColor builds an opaque Color from a 0xRRGGBB literal.
func hexColor(v uint32) Color {
	return Color{
		R: float64((v>>16)&0xff) / 255,
		G: float64((v>>8)&0xff) / 255,
		B: float64(v&0xff) / 255,
		A: 1,
	}
}

// Palette colors shared by generation and the presentation layers.
var (
	ColorEmeraldDeep    = hexColor(0x004225)
	ColorEmeraldLight   = hexColor(0x006B3C)
	ColorGoldMetallic   = hexColor(0xFFD700)
	ColorSilverMetallic = hexColor(0xC0C0C0)
	ColorRedRibbon      = hexColor(0x8A0303)
	ColorGreenRibbon    = hexColor(0x006B3C)
	ColorWarmWhite      = hexColor(0xFFFDD0)
	ColorBackground     = hexColor(0x000804)
)

// Range is a general-purpose min/max range.
type Range struct {
	Min, Max float64
}

// Random returns a random float64 in [Min, Max] drawn from rng.
func (r Range) Random(rng *rand.Rand) float64 {
	if r.Min == r.Max {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// BlendMode selects a compositing operation. Each maps to a specific ebiten.Blend value.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                     // additive / lighter
)

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendAdd:
		return ebiten.BlendLighter
	default:
		return ebiten.BlendSourceOver
	}
}

// SceneState is the mode governing how every particle moves this tick.
type SceneState uint8

const (
	StateTree         SceneState = iota // assembled on the cone
	StateExploding                      // burst outward, drifting
	StateReassembling                   // springing back to targets
	StatePhotoView                      // one photo pulled in front of the camera
)

var sceneStateNames = [...]string{"TREE_SHAPE", "EXPLODING", "REASSEMBLING", "PHOTO_VIEW"}

func (s SceneState) String() string {
	if int(s) < len(sceneStateNames) {
		return sceneStateNames[s]
	}
	return fmt.Sprintf("SceneState(%d)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s SceneState) MarshalText() ([]byte, error) {
	if int(s) >= len(sceneStateNames) {
		return nil, fmt.Errorf("invalid scene state %d", s)
	}
	return []byte(sceneStateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SceneState) UnmarshalText(b []byte) error {
	v, err := ParseSceneState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSceneState accepts the canonical upper-case names and a few short
// aliases ("tree", "explode", "reassemble", "photo").
func ParseSceneState(name string) (SceneState, error) {
	switch name {
	case "TREE_SHAPE", "tree":
		return StateTree, nil
	case "EXPLODING", "explode":
		return StateExploding, nil
	case "REASSEMBLING", "reassemble":
		return StateReassembling, nil
	case "PHOTO_VIEW", "photo":
		return StatePhotoView, nil
	}
	return 0, fmt.Errorf("unknown scene state %q", name)
}

// ParticleType is the closed set of particle variants. It selects the
// presentation layer that draws a particle and its default mass.
type ParticleType uint8

const (
	ParticleLeaf ParticleType = iota
	ParticleOrnamentBall
	ParticleOrnamentGift
	ParticleLight
	ParticleCane
	ParticlePhoto

	particleTypeCount = int(ParticlePhoto) + 1
)

var particleTypeNames = [...]string{"leaf", "ornament_ball", "ornament_gift", "light", "cane", "photo"}

func (t ParticleType) String() string {
	if int(t) < len(particleTypeNames) {
		return particleTypeNames[t]
	}
	return fmt.Sprintf("ParticleType(%d)", t)
}

// Mass returns the default mass for the type. Heavier particles return to
// their targets more slowly.
func (t ParticleType) Mass() float64 {
	switch t {
	case ParticleLeaf:
		return 0.1
	case ParticleOrnamentBall:
		return 1.0
	case ParticleOrnamentGift:
		return 2.0
	case ParticleLight:
		return 0.05
	case ParticleCane:
		return 0.5
	case ParticlePhoto:
		return 1.5
	default:
		return 1.0
	}
}

// BlendMode returns how the type composites. Foliage and lights glow.
func (t ParticleType) BlendMode() BlendMode {
	switch t {
	case ParticleLeaf, ParticleLight:
		return BlendAdd
	case ParticleOrnamentBall, ParticleOrnamentGift, ParticleCane, ParticlePhoto:
		return BlendNormal
	default:
		return BlendNormal
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
