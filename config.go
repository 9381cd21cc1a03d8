package tinsel

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config aggregates every tunable of a scene. Start from DefaultConfig and
// override fields, or load a YAML file with LoadConfig.
type Config struct {
	// Seed fixes the random source. Zero picks a time-based seed.
	Seed    uint64        `yaml:"seed"`
	Tree    TreeConfig    `yaml:"tree"`
	Physics PhysicsConfig `yaml:"physics"`
	Gesture GestureConfig `yaml:"gesture"`
	Photos  PhotoConfig   `yaml:"photos"`
	Camera  CameraConfig  `yaml:"camera"`
	Snow    SnowConfig    `yaml:"snow"`
}

// TreeConfig describes the cone and how many particles of each type fill it.
type TreeConfig struct {
	Height     float64 `yaml:"height"`
	Radius     float64 `yaml:"radius"`
	LeafCount  int     `yaml:"leafCount"`
	BallCount  int     `yaml:"ballCount"`
	GiftCount  int     `yaml:"giftCount"`
	LightCount int     `yaml:"lightCount"`
	CaneCount  int     `yaml:"caneCount"`
	// Surface selects the cone surface sampler for balls, lights and canes.
	Surface SurfaceSampler `yaml:"surface"`
	// GiftRing is the annulus around the base where gifts are placed, as a
	// fraction of Radius.
	GiftRing Range `yaml:"giftRing"`
	// TopperClearance keeps particles this far below the topper ornament.
	TopperClearance float64 `yaml:"topperClearance"`
	// GroupOffsetY is the vertical offset of the tree group in world space.
	GroupOffsetY float64 `yaml:"groupOffsetY"`
}

// MaxY is the highest target position a particle may take.
func (c TreeConfig) MaxY() float64 {
	return c.Height*(1-coneBaseOffset) - c.TopperClearance
}

// PhysicsConfig holds the simulation constants.
type PhysicsConfig struct {
	// MaxDelta clamps the per-frame time step in seconds.
	MaxDelta float64 `yaml:"maxDelta"`
	// ExplosionForce is the outward impulse magnitude before the per-particle
	// [0.5, 1] factor.
	ExplosionForce float64 `yaml:"explosionForce"`
	// ExplosionJitter scales the random vector added to the burst direction.
	ExplosionJitter float64 `yaml:"explosionJitter"`
	// RotationBurst scales the random angular velocity given on burst.
	RotationBurst float64 `yaml:"rotationBurst"`
	// Damping multiplies velocity each tick while exploding.
	Damping float64 `yaml:"damping"`
	// RotationDamping multiplies angular velocity each tick while exploding.
	RotationDamping float64 `yaml:"rotationDamping"`
	// ReassembleSpeed is the spring lerp factor for a particle of mass 1.
	ReassembleSpeed float64 `yaml:"reassembleSpeed"`
	// SnapEpsilon is the distance under which a particle snaps to its target.
	SnapEpsilon float64 `yaml:"snapEpsilon"`
	// GravityDrift is the amplitude of the floating bob once slow.
	GravityDrift float64 `yaml:"gravityDrift"`
	// FloatThreshold is the speed under which the floating bob kicks in.
	FloatThreshold float64 `yaml:"floatThreshold"`
	// AutoRotateSpeed is the group rotation in radians per second while
	// assembled.
	AutoRotateSpeed float64 `yaml:"autoRotateSpeed"`
	// ClearanceRadius keeps non-photo particles out of the focal area in
	// photo view.
	ClearanceRadius float64 `yaml:"clearanceRadius"`
	// ClearancePush is the outward nudge speed inside ClearanceRadius.
	ClearancePush float64 `yaml:"clearancePush"`
}

// GestureConfig tunes recognition, stabilization and the controller.
type GestureConfig struct {
	// Enabled turns the webcam gesture channel on.
	Enabled bool `yaml:"enabled"`
	// PinchThreshold is the thumb-tip to index-tip distance for PINCH.
	PinchThreshold float64 `yaml:"pinchThreshold"`
	// ExtendRatio is how much farther than its knuckle a fingertip must be
	// from the wrist to count as extended.
	ExtendRatio float64 `yaml:"extendRatio"`
	// MinFingers is how many of the four fingers must agree for FIST or
	// OPEN_PALM.
	MinFingers int `yaml:"minFingers"`
	// History is the stabilizer window length.
	History int `yaml:"history"`
	// Interval throttles detection independent of the frame rate.
	Interval time.Duration `yaml:"interval"`
	// Cooldown blocks gesture-driven state changes after one fires.
	Cooldown time.Duration `yaml:"cooldown"`
	// RotateThreshold is the minimum horizontal hand movement per sample.
	RotateThreshold float64 `yaml:"rotateThreshold"`
	// RotateGain converts hand movement into camera azimuth. Negative
	// inverts so the scene follows the hand.
	RotateGain float64 `yaml:"rotateGain"`
	// RotateStates lists the states in which hand motion rotates the camera.
	RotateStates []SceneState `yaml:"rotateStates"`
	// OpenPalm decides where OPEN_PALM may trigger an explosion from.
	OpenPalm OpenPalmPolicy `yaml:"openPalm"`
	// TrackLandmark is the landmark whose X drives camera rotation.
	TrackLandmark int `yaml:"trackLandmark"`
	// KeepAlive keeps the detector open across Stop/Start cycles.
	KeepAlive bool `yaml:"keepAlive"`
	// Capture is the requested camera stream.
	Capture CaptureConfig `yaml:"capture"`
}

// CaptureConfig is the camera stream requested from the detector.
type CaptureConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// PhotoConfig controls the pre-allocated photo slots and their spiral.
type PhotoConfig struct {
	// MaxSlots is the number of photo particles allocated up front.
	MaxSlots int `yaml:"maxSlots"`
	// HiddenY parks inactive slots far below the scene.
	HiddenY float64 `yaml:"hiddenY"`
	// SpiralTurns is how many times the spiral wraps the cone.
	SpiralTurns float64 `yaml:"spiralTurns"`
	// SpiralBottom and SpiralTop bound the spiral as fractions of Height.
	SpiralBottom float64 `yaml:"spiralBottom"`
	SpiralTop    float64 `yaml:"spiralTop"`
	// SpiralOffset pushes frames outside the foliage.
	SpiralOffset float64 `yaml:"spiralOffset"`
	// Focus selects which photo is pulled in front of the camera.
	Focus FocusPolicy `yaml:"focus"`
	// FocusDistance is how far in front of the camera the photo stops.
	FocusDistance float64 `yaml:"focusDistance"`
	// FocusLerp is the per-tick interpolation toward the focus point.
	FocusLerp float64 `yaml:"focusLerp"`
	// FocusScale is the display scale hint for the focused photo.
	FocusScale float64 `yaml:"focusScale"`
}

// CameraConfig places the orbit camera.
type CameraConfig struct {
	Position    Vec3    `yaml:"position"`
	Target      Vec3    `yaml:"target"`
	FOV         float64 `yaml:"fov"`
	MinPolar    float64 `yaml:"minPolar"`
	MaxPolar    float64 `yaml:"maxPolar"`
	MinDistance float64 `yaml:"minDistance"`
	MaxDistance float64 `yaml:"maxDistance"`
	// RotateDuration eases gesture rotation deltas, in seconds.
	RotateDuration float64 `yaml:"rotateDuration"`
}

// SnowConfig sizes the background snowfall.
type SnowConfig struct {
	Count  int     `yaml:"count"`
	Extent float64 `yaml:"extent"`
}

// DefaultConfig returns the stock scene.
func DefaultConfig() Config {
	return Config{
		Tree: TreeConfig{
			Height:          14,
			Radius:          5,
			LeafCount:       4000,
			BallCount:       120,
			GiftCount:       25,
			LightCount:      200,
			CaneCount:       40,
			Surface:         SurfaceUniform,
			GiftRing:        Range{Min: 0.3, Max: 1.2},
			TopperClearance: 0.6,
			GroupOffsetY:    -2,
		},
		Physics: PhysicsConfig{
			MaxDelta:        0.1,
			ExplosionForce:  25,
			ExplosionJitter: 0.5,
			RotationBurst:   10,
			Damping:         0.96,
			RotationDamping: 0.98,
			ReassembleSpeed: 0.04,
			SnapEpsilon:     0.01,
			GravityDrift:    0.02,
			FloatThreshold:  0.5,
			AutoRotateSpeed: 0.1,
			ClearanceRadius: 3,
			ClearancePush:   2,
		},
		Gesture: GestureConfig{
			Enabled:         true,
			PinchThreshold:  0.05,
			ExtendRatio:     1.5,
			MinFingers:      3,
			History:         4,
			Interval:        60 * time.Millisecond,
			Cooldown:        time.Second,
			RotateThreshold: 0.01,
			RotateGain:      -3,
			RotateStates:    []SceneState{StateExploding},
			OpenPalm:        OpenPalmFromTree,
			TrackLandmark:   MiddleMCP,
			KeepAlive:       true,
			Capture:         CaptureConfig{Width: 320, Height: 240, FPS: 30},
		},
		Photos: PhotoConfig{
			MaxSlots:      24,
			HiddenY:       -100,
			SpiralTurns:   3,
			SpiralBottom:  0.1,
			SpiralTop:     0.8,
			SpiralOffset:  0.6,
			Focus:         FocusByIndex,
			FocusDistance: 8,
			FocusLerp:     0.1,
			FocusScale:    3,
		},
		Camera: CameraConfig{
			Position:       Vec3{0, 4, 18},
			FOV:            45,
			MinPolar:       math.Pi / 4,
			MaxPolar:       math.Pi / 1.8,
			MinDistance:    10,
			MaxDistance:    30,
			RotateDuration: 0.25,
		},
		Snow: SnowConfig{Count: 2500, Extent: 100},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
// Fields absent from the document keep their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent field.
func (c Config) Validate() error {
	switch {
	case c.Tree.Height <= 0 || c.Tree.Radius <= 0:
		return fmt.Errorf("%w: tree height and radius must be positive", ErrInvalidConfig)
	case c.Tree.LeafCount < 0 || c.Tree.BallCount < 0 || c.Tree.GiftCount < 0 ||
		c.Tree.LightCount < 0 || c.Tree.CaneCount < 0:
		return fmt.Errorf("%w: particle counts must not be negative", ErrInvalidConfig)
	case c.Tree.GiftRing.Min < 0 || c.Tree.GiftRing.Max <= 0 || c.Tree.GiftRing.Max < c.Tree.GiftRing.Min:
		return fmt.Errorf("%w: tree.giftRing must be a positive range", ErrInvalidConfig)
	case c.Physics.MaxDelta <= 0:
		return fmt.Errorf("%w: physics.maxDelta must be positive", ErrInvalidConfig)
	case c.Physics.Damping <= 0 || c.Physics.Damping >= 1:
		return fmt.Errorf("%w: physics.damping must be in (0, 1)", ErrInvalidConfig)
	case c.Physics.RotationDamping <= 0 || c.Physics.RotationDamping >= 1:
		return fmt.Errorf("%w: physics.rotationDamping must be in (0, 1)", ErrInvalidConfig)
	case c.Physics.ReassembleSpeed <= 0 || c.Physics.ReassembleSpeed > 1:
		return fmt.Errorf("%w: physics.reassembleSpeed must be in (0, 1]", ErrInvalidConfig)
	case c.Physics.SnapEpsilon <= 0:
		return fmt.Errorf("%w: physics.snapEpsilon must be positive", ErrInvalidConfig)
	case c.Gesture.History < 1:
		return fmt.Errorf("%w: gesture.history must be at least 1", ErrInvalidConfig)
	case c.Gesture.MinFingers < 1 || c.Gesture.MinFingers > 4:
		return fmt.Errorf("%w: gesture.minFingers must be in [1, 4]", ErrInvalidConfig)
	case c.Gesture.ExtendRatio <= 0:
		return fmt.Errorf("%w: gesture.extendRatio must be positive", ErrInvalidConfig)
	case c.Gesture.TrackLandmark < 0 || c.Gesture.TrackLandmark >= LandmarkCount:
		return fmt.Errorf("%w: gesture.trackLandmark out of range", ErrInvalidConfig)
	case c.Gesture.Interval < 0 || c.Gesture.Cooldown < 0:
		return fmt.Errorf("%w: gesture durations must not be negative", ErrInvalidConfig)
	case c.Photos.MaxSlots < 0:
		return fmt.Errorf("%w: photos.maxSlots must not be negative", ErrInvalidConfig)
	case c.Photos.SpiralTop <= c.Photos.SpiralBottom:
		return fmt.Errorf("%w: photos.spiralTop must be above spiralBottom", ErrInvalidConfig)
	case c.Photos.FocusLerp <= 0 || c.Photos.FocusLerp > 1:
		return fmt.Errorf("%w: photos.focusLerp must be in (0, 1]", ErrInvalidConfig)
	case c.Photos.FocusScale <= 0:
		return fmt.Errorf("%w: photos.focusScale must be positive", ErrInvalidConfig)
	case c.Snow.Count < 0 || c.Snow.Extent <= 0:
		return fmt.Errorf("%w: snow.extent must be positive and snow.count not negative", ErrInvalidConfig)
	case c.Camera.FOV <= 0 || c.Camera.FOV >= 180:
		return fmt.Errorf("%w: camera.fov must be in (0, 180)", ErrInvalidConfig)
	}
	return nil
}
