package tinsel

import "math"

// Star topper motion constants.
const (
	topperSpin     = 0.5  // rad/s
	topperPulse    = 0.1  // scale amplitude
	topperPulseHz  = 3.0  // rad/s of the pulse
	topperLiftMax  = 5.0  // world units while exploding
	topperLiftLerp = 0.05 // per tick
)

// Topper is the star above the tree apex. It is pure presentation state and
// never enters the particle store.
type Topper struct {
	// Rotation is the spin around Y in radians.
	Rotation float64
	// Scale is the pulsing display scale.
	Scale float64
	// Lift is the vertical offset above the apex.
	Lift float64
}

func newTopper() Topper {
	return Topper{Scale: 1}
}

// update advances spin and pulse by the scene clock and eases the lift toward
// its state-dependent goal.
func (t *Topper) update(state SceneState, elapsed, dt float64) {
	t.Rotation = math.Mod(t.Rotation+dt*topperSpin, 2*math.Pi)
	t.Scale = 1 + topperPulse*math.Sin(elapsed*topperPulseHz)
	goal := 0.0
	if state == StateExploding {
		goal = topperLiftMax
	}
	t.Lift += (goal - t.Lift) * topperLiftLerp
}

// Position returns the topper's local position for a tree config.
func (t Topper) Position(tree TreeConfig) Vec3 {
	return Vec3{0, tree.Height*(1-coneBaseOffset) + t.Lift, 0}
}
