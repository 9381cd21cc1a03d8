package tinsel

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// OpenPalmPolicy decides which states OPEN_PALM may explode from.
type OpenPalmPolicy uint8

const (
	// OpenPalmFromTree explodes only an assembled tree.
	OpenPalmFromTree OpenPalmPolicy = iota
	// OpenPalmFromAny explodes from every state except EXPLODING itself.
	OpenPalmFromAny
)

// MarshalText implements encoding.TextMarshaler.
func (p OpenPalmPolicy) MarshalText() ([]byte, error) {
	switch p {
	case OpenPalmFromTree:
		return []byte("tree"), nil
	case OpenPalmFromAny:
		return []byte("any"), nil
	}
	return nil, fmt.Errorf("invalid open palm policy %d", p)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *OpenPalmPolicy) UnmarshalText(b []byte) error {
	switch string(b) {
	case "tree":
		*p = OpenPalmFromTree
	case "any":
		*p = OpenPalmFromAny
	default:
		return fmt.Errorf("unknown open palm policy %q", b)
	}
	return nil
}

// TransitionCause records what changed the scene state.
type TransitionCause uint8

const (
	CauseControl TransitionCause = iota // explicit SetState from UI or keys
	CauseGesture                        // stable gesture edge
	CauseSettled                        // reassembly finished
)

// TransitionEvent is delivered to OnTransition callbacks.
type TransitionEvent struct {
	From, To SceneState
	Cause    TransitionCause
	// Gesture is set when Cause is CauseGesture.
	Gesture Gesture
}

// --- Handler registry ---

type transitionHandler struct {
	id uint32
	fn func(TransitionEvent)
}

type rotateHandler struct {
	id uint32
	fn func(delta float64)
}

type photoHandler struct {
	id uint32
	fn func()
}

type gestureHandler struct {
	id uint32
	fn func(Gesture)
}

type handlerRegistry struct {
	transition []transitionHandler
	rotate     []rotateHandler
	nextPhoto  []photoHandler
	gesture    []gestureHandler
	nextID     uint32
}

// CallbackHandle allows removing a registered controller callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event uint8
}

const (
	handleTransition uint8 = iota
	handleRotate
	handleNextPhoto
	handleGesture
)

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.event {
	case handleTransition:
		h.reg.transition = slices.DeleteFunc(h.reg.transition, func(e transitionHandler) bool { return e.id == h.id })
	case handleRotate:
		h.reg.rotate = slices.DeleteFunc(h.reg.rotate, func(e rotateHandler) bool { return e.id == h.id })
	case handleNextPhoto:
		h.reg.nextPhoto = slices.DeleteFunc(h.reg.nextPhoto, func(e photoHandler) bool { return e.id == h.id })
	case handleGesture:
		h.reg.gesture = slices.DeleteFunc(h.reg.gesture, func(e gestureHandler) bool { return e.id == h.id })
	}
}

// Controller is the scene state machine. It maps stable gesture edges and
// hand motion to state transitions, photo cycling and camera rotation, and
// accepts explicit state changes from the control surface.
type Controller struct {
	cfg   GestureConfig
	state SceneState

	lastStable    Gesture
	cooldownUntil time.Duration

	handX    float64
	hasHandX bool

	handlers handlerRegistry
}

// NewController creates a controller in the initial state.
func NewController(initial SceneState, cfg GestureConfig) *Controller {
	return &Controller{cfg: cfg, state: initial}
}

// State returns the current scene state.
func (c *Controller) State() SceneState {
	return c.state
}

// Policy returns the OPEN_PALM policy in effect.
func (c *Controller) Policy() OpenPalmPolicy {
	return c.cfg.OpenPalm
}

// SetPolicy changes the OPEN_PALM policy.
func (c *Controller) SetPolicy(p OpenPalmPolicy) {
	c.cfg.OpenPalm = p
}

// SetState changes state from the control surface. It reports whether the
// state changed. Control changes ignore the gesture cooldown.
func (c *Controller) SetState(s SceneState) bool {
	return c.transition(s, CauseControl, GestureNone)
}

// settle promotes REASSEMBLING to TREE_SHAPE once every particle is home.
func (c *Controller) settle() bool {
	if c.state != StateReassembling {
		return false
	}
	return c.transition(StateTree, CauseSettled, GestureNone)
}

func (c *Controller) transition(to SceneState, cause TransitionCause, g Gesture) bool {
	if c.state == to {
		return false
	}
	ev := TransitionEvent{From: c.state, To: to, Cause: cause, Gesture: g}
	c.state = to
	for _, h := range c.handlers.transition {
		h.fn(ev)
	}
	return true
}

// HandleGesture acts on a stable gesture sampled at now, a monotonic offset.
// Only a change of stable gesture acts; holding a gesture never re-fires.
// During the cooldown the edge is left pending so a gesture still held when
// the cooldown ends takes effect then.
func (c *Controller) HandleGesture(now time.Duration, stable Gesture) {
	if stable == c.lastStable {
		return
	}
	if now < c.cooldownUntil {
		return
	}
	c.lastStable = stable
	for _, h := range c.handlers.gesture {
		h.fn(stable)
	}

	fired := false
	switch stable {
	case GestureFist:
		fired = c.transition(StateTree, CauseGesture, stable)
	case GestureOpenPalm:
		if c.cfg.OpenPalm == OpenPalmFromAny || c.state == StateTree {
			fired = c.transition(StateExploding, CauseGesture, stable)
		}
	case GesturePinch:
		if c.state == StatePhotoView {
			c.NextPhoto()
			fired = true
		} else {
			fired = c.transition(StatePhotoView, CauseGesture, stable)
		}
	case GestureNone:
	}
	if fired {
		c.cooldownUntil = now + c.cfg.Cooldown
	}
}

// HandleHand tracks the horizontal hand position and emits a camera
// rotation when it moved more than the threshold since the last sample.
func (c *Controller) HandleHand(x float64) {
	if c.hasHandX {
		delta := x - c.handX
		if math.Abs(delta) > c.cfg.RotateThreshold && slices.Contains(c.cfg.RotateStates, c.state) {
			d := delta * c.cfg.RotateGain
			for _, h := range c.handlers.rotate {
				h.fn(d)
			}
		}
	}
	c.handX = x
	c.hasHandX = true
}

// LoseHand drops the horizontal baseline so reacquiring the hand does not
// produce a jump.
func (c *Controller) LoseHand() {
	c.hasHandX = false
}

// OnTransition registers a callback for every state change.
func (c *Controller) OnTransition(fn func(TransitionEvent)) CallbackHandle {
	c.handlers.nextID++
	id := c.handlers.nextID
	c.handlers.transition = append(c.handlers.transition, transitionHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &c.handlers, event: handleTransition}
}

// OnRotate registers a callback for camera azimuth deltas in radians.
func (c *Controller) OnRotate(fn func(delta float64)) CallbackHandle {
	c.handlers.nextID++
	id := c.handlers.nextID
	c.handlers.rotate = append(c.handlers.rotate, rotateHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &c.handlers, event: handleRotate}
}

// NextPhoto runs the next-photo callbacks. PINCH in photo view and the
// control surface both go through it.
func (c *Controller) NextPhoto() {
	for _, h := range c.handlers.nextPhoto {
		h.fn()
	}
}

// OnNextPhoto registers a callback for every NextPhoto, including PINCH
// while already in photo view.
func (c *Controller) OnNextPhoto(fn func()) CallbackHandle {
	c.handlers.nextID++
	id := c.handlers.nextID
	c.handlers.nextPhoto = append(c.handlers.nextPhoto, photoHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &c.handlers, event: handleNextPhoto}
}

// OnGesture registers a callback for every acted-on stable gesture change.
func (c *Controller) OnGesture(fn func(Gesture)) CallbackHandle {
	c.handlers.nextID++
	id := c.handlers.nextID
	c.handlers.gesture = append(c.handlers.gesture, gestureHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &c.handlers, event: handleGesture}
}
