package tinsel

import (
	"testing"
	"time"
)

func newTestController(cooldown time.Duration) (*Controller, *[]TransitionEvent) {
	cfg := DefaultConfig().Gesture
	cfg.Cooldown = cooldown
	c := NewController(StateTree, cfg)
	var events []TransitionEvent
	c.OnTransition(func(ev TransitionEvent) { events = append(events, ev) })
	return c, &events
}

func TestGestureEdgesTrigger(t *testing.T) {
	c, events := newTestController(0)
	ms := time.Millisecond

	c.HandleGesture(0, GestureFist) // already a tree
	c.HandleGesture(10*ms, GestureOpenPalm)
	c.HandleGesture(20*ms, GestureOpenPalm) // held, no re-fire
	c.HandleGesture(30*ms, GestureFist)
	c.HandleGesture(40*ms, GestureFist)

	if len(*events) != 2 {
		t.Fatalf("transitions = %d, want 2: %+v", len(*events), *events)
	}
	first := (*events)[0]
	if first.From != StateTree || first.To != StateExploding || first.Cause != CauseGesture || first.Gesture != GestureOpenPalm {
		t.Errorf("first transition = %+v", first)
	}
	if c.State() != StateTree {
		t.Errorf("State = %s", c.State())
	}
}

func TestCooldownLeavesEdgePending(t *testing.T) {
	c, events := newTestController(time.Second)

	c.HandleGesture(0, GestureOpenPalm)
	c.HandleGesture(500*time.Millisecond, GestureFist)
	if c.State() != StateExploding {
		t.Fatalf("FIST during cooldown changed state to %s", c.State())
	}
	c.HandleGesture(1200*time.Millisecond, GestureFist)
	if c.State() != StateTree {
		t.Errorf("held FIST after cooldown: State = %s, want TREE_SHAPE", c.State())
	}
	if len(*events) != 2 {
		t.Errorf("transitions = %d, want 2", len(*events))
	}
}

func TestOpenPalmPolicy(t *testing.T) {
	c, _ := newTestController(0)
	c.SetState(StatePhotoView)
	c.HandleGesture(0, GestureOpenPalm)
	if c.State() != StatePhotoView {
		t.Errorf("OPEN_PALM from photo view with tree policy moved to %s", c.State())
	}

	c.SetPolicy(OpenPalmFromAny)
	if c.Policy() != OpenPalmFromAny {
		t.Fatal("SetPolicy did not apply")
	}
	c.HandleGesture(1, GestureNone)
	c.HandleGesture(2, GestureOpenPalm)
	if c.State() != StateExploding {
		t.Errorf("OPEN_PALM with any policy: State = %s", c.State())
	}
}

func TestPinchEntersThenCyclesPhotos(t *testing.T) {
	c, _ := newTestController(0)
	next := 0
	c.OnNextPhoto(func() { next++ })

	c.HandleGesture(0, GesturePinch)
	if c.State() != StatePhotoView || next != 0 {
		t.Fatalf("first PINCH: State = %s next = %d", c.State(), next)
	}
	c.HandleGesture(1, GestureNone)
	c.HandleGesture(2, GesturePinch)
	c.HandleGesture(3, GestureNone)
	c.HandleGesture(4, GesturePinch)
	if next != 2 || c.State() != StatePhotoView {
		t.Errorf("next = %d State = %s, want 2 in photo view", next, c.State())
	}
}

func TestHandMotionRotatesOnlyWhenAllowed(t *testing.T) {
	c, _ := newTestController(0)
	var deltas []float64
	c.OnRotate(func(d float64) { deltas = append(deltas, d) })

	c.HandleHand(0.5)
	c.HandleHand(0.6)
	if len(deltas) != 0 {
		t.Fatalf("rotated while assembled: %v", deltas)
	}

	c.SetState(StateExploding)
	c.HandleHand(0.7)
	c.HandleHand(0.705) // under threshold
	if len(deltas) != 1 {
		t.Fatalf("deltas = %v, want one", deltas)
	}
	assertNear(t, "delta", deltas[0], 0.1*c.cfg.RotateGain)

	c.LoseHand()
	c.HandleHand(0.2)
	if len(deltas) != 1 {
		t.Errorf("reacquired hand produced a jump: %v", deltas)
	}
	c.HandleHand(0.25)
	if len(deltas) != 2 {
		t.Errorf("deltas = %v, want two", deltas)
	}
}

func TestSetStateAndSettle(t *testing.T) {
	c, events := newTestController(time.Hour)
	if c.SetState(StateTree) {
		t.Error("SetState to the current state reported a change")
	}
	if c.settle() {
		t.Error("settle outside REASSEMBLING")
	}
	c.SetState(StateReassembling)
	if !c.settle() || c.State() != StateTree {
		t.Errorf("settle: State = %s", c.State())
	}
	last := (*events)[len(*events)-1]
	if last.Cause != CauseSettled {
		t.Errorf("cause = %v, want CauseSettled", last.Cause)
	}
}

func TestCallbackRemove(t *testing.T) {
	c, _ := newTestController(0)
	calls := 0
	h := c.OnTransition(func(TransitionEvent) { calls++ })
	var gestures []Gesture
	c.OnGesture(func(g Gesture) { gestures = append(gestures, g) })

	c.SetState(StateExploding)
	h.Remove()
	c.SetState(StateTree)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	CallbackHandle{}.Remove() // zero handle is a no-op

	c.HandleGesture(0, GestureFist)
	c.HandleGesture(0, GestureFist)
	if len(gestures) != 1 || gestures[0] != GestureFist {
		t.Errorf("gestures = %v", gestures)
	}
}

func TestOpenPalmPolicyText(t *testing.T) {
	var p OpenPalmPolicy
	if err := p.UnmarshalText([]byte("any")); err != nil || p != OpenPalmFromAny {
		t.Errorf("UnmarshalText = %v, %v", p, err)
	}
	if err := p.UnmarshalText([]byte("never")); err == nil {
		t.Error("expected error for unknown policy")
	}
}
