package tinsel

import (
	"encoding/json"
	"fmt"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action  string  `json:"action"`
	Label   string  `json:"label,omitempty"`
	Gesture string  `json:"gesture,omitempty"`
	State   string  `json:"state,omitempty"`
	FromX   float64 `json:"fromX,omitempty"`
	ToX     float64 `json:"toX,omitempty"`
	Frames  int     `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

// TestRunner sequences injected hand frames, control-surface calls, state
// expectations and screenshots across frames. Attach to a Scene via
// SetTestRunner.
//
// Actions: "gesture" (gesture, frames), "move" (gesture, fromX, toX,
// frames), "nohand" (frames), "wait" (frames), "state" (state), "next",
// "expect" (state), "screenshot" (label).
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
	failures  []string
}

// LoadTestScript parses and validates a JSON test script and returns a
// TestRunner ready to be attached to a Scene via SetTestRunner.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("parse test script: step %d: %w", i, err)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

func (st testStep) validate() error {
	switch st.Action {
	case "gesture", "move":
		_, err := ParseGesture(st.Gesture)
		return err
	case "state", "expect":
		_, err := ParseSceneState(st.State)
		return err
	case "nohand", "wait", "next", "screenshot":
		return nil
	}
	return fmt.Errorf("unknown action %q", st.Action)
}

// SetTestRunner attaches a TestRunner to the scene. The runner's step method
// is called at the start of every Scene.Update.
func (s *Scene) SetTestRunner(runner *TestRunner) {
	s.testRunner = runner
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// Failures returns the mismatches recorded by "expect" steps.
func (r *TestRunner) Failures() []string {
	return r.failures
}

// step advances the test runner by one frame. Called from Scene.UpdateDelta.
func (r *TestRunner) step(s *Scene) {
	if r.done {
		return
	}
	// Wait for injected frames to drain before advancing.
	if s.gestures.Pending() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "gesture":
		g, _ := ParseGesture(st.Gesture)
		s.InjectGesture(g, st.Frames)
	case "move":
		g, _ := ParseGesture(st.Gesture)
		s.InjectHandMove(g, st.FromX, st.ToX, st.Frames)
	case "nohand":
		s.InjectNoHand(st.Frames)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "state":
		state, _ := ParseSceneState(st.State)
		s.SetState(state)
	case "next":
		s.NextPhoto()
	case "expect":
		want, _ := ParseSceneState(st.State)
		if got := s.State(); got != want {
			r.failures = append(r.failures, fmt.Sprintf("step %d: state = %s, want %s", r.cursor-1, got, want))
		}
	case "screenshot":
		s.Screenshot(st.Label)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && s.gestures.Pending() == 0 {
		r.done = true
	}
}
