package tinsel

import (
	"testing"
	"time"
)

type recordingStore struct {
	events []SceneEvent
}

func (r *recordingStore) EmitEvent(ev SceneEvent) {
	r.events = append(r.events, ev)
}

func (r *recordingStore) count(typ SceneEventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func runFrames(s *Scene, n int) {
	for range n {
		s.UpdateDelta(tick)
	}
}

func TestNewSceneStartsAssembled(t *testing.T) {
	s := newTestScene(t)
	if s.State() != StateTree {
		t.Errorf("State = %s", s.State())
	}
	if s.Focused() != -1 || s.PhotoIndex() != 0 {
		t.Error("no photo should be focused")
	}
	s.UpdateDelta(tick)
	if s.lastStats.Moving != 0 {
		t.Errorf("Moving = %d on an assembled tree", s.lastStats.Moving)
	}
	if s.GroupRotation() <= 0 {
		t.Error("tree should auto-rotate")
	}
	if s.Elapsed() <= 0 {
		t.Error("clock did not advance")
	}
}

func TestSceneSeedIsDeterministic(t *testing.T) {
	a, b := newTestScene(t), newTestScene(t)
	for i := range a.View().Len() {
		if a.View().At(i).TargetPos != b.View().At(i).TargetPos {
			t.Fatalf("particle %d differs for the same seed", i)
		}
	}
}

func TestInjectedGestureExplodesAndReassembles(t *testing.T) {
	s := newTestScene(t)
	rec := &recordingStore{}
	s.SetEntityStore(rec)

	s.InjectGesture(GestureOpenPalm, 4)
	runFrames(s, 4)
	if s.State() != StateExploding {
		t.Fatalf("State = %s after OPEN_PALM", s.State())
	}
	runFrames(s, 30)

	leaf := s.View().Indices(ParticleLeaf)[0]
	p := s.View().At(leaf)
	if p.CurrentPos.Sub(p.TargetPos).Len() < 1 {
		t.Errorf("leaf only moved %v while exploding", p.CurrentPos.Sub(p.TargetPos).Len())
	}
	if s.Topper().Lift <= 0 {
		t.Error("topper should lift while exploding")
	}

	s.SetState(StateReassembling)
	for range 3000 {
		s.UpdateDelta(tick)
		if s.State() == StateTree {
			break
		}
	}
	if s.State() != StateTree {
		t.Fatalf("reassembly never settled, State = %s", s.State())
	}
	for i := range s.View().Len() {
		if p := s.View().At(i); p.CurrentPos != p.TargetPos {
			t.Fatalf("particle %d not home after settling", i)
		}
	}

	if rec.count(EventTransition) != 3 {
		t.Errorf("transition events = %d, want 3", rec.count(EventTransition))
	}
	if rec.count(EventGesture) != 1 {
		t.Errorf("gesture events = %d, want 1", rec.count(EventGesture))
	}
}

func TestFistReturnsToTree(t *testing.T) {
	s := newTestScene(t)
	s.SetState(StateExploding)
	runFrames(s, 10)
	s.InjectGesture(GestureFist, 4)
	runFrames(s, 4)
	if s.State() != StateTree {
		t.Errorf("State = %s after FIST", s.State())
	}
}

func TestHandMoveRotatesCamera(t *testing.T) {
	s := newTestScene(t)
	rec := &recordingStore{}
	s.SetEntityStore(rec)
	s.SetState(StateExploding)

	before := s.Camera().Azimuth
	s.InjectHandMove(GestureNone, 0.3, 0.7, 5)
	runFrames(s, 40)
	if s.Camera().Azimuth == before {
		t.Error("camera did not rotate with the hand")
	}
	if rec.count(EventRotate) == 0 {
		t.Error("no rotate events")
	}

	s.SetState(StateTree)
	before = s.Camera().Azimuth
	s.InjectHandMove(GestureNone, 0.3, 0.7, 5)
	runFrames(s, 40)
	if s.Camera().Azimuth != before {
		t.Error("camera rotated while assembled")
	}
}

func TestScenePhotosAndFocus(t *testing.T) {
	s := newTestScene(t)
	rec := &recordingStore{}
	s.SetEntityStore(rec)

	if n := s.SetPhotos(testTextures(3)); n != 3 {
		t.Fatalf("SetPhotos = %d", n)
	}
	s.InjectGesture(GesturePinch, 4)
	runFrames(s, 4)
	if s.State() != StatePhotoView {
		t.Fatalf("State = %s after PINCH", s.State())
	}
	active := s.store.ActivePhotos()
	if s.Focused() != active[0] {
		t.Errorf("Focused = %d, want %d", s.Focused(), active[0])
	}

	runFrames(s, 60)
	assertNear(t, "focus scale", s.PhotoScale(active[0]), s.Config().Photos.FocusScale)
	assertNear(t, "other scale", s.PhotoScale(active[1]), 1)

	s.NextPhoto()
	s.UpdateDelta(tick)
	if s.PhotoIndex() != 1 || s.Focused() != active[1] {
		t.Errorf("after NextPhoto index %d focused %d", s.PhotoIndex(), s.Focused())
	}
	assertNear(t, "restarted scale", s.PhotoScale(active[1]), s.focusScale)
	if s.focusScale >= s.Config().Photos.FocusScale {
		t.Error("new focus should ease up from 1")
	}

	s.NextPhoto()
	s.NextPhoto()
	if s.PhotoIndex() != 0 {
		t.Errorf("PhotoIndex = %d, want wrap to 0", s.PhotoIndex())
	}

	s.NextPhoto()
	s.SetPhotos(testTextures(1))
	if s.PhotoIndex() != 0 {
		t.Errorf("PhotoIndex = %d after shrinking photos", s.PhotoIndex())
	}
	if rec.count(EventPhotos) != 2 || rec.count(EventNextPhoto) != 4 {
		t.Errorf("photo events = %d, next events = %d", rec.count(EventPhotos), rec.count(EventNextPhoto))
	}
}

func TestSceneFocusPolicy(t *testing.T) {
	s := newTestScene(t)
	s.SetPhotos(testTextures(2))
	s.SetFocusPolicy(FocusMostRecent)
	s.SetPhotos(testTextures(3))
	s.SetState(StatePhotoView)
	s.UpdateDelta(tick)
	if want := s.store.ActivePhotos()[2]; s.Focused() != want {
		t.Errorf("Focused = %d, want newest %d", s.Focused(), want)
	}
}

func TestSceneWithoutGestureDetector(t *testing.T) {
	s := newTestScene(t)
	if err := s.StartGestures(t.Context()); err == nil {
		t.Error("expected ErrNoDetector")
	}
	s.StopGestures()
	if err := s.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}

func TestSceneSetDetector(t *testing.T) {
	s := newTestScene(t)
	det := &fakeDetector{frame: func(time.Duration) []Landmark { return SyntheticHand(GestureOpenPalm, 0.5) }}
	op := &fakeOpener{det: det}
	s.SetDetector(op.open)
	if err := s.StartGestures(t.Context()); err != nil {
		t.Fatal(err)
	}
	stepUntil(t, s.Gestures(), func() bool { return s.State() == StateExploding })
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, closed := det.counts(); closed != 1 {
		t.Errorf("closed = %d", closed)
	}
}

func TestSceneDebugMode(t *testing.T) {
	s := newTestScene(t)
	s.SetDebugMode(true)
	if !s.debug {
		t.Error("debug should be true")
	}
	s.UpdateDelta(tick)
	s.SetDebugMode(false)
	if s.debug {
		t.Error("debug should be false")
	}
}

func TestSceneSnowFalls(t *testing.T) {
	s := newTestScene(t)
	if s.Snow().Len() != testConfig().Snow.Count {
		t.Fatalf("snow = %d", s.Snow().Len())
	}
	before := s.Snow().At(0).Pos
	s.UpdateDelta(tick)
	if s.Snow().At(0).Pos == before {
		t.Error("snow did not move")
	}
}
