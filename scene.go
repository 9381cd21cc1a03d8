package tinsel

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// EntityStore is the interface for optional ECS integration.
// When set on a Scene, scene events are forwarded to the ECS.
type EntityStore interface {
	EmitEvent(event SceneEvent)
}

// SceneEventType identifies the kind of SceneEvent.
type SceneEventType uint8

const (
	EventTransition SceneEventType = iota // state changed
	EventNextPhoto                        // photo focus advanced
	EventGesture                          // stable gesture acted on
	EventRotate                           // camera rotation requested
	EventPhotos                           // photo collection replaced
)

// SceneEvent carries scene activity for the ECS bridge.
type SceneEvent struct {
	Type SceneEventType
	// Transition fields (valid for EventTransition)
	From, To SceneState
	Cause    TransitionCause
	// Gesture is the stable gesture for EventGesture and gesture-caused
	// transitions.
	Gesture Gesture
	// Photo is the focus index for EventNextPhoto and the placed count for
	// EventPhotos.
	Photo int
	// Delta is the azimuth delta in radians for EventRotate.
	Delta float64
}

// Scene owns the particle store, the simulator, the controller, the gesture
// task and the presentation state. It is driven by one Update per frame.
type Scene struct {
	cfg Config
	rng *rand.Rand

	store    *Store
	sim      *Simulator
	ctrl     *Controller
	camera   *Camera
	gestures *GestureTask
	topper   Topper
	snow     *Snowfall

	entities EntityStore
	debug    bool

	elapsed    float64
	photoIndex int
	lastStats  StepStats

	focusShown int
	focusScale float64
	focusTween *gween.Tween

	testRunner      *TestRunner
	screenshotQueue []string
	draw            drawState

	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir string
	// ClearColor fills the screen before drawing.
	ClearColor Color
}

// NewScene validates cfg and builds a scene in TREE_SHAPE with every
// particle assembled.
func NewScene(cfg Config) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	s := &Scene{
		cfg:           cfg,
		rng:           rng,
		camera:        newCamera(cfg.Camera),
		topper:        newTopper(),
		focusShown:    -1,
		ScreenshotDir: "screenshots",
		ClearColor:    ColorBackground,
	}
	s.store = NewStore(cfg, rng)
	s.sim = NewSimulator(s.store, cfg, rng)
	s.snow = NewSnowfall(cfg.Snow, rng)
	s.ctrl = NewController(StateTree, cfg.Gesture)
	s.gestures = NewGestureTask(cfg.Gesture, s.ctrl, nil)

	s.ctrl.OnTransition(func(ev TransitionEvent) {
		s.emit(SceneEvent{Type: EventTransition, From: ev.From, To: ev.To, Cause: ev.Cause, Gesture: ev.Gesture})
	})
	s.ctrl.OnRotate(func(delta float64) {
		s.camera.Rotate(delta)
		s.emit(SceneEvent{Type: EventRotate, Delta: delta})
	})
	s.ctrl.OnNextPhoto(s.advancePhoto)
	s.ctrl.OnGesture(func(g Gesture) {
		s.emit(SceneEvent{Type: EventGesture, Gesture: g})
	})
	return s, nil
}

func (s *Scene) emit(ev SceneEvent) {
	if s.entities != nil {
		s.entities.EmitEvent(ev)
	}
}

// Config returns the configuration the scene was built with.
func (s *Scene) Config() Config {
	return s.cfg
}

// View returns the read-only particle store for presentation layers.
func (s *Scene) View() StoreView {
	return s.store
}

// Camera returns the orbit camera.
func (s *Scene) Camera() *Camera {
	return s.camera
}

// Controller returns the state machine, for registering callbacks.
func (s *Scene) Controller() *Controller {
	return s.ctrl
}

// Gestures returns the gesture task.
func (s *Scene) Gestures() *GestureTask {
	return s.gestures
}

// Topper returns the star topper state.
func (s *Scene) Topper() Topper {
	return s.topper
}

// Snow returns the background snowfall.
func (s *Scene) Snow() *Snowfall {
	return s.snow
}

// Elapsed returns the scene clock in seconds.
func (s *Scene) Elapsed() float64 {
	return s.elapsed
}

// GroupRotation returns the tree group's rotation around Y.
func (s *Scene) GroupRotation() float64 {
	return s.sim.GroupRotation()
}

// WorldPos returns the world-space position of particle i.
func (s *Scene) WorldPos(i int) Vec3 {
	return s.sim.LocalToWorld(s.store.particles[i].CurrentPos)
}

// TopperWorldPos returns the world-space position of the star topper.
func (s *Scene) TopperWorldPos() Vec3 {
	return s.sim.LocalToWorld(s.topper.Position(s.cfg.Tree))
}

// State returns the current scene state.
func (s *Scene) State() SceneState {
	return s.ctrl.State()
}

// SetState changes the scene state from the control surface.
func (s *Scene) SetState(state SceneState) {
	s.ctrl.SetState(state)
}

// NextPhoto advances the photo focus index. It goes through the controller
// so next-photo callbacks fire for the keyboard as well as for PINCH.
func (s *Scene) NextPhoto() {
	s.ctrl.NextPhoto()
}

func (s *Scene) advancePhoto() {
	s.photoIndex++
	if n := len(s.store.ActivePhotos()); n > 0 {
		s.photoIndex %= n
	}
	s.emit(SceneEvent{Type: EventNextPhoto, Photo: s.photoIndex})
}

// PhotoIndex returns the focus index. Under FocusByIndex it is a slot; the
// other policies use it as a rank.
func (s *Scene) PhotoIndex() int {
	return s.photoIndex
}

// Focused returns the store index of the photo pulled to the camera, or -1.
func (s *Scene) Focused() int {
	return s.sim.Focused()
}

// SetFocusPolicy changes how PHOTO_VIEW picks its photo.
func (s *Scene) SetFocusPolicy(p FocusPolicy) {
	s.sim.SetFocusPolicy(p)
}

// SetPhotos replaces the photo collection and returns how many were placed.
// Images beyond the slot capacity are ignored.
func (s *Scene) SetPhotos(textures []Texture) int {
	n := s.store.SetPhotos(textures)
	if s.photoIndex >= n {
		s.photoIndex = 0
	}
	s.emit(SceneEvent{Type: EventPhotos, Photo: n})
	return n
}

// PhotoScale returns the display scale of particle i, easing the focused
// photo up to the configured focus scale.
func (s *Scene) PhotoScale(i int) float64 {
	p := &s.store.particles[i]
	if i == s.focusShown && p.Active {
		return p.Scale * s.focusScale
	}
	return p.Scale
}

// SetDetector installs the detector opener, replacing and closing any
// previous gesture task.
func (s *Scene) SetDetector(open DetectorOpener) {
	if err := s.gestures.Close(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[tinsel] gesture: %v\n", err)
	}
	s.gestures = NewGestureTask(s.cfg.Gesture, s.ctrl, open)
}

// StartGestures begins webcam gesture control. A detector that fails to open
// is logged by the task and the scene continues with button control only.
func (s *Scene) StartGestures(ctx context.Context) error {
	return s.gestures.Start(ctx)
}

// StopGestures pauses gesture control.
func (s *Scene) StopGestures() {
	s.gestures.Stop()
}

// Close releases the detector and the camera stream.
func (s *Scene) Close() error {
	return s.gestures.Close()
}

// SetEntityStore sets the optional ECS bridge.
func (s *Scene) SetEntityStore(store EntityStore) {
	s.entities = store
}

// SetDebugMode enables or disables per-frame timing stats on stderr.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}

// Update advances the scene by one tick at the ebiten tick rate.
func (s *Scene) Update() {
	s.UpdateDelta(1.0 / float64(ebiten.TPS()))
}

// UpdateDelta advances the scene by dt seconds: test script, gestures,
// camera easing, then the single simulation pass.
func (s *Scene) UpdateDelta(dt float64) {
	var stats debugStats
	var t0 time.Time

	if s.testRunner != nil {
		s.testRunner.step(s)
	}

	if s.debug {
		t0 = time.Now()
	}
	s.gestures.Step()
	if s.debug {
		stats.gestureTime = time.Since(t0)
		t0 = time.Now()
	}

	dt = ClampDelta(dt, s.cfg.Physics.MaxDelta)
	s.camera.update(float32(dt))

	state := s.ctrl.State()
	s.lastStats = s.sim.Step(state, Frame{
		Delta:      dt,
		Elapsed:    s.elapsed,
		Camera:     s.camera.Pose(),
		FocusIndex: s.photoIndex,
	})
	if state == StateReassembling && s.lastStats.Moving == 0 {
		s.ctrl.settle()
	}
	if s.debug {
		stats.simulateTime = time.Since(t0)
	}

	s.updateFocusScale(float32(dt))
	s.topper.update(s.ctrl.State(), s.elapsed, dt)
	s.snow.update(s.elapsed, dt)
	s.elapsed += dt

	if s.debug {
		stats.moving = s.lastStats.Moving
		stats.particles = s.store.Len()
		stats.photos = len(s.store.ActivePhotos())
		s.debugLog(stats)
	}
}

// updateFocusScale eases the display scale of a newly focused photo from 1
// up to the focus scale.
func (s *Scene) updateFocusScale(dt float32) {
	focused := s.sim.Focused()
	if focused != s.focusShown {
		s.focusShown = focused
		s.focusScale = 1
		s.focusTween = nil
		if focused >= 0 {
			s.focusTween = gween.New(1, float32(s.cfg.Photos.FocusScale), 0.6, ease.OutQuad)
		}
	}
	if s.focusTween == nil {
		return
	}
	v, done := s.focusTween.Update(dt)
	s.focusScale = float64(v)
	if done {
		s.focusTween = nil
	}
}
