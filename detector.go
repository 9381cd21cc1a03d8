package tinsel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	// ErrNoDetector is returned by GestureTask.Start when no opener is set.
	ErrNoDetector = errors.New("no gesture detector")
	// ErrTaskStopped is returned by GestureTask.Start after Close.
	ErrTaskStopped = errors.New("gesture task closed")
	// ErrDetectorLost is wrapped by Detector implementations whose
	// connection can no longer be used. GestureTask closes such a detector
	// and reopens it.
	ErrDetectorLost = errors.New("gesture detector lost")
)

// DetectionResult is one detector frame. Landmarks is empty when no hand was
// found.
type DetectionResult struct {
	Landmarks []Landmark
}

// HasHand reports whether the frame contains a complete hand.
func (r DetectionResult) HasHand() bool {
	return len(r.Landmarks) >= LandmarkCount
}

// Detector is the opaque hand-landmark capability. Detect is never called
// concurrently with itself. Close releases the camera stream and model.
type Detector interface {
	Detect(ctx context.Context, at time.Duration) (DetectionResult, error)
	Close() error
}

// DetectorOpener acquires the camera stream and the detector. It may block;
// GestureTask calls it off the frame loop.
type DetectorOpener func(ctx context.Context, capture CaptureConfig) (Detector, error)

// detectTimeout bounds a single detection, including the wait in Stop.
const detectTimeout = 2 * time.Second

// Reopen backoff after a lost detector: doubles per failed attempt.
const (
	reopenBackoff    = 500 * time.Millisecond
	maxReopenBackoff = 8 * time.Second
	maxReopens       = 5
)

type openResult struct {
	det Detector
	err error
}

type detectResult struct {
	res DetectionResult
	err error
}

// GestureTask is the cancellable gesture pipeline. Step is called once per
// frame from the scene update; it throttles detection to the configured
// interval on a monotonic clock, runs at most one detection in the
// background, and feeds completed frames through the stabilizer into the
// controller on the calling goroutine.
//
// With KeepAlive set, Stop leaves the detector open so a later Start does not
// pay for reacquiring the camera. Close always releases it.
type GestureTask struct {
	cfg   GestureConfig
	open  DetectorOpener
	ctrl  *Controller
	stab  *Stabilizer
	clock func() time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	opened  chan openResult
	results chan detectResult

	det       Detector
	opening   bool
	inFlight  bool
	failed    bool
	lost      bool
	reopens   int
	reopenAt  time.Duration
	closed    bool
	lastRun   time.Duration
	hasRun    bool
	lastError string

	injected [][]Landmark
}

// NewGestureTask wires a task to the controller it drives. open may be nil,
// in which case only injected frames are processed.
func NewGestureTask(cfg GestureConfig, ctrl *Controller, open DetectorOpener) *GestureTask {
	start := time.Now()
	return &GestureTask{
		cfg:     cfg,
		open:    open,
		ctrl:    ctrl,
		stab:    NewStabilizer(cfg.History),
		clock:   func() time.Duration { return time.Since(start) },
		opened:  make(chan openResult, 1),
		results: make(chan detectResult, 1),
	}
}

// SetClock replaces the monotonic clock. Used by tests and replay tools.
func (t *GestureTask) SetClock(clock func() time.Duration) {
	t.clock = clock
}

// Stabilizer exposes the debouncer for inspection.
func (t *GestureTask) Stabilizer() *Stabilizer {
	return t.stab
}

// Running reports whether Start has been called without a matching Stop.
func (t *GestureTask) Running() bool {
	return t.cancel != nil
}

// Available reports whether a detector is open and usable.
func (t *GestureTask) Available() bool {
	return t.det != nil
}

// Failed reports whether opening the detector failed, or a lost detector
// could not be reopened. The scene keeps running in button-only mode.
func (t *GestureTask) Failed() bool {
	return t.failed
}

// Start begins detection. Opening the detector happens in the background;
// until it completes Step only processes injected frames. A previous open
// failure is not retried.
func (t *GestureTask) Start(parent context.Context) error {
	if t.closed {
		return ErrTaskStopped
	}
	if t.open == nil {
		return ErrNoDetector
	}
	if t.cancel != nil {
		return nil
	}
	t.ctx, t.cancel = context.WithCancel(parent)
	if t.det == nil && !t.failed {
		t.startOpen()
	}
	return nil
}

func (t *GestureTask) startOpen() {
	t.opening = true
	t.wg.Add(1)
	go func(ctx context.Context) {
		defer t.wg.Done()
		det, err := t.open(ctx, t.cfg.Capture)
		t.opened <- openResult{det: det, err: err}
	}(t.ctx)
}

// Stop cancels background work and waits for it to finish. The detector is
// closed unless KeepAlive is set. The stabilizer and hand baseline reset so
// a restart does not act on stale frames.
func (t *GestureTask) Stop() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	t.wg.Wait()
	t.cancel = nil
	t.ctx = nil

	t.drainOpened()
	select {
	case <-t.results:
	default:
	}
	t.inFlight = false
	t.hasRun = false
	t.stab.Reset()
	t.ctrl.LoseHand()

	if !t.cfg.KeepAlive {
		t.release()
	}
}

// Close stops the task and always releases the detector. The task cannot be
// restarted.
func (t *GestureTask) Close() error {
	t.Stop()
	t.closed = true
	return t.release()
}

func (t *GestureTask) release() error {
	if t.det == nil {
		return nil
	}
	err := t.det.Close()
	t.det = nil
	if err != nil {
		return fmt.Errorf("close detector: %w", err)
	}
	return nil
}

func (t *GestureTask) drainOpened() {
	if !t.opening {
		return
	}
	select {
	case r := <-t.opened:
		t.opening = false
		t.acceptOpen(r)
	default:
	}
}

func (t *GestureTask) acceptOpen(r openResult) {
	if r.err != nil || r.det == nil {
		if errors.Is(r.err, context.Canceled) {
			return
		}
		if r.err == nil {
			r.err = ErrNoDetector
		}
		if t.lost && t.reopens < maxReopens {
			t.reopens++
			t.reopenAt = t.clock() + t.backoff()
			_, _ = fmt.Fprintf(os.Stderr, "[tinsel] gesture: reopen failed (attempt %d): %v\n", t.reopens, r.err)
			return
		}
		t.failed = true
		_, _ = fmt.Fprintf(os.Stderr, "[tinsel] gesture: detector unavailable, continuing without gestures: %v\n", r.err)
		return
	}
	t.det = r.det
	t.lost = false
}

// loseDetector closes a detector that reported ErrDetectorLost and schedules
// a reopen.
func (t *GestureTask) loseDetector(now time.Duration) {
	if err := t.release(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[tinsel] gesture: %v\n", err)
	}
	t.lost = true
	t.reopenAt = now + t.backoff()
	t.ctrl.LoseHand()
}

func (t *GestureTask) backoff() time.Duration {
	return min(reopenBackoff<<t.reopens, maxReopenBackoff)
}

// Inject queues one landmark frame. Injected frames bypass the detector and
// the throttle; one is consumed per Step. An empty frame means no hand.
func (t *GestureTask) Inject(landmarks []Landmark) {
	t.injected = append(t.injected, landmarks)
}

// Pending returns the number of injected frames not yet consumed.
func (t *GestureTask) Pending() int {
	return len(t.injected)
}

// Step runs one frame of the pipeline.
func (t *GestureTask) Step() {
	now := t.clock()

	if len(t.injected) > 0 {
		lm := t.injected[0]
		copy(t.injected, t.injected[1:])
		t.injected = t.injected[:len(t.injected)-1]
		t.process(now, lm)
		return
	}

	t.drainOpened()

	if t.inFlight {
		select {
		case r := <-t.results:
			t.inFlight = false
			switch {
			case errors.Is(r.err, ErrDetectorLost):
				t.logDetectError(r.err)
				t.loseDetector(now)
			case r.err != nil:
				t.logDetectError(r.err)
			default:
				t.reopens = 0
				t.process(now, r.res.Landmarks)
			}
		default:
		}
	}

	if t.lost && t.cancel != nil && t.det == nil && !t.opening && !t.failed && now >= t.reopenAt {
		t.startOpen()
	}

	if t.cancel == nil || t.det == nil || t.inFlight {
		return
	}
	if t.hasRun && now-t.lastRun < t.cfg.Interval {
		return
	}
	t.lastRun = now
	t.hasRun = true
	t.inFlight = true
	t.wg.Add(1)
	go func(ctx context.Context, det Detector) {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, detectTimeout)
		defer cancel()
		res, err := det.Detect(ctx, now)
		t.results <- detectResult{res: res, err: err}
	}(t.detectContext(), t.det)
}

// detectContext is the parent context for one detection. A kept-alive
// detector lets an in-flight frame finish on Stop instead of interrupting it,
// since an interrupted read can leave the detector unusable.
func (t *GestureTask) detectContext() context.Context {
	if t.cfg.KeepAlive {
		return context.WithoutCancel(t.ctx)
	}
	return t.ctx
}

// logDetectError reports a detector error once per distinct message.
func (t *GestureTask) logDetectError(err error) {
	if errors.Is(err, context.Canceled) || err.Error() == t.lastError {
		return
	}
	t.lastError = err.Error()
	_, _ = fmt.Fprintf(os.Stderr, "[tinsel] gesture: detect: %v\n", err)
}

// process classifies one frame and hands the result to the controller. A
// missing or short landmark set counts as NONE and drops the hand baseline.
func (t *GestureTask) process(now time.Duration, lm []Landmark) {
	g := t.cfg.Classify(lm)
	stable, _ := t.stab.Push(g)
	t.ctrl.HandleGesture(now, stable)
	if len(lm) < LandmarkCount {
		t.ctrl.LoseHand()
		return
	}
	t.ctrl.HandleHand(lm[t.cfg.TrackLandmark].X)
}
