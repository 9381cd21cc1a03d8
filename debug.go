package tinsel

import (
	"fmt"
	"os"
	"time"
)

// debugStats holds per-frame timing and particle metrics.
// Only populated when Scene.debug is true.
type debugStats struct {
	gestureTime  time.Duration
	simulateTime time.Duration
	moving       int
	particles    int
	photos       int
}

// debugLog prints timing and particle stats to stderr.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[tinsel] state: %s | gesture: %v | simulate: %v | total: %v\n",
		s.ctrl.State(), stats.gestureTime, stats.simulateTime, stats.gestureTime+stats.simulateTime)
	_, _ = fmt.Fprintf(os.Stderr,
		"[tinsel] particles: %d | moving: %d | photos: %d\n",
		stats.particles, stats.moving, stats.photos)
}

// debugDrawLog prints per-frame draw stats to stderr.
func (s *Scene) debugDrawLog(drawTime time.Duration, drawn int) {
	if !s.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "[tinsel] draw: %v | sprites: %d\n", drawTime, drawn)
}
