package tinsel

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsWidget is an overlay showing FPS, TPS and the scene state. The text is
// refreshed every ~0.5 seconds into a cached image.
type fpsWidget struct {
	img        *ebiten.Image
	lastUpdate float64
	dirty      bool
}

func newFPSWidget() *fpsWidget {
	return &fpsWidget{dirty: true}
}

func (w *fpsWidget) update(dt float64, s *Scene) {
	w.lastUpdate += dt
	if w.lastUpdate < 0.5 && !w.dirty {
		return
	}
	w.lastUpdate = 0
	w.dirty = false
	if w.img == nil {
		// Enough for four lines of debug text.
		w.img = ebiten.NewImage(180, 64)
	}
	w.img.Clear()
	w.img.Fill(color.RGBA{0, 0, 0, 128})

	gesture := "off"
	switch {
	case s.gestures.Available():
		gesture = s.gestures.Stabilizer().Stable().String()
	case s.gestures.Failed():
		gesture = "unavailable"
	}
	ebitenutil.DebugPrint(w.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nState: %s\nHand: %s",
		ebiten.ActualFPS(), ebiten.ActualTPS(), s.State(), gesture))
}

func (w *fpsWidget) draw(screen *ebiten.Image) {
	if w.img == nil {
		return
	}
	screen.DrawImage(w.img, nil)
}
