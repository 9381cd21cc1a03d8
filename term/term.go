// Package term is a terminal presentation layer for tinsel scenes. It reads
// the scene's read-only particle view and plots it into a tcell screen with
// a per-cell depth buffer.
package term

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/phanxgames/tinsel"
)

// cellAspect is the height of a terminal cell relative to its width.
const cellAspect = 2.0

// glyph is how one particle type looks in a cell.
type glyph struct {
	ch    rune
	color tcell.Color
}

// glyphFor maps every particle type to a cell glyph.
func glyphFor(t tinsel.ParticleType) glyph {
	switch t {
	case tinsel.ParticleLeaf:
		return glyph{'*', tcell.NewRGBColor(0, 107, 60)}
	case tinsel.ParticleOrnamentBall:
		return glyph{'o', tcell.NewRGBColor(255, 215, 0)}
	case tinsel.ParticleOrnamentGift:
		return glyph{'#', tcell.NewRGBColor(200, 16, 46)}
	case tinsel.ParticleLight:
		return glyph{'.', tcell.NewRGBColor(255, 253, 208)}
	case tinsel.ParticleCane:
		return glyph{'|', tcell.ColorWhite}
	case tinsel.ParticlePhoto:
		return glyph{'▣', tcell.NewRGBColor(255, 215, 0)}
	default:
		return glyph{'?', tcell.ColorRed}
	}
}

// Renderer draws scenes into a tcell screen.
type Renderer struct {
	screen tcell.Screen
	depth  []float64
	bg     tcell.Style
}

// NewRenderer wraps an initialized screen.
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{
		screen: screen,
		bg:     tcell.StyleDefault.Background(tcell.NewRGBColor(0, 8, 4)),
	}
}

// Draw clears the screen, plots every visible particle nearest-first per
// cell, the topper and a status line. It does not call Show.
func (r *Renderer) Draw(scene *tinsel.Scene) {
	w, h := r.screen.Size()
	r.screen.Fill(' ', r.bg)
	if w <= 0 || h <= 1 {
		return
	}
	rows := h - 1
	if cap(r.depth) < w*rows {
		r.depth = make([]float64, w*rows)
	}
	r.depth = r.depth[:w*rows]
	for i := range r.depth {
		r.depth[i] = math.Inf(1)
	}

	cam := scene.Camera()
	pw, ph := float64(w), float64(rows)*cellAspect
	plot := func(p tinsel.Vec3, g glyph) {
		sx, sy, depth, ok := cam.Project(p, pw, ph)
		if !ok {
			return
		}
		x, y := int(sx), int(sy/cellAspect)
		if x < 0 || x >= w || y < 0 || y >= rows {
			return
		}
		if depth >= r.depth[y*w+x] {
			return
		}
		r.depth[y*w+x] = depth
		r.screen.SetContent(x, y, g.ch, nil, r.bg.Foreground(g.color))
	}

	view := scene.View()
	photos := 0
	for i := range view.Len() {
		p := view.At(i)
		if p.Type == tinsel.ParticlePhoto && p.Active {
			photos++
		}
		if p.Scale <= 0 || (p.Type == tinsel.ParticlePhoto && !p.Active) {
			continue
		}
		plot(scene.WorldPos(i), glyphFor(p.Type))
	}
	plot(scene.TopperWorldPos(), glyph{'★', tcell.NewRGBColor(255, 215, 0)})

	r.status(scene, photos, w, h-1)
}

func (r *Renderer) status(scene *tinsel.Scene, photos, w, y int) {
	hand := "off"
	switch g := scene.Gestures(); {
	case g.Available():
		hand = g.Stabilizer().Stable().String()
	case g.Failed():
		hand = "unavailable"
	}
	line := []rune(fmt.Sprintf(" %s | hand: %s | photos: %d | t e r p n q", scene.State(), hand, photos))
	style := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	for x := range w {
		ch := ' '
		if x < len(line) {
			ch = line[x]
		}
		r.screen.SetContent(x, y, ch, nil, style)
	}
}

// HandleKey applies the control surface for one key event. It reports
// whether the key asked to quit.
func HandleKey(scene *tinsel.Scene, ev *tcell.EventKey) (quit bool) {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return true
	}
	switch ev.Rune() {
	case 'q':
		return true
	case 't':
		scene.SetState(tinsel.StateTree)
	case 'e':
		scene.SetState(tinsel.StateExploding)
	case 'r':
		scene.SetState(tinsel.StateReassembling)
	case 'p':
		scene.SetState(tinsel.StatePhotoView)
	case 'n':
		scene.NextPhoto()
	}
	return false
}

// Run drives scene at fps frames per second until ctx is cancelled or the
// user quits. Screen events are read on a separate goroutine and handled on
// the frame loop, so the scene is only touched from one goroutine.
func Run(ctx context.Context, screen tcell.Screen, scene *tinsel.Scene, fps int) error {
	if fps <= 0 {
		fps = 30
	}
	r := NewRenderer(screen)
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	dt := 1 / float64(fps)
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if HandleKey(scene, ev) {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			scene.UpdateDelta(dt)
			r.Draw(scene)
			screen.Show()
		}
	}
}
