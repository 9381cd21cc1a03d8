package tinsel

import (
	"context"
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title   string
	Width   int
	Height  int
	ShowFPS bool
	// Controls enables the keyboard control surface: T tree, E explode,
	// R reassemble, P photo view, N next photo, S screenshot.
	Controls bool
	// Update, when set, is called once per tick before the scene updates.
	// Returning an error stops the game loop.
	Update func() error
}

// keyBinding maps one key press to a control-surface action.
type keyBinding struct {
	key ebiten.Key
	fn  func(s *Scene)
}

var controlKeys = []keyBinding{
	{ebiten.KeyT, func(s *Scene) { s.SetState(StateTree) }},
	{ebiten.KeyE, func(s *Scene) { s.SetState(StateExploding) }},
	{ebiten.KeyR, func(s *Scene) { s.SetState(StateReassembling) }},
	{ebiten.KeyP, func(s *Scene) { s.SetState(StatePhotoView) }},
	{ebiten.KeyN, func(s *Scene) { s.NextPhoto() }},
	{ebiten.KeyS, func(s *Scene) { s.Screenshot("manual") }},
}

// gameShell adapts a Scene to ebiten.Game.
type gameShell struct {
	scene *Scene
	cfg   RunConfig
	fps   *fpsWidget
}

func (g *gameShell) Update() error {
	if g.cfg.Update != nil {
		if err := g.cfg.Update(); err != nil {
			return err
		}
	}
	if g.cfg.Controls {
		for _, b := range controlKeys {
			if inpututil.IsKeyJustPressed(b.key) {
				b.fn(g.scene)
			}
		}
	}
	g.scene.Update()
	if g.fps != nil {
		g.fps.update(1/float64(ebiten.TPS()), g.scene)
	}
	return nil
}

func (g *gameShell) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
	if g.fps != nil {
		g.fps.draw(screen)
	}
}

func (g *gameShell) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// Run opens a window and drives the scene until the window closes. Gesture
// control is started when enabled in the scene config and a detector is set;
// a detector that fails to open leaves the keyboard controls working. The
// detector is released on return.
func Run(scene *Scene, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1280, 720
	}
	if cfg.Title == "" {
		cfg.Title = "tinsel"
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if scene.cfg.Gesture.Enabled {
		if err := scene.StartGestures(ctx); err != nil && !errors.Is(err, ErrNoDetector) {
			return fmt.Errorf("start gestures: %w", err)
		}
	}

	g := &gameShell{scene: scene, cfg: cfg}
	if cfg.ShowFPS {
		g.fps = newFPSWidget()
	}
	runErr := ebiten.RunGame(g)
	if err := scene.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// LoadPhotos decodes image files into textures for Scene.SetPhotos. Files
// that fail to load are reported together; the ones that loaded are still
// returned.
func LoadPhotos(paths []string) ([]Texture, error) {
	out := make([]Texture, 0, len(paths))
	var errs []error
	for _, p := range paths {
		img, _, err := ebitenutil.NewImageFromFile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("load photo %s: %w", p, err))
			continue
		}
		out = append(out, img)
	}
	return out, errors.Join(errs...)
}
