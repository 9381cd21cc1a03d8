package term

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/phanxgames/tinsel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(t *testing.T) *tinsel.Scene {
	t.Helper()
	cfg := tinsel.DefaultConfig()
	cfg.Seed = 11
	cfg.Tree.LeafCount = 300
	cfg.Snow.Count = 0
	scene, err := tinsel.NewScene(cfg)
	require.NoError(t, err)
	return scene
}

func newTestScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(w, h)
	t.Cleanup(screen.Fini)
	return screen
}

func rowText(screen tcell.Screen, y, w int) string {
	var b strings.Builder
	for x := range w {
		ch, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(ch)
	}
	return b.String()
}

func TestRendererPlotsTree(t *testing.T) {
	scene := newTestScene(t)
	screen := newTestScreen(t, 80, 24)

	NewRenderer(screen).Draw(scene)
	screen.Show()

	counts := map[rune]int{}
	for y := range 23 {
		for x := range 80 {
			ch, _, _, _ := screen.GetContent(x, y)
			counts[ch]++
		}
	}
	assert.Positive(t, counts['*'], "foliage should be visible")
	assert.Positive(t, counts['★'], "topper should be visible")
	assert.Contains(t, rowText(screen, 23, 80), "TREE_SHAPE")
}

func TestRendererStatusShowsState(t *testing.T) {
	scene := newTestScene(t)
	screen := newTestScreen(t, 60, 10)

	scene.SetState(tinsel.StateExploding)
	NewRenderer(screen).Draw(scene)
	screen.Show()

	status := rowText(screen, 9, 60)
	assert.Contains(t, status, "EXPLODING")
	assert.Contains(t, status, "hand: off")
}

func TestHandleKey(t *testing.T) {
	scene := newTestScene(t)

	tests := []struct {
		r    rune
		want tinsel.SceneState
	}{
		{'e', tinsel.StateExploding},
		{'r', tinsel.StateReassembling},
		{'p', tinsel.StatePhotoView},
		{'t', tinsel.StateTree},
	}
	for _, tt := range tests {
		quit := HandleKey(scene, tcell.NewEventKey(tcell.KeyRune, tt.r, tcell.ModNone))
		assert.False(t, quit)
		assert.Equal(t, tt.want, scene.State(), "key %q", tt.r)
	}

	assert.True(t, HandleKey(scene, tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.True(t, HandleKey(scene, tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
}

func TestGlyphForEveryType(t *testing.T) {
	for _, typ := range []tinsel.ParticleType{
		tinsel.ParticleLeaf, tinsel.ParticleOrnamentBall, tinsel.ParticleOrnamentGift,
		tinsel.ParticleLight, tinsel.ParticleCane, tinsel.ParticlePhoto,
	} {
		assert.NotEqual(t, '?', glyphFor(typ).ch, typ.String())
	}
}
