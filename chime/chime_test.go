package chime

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/phanxgames/tinsel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain streams s to completion and returns the sample count and peak.
func drain(t *testing.T, s beep.Streamer) (count int, peak float64) {
	t.Helper()
	buf := make([][2]float64, 512)
	for range 1000 {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			peak = math.Max(peak, math.Abs(buf[i][0]))
		}
		count += n
		if !ok {
			return count, peak
		}
	}
	t.Fatal("streamer did not end")
	return
}

func TestToneLengthAndRange(t *testing.T) {
	n, peak := drain(t, Tone(440, 100*time.Millisecond, WaveSine))
	assert.Equal(t, SampleRate.N(100*time.Millisecond), n)
	assert.LessOrEqual(t, peak, 1.0)
	assert.Greater(t, peak, 0.5)
}

func TestToneFadesIn(t *testing.T) {
	s := Tone(440, 100*time.Millisecond, WaveTriangle)
	buf := make([][2]float64, 1)
	_, ok := s.Stream(buf)
	require.True(t, ok)
	assert.Zero(t, buf[0][0], "first sample is at zero attack")
}

func TestNoiseIsBounded(t *testing.T) {
	_, peak := drain(t, Tone(0, 50*time.Millisecond, WaveNoise))
	assert.LessOrEqual(t, peak, 1.0)
	assert.Positive(t, peak)
}

func TestCueForEveryState(t *testing.T) {
	for _, s := range []tinsel.SceneState{
		tinsel.StateTree, tinsel.StateExploding, tinsel.StateReassembling, tinsel.StatePhotoView,
	} {
		c := Cue(s)
		require.NotNil(t, c, s.String())
		n, _ := drain(t, c)
		assert.Positive(t, n, s.String())
	}
	assert.Nil(t, Cue(tinsel.SceneState(99)))
}

func TestPlayerMixesAndMutes(t *testing.T) {
	p := NewPlayer(1)
	p.Play(NextPhotoCue())
	assert.Equal(t, 1, p.Pending())

	buf := make([][2]float64, SampleRate.N(time.Second))
	n, ok := p.Stream(buf)
	assert.True(t, ok)
	assert.Len(t, buf, n)
	assert.Zero(t, p.Pending(), "finished cues are dropped")

	p.SetEnabled(false)
	p.Play(NextPhotoCue())
	assert.Zero(t, p.Pending())
	assert.Equal(t, 1, p.Played())
	p.Play(nil)
	assert.Equal(t, 1, p.Played())
}

func TestPlayerApplySettings(t *testing.T) {
	p := NewPlayer(1)
	set := tinsel.DefaultSettings()
	set.AudioCues = false
	p.Apply(set)
	p.Play(NextPhotoCue())
	assert.Zero(t, p.Played())
}

func TestAttachPlaysOnTransition(t *testing.T) {
	cfg := tinsel.DefaultConfig()
	cfg.Seed = 3
	cfg.Tree.LeafCount = 10
	cfg.Snow.Count = 0
	scene, err := tinsel.NewScene(cfg)
	require.NoError(t, err)

	p := NewPlayer(0.5)
	detach := p.Attach(scene)
	scene.SetState(tinsel.StateExploding)
	scene.SetState(tinsel.StateExploding)
	assert.Equal(t, 1, p.Played(), "no cue without a state change")

	detach()
	scene.SetState(tinsel.StateTree)
	assert.Equal(t, 1, p.Played())
}

func TestAttachPlaysOnNextPhoto(t *testing.T) {
	cfg := tinsel.DefaultConfig()
	cfg.Seed = 3
	cfg.Tree.LeafCount = 10
	cfg.Snow.Count = 0
	scene, err := tinsel.NewScene(cfg)
	require.NoError(t, err)

	p := NewPlayer(0.5)
	defer p.Attach(scene)()
	scene.NextPhoto()
	assert.Equal(t, 1, p.Played(), "control surface next should cue")
	assert.Equal(t, 1, scene.PhotoIndex())
}
