// Package chime synthesizes short audio cues for scene transitions with
// gopxl/beep. A Player is itself a beep.Streamer, so it can be handed to
// speaker.Play or drained directly.
package chime

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/phanxgames/tinsel"
)

// SampleRate is the rate every cue is rendered at.
const SampleRate = beep.SampleRate(44100)

// Wave is an oscillator shape.
type Wave uint8

const (
	WaveSine Wave = iota
	WaveTriangle
	WaveNoise
)

// tone is a fixed-length oscillator with a linear attack and release.
type tone struct {
	freq    float64
	wave    Wave
	phase   float64
	pos     int
	total   int
	attack  int
	release int
	noise   uint32
}

// Tone returns a streamer playing freq Hz for d with a short fade in and out.
func Tone(freq float64, d time.Duration, wave Wave) beep.Streamer {
	total := SampleRate.N(d)
	edge := min(SampleRate.N(10*time.Millisecond), total/2)
	return &tone{
		freq:    freq,
		wave:    wave,
		total:   total,
		attack:  edge,
		release: total / 2,
		noise:   0x12345678,
	}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.pos >= t.total {
			return i, i > 0
		}
		v := t.sample() * t.envelope()
		samples[i][0] = v
		samples[i][1] = v
		t.phase += t.freq / float64(SampleRate)
		t.phase -= math.Floor(t.phase)
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

func (t *tone) sample() float64 {
	switch t.wave {
	case WaveTriangle:
		return 4*math.Abs(t.phase-0.5) - 1
	case WaveNoise:
		// xorshift keeps cues reproducible.
		t.noise ^= t.noise << 13
		t.noise ^= t.noise >> 17
		t.noise ^= t.noise << 5
		return float64(t.noise)/math.MaxUint32*2 - 1
	default:
		return math.Sin(2 * math.Pi * t.phase)
	}
}

func (t *tone) envelope() float64 {
	if t.attack > 0 && t.pos < t.attack {
		return float64(t.pos) / float64(t.attack)
	}
	if rel := t.total - t.pos; t.release > 0 && rel < t.release {
		return float64(rel) / float64(t.release)
	}
	return 1
}

// withVolume scales s by a linear factor. Zero or less is silent.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Cue returns the sound for entering state, at unit volume.
func Cue(state tinsel.SceneState) beep.Streamer {
	switch state {
	case tinsel.StateExploding:
		// Burst of noise under a falling pair.
		return beep.Mix(
			withVolume(Tone(0, 250*time.Millisecond, WaveNoise), 0.4),
			beep.Seq(
				Tone(659.25, 90*time.Millisecond, WaveTriangle),
				Tone(493.88, 160*time.Millisecond, WaveTriangle),
			),
		)
	case tinsel.StateReassembling:
		return beep.Seq(
			Tone(392.00, 80*time.Millisecond, WaveSine),
			Tone(493.88, 80*time.Millisecond, WaveSine),
			Tone(587.33, 120*time.Millisecond, WaveSine),
		)
	case tinsel.StateTree:
		// Bell: fundamental with an octave overtone.
		return beep.Mix(
			withVolume(Tone(880, 400*time.Millisecond, WaveSine), 0.7),
			withVolume(Tone(1760, 250*time.Millisecond, WaveSine), 0.3),
		)
	case tinsel.StatePhotoView:
		return beep.Seq(
			Tone(987.77, 70*time.Millisecond, WaveSine),
			Tone(1318.51, 180*time.Millisecond, WaveSine),
		)
	default:
		return nil
	}
}

// NextPhotoCue is the short tick played when photo focus advances.
func NextPhotoCue() beep.Streamer {
	return Tone(1567.98, 60*time.Millisecond, WaveTriangle)
}

// Player mixes cues for a scene. It is safe to Stream from the audio
// goroutine while the frame loop triggers cues.
type Player struct {
	mu      sync.Mutex
	mixer   beep.Mixer
	volume  float64
	enabled bool
	played  int
}

// NewPlayer creates an enabled player at volume, a linear factor in [0, 1].
func NewPlayer(volume float64) *Player {
	return &Player{volume: volume, enabled: true}
}

// SetVolume changes the volume for cues triggered afterwards.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
}

// SetEnabled mutes or unmutes future cues.
func (p *Player) SetEnabled(on bool) {
	p.mu.Lock()
	p.enabled = on
	p.mu.Unlock()
}

// Apply takes the audio preferences from persisted settings.
func (p *Player) Apply(set tinsel.Settings) {
	p.mu.Lock()
	p.enabled = set.AudioCues
	p.volume = set.CueVolume
	p.mu.Unlock()
}

// Play queues s for mixing. Nil streamers and muted players are ignored.
func (p *Player) Play(s beep.Streamer) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	p.mixer.Add(withVolume(s, p.volume))
	p.played++
}

// Played returns how many cues have been queued.
func (p *Player) Played() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played
}

// Pending returns how many cues are still sounding.
func (p *Player) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mixer.Len()
}

// Stream implements beep.Streamer. It yields silence when nothing is queued
// and never ends.
func (p *Player) Stream(samples [][2]float64) (n int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mixer.Stream(samples)
}

// Err implements beep.Streamer.
func (p *Player) Err() error { return nil }

// Attach plays a cue on every transition and photo advance of scene. The
// returned func detaches.
func (p *Player) Attach(scene *tinsel.Scene) (detach func()) {
	ctrl := scene.Controller()
	th := ctrl.OnTransition(func(ev tinsel.TransitionEvent) {
		p.Play(Cue(ev.To))
	})
	nh := ctrl.OnNextPhoto(func() {
		p.Play(NextPhotoCue())
	})
	return func() {
		th.Remove()
		nh.Remove()
	}
}
