package tinsel

import (
	"math"
	"math/rand/v2"
)

// Snowflake is one background flake.
type Snowflake struct {
	Pos   Vec3
	Speed float64
	Sway  float64
	Phase float64
}

// Snowfall is a field of flakes falling through a cube centered on the
// origin, wrapping back to the top. It ignores the scene state.
type Snowfall struct {
	flakes []Snowflake
	half   float64
}

// NewSnowfall scatters cfg.Count flakes through the cube.
func NewSnowfall(cfg SnowConfig, rng *rand.Rand) *Snowfall {
	half := cfg.Extent / 2
	s := &Snowfall{flakes: make([]Snowflake, max(cfg.Count, 0)), half: half}
	for i := range s.flakes {
		s.flakes[i] = Snowflake{
			Pos:   RandomVector(rng, cfg.Extent),
			Speed: 1 + rng.Float64()*2,
			Sway:  0.2 + rng.Float64()*0.5,
			Phase: rng.Float64() * 2 * math.Pi,
		}
	}
	return s
}

// Len returns the flake count.
func (s *Snowfall) Len() int {
	return len(s.flakes)
}

// At returns a copy of flake i.
func (s *Snowfall) At(i int) Snowflake {
	return s.flakes[i]
}

func (s *Snowfall) update(elapsed, dt float64) {
	if s.half <= 0 {
		return
	}
	for i := range s.flakes {
		f := &s.flakes[i]
		f.Pos[1] -= f.Speed * dt
		f.Pos[0] += math.Sin(elapsed+f.Phase) * f.Sway * dt
		if f.Pos[1] < -s.half {
			f.Pos[1] += 2 * s.half
		}
		if f.Pos[0] < -s.half {
			f.Pos[0] += 2 * s.half
		} else if f.Pos[0] > s.half {
			f.Pos[0] -= 2 * s.half
		}
	}
}
