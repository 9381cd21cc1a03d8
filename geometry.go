package tinsel

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// coneBaseOffset shifts sampled points down by this fraction of the cone
// height so the tree sits around the scene origin.
const coneBaseOffset = 0.4

// RandomPointInCone returns a point uniformly distributed by volume inside a
// cone with its base at y = -0.4*height and its apex at y = 0.6*height.
func RandomPointInCone(rng *rand.Rand, height, radius float64) Vec3 {
	if height <= 0 {
		return Vec3{}
	}
	y := rng.Float64() * height
	r := coneRadiusAt(y, height, radius)
	angle := rng.Float64() * 2 * math.Pi
	// sqrt corrects for the area element so points don't bunch at the axis.
	rr := math.Sqrt(rng.Float64()) * r
	return Vec3{math.Cos(angle) * rr, y - height*coneBaseOffset, math.Sin(angle) * rr}
}

// PointOnConeSurface returns a point on the lateral surface with height drawn
// uniformly. Points cluster toward the apex; kept for layouts that depend on
// the old distribution. Prefer UniformSurfacePointInCone.
func PointOnConeSurface(rng *rand.Rand, height, radius float64) Vec3 {
	if height <= 0 {
		return Vec3{}
	}
	y := rng.Float64() * height
	return surfacePoint(rng, y, height, radius)
}

// UniformSurfacePointInCone returns a point uniformly distributed by area on
// the lateral surface. The area element grows linearly with distance from the
// apex, so the distance is drawn as height*sqrt(u).
func UniformSurfacePointInCone(rng *rand.Rand, height, radius float64) Vec3 {
	if height <= 0 {
		return Vec3{}
	}
	y := height * (1 - math.Sqrt(rng.Float64()))
	return surfacePoint(rng, y, height, radius)
}

// RandomVector returns a vector with each component uniform in
// [-scale/2, scale/2].
func RandomVector(rng *rand.Rand, scale float64) Vec3 {
	return Vec3{
		(rng.Float64() - 0.5) * scale,
		(rng.Float64() - 0.5) * scale,
		(rng.Float64() - 0.5) * scale,
	}
}

func surfacePoint(rng *rand.Rand, y, height, radius float64) Vec3 {
	r := coneRadiusAt(y, height, radius)
	angle := rng.Float64() * 2 * math.Pi
	return Vec3{math.Cos(angle) * r, y - height*coneBaseOffset, math.Sin(angle) * r}
}

// coneRadiusAt is the linear taper r(y) = radius*(1 - y/height), with y
// measured up from the base.
func coneRadiusAt(y, height, radius float64) float64 {
	return radius * (1 - y/height)
}

// SurfaceSampler selects a cone surface distribution.
type SurfaceSampler uint8

const (
	SurfaceUniform SurfaceSampler = iota // area-corrected
	SurfaceNaive                         // uniform in height, apex-heavy
)

// Sample draws one point with the selected distribution.
func (s SurfaceSampler) Sample(rng *rand.Rand, height, radius float64) Vec3 {
	if s == SurfaceNaive {
		return PointOnConeSurface(rng, height, radius)
	}
	return UniformSurfacePointInCone(rng, height, radius)
}

// MarshalText implements encoding.TextMarshaler.
func (s SurfaceSampler) MarshalText() ([]byte, error) {
	switch s {
	case SurfaceUniform:
		return []byte("uniform"), nil
	case SurfaceNaive:
		return []byte("naive"), nil
	}
	return nil, fmt.Errorf("invalid surface sampler %d", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SurfaceSampler) UnmarshalText(b []byte) error {
	switch string(b) {
	case "uniform":
		*s = SurfaceUniform
	case "naive":
		*s = SurfaceNaive
	default:
		return fmt.Errorf("unknown surface sampler %q", b)
	}
	return nil
}
