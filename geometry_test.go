package tinsel

import (
	"math"
	"testing"
)

// yBins histograms the height above the cone base into n equal bins.
func yBins(points []Vec3, height float64, n int) []int {
	bins := make([]int, n)
	for _, p := range points {
		y := p.Y() + height*coneBaseOffset
		k := min(int(y/height*float64(n)), n-1)
		bins[max(k, 0)]++
	}
	return bins
}

func TestUniformSurfaceDensityGrowsTowardBase(t *testing.T) {
	rng := newTestRNG()
	const h, r = 14.0, 5.0
	pts := make([]Vec3, 20000)
	for i := range pts {
		pts[i] = UniformSurfacePointInCone(rng, h, r)
	}
	bins := yBins(pts, h, 7)
	for i := 1; i < len(bins); i++ {
		if bins[i] >= bins[i-1] {
			t.Errorf("bin %d (%d) should hold fewer points than bin %d (%d)", i, bins[i], i-1, bins[i-1])
		}
	}
	// Lower half of the height holds 3/4 of the surface area.
	lower := bins[0] + bins[1] + bins[2] + bins[3]/2
	if frac := float64(lower) / float64(len(pts)); frac < 0.7 || frac > 0.8 {
		t.Errorf("lower-half fraction = %v, want ~0.75", frac)
	}
}

func TestSurfacePointsLieOnTaper(t *testing.T) {
	rng := newTestRNG()
	const h, r = 14.0, 5.0
	for _, sampler := range []SurfaceSampler{SurfaceUniform, SurfaceNaive} {
		for range 200 {
			p := sampler.Sample(rng, h, r)
			y := p.Y() + h*coneBaseOffset
			if y < -epsilon || y > h+epsilon {
				t.Fatalf("y = %v outside cone", y)
			}
			assertNear(t, "radius", math.Hypot(p.X(), p.Z()), coneRadiusAt(y, h, r))
		}
	}
}

func TestNaiveSurfaceIsApexHeavy(t *testing.T) {
	rng := newTestRNG()
	const h, r = 14.0, 5.0
	naive := make([]Vec3, 10000)
	uniform := make([]Vec3, 10000)
	for i := range naive {
		naive[i] = PointOnConeSurface(rng, h, r)
		uniform[i] = UniformSurfacePointInCone(rng, h, r)
	}
	top := len(yBins(naive, h, 4)) - 1
	if yBins(naive, h, 4)[top] <= 2*yBins(uniform, h, 4)[top] {
		t.Error("naive sampler should put far more points near the apex")
	}
}

func TestRandomPointInConeIsInside(t *testing.T) {
	rng := newTestRNG()
	const h, r = 14.0, 5.0
	minY, maxY := math.Inf(1), math.Inf(-1)
	for range 5000 {
		p := RandomPointInCone(rng, h, r)
		y := p.Y() + h*coneBaseOffset
		if math.Hypot(p.X(), p.Z()) > coneRadiusAt(y, h, r)+epsilon {
			t.Fatalf("point %v outside the cone", p)
		}
		minY, maxY = math.Min(minY, p.Y()), math.Max(maxY, p.Y())
	}
	if minY < -h*coneBaseOffset || maxY > h*(1-coneBaseOffset) {
		t.Errorf("y range [%v, %v] outside the recentered cone", minY, maxY)
	}
}

func TestZeroHeightCone(t *testing.T) {
	rng := newTestRNG()
	if p := RandomPointInCone(rng, 0, 5); p != (Vec3{}) {
		t.Errorf("RandomPointInCone = %v, want origin", p)
	}
	if p := UniformSurfacePointInCone(rng, -1, 5); p != (Vec3{}) {
		t.Errorf("UniformSurfacePointInCone = %v, want origin", p)
	}
}

func TestRandomVectorBounds(t *testing.T) {
	rng := newTestRNG()
	for range 500 {
		v := RandomVector(rng, 2)
		for i := range v {
			if v[i] < -1 || v[i] > 1 {
				t.Fatalf("component %d = %v outside [-1, 1]", i, v[i])
			}
		}
	}
	if v := RandomVector(rng, 0); v.Len() != 0 {
		t.Errorf("zero scale = %v", v)
	}
}

func TestSurfaceSamplerText(t *testing.T) {
	var s SurfaceSampler
	if err := s.UnmarshalText([]byte("naive")); err != nil || s != SurfaceNaive {
		t.Errorf("UnmarshalText naive = %v, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("spiral")); err == nil {
		t.Error("expected error for unknown sampler")
	}
	b, _ := SurfaceUniform.MarshalText()
	if string(b) != "uniform" {
		t.Errorf("MarshalText = %q", b)
	}
}
