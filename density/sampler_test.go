package density

import (
	"math"
	"testing"

	cmac "github.com/knut0815/cmacionize"
)

func TestKernelVanishesBeyondTwoSmoothingLengths(t *testing.T) {
	if v := kernel(2.0, 1.0); v != 0 {
		t.Errorf("kernel(2, 1) = %g, want 0", v)
	}
	if v := kernel(3.5, 1.0); v != 0 {
		t.Errorf("kernel(3.5, 1) = %g, want 0", v)
	}
}

func TestKernelIsContinuousAtQEqualsOne(t *testing.T) {
	h := 1.0
	left := kernel(1-1e-9, h)
	right := kernel(1+1e-9, h)
	if math.Abs(left-right) > 1e-6 {
		t.Errorf("kernel discontinuous at q=1: left=%g right=%g", left, right)
	}
}

func TestKernelIntegratesToOne(t *testing.T) {
	// Numerically integrate 4*pi*r^2*W(r/h, h) dr from 0 to 2h via the
	// midpoint rule; should recover 1 (the kernel is normalized to unit
	// mass for a point of unit density), within the discretization error
	// of 2000 steps.
	h := 1.0
	n := 2000
	dr := 2 * h / float64(n)
	integral := 0.0
	for i := 0; i < n; i++ {
		r := (float64(i) + 0.5) * dr
		q := r / h
		integral += 4 * math.Pi * r * r * kernel(q, h) * dr
	}
	if math.Abs(integral-1) > 1e-3 {
		t.Errorf("kernel integral = %g, want ~1", integral)
	}
}

func TestSampleIsZeroFarFromAnyParticle(t *testing.T) {
	particles := []Particle{
		{Position: cmac.Vec3(0, 0, 0), Mass: 1e-20, SmoothingLength: 0.01},
	}
	s := NewSampler(particles, 100)
	v := s.Sample(cmac.Vec3(10, 10, 10))
	if v.NumberDensity != 0 {
		t.Errorf("NumberDensity = %g, want 0 far from the only particle", v.NumberDensity)
	}
}

func TestSampleAtParticlePositionIsPositive(t *testing.T) {
	particles := []Particle{
		{Position: cmac.Vec3(0, 0, 0), Mass: 1e-20, SmoothingLength: 0.05},
		{Position: cmac.Vec3(0.02, 0, 0), Mass: 1e-20, SmoothingLength: 0.05},
		{Position: cmac.Vec3(0, 0.02, 0), Mass: 1e-20, SmoothingLength: 0.05},
	}
	s := NewSampler(particles, 100)
	v := s.Sample(cmac.Vec3(0, 0, 0))
	if v.NumberDensity <= 0 {
		t.Errorf("NumberDensity = %g, want > 0 at a particle cluster", v.NumberDensity)
	}
	if v.Temperature != 100 {
		t.Errorf("Temperature = %g, want the seeded initial temperature 100", v.Temperature)
	}
}

func TestNeighbourCountGrowsWithClusterSize(t *testing.T) {
	var particles []Particle
	for i := 0; i < 50; i++ {
		particles = append(particles, Particle{
			Position:        cmac.Vec3(float64(i%5)*0.01, float64(i/5)*0.01, 0),
			Mass:            1e-20,
			SmoothingLength: 0.02,
		})
	}
	s := NewSampler(particles, 100)
	n := s.NeighbourCount(cmac.Vec3(0.02, 0.02, 0))
	if n == 0 {
		t.Error("expected at least one neighbour inside a dense cluster")
	}
	if n > len(particles) {
		t.Errorf("NeighbourCount = %d, exceeds total particle count %d", n, len(particles))
	}
}
