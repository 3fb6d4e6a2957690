package ionization

import (
	"math"
	"testing"
)

func TestFindH0ReturnsFullyNeutralWhenNoRadiationField(t *testing.T) {
	h0, he0, err := FindH0(2.6e-19, 1.5e-19, 0, 0, 1e8, 0.1, 1e4)
	if err != nil {
		t.Fatalf("FindH0: %v", err)
	}
	if h0 != 1 || he0 != 1 {
		t.Errorf("FindH0(jH=0) = (%g, %g), want (1, 1)", h0, he0)
	}
}

func TestFindH0ConvergesToAPlausibleIonizationBalance(t *testing.T) {
	// A strong radiation field and a low density should drive both species
	// close to fully ionized.
	h0, he0, err := FindH0(2.6e-19, 1.5e-19, 1e10, 1e9, 1e6, 0.1, 1e4)
	if err != nil {
		t.Fatalf("FindH0: %v", err)
	}
	if h0 < 0 || h0 > 1 {
		t.Errorf("h0 = %g, want in [0, 1]", h0)
	}
	if he0 < 0 || he0 > 1 {
		t.Errorf("he0 = %g, want in [0, 1]", he0)
	}
	if h0 > 0.5 {
		t.Errorf("h0 = %g, want close to 0 under a strong radiation field", h0)
	}
}

func TestFindH0IsMonotonicInRadiationFieldStrength(t *testing.T) {
	alphaH, alphaHe, nH, heAbundance, T := 2.6e-19, 1.5e-19, 1e8, 0.1, 1e4

	weak, _, err := FindH0(alphaH, alphaHe, 1e4, 1e3, nH, heAbundance, T)
	if err != nil {
		t.Fatalf("FindH0 (weak): %v", err)
	}
	strong, _, err := FindH0(alphaH, alphaHe, 1e8, 1e7, nH, heAbundance, T)
	if err != nil {
		t.Fatalf("FindH0 (strong): %v", err)
	}
	if strong >= weak {
		t.Errorf("h0(strong field) = %g should be less than h0(weak field) = %g", strong, weak)
	}
}

func TestFindH0SimpleMatchesFindH0WhenHeliumIsAbsent(t *testing.T) {
	alphaH, jH, nH := 2.6e-19, 1e9, 1e7

	h0Simple := FindH0Simple(alphaH, jH, nH)
	h0Coupled, _, err := FindH0(alphaH, 0, jH, 0, nH, 0, 1e4)
	if err != nil {
		t.Fatalf("FindH0: %v", err)
	}

	if math.Abs(h0Simple-h0Coupled) > 1e-3 {
		t.Errorf("FindH0Simple = %g, FindH0(heliumAbundance=0) = %g, want them to agree", h0Simple, h0Coupled)
	}
}

func TestFindH0SimpleReturnsFullyNeutralInVacuum(t *testing.T) {
	if got := FindH0Simple(2.6e-19, 0, 1e7); got != 1 {
		t.Errorf("FindH0Simple(jH=0) = %g, want 1", got)
	}
	if got := FindH0Simple(2.6e-19, 1e9, 0); got != 1 {
		t.Errorf("FindH0Simple(nH=0) = %g, want 1", got)
	}
}
