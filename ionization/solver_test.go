package ionization

import (
	"math"
	"testing"

	cmac "github.com/knut0815/cmacionize"
	"gonum.org/v1/gonum/floats"
)

// constantRecombination gives every ion the same recombination rate,
// independent of temperature.
type constantRecombination struct{ alpha float64 }

func (r constantRecombination) RecombinationRate(ion cmac.IonName, temperature float64) float64 {
	return r.alpha
}

// zeroChargeTransfer reports no charge-transfer reactions at all.
type zeroChargeTransfer struct{}

func (zeroChargeTransfer) IonizationRate(z1, z2 int, temperature float64) float64   { return 0 }
func (zeroChargeTransfer) RecombinationRate(z1, z2 int, temperature float64) float64 { return 0 }

func hOnlySolver() Solver {
	return Solver{
		Recombination:  constantRecombination{alpha: 2.6e-19},
		ChargeTransfer: zeroChargeTransfer{},
		Abundances:     cmac.NewAbundances(0, 0, 0, 0, 0, 0),
	}
}

func TestCalculateCellSetsVacuumWhenNumberDensityIsZero(t *testing.T) {
	state := &cmac.IonizationVariables{NumberDensity: 0, Temperature: 1e4}
	state.MeanIntensities[cmac.IonHn] = 1e9

	if err := hOnlySolver().CalculateCell(1, state); err != nil {
		t.Fatalf("CalculateCell: %v", err)
	}
	for ion, x := range state.IonicFractions {
		if x != 0 {
			t.Errorf("IonicFractions[%d] = %g, want 0 in vacuum", ion, x)
		}
	}
}

func TestCalculateCellSetsNeutralWhenMeanIntensityIsZero(t *testing.T) {
	state := &cmac.IonizationVariables{NumberDensity: 1e8, Temperature: 1e4}
	// MeanIntensities left at zero: no photons have reached this cell.

	if err := hOnlySolver().CalculateCell(1, state); err != nil {
		t.Fatalf("CalculateCell: %v", err)
	}
	if state.IonicFractions[cmac.IonHn] != 1 {
		t.Errorf("IonicFractions[IonHn] = %g, want 1 (fully neutral)", state.IonicFractions[cmac.IonHn])
	}
	if state.IonicFractions[cmac.IonHen] != 1 {
		t.Errorf("IonicFractions[IonHen] = %g, want 1 (fully neutral)", state.IonicFractions[cmac.IonHen])
	}
}

func TestCalculateCellRecordsTheOldNeutralFractionBeforeOverwriting(t *testing.T) {
	state := &cmac.IonizationVariables{NumberDensity: 1e8, Temperature: 1e4}
	state.IonicFractions[cmac.IonHn] = 0.4
	state.MeanIntensities[cmac.IonHn] = 1e9

	if err := hOnlySolver().CalculateCell(1, state); err != nil {
		t.Fatalf("CalculateCell: %v", err)
	}
	if state.NeutralFractionHOld != 0.4 {
		t.Errorf("NeutralFractionHOld = %g, want 0.4", state.NeutralFractionHOld)
	}
}

func TestCalculateCellProducesIonicFractionsInRange(t *testing.T) {
	state := &cmac.IonizationVariables{NumberDensity: 1e7, Temperature: 1e4}
	state.MeanIntensities[cmac.IonHn] = 1e9

	if err := hOnlySolver().CalculateCell(1, state); err != nil {
		t.Fatalf("CalculateCell: %v", err)
	}
	h0 := state.IonicFractions[cmac.IonHn]
	if h0 < 0 || h0 > 1 {
		t.Errorf("IonicFractions[IonHn] = %g, want in [0, 1]", h0)
	}
	// With no helium abundance the He channel never runs.
	if he0 := state.IonicFractions[cmac.IonHen]; he0 != 0 {
		t.Errorf("IonicFractions[IonHen] = %g, want 0 when helium abundance is 0", he0)
	}
}

func TestCalculateCellCoolantCascadesNormaliseWithTheImplicitGroundState(t *testing.T) {
	solver := Solver{
		Recombination:  constantRecombination{alpha: 2.6e-19},
		ChargeTransfer: zeroChargeTransfer{},
		Abundances:     cmac.NewAbundances(0.1, 3e-4, 1e-4, 5e-4, 1e-4, 2e-5),
	}
	state := &cmac.IonizationVariables{NumberDensity: 1e8, Temperature: 1e4}
	state.MeanIntensities[cmac.IonHn] = 1e9
	state.MeanIntensities[cmac.IonHen] = 1e8
	// Coolant rates comparable to ne*alpha (~3e-11 s^-1 here), so the
	// implicit ground-stage remainder is large enough to show up in float64.
	state.MeanIntensities[cmac.IonCp1] = 3e-11
	state.MeanIntensities[cmac.IonCp2] = 3e-12
	state.MeanIntensities[cmac.IonNn] = 3e-11
	state.MeanIntensities[cmac.IonNp1] = 3e-12
	state.MeanIntensities[cmac.IonNp2] = 3e-13
	state.MeanIntensities[cmac.IonOn] = 3e-11
	state.MeanIntensities[cmac.IonOp1] = 3e-12

	if err := solver.CalculateCell(1, state); err != nil {
		t.Fatalf("CalculateCell: %v", err)
	}

	carbon := floats.Sum([]float64{
		state.IonicFractions[cmac.IonCp1],
		state.IonicFractions[cmac.IonCp2],
	})
	if carbon >= 1 {
		t.Errorf("carbon stage fractions sum to %g, want < 1 (remainder is the neutral stage)", carbon)
	}

	nitrogen := floats.Sum([]float64{
		state.IonicFractions[cmac.IonNn],
		state.IonicFractions[cmac.IonNp1],
		state.IonicFractions[cmac.IonNp2],
	})
	if nitrogen >= 1 {
		t.Errorf("nitrogen stage fractions sum to %g, want < 1 (remainder is the neutral stage)", nitrogen)
	}
}

// fixedChargeTransfer returns the same ionization/recombination rate for
// every (z1, z2) pair, so every coolant cascade's ctIon/ctRecomb terms come
// out nonzero instead of vanishing like zeroChargeTransfer's.
type fixedChargeTransfer struct{ ionization, recombination float64 }

func (r fixedChargeTransfer) IonizationRate(z1, z2 int, temperature float64) float64 {
	return r.ionization
}

func (r fixedChargeTransfer) RecombinationRate(z1, z2 int, temperature float64) float64 {
	return r.recombination
}

func TestCalculateCellOxygenCascadeIncludesTheChargeTransferRecombinationTerm(t *testing.T) {
	solver := Solver{
		Recombination:  constantRecombination{alpha: 2.6e-19},
		ChargeTransfer: fixedChargeTransfer{ionization: 1e-21, recombination: 2e-21},
		Abundances:     cmac.NewAbundances(0.1, 3e-4, 1e-4, 5e-4, 1e-4, 2e-5),
	}
	// Rates chosen so hydrogen stays partly neutral and the oxygen ratios
	// are of order one; otherwise the ntot*h0*ctRecomb terms are lost to
	// rounding next to ne*alpha and IonOn underflows the tolerance below.
	state := &cmac.IonizationVariables{NumberDensity: 1e8, Temperature: 1e4}
	state.MeanIntensities[cmac.IonHn] = 1e-11
	state.MeanIntensities[cmac.IonHen] = 1e-12
	state.MeanIntensities[cmac.IonOn] = 1e-11
	state.MeanIntensities[cmac.IonOp1] = 1e-12

	if err := solver.CalculateCell(1, state); err != nil {
		t.Fatalf("CalculateCell: %v", err)
	}

	h0 := state.IonicFractions[cmac.IonHn]
	he0 := state.IonicFractions[cmac.IonHen]
	heAbundance := solver.Abundances.Get(cmac.ElementHe)
	ne := state.NumberDensity * (1 - h0 + heAbundance*(1-he0))
	nhp := state.NumberDensity * (1 - h0)

	rrOn := solver.Recombination.RecombinationRate(cmac.IonOn, state.Temperature)
	rrOp1 := solver.Recombination.RecombinationRate(cmac.IonOp1, state.Temperature)
	ctIon := solver.ChargeTransfer.IonizationRate(1, 8, state.Temperature)
	ctRecomb21 := solver.ChargeTransfer.RecombinationRate(2, 8, state.Temperature)
	ctRecomb32 := solver.ChargeTransfer.RecombinationRate(3, 8, state.Temperature)
	ctHeRecomb := 0.2e-15 * math.Pow(state.Temperature*1e-4, 0.95)

	// With the charge-transfer recombination term included in O21's
	// denominator, leaving it out would inflate O21 and so the neutral-oxygen
	// stage fraction below.
	wantDenominator := ne*rrOn + state.NumberDensity*h0*ctRecomb21
	omittedDenominator := ne * rrOn
	if wantDenominator <= omittedDenominator {
		t.Fatalf("test setup: charge-transfer recombination term must be strictly positive")
	}

	O21 := (1e-11 + nhp*ctIon) / wantDenominator
	O32 := 1e-12 / (ne*rrOp1 + state.NumberDensity*h0*ctRecomb32 + state.NumberDensity*he0*heAbundance*ctHeRecomb)
	O31 := O32 * O21
	sumO := O21 + O31
	wantOn := O21 / (1 + sumO)

	if got := state.IonicFractions[cmac.IonOn]; math.Abs(got-wantOn) > 1e-9*math.Max(1, math.Abs(wantOn)) {
		t.Errorf("IonicFractions[IonOn] = %g, want %g (O21 denominator must include ntot*h0*ctRecomb(2,8,T))", got, wantOn)
	}
}
