/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

package ionization

import (
	"math"

	cmac "github.com/knut0815/cmacionize"
)

// Solver computes per-cell ionization state from accumulated mean-intensity
// integrals, given read-only recombination and charge-transfer rate
// tables and element abundances. A Solver is immutable after construction
// and safe for concurrent use by any number of goroutines (spec.md §4.6,
// §5: cell solves are distributed across workers via the same job-market
// mechanism photon transport uses).
type Solver struct {
	Recombination  cmac.RecombinationRates
	ChargeTransfer cmac.ChargeTransferRates
	Abundances     cmac.Abundances
}

// CalculateCell updates state's ionic fractions in place from its current
// mean-intensity accumulators, the supplied jfac normalisation, and the
// rate tables the Solver was built with. It also copies state's current
// H-neutral fraction into NeutralFractionHOld before overwriting it, so a
// caller can check convergence across repeated transport+solve iterations
// (spec.md §4.6, "Normalisation"/"Vacuum / dark cells").
func (s Solver) CalculateCell(jfac float64, state *cmac.IonizationVariables) error {
	state.NeutralFractionHOld = state.IonicFractions[cmac.IonHn]

	jH := jfac * state.MeanIntensities[cmac.IonHn]
	jHe := jfac * state.MeanIntensities[cmac.IonHen]
	ntot := state.NumberDensity

	if !(jH > 0 && ntot > 0) {
		if ntot > 0 {
			setNeutral(state)
		} else {
			setVacuum(state)
		}
		return nil
	}

	T := state.Temperature
	alphaH := s.Recombination.RecombinationRate(cmac.IonHn, T)
	alphaHe := s.Recombination.RecombinationRate(cmac.IonHen, T)

	heAbundance := s.Abundances.Get(cmac.ElementHe)
	var h0, he0 float64
	var err error
	if heAbundance != 0 {
		h0, he0, err = FindH0(alphaH, alphaHe, jH, jHe, ntot, heAbundance, T)
		if err != nil {
			return err
		}
	} else {
		h0 = FindH0Simple(alphaH, jH, ntot)
		he0 = 0
	}

	state.IonicFractions[cmac.IonHn] = h0
	state.IonicFractions[cmac.IonHen] = he0

	ne := ntot * (1 - h0 + heAbundance*(1-he0))
	T4 := T * 1e-4
	nhp := ntot * (1 - h0)

	s.solveCoolants(jfac, state, ne, T4, ntot, h0, he0, heAbundance, T, nhp)
	return nil
}

func setNeutral(state *cmac.IonizationVariables) {
	for ion := range state.IonicFractions {
		state.IonicFractions[ion] = 0
	}
	state.IonicFractions[cmac.IonHn] = 1
	state.IonicFractions[cmac.IonHen] = 1
}

func setVacuum(state *cmac.IonizationVariables) {
	for ion := range state.IonicFractions {
		state.IonicFractions[ion] = 0
	}
}

// solveCoolants runs the carbon, nitrogen, sulphur, neon and oxygen
// ionization cascades (spec.md §7 "Coolant ionization rate equations"),
// each following the same pattern: compute stage-to-stage ionization
// ratios, then normalise so the stage fractions (plus the implicit "stage
// 0" population folded into the 1+sum denominator) sum to 1.
func (s Solver) solveCoolants(jfac float64, state *cmac.IonizationVariables, ne, T4, ntot, h0, he0, heAbundance, T, nhp float64) {
	rr := s.Recombination.RecombinationRate
	ctRecomb := s.ChargeTransfer.RecombinationRate
	ctIon := s.ChargeTransfer.IonizationRate
	J := func(ion cmac.IonName) float64 { return jfac * state.MeanIntensities[ion] }

	// Carbon.
	C21 := J(cmac.IonCp1) / ne / rr(cmac.IonCp1, T)
	ctHeRecomb := 1e-15 * 0.046 * T4 * T4
	C32 := J(cmac.IonCp2) / (ne*rr(cmac.IonCp2, T) + ntot*h0*ctRecomb(4, 6, T) + ntot*he0*heAbundance*ctHeRecomb)
	C31 := C32 * C21
	sumC := C21 + C31
	state.IonicFractions[cmac.IonCp1] = C21 / (1 + sumC)
	state.IonicFractions[cmac.IonCp2] = C31 / (1 + sumC)

	// Nitrogen.
	N21 := (J(cmac.IonNn) + nhp*ctIon(1, 7, T)) / (ne*rr(cmac.IonNn, T) + ntot*h0*ctRecomb(2, 7, T))
	ctHeRecomb = 1e-15 * 0.33 * math.Pow(T4, 0.29) * (1 + 1.3*math.Exp(-4.5/T4))
	N32 := J(cmac.IonNp1) / (ne*rr(cmac.IonNp1, T) + ntot*h0*ctRecomb(3, 7, T) + ntot*he0*heAbundance*ctHeRecomb)
	ctHeRecomb = 1e-15 * 0.15
	N43 := J(cmac.IonNp2) / (ne*rr(cmac.IonNp2, T) + ntot*h0*ctRecomb(4, 7, T) + ntot*he0*heAbundance*ctHeRecomb)
	N31 := N32 * N21
	N41 := N43 * N31
	sumN := N21 + N31 + N41
	state.IonicFractions[cmac.IonNn] = N21 / (1 + sumN)
	state.IonicFractions[cmac.IonNp1] = N31 / (1 + sumN)
	state.IonicFractions[cmac.IonNp2] = N41 / (1 + sumN)

	// Sulphur.
	S21 := J(cmac.IonSp1) / (ne*rr(cmac.IonSp1, T) + ntot*h0*ctRecomb(3, 16, T))
	ctHeRecomb = 1e-15 * 1.1 * math.Pow(T4, 0.56)
	S32 := J(cmac.IonSp2) / (ne*rr(cmac.IonSp2, T) + ntot*h0*ctRecomb(4, 16, T) + ntot*he0*heAbundance*ctHeRecomb)
	ctHeRecomb = 1e-15 * 7.6e-4 * math.Pow(T4, 0.32) * (1 + 3.4*math.Exp(-5.25*T4))
	S43 := J(cmac.IonSp3) / (ne*rr(cmac.IonSp3, T) + ntot*h0*ctRecomb(5, 16, T) + ntot*he0*heAbundance*ctHeRecomb)
	S31 := S32 * S21
	S41 := S43 * S31
	sumS := S21 + S31 + S41
	state.IonicFractions[cmac.IonSp1] = S21 / (1 + sumS)
	state.IonicFractions[cmac.IonSp2] = S31 / (1 + sumS)
	state.IonicFractions[cmac.IonSp3] = S41 / (1 + sumS)

	// Neon.
	Ne21 := J(cmac.IonNen) / (ne * rr(cmac.IonNen, T))
	ctHeRecomb = 1e-15 * 1e-5
	Ne32 := J(cmac.IonNep1) / (ne*rr(cmac.IonNep1, T) + ntot*h0*ctRecomb(3, 10, T) + ntot*he0*heAbundance*ctHeRecomb)
	Ne31 := Ne32 * Ne21
	sumNe := Ne21 + Ne31
	state.IonicFractions[cmac.IonNen] = Ne21 / (1 + sumNe)
	state.IonicFractions[cmac.IonNep1] = Ne31 / (1 + sumNe)

	// Oxygen.
	O21 := (J(cmac.IonOn) + nhp*ctIon(1, 8, T)) / (ne*rr(cmac.IonOn, T) + ntot*h0*ctRecomb(2, 8, T))
	ctHeRecomb = 0.2e-15 * math.Pow(T4, 0.95)
	O32 := J(cmac.IonOp1) / (ne*rr(cmac.IonOp1, T) + ntot*h0*ctRecomb(3, 8, T) + ntot*he0*heAbundance*ctHeRecomb)
	O31 := O32 * O21
	sumO := O21 + O31
	state.IonicFractions[cmac.IonOn] = O21 / (1 + sumO)
	state.IonicFractions[cmac.IonOp1] = O31 / (1 + sumO)
}
