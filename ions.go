/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

package cmacionize

// IonName enumerates every ionization stage tracked by the solver, in a
// fixed index order shared by cross-section tables, rate tables and the
// per-cell mean-intensity/ionic-fraction accumulators.
type IonName int

// The closed set of tracked ions. Order is part of the wire contract: it
// indexes IonizationVariables.MeanIntensities and .IonicFractions, and the
// cross-section arrays carried by Photon.
const (
	IonHn IonName = iota
	IonHen
	IonCp1
	IonCp2
	IonNn
	IonNp1
	IonNp2
	IonOn
	IonOp1
	IonNen
	IonNep1
	IonSp1
	IonSp2
	IonSp3

	// NumberOfIonNames is the sentinel size of the IonName enumeration.
	NumberOfIonNames
)

var ionNames = [NumberOfIonNames]string{
	IonHn:   "H_n",
	IonHen:  "He_n",
	IonCp1:  "C_p1",
	IonCp2:  "C_p2",
	IonNn:   "N_n",
	IonNp1:  "N_p1",
	IonNp2:  "N_p2",
	IonOn:   "O_n",
	IonOp1:  "O_p1",
	IonNen:  "Ne_n",
	IonNep1: "Ne_p1",
	IonSp1:  "S_p1",
	IonSp2:  "S_p2",
	IonSp3:  "S_p3",
}

// String returns the canonical name of the ion.
func (i IonName) String() string {
	if i < 0 || int(i) >= len(ionNames) {
		return "unknown_ion"
	}
	return ionNames[i]
}

// PhotonType tags a photon's provenance through its lifetime. Every photon
// is born PRIMARY; the other variants distinguish diffuse re-emission and
// full absorption for bookkeeping, but spec.md's Non-goals exclude any
// actual re-emission policy beyond this tag.
type PhotonType int

const (
	PhotonPrimary PhotonType = iota
	PhotonDiffuseHI
	PhotonDiffuseHeI
	PhotonAbsorbed

	// NumberOfPhotonTypes is the sentinel size of the PhotonType enumeration.
	NumberOfPhotonTypes
)

func (t PhotonType) String() string {
	switch t {
	case PhotonPrimary:
		return "primary"
	case PhotonDiffuseHI:
		return "diffuse_HI"
	case PhotonDiffuseHeI:
		return "diffuse_HeI"
	case PhotonAbsorbed:
		return "absorbed"
	default:
		return "unknown_photon_type"
	}
}

// Element identifies a chemical element for abundance lookups.
type Element int

const (
	ElementH Element = iota
	ElementHe
	ElementC
	ElementN
	ElementO
	ElementNe
	ElementS

	numberOfElements
)

// Abundances is a read-only mapping from element to abundance relative to
// hydrogen (e.g. He/H, C/H, ...).
type Abundances struct {
	values [numberOfElements]float64
}

// NewAbundances builds an Abundances table. heAbundance, cAbundance, ...
// are all relative to hydrogen, which is implicitly 1.
func NewAbundances(he, c, n, o, ne, s float64) Abundances {
	var a Abundances
	a.values[ElementH] = 1.
	a.values[ElementHe] = he
	a.values[ElementC] = c
	a.values[ElementN] = n
	a.values[ElementO] = o
	a.values[ElementNe] = ne
	a.values[ElementS] = s
	return a
}

// Get returns the abundance of element relative to hydrogen.
func (a Abundances) Get(element Element) float64 {
	return a.values[element]
}

// RecombinationRates exposes recombination rate coefficients (m^3 s^-1) as
// a function of temperature. Implementations are read-only tables over the
// lifetime of a run.
type RecombinationRates interface {
	RecombinationRate(ion IonName, temperature float64) float64
}

// ChargeTransferRates exposes charge-transfer rate coefficients (m^3 s^-1)
// between a heavy ion (identified by atomic number pair) and hydrogen.
type ChargeTransferRates interface {
	// IonizationRate returns the charge-transfer ionization rate for the
	// reaction between atomic numbers (z1, z2) at temperature T.
	IonizationRate(z1, z2 int, temperature float64) float64
	// RecombinationRate returns the charge-transfer recombination rate for
	// the reaction between atomic numbers (z1, z2) at temperature T.
	RecombinationRate(z1, z2 int, temperature float64) float64
}

// IonizationVariables holds the per-cell physical and radiative state
// consumed and produced by the ionization-balance solver.
//
// MeanIntensities is an accumulator: it is zeroed at the start of each
// photon-transport iteration and read (still in its dimensionless,
// unnormalised form) at the end of the iteration by the solver, which
// applies the jfac normalisation described in spec.md §4.6.
type IonizationVariables struct {
	NumberDensity  float64 // m^-3
	Temperature    float64 // K
	IonicFractions [NumberOfIonNames]float64
	MeanIntensities [NumberOfIonNames]float64

	// NeutralFractionHOld is a diagnostic copy of the H neutral fraction
	// from before the most recent solve, used by callers to check
	// convergence across repeated transport+solve iterations.
	NeutralFractionHOld float64
}

// ResetMeanIntensities zeroes the accumulator ahead of a photon-transport
// iteration.
func (v *IonizationVariables) ResetMeanIntensities() {
	for i := range v.MeanIntensities {
		v.MeanIntensities[i] = 0.
	}
}
