/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

package cmacutil

import (
	"fmt"
	"math"

	"github.com/BurntSushi/toml"

	cmac "github.com/knut0815/cmacionize"
)

// atomicDataRaw mirrors the on-disk TOML layout for recombination and
// charge-transfer rate coefficients: each ion gets a reference rate at
// 1e4 K plus a power-law temperature exponent, the same
// alpha(T) = alpha0 * (T/1e4)^power form the reference implementation's
// fitted recombination tables use throughout IonizationStateCalculator.cpp.
type atomicDataRaw struct {
	Recombination map[string]struct {
		Alpha0 float64
		Power  float64
	}
	ChargeTransfer []struct {
		Z1, Z2         int
		Ionization     float64
		Recombination  float64
		Power          float64
	}
}

// AtomicData is a table of recombination and charge-transfer rate
// coefficients loaded from disk, the "atomic-data table" spec.md §1 calls an
// external collaborator the core only ever consumes through the
// cmac.RecombinationRates/cmac.ChargeTransferRates interfaces. Recombination
// and ChargeTransfer return thin views implementing those two interfaces;
// AtomicData itself cannot, since both interfaces declare a
// RecombinationRate method with a different signature.
type AtomicData struct {
	recombination [cmac.NumberOfIonNames]struct{ alpha0, power float64 }
	chargeXfer    map[[2]int]struct{ ionization, recombination, power float64 }
}

// LoadAtomicData reads and parses an atomic-data TOML file at path.
func LoadAtomicData(path string) (*AtomicData, error) {
	var raw atomicDataRaw
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("cmacutil: reading atomic data %s: %w", path, err)
	}

	names := map[string]cmac.IonName{
		"H_n": cmac.IonHn, "He_n": cmac.IonHen,
		"C_p1": cmac.IonCp1, "C_p2": cmac.IonCp2,
		"N_n": cmac.IonNn, "N_p1": cmac.IonNp1, "N_p2": cmac.IonNp2,
		"O_n": cmac.IonOn, "O_p1": cmac.IonOp1,
		"Ne_n": cmac.IonNen, "Ne_p1": cmac.IonNep1,
		"S_p1": cmac.IonSp1, "S_p2": cmac.IonSp2, "S_p3": cmac.IonSp3,
	}

	var data AtomicData
	for name, coeff := range raw.Recombination {
		ion, ok := names[name]
		if !ok {
			return nil, fmt.Errorf("cmacutil: atomic data: unknown ion %q", name)
		}
		data.recombination[ion] = struct{ alpha0, power float64 }{coeff.Alpha0, coeff.Power}
	}

	data.chargeXfer = make(map[[2]int]struct{ ionization, recombination, power float64 }, len(raw.ChargeTransfer))
	for _, r := range raw.ChargeTransfer {
		data.chargeXfer[[2]int{r.Z1, r.Z2}] = struct{ ionization, recombination, power float64 }{
			r.Ionization, r.Recombination, r.Power,
		}
	}
	return &data, nil
}

// recombinationView adapts AtomicData to cmac.RecombinationRates.
type recombinationView struct{ data *AtomicData }

// Recombination returns a, viewed as a cmac.RecombinationRates.
func (a *AtomicData) Recombination() cmac.RecombinationRates { return recombinationView{a} }

func (v recombinationView) RecombinationRate(ion cmac.IonName, temperature float64) float64 {
	c := v.data.recombination[ion]
	if c.alpha0 == 0 {
		return 0
	}
	return c.alpha0 * math.Pow(temperature/1e4, c.power)
}

// chargeTransferView adapts AtomicData to cmac.ChargeTransferRates.
type chargeTransferView struct{ data *AtomicData }

// ChargeTransfer returns a, viewed as a cmac.ChargeTransferRates.
func (a *AtomicData) ChargeTransfer() cmac.ChargeTransferRates { return chargeTransferView{a} }

func (v chargeTransferView) IonizationRate(z1, z2 int, temperature float64) float64 {
	r, ok := v.data.chargeXfer[[2]int{z1, z2}]
	if !ok {
		return 0
	}
	return r.ionization * math.Pow(temperature/1e4, r.power)
}

func (v chargeTransferView) RecombinationRate(z1, z2 int, temperature float64) float64 {
	r, ok := v.data.chargeXfer[[2]int{z1, z2}]
	if !ok {
		return 0
	}
	return r.recombination * math.Pow(temperature/1e4, r.power)
}
