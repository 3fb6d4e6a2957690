/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

// Package transport implements the Monte Carlo photon-packet propagation
// loop (spec.md §4.5-4.6): a work-stealing job market that hands out
// batches of photons to worker goroutines, and the traversal that carries
// each packet across the Voronoi grid accumulating path-length integrals
// until it is absorbed or escapes the domain.
package transport

import (
	cmac "github.com/knut0815/cmacionize"
)

// Photon is a single Monte Carlo packet in flight. Only the worker
// goroutine that created it ever touches its fields.
type Photon struct {
	Position  cmac.CoordinateVector
	Direction cmac.CoordinateVector
	Energy    float64 // Hz

	CrossSections      [cmac.NumberOfIonNames]float64 // m^2
	CrossSectionHeCorr float64                         // m^2

	Type   cmac.PhotonType
	Weight float64
}

// NewPhoton creates a freshly emitted primary photon.
func NewPhoton(position, direction cmac.CoordinateVector, energy float64) *Photon {
	return &Photon{
		Position:  position,
		Direction: direction,
		Energy:    energy,
		Type:      cmac.PhotonPrimary,
		Weight:    1,
	}
}

// Source emits photon packets and reports the cross sections they carry.
// An implementation is read-only over the lifetime of a run.
type Source interface {
	// Sample draws a new packet's emission position, direction and
	// frequency using u, a source of uniform variates in [0, 1].
	Sample(u UniformSource) (position, direction cmac.CoordinateVector, frequency float64)

	// Luminosity returns the source's total ionizing luminosity, in
	// photons per second.
	Luminosity() float64

	// CrossSections returns the photoionization cross section of every
	// tracked ion at frequency, plus the abundance-weighted effective
	// helium cross section spec.md §4.5 step 2 calls for.
	CrossSections(frequency float64) (sigma [cmac.NumberOfIonNames]float64, heCorr float64)
}

// UniformSource is the minimal interface transport needs from a random
// number generator: a single uniform-variate method, satisfied by
// *random.Generator without transport importing the random package
// directly (sampling policy lives entirely in the caller-supplied Source).
type UniformSource interface {
	Uniform() float64
}
