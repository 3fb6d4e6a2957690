/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

package density

import cmac "github.com/knut0815/cmacionize"

// Sampler turns a cloud of SPH particles into a queryable density field,
// via an octree-accelerated kernel sum (spec.md §4.4). It is read-only and
// safe for concurrent use by any number of goroutines once constructed.
type Sampler struct {
	tree                *octree
	initialTemperature  float64
}

// NewSampler builds a Sampler over particles. initialTemperature seeds
// every cell's Values.Temperature, matching the reference reader's
// placeholder temperature assignment (ionic fractions and temperature
// proper are not part of an SPH snapshot; they are overwritten by the
// ionization solver's first iteration).
func NewSampler(particles []Particle, initialTemperature float64) *Sampler {
	return &Sampler{tree: newOctree(particles), initialTemperature: initialTemperature}
}

// Sample returns the density field value at position, summing the kernel
// contribution of every particle whose smoothing-length support reaches it.
func (s *Sampler) Sample(position cmac.CoordinateVector) Values {
	density := 0.0
	for _, i := range s.tree.neighbours(position) {
		part := s.tree.particles[i]
		r := position.Sub(part.Position).Norm()
		q := r / part.SmoothingLength
		density += part.Mass * kernel(q, part.SmoothingLength)
	}

	return Values{
		NumberDensity:     density / hydrogenMass,
		Temperature:       s.initialTemperature,
		NeutralFractionH:  1e-6,
		NeutralFractionHe: 1e-6,
	}
}

// NeighbourCount returns the number of particles contributing to the
// kernel sum at position — a cheap diagnostic for spot-checking sampling
// density without re-deriving the full Values.
func (s *Sampler) NeighbourCount(position cmac.CoordinateVector) int {
	return len(s.tree.neighbours(position))
}
