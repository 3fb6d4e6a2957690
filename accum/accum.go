/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

// Package accum implements the per-cell, per-ion mean-intensity
// accumulator that photon transport writes into and the ionization solver
// reads from. Writes come from many worker goroutines racing on the same
// cell (two different photon packets can cross the same cell in the same
// iteration), so accumulation is guarded by a small fixed set of striped
// locks rather than one mutex per cell, following spec.md §5's "either use
// atomic floating-point add or one lock per cell bucket" — bucketed, since
// Go's math/big aside there is no lock-free atomic float64 add in the
// standard library.
package accum

import (
	"sync"

	"github.com/ctessum/sparse"
)

// numStripes is the number of independent mutexes the accumulator stripes
// cell indices across. It is a fixed constant rather than one-per-cell: a
// real grid can have millions of cells, and a mutex per cell would dwarf
// the accumulator's own memory footprint for no contention benefit beyond
// a few dozen stripes.
const numStripes = 256

// MeanIntensities accumulates dimensionless path-length integrals, one
// value per (cell, ion) pair, across every worker goroutine's photon
// packets for a single transport iteration. The backing storage is a
// ctessum/sparse.DenseArray, the same dense gridded-accumulator type
// vargrid.go uses for per-cell CTM data.
type MeanIntensities struct {
	data    *sparse.DenseArray
	numIons int
	volumes []float64
	locks   [numStripes]sync.Mutex
}

// New creates an accumulator for numCells cells and numIons ion species,
// zero-initialized.
func New(numCells, numIons int) *MeanIntensities {
	return &MeanIntensities{
		data:    sparse.ZerosDense(numCells, numIons),
		numIons: numIons,
		volumes: make([]float64, numCells),
	}
}

// SetVolume records cell's volume, used to normalize path-length integrals
// (weight·s·σ/V_cell) as they are added. Callers populate this once, right
// after computing the Voronoi grid and before shooting any photons.
func (m *MeanIntensities) SetVolume(cell int, volume float64) {
	m.volumes[cell] = volume
}

// Volume returns the volume previously recorded for cell via SetVolume.
func (m *MeanIntensities) Volume(cell int) float64 {
	return m.volumes[cell]
}

// Add adds delta to the accumulator for (cell, ion). Safe for concurrent
// use from any number of goroutines, including concurrent calls touching
// the same cell.
func (m *MeanIntensities) Add(cell, ion int, delta float64) {
	stripe := &m.locks[cell%numStripes]
	stripe.Lock()
	m.data.AddVal(delta, cell, ion)
	stripe.Unlock()
}

// Get returns the current accumulated value for (cell, ion).
func (m *MeanIntensities) Get(cell, ion int) float64 {
	return m.data.Get(cell, ion)
}

// Reset zeroes every accumulator ahead of a new transport iteration.
func (m *MeanIntensities) Reset() {
	for i := range m.data.Elements {
		m.data.Elements[i] = 0
	}
}

// NumCells returns the number of cells the accumulator was sized for.
func (m *MeanIntensities) NumCells() int {
	return m.data.GetShape()[0]
}
