/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

package transport

import (
	"fmt"

	"github.com/knut0815/cmacionize/accum"
	"github.com/knut0815/cmacionize/voronoi"

	cmac "github.com/knut0815/cmacionize"
)

// epsilon nudges a photon's position a tiny distance along its direction
// of travel, enough to guarantee it classifies into the interior of the
// next cell rather than landing exactly on a shared face.
const epsilon = 1e-12

// maxInteriorRetries bounds how many times Interact will nudge-and-relocate
// after the traversal primitive fails to find a strictly positive exit
// distance, before giving up. The reference implementation treats this as
// a fatal assertion after 100 attempts (spec.md §4.5); so does this one.
const maxInteriorRetries = 100

// CellStates is the read-only view transport needs of each cell's current
// physical state: the number density and ionic fractions the optical-depth
// integral is weighted by.
type CellStates interface {
	State(cell uint32) cmac.IonizationVariables
}

// Result is the outcome of shooting a single photon packet through the
// grid: either it was absorbed in a cell (Absorbed true, Cell set) or it
// escaped the domain through a wall (Absorbed false).
type Result struct {
	Absorbed bool
	Cell     uint32
}

// Interact traverses photon through grid, accumulating path-length
// integrals into intensities, until the packet either reaches tauTarget
// (it is absorbed) or crosses a domain wall (it exits). photon.Position is
// updated in place to its final location.
func Interact(grid *voronoi.Grid, photon *Photon, tauTarget float64, states CellStates, intensities *accum.MeanIntensities) (Result, error) {
	position := photon.Position.Add(photon.Direction.Scale(epsilon))

	index, err := grid.GetIndex(position)
	if err != nil {
		return Result{}, fmt.Errorf("transport: locating initial photon position: %w", err)
	}

	remaining := tauTarget
	for remaining > 0 {
		s, nextIndex, exitedWall, err := traceWithRetries(grid, &index, &position, photon.Direction)
		if err != nil {
			return Result{}, err
		}

		state := states.State(index)
		opacity := opacityPerLength(photon, state)
		tauS := s * opacity

		if tauS >= remaining {
			s = s * remaining / tauS
			tauS = remaining
		}

		updateIntegrals(intensities, index, photon, s)
		position = position.Add(photon.Direction.Scale(s))
		remaining -= tauS

		if remaining <= 0 {
			photon.Position = position
			return Result{Absorbed: true, Cell: index}, nil
		}
		if exitedWall {
			photon.Position = position
			return Result{Absorbed: false}, nil
		}
		index = nextIndex
	}

	photon.Position = position
	return Result{Absorbed: true, Cell: index}, nil
}

// traceWithRetries calls Grid.Trace and, should it report a non-positive
// exit distance (possible right at a face due to floating-point roundoff),
// nudges the position forward and re-locates the containing cell, up to
// maxInteriorRetries times.
func traceWithRetries(grid *voronoi.Grid, index *uint32, position *cmac.CoordinateVector, direction cmac.CoordinateVector) (s float64, nextIndex uint32, exitedWall bool, err error) {
	pos := *position
	idx := *index

	for attempt := 0; ; attempt++ {
		dist, face, traceErr := grid.Trace(idx, pos, direction)
		if traceErr == nil && dist > 0 {
			*position = pos
			*index = idx
			return dist, face.Neighbour, face.Neighbour >= voronoi.MaxIndex, nil
		}

		if attempt >= maxInteriorRetries {
			return 0, 0, false, fmt.Errorf("transport: photon stuck at %v after %d interior-relocation retries", pos, maxInteriorRetries)
		}

		pos = pos.Add(direction.Scale(epsilon))
		idx, err = grid.GetIndex(pos)
		if err != nil {
			return 0, 0, false, fmt.Errorf("transport: relocating photon after degenerate trace: %w", err)
		}
	}
}

// opacityPerLength computes n · [x(H)σ_H + ... + x(He)σ_He_corr + ...], the
// coefficient that turns a path length into an optical depth (spec.md
// §4.5 step 3). Every ion contributes its own ionic fraction times its
// plain cross section, except IonHen (neutral helium), whose contribution
// uses the photon's pre-computed abundance-weighted CrossSectionHeCorr in
// place of CrossSections[IonHen].
func opacityPerLength(photon *Photon, state cmac.IonizationVariables) float64 {
	sum := 0.0
	for ion := cmac.IonName(0); ion < cmac.NumberOfIonNames; ion++ {
		if ion == cmac.IonHen {
			sum += state.IonicFractions[ion] * photon.CrossSectionHeCorr
			continue
		}
		sum += state.IonicFractions[ion] * photon.CrossSections[ion]
	}
	return state.NumberDensity * sum
}

// updateIntegrals adds this segment's contribution to every ion's
// mean-intensity accumulator for cell: weight·s·σ_ion / V_cell (spec.md
// §4.5, "Path-integral update"). The per-cell volume is read from
// intensities itself, populated once via accum.MeanIntensities.SetVolume
// right after the Voronoi grid is computed.
func updateIntegrals(intensities *accum.MeanIntensities, cell uint32, photon *Photon, s float64) {
	volume := intensities.Volume(int(cell))
	if volume <= 0 {
		return
	}
	factor := photon.Weight * s / volume
	for ion := cmac.IonName(0); ion < cmac.NumberOfIonNames; ion++ {
		sigma := photon.CrossSections[ion]
		if ion == cmac.IonHen {
			sigma = photon.CrossSectionHeCorr
		}
		if sigma == 0 {
			continue
		}
		intensities.Add(int(cell), int(ion), factor*sigma)
	}
}
