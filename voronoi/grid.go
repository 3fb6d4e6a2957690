/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

package voronoi

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	cmac "github.com/knut0815/cmacionize"
)

// Grid owns the full set of Voronoi generators and, after ComputeGrid, their
// finalized cells. It also answers the two queries photon transport needs:
// GetIndex (point location) and the face/ray traversal primitive exposed by
// Grid.Trace.
type Grid struct {
	box      cmac.Box
	periodic bool

	generators []cmac.CoordinateVector
	cells      []*Cell

	bucket *bucketIndex
}

// NewGrid creates an empty grid over box. periodic enables minimum-image
// wrapping of neighbour offsets across the box boundary in place of the
// reference implementation's explicit box-doubling: both conventions
// produce the same clipping half-spaces for a box whose generators are at
// least as dense as its periodic images, and the minimum-image form avoids
// ever materializing ghost generators (see DESIGN.md).
func NewGrid(box cmac.Box, periodic bool) *Grid {
	return &Grid{box: box, periodic: periodic}
}

// AddCell registers a new generator and returns its index. Indices are
// assigned densely starting at 0, in call order; they are what Face.Neighbour
// and GetIndex report for real (non-wall) neighbours.
func (g *Grid) AddCell(generator cmac.CoordinateVector) uint32 {
	if !g.box.Contains(generator) {
		panic(fmt.Sprintf("voronoi: generator %v lies outside the grid box", generator))
	}
	idx := uint32(len(g.generators))
	g.generators = append(g.generators, generator)
	return idx
}

// offsetTo returns the vector from generators[i] to generators[j], applying
// minimum-image wrapping when the grid is periodic.
func (g *Grid) offsetTo(i, j uint32) cmac.CoordinateVector {
	d := g.generators[j].Sub(g.generators[i])
	if !g.periodic {
		return d
	}
	return cmac.Vec3(
		wrapMinImage(d.X, g.box.Sides.X),
		wrapMinImage(d.Y, g.box.Sides.Y),
		wrapMinImage(d.Z, g.box.Sides.Z),
	)
}

func wrapMinImage(d, side float64) float64 {
	d = math.Mod(d, side)
	if d > side/2 {
		d -= side
	} else if d < -side/2 {
		d += side
	}
	return d
}

// ComputeGrid builds the bucketed point-location index and then grows every
// cell in parallel across worksize goroutines, following the static
// round-robin worker-pool shape of run.go's Calculations and vargrid.go's
// addCells: a fixed number of goroutines pull work from a shared channel of
// cell indices rather than one goroutine per cell, bounding concurrency to
// worksize regardless of grid size.
func (g *Grid) ComputeGrid(worksize int) error {
	if worksize < 1 {
		worksize = 1
	}
	n := len(g.generators)
	if n == 0 {
		return fmt.Errorf("voronoi: cannot compute a grid with zero generators")
	}

	g.bucket = newBucketIndex(g.box, n)
	for i, p := range g.generators {
		g.bucket.insert(uint32(i), p)
	}

	g.cells = make([]*Cell, n)

	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	errs := make([]error, n)
	var wg sync.WaitGroup
	for w := 0; w < worksize; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = g.growCell(i)
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// growCell grows generators[i]'s cell by visiting candidate neighbours in
// shells of increasing distance, stopping once a shell's own minimum
// possible squared distance exceeds 4x the cell's current MaxRadiusSquared:
// no generator farther out than that can still clip the cell (spec.md §4.3).
func (g *Grid) growCell(i int) error {
	self := uint32(i)
	cell := NewCell(g.generators[i], g.box)

	visited := make(map[uint32]bool, 32)
	for shell := 0; ; shell++ {
		candidates, shellMinDist2, exhausted := g.bucket.shell(g.generators[i], shell)
		any := false
		for _, j := range candidates {
			if j == self || visited[j] {
				continue
			}
			visited[j] = true
			any = true
			offset := g.offsetTo(self, j)
			if err := cell.Intersect(offset, j); err != nil {
				return err
			}
		}

		maxR2 := cell.MaxRadiusSquared()
		if shellMinDist2 > 4*maxR2 {
			break
		}
		if exhausted && !any {
			break
		}
	}

	if err := cell.Finalize(1e-10); err != nil {
		return err
	}
	g.cells[i] = cell
	return nil
}

// Finalize checks the volume-sum invariant: the finalized cells must
// partition the box, so their volumes must sum to the box volume within a
// tight relative tolerance (spec.md §8).
func (g *Grid) Finalize() error {
	volumes := make([]float64, len(g.cells))
	for i, c := range g.cells {
		volumes[i] = c.Volume()
	}
	sum := floats.Sum(volumes)
	boxVolume := g.box.Volume()
	if math.Abs(sum-boxVolume)/boxVolume > 1e-10 {
		return fmt.Errorf("voronoi: cell volumes sum to %g, expected box volume %g (relative error %g)",
			sum, boxVolume, math.Abs(sum-boxVolume)/boxVolume)
	}
	return nil
}

// GetIndex returns the index of the cell containing point, found by an
// expanding-shell nearest-generator search over the bucket index, starting
// from the bucket that holds point (the Voronoi cell containing a point is,
// by construction, generated by its nearest generator).
func (g *Grid) GetIndex(point cmac.CoordinateVector) (uint32, error) {
	if g.bucket == nil {
		return 0, fmt.Errorf("voronoi: GetIndex called before ComputeGrid")
	}
	best, ok := g.bucket.nearest(point, g.generators)
	if !ok {
		return 0, fmt.Errorf("voronoi: no generator found for point %v", point)
	}
	return best, nil
}

// GetFaces returns the bounding faces of cell i.
func (g *Grid) GetFaces(i uint32) []Face {
	return g.cells[i].Faces()
}

// GetCell returns the finalized cell at index i.
func (g *Grid) GetCell(i uint32) *Cell {
	return g.cells[i]
}

// NumCells returns the number of generators registered in the grid.
func (g *Grid) NumCells() int {
	return len(g.generators)
}

// Periodic reports whether the grid wraps neighbour offsets across its box
// boundary.
func (g *Grid) Periodic() bool {
	return g.periodic
}

// GetWallNormal returns the outward unit normal of the domain wall
// identified by the given sentinel neighbour id (one of Wall*). It panics if
// passed anything else, since the caller is expected to have already
// distinguished walls from real neighbours via Face.Neighbour >= MaxIndex.
func (g *Grid) GetWallNormal(sentinel uint32) cmac.CoordinateVector {
	switch sentinel {
	case WallLeft:
		return cmac.Vec3(-1, 0, 0)
	case WallRight:
		return cmac.Vec3(1, 0, 0)
	case WallFront:
		return cmac.Vec3(0, -1, 0)
	case WallBack:
		return cmac.Vec3(0, 1, 0)
	case WallBottom:
		return cmac.Vec3(0, 0, -1)
	case WallTop:
		return cmac.Vec3(0, 0, 1)
	default:
		panic(fmt.Sprintf("voronoi: %d is not a wall sentinel", sentinel))
	}
}

// Trace advances a ray from point in direction, within cell currentCell,
// until it crosses one of the cell's faces, and returns the distance
// travelled and the face it exits through. It is the single geometric
// primitive photon transport needs to both cross cell boundaries and
// accumulate path-length integrals along the way.
//
// The face distance formula matches the reference implementation's use of
// the absolute value of the normal component along the ray, |n·d|, in the
// denominator: since a Voronoi face's normal by construction points away
// from currentCell's generator, n·d can be negative for a face the ray is
// moving away from, and such faces must never be selected.
func (g *Grid) Trace(currentCell uint32, point, direction cmac.CoordinateVector) (distance float64, face Face, err error) {
	faces := g.cells[currentCell].Faces()
	best := math.Inf(1)
	var bestFace Face
	found := false

	for _, f := range faces {
		var normal cmac.CoordinateVector
		var planePoint cmac.CoordinateVector
		if f.Neighbour >= MaxIndex {
			normal = g.GetWallNormal(f.Neighbour)
			planePoint = f.Midpoint
		} else {
			normal = g.offsetTo(currentCell, f.Neighbour).Normalize()
			planePoint = f.Midpoint
		}

		denom := normal.Dot(direction)
		if denom <= 0 {
			// Ray moving parallel to or away from this face; it cannot
			// exit through it.
			continue
		}
		numer := normal.Dot(planePoint.Sub(point))
		if numer < 0 {
			// Already past this face's plane (can happen by a tiny
			// floating-point margin right after entering the cell);
			// clamp to zero so we don't report a negative distance.
			numer = 0
		}
		s := numer / math.Abs(denom)
		if s < best {
			best = s
			bestFace = f
			found = true
		}
	}

	if !found {
		return 0, Face{}, fmt.Errorf("voronoi: ray from %v in direction %v did not cross any face of cell %d", point, direction, currentCell)
	}
	return best, bestFace, nil
}
