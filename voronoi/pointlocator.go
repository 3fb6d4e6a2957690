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
	"math"

	cmac "github.com/knut0815/cmacionize"
)

// bucketIndex is a uniform grid of cubic buckets over a Box, sized so each
// bucket holds on average one or two generators. It supports the two
// queries Grid needs: expanding-shell enumeration (for cell construction)
// and nearest-generator search (for point location). It plays the role
// neighbors.go's rtree search plays for InMAP's 2D grid, generalized to
// three dimensions with a flat bucket array instead of an R-tree, since the
// example pack's only spatial index (ctessum/geom/index/rtree) is
// 2D-bounds-only (see DESIGN.md).
type bucketIndex struct {
	box             cmac.Box
	bucketSize      float64
	nx, ny, nz      int
	buckets         [][]uint32
}

func newBucketIndex(box cmac.Box, n int) *bucketIndex {
	volume := box.Volume()
	bucketSize := math.Cbrt(volume / float64(max(n, 1)))
	if bucketSize <= 0 {
		bucketSize = 1
	}

	nx := max(int(box.Sides.X/bucketSize), 1)
	ny := max(int(box.Sides.Y/bucketSize), 1)
	nz := max(int(box.Sides.Z/bucketSize), 1)

	return &bucketIndex{
		box:        box,
		bucketSize: bucketSize,
		nx:         nx,
		ny:         ny,
		nz:         nz,
		buckets:    make([][]uint32, nx*ny*nz),
	}
}

func (b *bucketIndex) coords(p cmac.CoordinateVector) (int, int, int) {
	rel := p.Sub(b.box.Anchor)
	ix := clampInt(int(rel.X/b.box.Sides.X*float64(b.nx)), 0, b.nx-1)
	iy := clampInt(int(rel.Y/b.box.Sides.Y*float64(b.ny)), 0, b.ny-1)
	iz := clampInt(int(rel.Z/b.box.Sides.Z*float64(b.nz)), 0, b.nz-1)
	return ix, iy, iz
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (b *bucketIndex) flatten(ix, iy, iz int) int {
	return (ix*b.ny+iy)*b.nz + iz
}

func (b *bucketIndex) insert(idx uint32, p cmac.CoordinateVector) {
	ix, iy, iz := b.coords(p)
	f := b.flatten(ix, iy, iz)
	b.buckets[f] = append(b.buckets[f], idx)
}

// maxShell is the Chebyshev radius beyond which every bucket of the grid
// has already been visited from any starting bucket.
func (b *bucketIndex) maxShell() int {
	m := b.nx
	if b.ny > m {
		m = b.ny
	}
	if b.nz > m {
		m = b.nz
	}
	return m
}

// shell returns every generator index stored in a bucket at exact Chebyshev
// distance r from center's bucket, the conservative squared lower bound on
// the true distance from center to any point in such a bucket, and whether
// shell r (and therefore every larger shell) lies entirely outside the
// grid.
func (b *bucketIndex) shell(center cmac.CoordinateVector, r int) (candidates []uint32, minDist2 float64, exhausted bool) {
	cx, cy, cz := b.coords(center)

	if r == 0 {
		candidates = append(candidates, b.buckets[b.flatten(cx, cy, cz)]...)
		return candidates, 0, r >= b.maxShell()
	}

	inRange := false
	for ix := cx - r; ix <= cx+r; ix++ {
		if ix < 0 || ix >= b.nx {
			continue
		}
		for iy := cy - r; iy <= cy+r; iy++ {
			if iy < 0 || iy >= b.ny {
				continue
			}
			for iz := cz - r; iz <= cz+r; iz++ {
				if iz < 0 || iz >= b.nz {
					continue
				}
				// Only the surface of the [-r, r] cube: at least one
				// coordinate must be exactly at the +-r boundary.
				onSurface := ix == cx-r || ix == cx+r || iy == cy-r || iy == cy+r || iz == cz-r || iz == cz+r
				if !onSurface {
					continue
				}
				inRange = true
				candidates = append(candidates, b.buckets[b.flatten(ix, iy, iz)]...)
			}
		}
	}

	d := float64(r-1) * b.bucketSize
	if d < 0 {
		d = 0
	}
	return candidates, d * d, !inRange && r >= b.maxShell()
}

// nearest returns the index of the generator closest to point, searching
// outward shell by shell and stopping once the next shell's conservative
// minimum distance exceeds the best distance found so far.
func (b *bucketIndex) nearest(point cmac.CoordinateVector, generators []cmac.CoordinateVector) (uint32, bool) {
	bestIdx := uint32(0)
	bestDist2 := math.Inf(1)
	found := false

	for r := 0; ; r++ {
		candidates, shellMinDist2, exhausted := b.shell(point, r)
		for _, idx := range candidates {
			d2 := generators[idx].Sub(point).Norm2()
			if d2 < bestDist2 {
				bestDist2 = d2
				bestIdx = idx
				found = true
			}
		}
		if found && shellMinDist2 > bestDist2 {
			break
		}
		if exhausted {
			break
		}
	}

	return bestIdx, found
}
