/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

// Package voronoi builds and queries a 3D Voronoi tessellation: the
// unstructured grid over which photon transport and ionization balance are
// computed. A Cell is grown by successive half-plane clipping against
// candidate neighbours in order of increasing distance from its generator
// (see Grid.ComputeGrid); a Grid owns the full set of cells plus the
// bucketed point-location index and ray/face traversal primitive transport
// needs.
package voronoi

import (
	"fmt"
	"math"
	"sort"

	cmac "github.com/knut0815/cmacionize"
)

// MaxIndex is the largest index a real generator may occupy. Indices at or
// above MaxIndex are reserved for the six domain-wall sentinels, mirroring
// the original VoronoiGrid's VORONOI_MAX_INDEX convention (spec.md §4.3).
const MaxIndex uint32 = 0xFFFFFFF0

// Wall sentinel neighbour ids, one per face of the bounding box.
const (
	WallLeft uint32 = MaxIndex + iota
	WallRight
	WallFront
	WallBack
	WallBottom
	WallTop
)

// eps is the relative tolerance used for plane-membership tests (vertex
// feasibility and face-vertex classification). Degenerate-face collapse uses
// the separate areaEps passed to Finalize.
const eps = 1e-12

// plane is a half-space constraint normal·x <= offset, with normal pointing
// out of the cell. neighbour identifies the generator (or wall) that
// produced it.
type plane struct {
	normal    cmac.CoordinateVector
	offset    float64
	neighbour uint32
}

// Face is one bounding polygon of a finalized Cell: shared with Neighbour
// (a real generator index, or one of the Wall* sentinels), with the
// aggregate SurfaceArea and area-weighted Midpoint that the photon-path
// integral and diffuse-emission bookkeeping need. Individual polygon
// vertices are not retained past Finalize: spec.md's external interface
// only ever asks for area and midpoint.
type Face struct {
	SurfaceArea float64
	Midpoint    cmac.CoordinateVector
	Neighbour   uint32
}

// Cell is a single Voronoi cell under construction or, once Finalize has
// been called, queryable for its volume, centroid and bounding faces.
//
// Cell is not safe for concurrent use; Grid.ComputeGrid gives each cell its
// own goroutine for the whole of its construction.
type Cell struct {
	generator cmac.CoordinateVector
	planes    []plane
	vertices  []cmac.CoordinateVector

	finalized bool
	volume    float64
	centroid  cmac.CoordinateVector
	faces     []Face
}

// NewCell creates a cell for generator, bounded initially by box's six
// walls. The cell grows (shrinks, geometrically) as real neighbours are
// clipped in via Intersect.
func NewCell(generator cmac.CoordinateVector, box cmac.Box) *Cell {
	c := &Cell{generator: generator}
	lo := box.Anchor
	hi := box.Anchor.Add(box.Sides)
	c.planes = []plane{
		{normal: cmac.Vec3(-1, 0, 0), offset: -lo.X, neighbour: WallLeft},
		{normal: cmac.Vec3(1, 0, 0), offset: hi.X, neighbour: WallRight},
		{normal: cmac.Vec3(0, -1, 0), offset: -lo.Y, neighbour: WallFront},
		{normal: cmac.Vec3(0, 1, 0), offset: hi.Y, neighbour: WallBack},
		{normal: cmac.Vec3(0, 0, -1), offset: -lo.Z, neighbour: WallBottom},
		{normal: cmac.Vec3(0, 0, 1), offset: hi.Z, neighbour: WallTop},
	}
	c.recomputeVertices()
	return c
}

// Generator returns the cell's generating point.
func (c *Cell) Generator() cmac.CoordinateVector { return c.generator }

// Intersect clips the cell against the perpendicular bisector plane of the
// segment from the generator to generator+offset, i.e. the half-space of
// points closer to the generator than to that neighbour. offset must be
// non-zero: a zero offset means "clip against myself", which is always a
// caller bug, not a runtime condition (spec.md §4.2 "degenerate offset").
//
// Intersect recomputes the active vertex set before returning, so
// MaxRadiusSquared is always accurate for the cell's current, possibly
// still-growing, state.
func (c *Cell) Intersect(offset cmac.CoordinateVector, neighbour uint32) error {
	if c.finalized {
		panic("voronoi: Intersect called on a finalized cell")
	}
	if offset.Norm2() == 0 {
		panic("voronoi: Intersect called with a degenerate (zero) offset")
	}

	p := plane{
		normal:    offset,
		offset:    c.generator.Dot(offset) + 0.5*offset.Norm2(),
		neighbour: neighbour,
	}
	c.planes = append(c.planes, p)
	c.recomputeVertices()

	if len(c.vertices) < 4 {
		return fmt.Errorf("voronoi: cell at %v collapsed to a degenerate polyhedron after clipping against neighbour %d", c.generator, neighbour)
	}
	return nil
}

// satisfies reports whether point v lies within tolerance of satisfying
// every active half-space constraint.
func (c *Cell) satisfies(v cmac.CoordinateVector, skip1, skip2, skip3 int) bool {
	for i, pl := range c.planes {
		if i == skip1 || i == skip2 || i == skip3 {
			continue
		}
		if pl.normal.Dot(v)-pl.offset > eps*(1+math.Abs(pl.offset)) {
			return false
		}
	}
	return true
}

// recomputeVertices rebuilds the cell's vertex set from scratch by
// enumerating every feasible intersection point of three active planes.
// This is the textbook "vertex enumeration" dual of half-space
// intersection: for a bounded polyhedron defined by a modest number of
// constraints (a Voronoi cell rarely keeps more than a few dozen active
// neighbours), testing all C(n,3) plane triples is simple to get right and
// fast enough, at the cost of the O(n^3) asymptotics a dedicated
// incremental half-edge clip would avoid. See DESIGN.md.
func (c *Cell) recomputeVertices() {
	planes := c.planes
	n := len(planes)
	verts := c.vertices[:0]

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				v, ok := intersectThreePlanes(planes[i], planes[j], planes[k])
				if !ok {
					continue
				}
				if !c.satisfies(v, i, j, k) {
					continue
				}
				if !containsNear(verts, v) {
					verts = append(verts, v)
				}
			}
		}
	}
	c.vertices = verts
}

// intersectThreePlanes solves for the unique point lying on all three
// planes using the standard cross-product closed form for a 3x3 linear
// system. ok is false when the planes are (near-)parallel and have no
// unique intersection.
func intersectThreePlanes(a, b, d plane) (cmac.CoordinateVector, bool) {
	n2xn3 := b.normal.Cross(d.normal)
	det := a.normal.Dot(n2xn3)
	if math.Abs(det) < 1e-30 {
		return cmac.CoordinateVector{}, false
	}
	n3xn1 := d.normal.Cross(a.normal)
	n1xn2 := a.normal.Cross(b.normal)
	sum := n2xn3.Scale(a.offset).Add(n3xn1.Scale(b.offset)).Add(n1xn2.Scale(d.offset))
	return sum.Scale(1 / det), true
}

func containsNear(vs []cmac.CoordinateVector, v cmac.CoordinateVector) bool {
	for _, w := range vs {
		if v.Sub(w).Norm2() < 1e-20 {
			return true
		}
	}
	return false
}

// MaxRadiusSquared returns the squared distance from the generator to its
// farthest currently-active vertex. Grid.ComputeGrid uses this as the
// termination test for how far out it needs to search for neighbours
// (spec.md §4.3 "shell expansion"): once a shell's own minimum squared
// radius exceeds 4×MaxRadiusSquared, no further candidate in that shell or
// beyond can still clip the cell.
func (c *Cell) MaxRadiusSquared() float64 {
	max := 0.0
	for _, v := range c.vertices {
		if r2 := v.Sub(c.generator).Norm2(); r2 > max {
			max = r2
		}
	}
	return max
}

// Finalize computes the cell's volume, centroid and bounding faces from its
// final vertex set, and discards plane-clipping working state. Faces whose
// computed surface area falls below areaEps times the cell's own
// (volume)^(2/3) scale are dropped as degenerate, matching the reference
// implementation's collapse of faces produced by near-coplanar clips
// (spec.md §4.2).
func (c *Cell) Finalize(areaEps float64) error {
	if c.finalized {
		return nil
	}
	if len(c.vertices) < 4 {
		return fmt.Errorf("voronoi: cannot finalize a cell with only %d vertices", len(c.vertices))
	}

	faces := make([]Face, 0, len(c.planes))
	volume := 0.0
	centroidSum := cmac.CoordinateVector{}

	for pi, pl := range c.planes {
		loop := c.faceLoop(pi)
		if len(loop) < 3 {
			continue
		}
		area, midpoint := polygonAreaAndMidpoint(loop, pl.normal)
		if area <= 0 {
			continue
		}

		faces = append(faces, Face{SurfaceArea: area, Midpoint: midpoint, Neighbour: pl.neighbour})

		// Tetrahedral decomposition: fan the face polygon from the
		// generator. Each tetrahedron (generator, loop[0], loop[t],
		// loop[t+1]) contributes its signed volume and weighted centroid.
		for t := 1; t+1 < len(loop); t++ {
			v0 := loop[0].Sub(c.generator)
			v1 := loop[t].Sub(c.generator)
			v2 := loop[t+1].Sub(c.generator)
			vol6 := v0.Dot(v1.Cross(v2))
			vol := vol6 / 6
			if vol < 0 {
				vol = -vol
			}
			tetCentroid := c.generator.Add(loop[0]).Add(loop[t]).Add(loop[t+1]).Scale(0.25)
			volume += vol
			centroidSum = centroidSum.Add(tetCentroid.Scale(vol))
		}
	}

	if volume <= 0 {
		return fmt.Errorf("voronoi: cell at %v finalized with non-positive volume %g", c.generator, volume)
	}

	scale := math.Cbrt(volume)
	kept := faces[:0]
	for _, f := range faces {
		if f.SurfaceArea > areaEps*scale*scale {
			kept = append(kept, f)
		}
	}

	c.volume = volume
	c.centroid = centroidSum.Scale(1 / volume)
	c.faces = kept
	c.vertices = nil
	c.finalized = true
	return nil
}

// faceLoop collects and angularly sorts the vertices lying on plane index
// pi, walking them into a single closed polygon as seen from outside the
// cell (i.e. in the plane's own outward-normal sense).
func (c *Cell) faceLoop(pi int) []cmac.CoordinateVector {
	pl := c.planes[pi]
	var onPlane []cmac.CoordinateVector
	for _, v := range c.vertices {
		if math.Abs(pl.normal.Dot(v)-pl.offset) < eps*(1+math.Abs(pl.offset)) {
			onPlane = append(onPlane, v)
		}
	}
	if len(onPlane) < 3 {
		return nil
	}

	centroid := cmac.CoordinateVector{}
	for _, v := range onPlane {
		centroid = centroid.Add(v)
	}
	centroid = centroid.Scale(1 / float64(len(onPlane)))

	n := pl.normal.Normalize()
	var u cmac.CoordinateVector
	if math.Abs(n.X) < 0.9 {
		u = cmac.Vec3(1, 0, 0).Cross(n)
	} else {
		u = cmac.Vec3(0, 1, 0).Cross(n)
	}
	u = u.Normalize()
	w := n.Cross(u)

	angles := make([]float64, len(onPlane))
	for i, v := range onPlane {
		d := v.Sub(centroid)
		angles[i] = math.Atan2(d.Dot(w), d.Dot(u))
	}
	sort.Sort(byAngle{onPlane, angles})
	return onPlane
}

type byAngle struct {
	v []cmac.CoordinateVector
	a []float64
}

func (s byAngle) Len() int      { return len(s.v) }
func (s byAngle) Swap(i, j int) { s.v[i], s.v[j] = s.v[j], s.v[i]; s.a[i], s.a[j] = s.a[j], s.a[i] }
func (s byAngle) Less(i, j int) bool { return s.a[i] < s.a[j] }

// polygonAreaAndMidpoint triangulates the (already angularly sorted) loop
// from its first vertex and sums triangle areas and area-weighted
// centroids. normal is not used: each triangle's area is half the norm of
// a cross product, so the returned area is never negative.
func polygonAreaAndMidpoint(loop []cmac.CoordinateVector, normal cmac.CoordinateVector) (float64, cmac.CoordinateVector) {
	area := 0.0
	weighted := cmac.CoordinateVector{}
	for t := 1; t+1 < len(loop); t++ {
		e1 := loop[t].Sub(loop[0])
		e2 := loop[t+1].Sub(loop[0])
		cr := e1.Cross(e2)
		triArea := 0.5 * cr.Norm()
		triCentroid := loop[0].Add(loop[t]).Add(loop[t+1]).Scale(1. / 3.)
		area += triArea
		weighted = weighted.Add(triCentroid.Scale(triArea))
	}
	_ = normal
	if area == 0 {
		return 0, cmac.CoordinateVector{}
	}
	return area, weighted.Scale(1 / area)
}

// Volume returns the cell's volume. Finalize must have been called.
func (c *Cell) Volume() float64 {
	if !c.finalized {
		panic("voronoi: Volume called before Finalize")
	}
	return c.volume
}

// Centroid returns the cell's centroid. Finalize must have been called.
func (c *Cell) Centroid() cmac.CoordinateVector {
	if !c.finalized {
		panic("voronoi: Centroid called before Finalize")
	}
	return c.centroid
}

// Faces returns the cell's bounding faces. Finalize must have been called.
// The slice is owned by the cell and must not be mutated by the caller.
func (c *Cell) Faces() []Face {
	if !c.finalized {
		panic("voronoi: Faces called before Finalize")
	}
	return c.faces
}
