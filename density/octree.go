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

// leafCapacity is the maximum number of particles an octree leaf holds
// before it splits into eight octants.
const leafCapacity = 8

// octree is a spatial index over SPH particle positions, auxiliary-tagged
// at every node with the maximum smoothing length of any particle in its
// subtree. That auxiliary is exactly what the reference implementation's
// Octree::set_auxiliaries(smoothing_lengths, Octree::max<double>) computes,
// and it is what makes neighbour queries cheap: a subtree can be pruned
// the moment the query point is farther from its bounding box than twice
// the subtree's own maximum smoothing length, since no particle inside
// could possibly have the query point within its 2h support radius.
//
// octree has no teacher analogue (inmap's spatial index, ctessum/geom's
// r-tree, is 2D-bounds-only); its shape instead follows the *pattern* of
// neighbors.go's recursive SearchIntersect descent with early pruning,
// generalized to three dimensions and to a radius that depends on the
// queried node rather than a fixed box.
type octree struct {
	particles []Particle
	root      *octreeNode
}

type octreeNode struct {
	anchor, sides cmac.CoordinateVector // bounding box of this subtree
	maxH          float64               // max smoothing length in subtree

	// Leaves hold particle indices directly; internal nodes have all
	// eight children populated (empty octants are still allocated, but
	// carry an empty indices slice and maxH of 0, which prunes for free).
	indices  []int
	children [8]*octreeNode
}

func (n *octreeNode) isLeaf() bool { return n.children[0] == nil }

// newOctree builds a balanced octree over particles, whose bounding box is
// the smallest axis-aligned box containing every particle position.
func newOctree(particles []Particle) *octree {
	if len(particles) == 0 {
		return &octree{particles: particles}
	}

	lo := particles[0].Position
	hi := particles[0].Position
	for _, p := range particles[1:] {
		lo = lo.Min(p.Position)
		hi = hi.Max(p.Position)
	}
	// Pad slightly so that particles exactly on the upper boundary still
	// fall strictly inside the root box.
	pad := hi.Sub(lo).Scale(1e-6).Add(cmac.Vec3(1e-12, 1e-12, 1e-12))
	anchor := lo.Sub(pad)
	sides := hi.Sub(lo).Add(pad.Scale(2))

	indices := make([]int, len(particles))
	for i := range indices {
		indices[i] = i
	}

	t := &octree{particles: particles}
	t.root = t.build(anchor, sides, indices, 0)
	return t
}

func (t *octree) build(anchor, sides cmac.CoordinateVector, indices []int, depth int) *octreeNode {
	n := &octreeNode{anchor: anchor, sides: sides}
	for _, i := range indices {
		if h := t.particles[i].SmoothingLength; h > n.maxH {
			n.maxH = h
		}
	}

	if len(indices) <= leafCapacity || depth > 32 {
		n.indices = indices
		return n
	}

	mid := anchor.Add(sides.Scale(0.5))
	half := sides.Scale(0.5)
	var buckets [8][]int
	for _, i := range indices {
		p := t.particles[i].Position
		octant := 0
		if p.X >= mid.X {
			octant |= 1
		}
		if p.Y >= mid.Y {
			octant |= 2
		}
		if p.Z >= mid.Z {
			octant |= 4
		}
		buckets[octant] = append(buckets[octant], i)
	}

	for octant := 0; octant < 8; octant++ {
		childAnchor := anchor
		if octant&1 != 0 {
			childAnchor.X = mid.X
		}
		if octant&2 != 0 {
			childAnchor.Y = mid.Y
		}
		if octant&4 != 0 {
			childAnchor.Z = mid.Z
		}
		n.children[octant] = t.build(childAnchor, half, buckets[octant], depth+1)
	}
	return n
}

// neighbours returns every particle index whose smoothing-length support
// (radius 2h) reaches the query point p.
func (t *octree) neighbours(p cmac.CoordinateVector) []int {
	if t.root == nil {
		return nil
	}
	var out []int
	t.visit(t.root, p, &out)
	return out
}

func (t *octree) visit(n *octreeNode, p cmac.CoordinateVector, out *[]int) {
	if n.maxH == 0 {
		return
	}
	if !boxWithinRange(n.anchor, n.sides, p, 2*n.maxH) {
		return
	}

	if n.isLeaf() {
		for _, i := range n.indices {
			part := t.particles[i]
			if p.Sub(part.Position).Norm2() < (2*part.SmoothingLength)*(2*part.SmoothingLength) {
				*out = append(*out, i)
			}
		}
		return
	}

	for _, c := range n.children {
		t.visit(c, p, out)
	}
}

// boxWithinRange reports whether point p is within distance r of the
// axis-aligned box [anchor, anchor+sides], using the standard
// clamp-to-nearest-point squared-distance test.
func boxWithinRange(anchor, sides cmac.CoordinateVector, p cmac.CoordinateVector, r float64) bool {
	hi := anchor.Add(sides)
	d2 := 0.0
	d2 += axisGap(p.X, anchor.X, hi.X)
	d2 += axisGap(p.Y, anchor.Y, hi.Y)
	d2 += axisGap(p.Z, anchor.Z, hi.Z)
	return d2 <= r*r
}

func axisGap(v, lo, hi float64) float64 {
	if v < lo {
		d := lo - v
		return d * d
	}
	if v > hi {
		d := v - hi
		return d * d
	}
	return 0
}
