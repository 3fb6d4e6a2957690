/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

package cmacionize

import "math"

// CoordinateVector is an ordered triple of real numbers. Depending on
// context it holds a length (m), a dimensionless direction, or a velocity.
// Values are treated as immutable within the photon-transport and
// Voronoi-construction hot loops: every operation below returns a new
// CoordinateVector rather than mutating its receiver.
type CoordinateVector struct {
	X, Y, Z float64
}

// Vec3 is a convenience constructor.
func Vec3(x, y, z float64) CoordinateVector {
	return CoordinateVector{X: x, Y: y, Z: z}
}

// Add returns v + w.
func (v CoordinateVector) Add(w CoordinateVector) CoordinateVector {
	return CoordinateVector{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v CoordinateVector) Sub(w CoordinateVector) CoordinateVector {
	return CoordinateVector{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v scaled by s.
func (v CoordinateVector) Scale(s float64) CoordinateVector {
	return CoordinateVector{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and w.
func (v CoordinateVector) Dot(w CoordinateVector) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product v x w.
func (v CoordinateVector) Cross(w CoordinateVector) CoordinateVector {
	return CoordinateVector{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Norm2 returns the squared Euclidean norm of v.
func (v CoordinateVector) Norm2() float64 {
	return v.Dot(v)
}

// Norm returns the Euclidean norm of v.
func (v CoordinateVector) Norm() float64 {
	return math.Sqrt(v.Norm2())
}

// Normalize returns v scaled to unit length. The caller is responsible for
// ensuring v is non-zero; a zero-length direction is a programming error in
// every context CoordinateVector is used for directions.
func (v CoordinateVector) Normalize() CoordinateVector {
	return v.Scale(1. / v.Norm())
}

// Min returns the componentwise minimum of v and w.
func (v CoordinateVector) Min(w CoordinateVector) CoordinateVector {
	return CoordinateVector{math.Min(v.X, w.X), math.Min(v.Y, w.Y), math.Min(v.Z, w.Z)}
}

// Max returns the componentwise maximum of v and w.
func (v CoordinateVector) Max(w CoordinateVector) CoordinateVector {
	return CoordinateVector{math.Max(v.X, w.X), math.Max(v.Y, w.Y), math.Max(v.Z, w.Z)}
}

// Box is an axis-aligned box domain: anchor <= p < anchor+sides,
// componentwise. All components of Sides must be strictly positive.
type Box struct {
	Anchor CoordinateVector
	Sides  CoordinateVector
}

// Volume returns the box volume.
func (b Box) Volume() float64 {
	return b.Sides.X * b.Sides.Y * b.Sides.Z
}

// Contains reports whether p lies within the box, componentwise
// half-open: anchor <= p < anchor+sides.
func (b Box) Contains(p CoordinateVector) bool {
	return p.X >= b.Anchor.X && p.X < b.Anchor.X+b.Sides.X &&
		p.Y >= b.Anchor.Y && p.Y < b.Anchor.Y+b.Sides.Y &&
		p.Z >= b.Anchor.Z && p.Z < b.Anchor.Z+b.Sides.Z
}

// Center returns the geometric center of the box.
func (b Box) Center() CoordinateVector {
	return b.Anchor.Add(b.Sides.Scale(0.5))
}
