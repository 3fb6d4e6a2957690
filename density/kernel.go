/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

// Package density estimates gas number density at an arbitrary point from a
// cloud of SPH particles, by summing each nearby particle's mass weighted
// by a cubic spline kernel evaluated at the query point. It is the source
// of initial DensityValues (number density, temperature and placeholder
// ionic fractions) a caller feeds into the Voronoi grid's cells before the
// first photon-transport iteration.
package density

import "math"

// kernel is the cubic M4 spline kernel (Price 2007, PASA 24, 159, eq. 5),
// normalized so that its integral over all space is 1. q is the query
// distance in units of the smoothing length h.
func kernel(q, h float64) float64 {
	h2 := h * h
	h3 := h2 * h
	switch {
	case q < 1:
		q2 := q * q
		return (1 - 1.5*q2 + 0.75*q2*q) / (math.Pi * h3)
	case q < 2:
		c := 2 - q
		return 0.25 * c * c * c / (math.Pi * h3)
	default:
		return 0
	}
}
