/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

// Package ionization solves the per-cell ionization balance: given the
// accumulated, jfac-normalised mean-intensity integrals from a photon
// transport iteration, it computes neutral fractions for hydrogen, helium
// and a handful of coolants (spec.md §4.6).
package ionization

import (
	"fmt"
	"math"
)

// alphaE2sP is the 2s-to-ground recombination coefficient contribution
// (m^3 s^-1) entering the hydrogen/helium coupled solve's "ch2" term; the
// 4.27e-20 coefficient is already expressed in m^3 s^-1.
func alphaE2sP(temperature float64) float64 {
	return 4.27e-20 * math.Pow(temperature*1e-4, -0.695)
}

// maxFindH0Iterations is the point at which the coupled hydrogen/helium
// solve gives up: spec.md §8 requires this solver to terminate within 20
// iterations, matching the reference implementation's fatal assertion.
const maxFindH0Iterations = 20

// dampAfterIteration is the iteration count beyond which findH0 averages
// each new guess with the previous one, trading a slower approach for a
// guaranteed one (spec.md §4.6, "Convergence").
const dampAfterIteration = 10

// FindH0 solves the coupled quadratic system for the hydrogen and helium
// neutral fractions, following the reference implementation's fixed-point
// iteration with an explicit Taylor-expansion fallback near zero
// discriminant and damping after dampAfterIteration iterations.
//
// alphaH, alphaHe are the case-B recombination rates (m^3 s^-1); jH, jHe are
// the jfac-normalised mean-intensity integrals (s^-1); nH is the total
// number density (m^-3); heliumAbundance is He/H; temperature is in K.
func FindH0(alphaH, alphaHe, jH, jHe, nH, heliumAbundance, temperature float64) (h0, he0 float64, err error) {
	if jH < 1e-20 {
		return 1, 1, nil
	}

	alpha2sP := alphaE2sP(temperature)
	ch1 := alphaH * nH / jH
	ch2 := heliumAbundance * alpha2sP * nH / jH
	che := 0.0
	if jHe > 0 {
		che = alphaHe * nH / jHe
	}

	h0old := 0.99 * (1 - math.Exp(-0.5/ch1))
	h0 = 0.9 * h0old

	he0old := 1.0
	if che > 0 {
		he0old = math.Min(0.5/che, 1)
	}
	he0 = 0

	niter := 0
	for math.Abs(h0-h0old) > 1e-4*h0old && math.Abs(he0-he0old) > 1e-4*he0old {
		niter++
		h0old = h0
		if he0 > 0 {
			he0old = he0
		} else {
			he0old = 0
		}

		pHots := 1 / (1 + 77*he0old/math.Sqrt(temperature)/h0old)
		ch := ch1 - ch2*heliumAbundance*(1-he0old)*pHots/(1-h0old)

		he0 = 1.0
		if che != 0 {
			bhe := (1+2*heliumAbundance-h0)*che + 1
			t1he := 4 * heliumAbundance * (1 + heliumAbundance - h0) * che * che / bhe / bhe
			if t1he < 1e-3 {
				he0 = (1 + heliumAbundance - h0) * che / bhe
			} else {
				he0 = (bhe - math.Sqrt(bhe*bhe-4*heliumAbundance*(1+heliumAbundance-h0)*che*che)) /
					(2 * heliumAbundance * che)
			}
		}

		b := ch*(2+heliumAbundance-he0*heliumAbundance) + 1
		t1 := 4 * ch * ch * (1 + heliumAbundance - he0*heliumAbundance) / b / b
		if t1 < 1e-3 {
			h0 = ch * (1 + heliumAbundance - he0*heliumAbundance) / b
		} else {
			discriminant := b*b - 4*ch*ch*(1+heliumAbundance-he0*heliumAbundance)
			if discriminant < 0 {
				return 0, 0, fmt.Errorf("ionization: negative discriminant in findH0 at iteration %d (T=%g, jH=%g, jHe=%g, nH=%g)", niter, temperature, jH, jHe, nH)
			}
			h0 = (b - math.Sqrt(discriminant)) / (2 * ch)
		}

		if niter > dampAfterIteration {
			h0 = 0.5 * (h0 + h0old)
			he0 = 0.5 * (he0 + he0old)
		}
		if niter > maxFindH0Iterations {
			return 0, 0, fmt.Errorf("ionization: too many iterations (%d) in findH0 (T=%g, jH=%g, jHe=%g, nH=%g)", niter, temperature, jH, jHe, nH)
		}
	}

	return h0, he0, nil
}

// FindH0Simple solves the hydrogen-only special case (no helium) in closed
// form, without iteration.
func FindH0Simple(alphaH, jH, nH float64) float64 {
	if jH > 0 && nH > 0 {
		aa := 0.5 * jH / nH / alphaH
		bb := 2 / aa
		cc := math.Sqrt(bb + 1)
		// 1 + aa*(1-cc) rewritten as bb/(1+cc)^2, which avoids the
		// cancellation in 1-cc when bb is tiny (strong radiation field).
		return bb / ((1 + cc) * (1 + cc))
	}
	return 1
}
