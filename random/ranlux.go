/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

// Package random implements the worker-local uniform random number
// generator used throughout the photon-transport hot path.
package random

// Generator is a RANLUX-class (luxury parameter 397, i.e. "ranlxs2")
// subtract-with-carry generator producing a lazy, infinite stream of
// double-precision uniforms in [0, 1]. It is seeded from a 31-bit seed and
// is deterministic: the same seed always produces the same stream.
//
// Generator is not safe for concurrent use. Each worker goroutine owns one
// instance, seeded as base_seed + worker_id, so that a run with a fixed
// base seed and worker count is bit-reproducible (spec.md §4.1, §8
// "Reproducibility").
type Generator struct {
	xdbl [12]float64
	ydbl [12]float64
	carry float64

	xflt [24]float32

	ir, jr, is, isOld uint32
	pr                uint32
}

const twoToMinus48 = 1.0 / 281474976710656.0
const twoTo24 = 16777216.0
const twoTo28 = 268435456.0

// New creates a Generator seeded with seed. A seed of 0 is replaced with 1,
// matching the reference implementation's "the default seed is 1, not 0".
func New(seed int) *Generator {
	g := &Generator{}
	g.SetSeed(seed)
	return g
}

// SetSeed reseeds the generator, discarding all prior state.
func (g *Generator) SetSeed(seed int) {
	if seed == 0 {
		seed = 1
	}

	i := uint32(seed) & 0x7FFFFFFF
	var xbit [31]int
	for k := 0; k < 31; k++ {
		xbit[k] = int(i % 2)
		i /= 2
	}

	ibit, jbit := 0, 18
	for k := 0; k < 12; k++ {
		x := 0.0
		for m := 1; m <= 48; m++ {
			y := float64(xbit[ibit])
			x += x + y
			xbit[ibit] = (xbit[ibit] + xbit[jbit]) % 2
			ibit = (ibit + 1) % 31
			jbit = (jbit + 1) % 31
		}
		g.xdbl[k] = twoToMinus48 * x
	}

	g.carry = 0
	g.ir = 0
	g.jr = 7
	g.is = 23
	g.isOld = 0
	// ranlxs2: luxury parameter 397.
	g.pr = 397
}

// ranluxStep implements the GSL RANLUX_STEP macro: it computes the
// difference xdbl[i1]-xdbl[i2], correcting for an incoming borrow carried
// in x2, and writes the (possibly incremented) x2 back into xdbl[i3].
// It returns the computed difference and the updated x2, mirroring the
// two by-reference outputs of the original macro.
func ranluxStep(xdbl *[12]float64, i1, i2, i3 int, x2 float64) (x1, x2out float64) {
	x1 = xdbl[i1] - xdbl[i2]
	if x2 < 0 {
		x1 -= twoToMinus48
		x2 += 1
	}
	xdbl[i3] = x2
	return x1, x2
}

// incrementState regenerates the 24-float output buffer once it has been
// fully consumed.
func (g *Generator) incrementState() {
	xdbl := &g.xdbl
	ydbl := &g.ydbl
	carry := g.carry
	ir := g.ir
	jr := g.jr

	k := 0
	for ; ir > 0; k++ {
		y1 := xdbl[jr] - xdbl[ir]
		y2 := y1 - carry
		if y2 < 0 {
			carry = twoToMinus48
			y2 += 1
		} else {
			carry = 0
		}
		xdbl[ir] = y2
		ir = (ir + 1) % 12
		jr = (jr + 1) % 12
	}

	kmax := int(g.pr) - 12
	for ; k <= kmax; k += 12 {
		y1 := xdbl[7] - xdbl[0]
		y1 -= carry

		var y2, y3 float64
		y2, y1 = ranluxStep(xdbl, 8, 1, 0, y1)
		y3, y2 = ranluxStep(xdbl, 9, 2, 1, y2)
		y1, y3 = ranluxStep(xdbl, 10, 3, 2, y3)
		y2, y1 = ranluxStep(xdbl, 11, 4, 3, y1)
		y3, y2 = ranluxStep(xdbl, 0, 5, 4, y2)
		y1, y3 = ranluxStep(xdbl, 1, 6, 5, y3)
		y2, y1 = ranluxStep(xdbl, 2, 7, 6, y1)
		y3, y2 = ranluxStep(xdbl, 3, 8, 7, y2)
		y1, y3 = ranluxStep(xdbl, 4, 9, 8, y3)
		y2, y1 = ranluxStep(xdbl, 5, 10, 9, y1)
		y3, y2 = ranluxStep(xdbl, 6, 11, 10, y2)

		if y3 < 0 {
			carry = twoToMinus48
			y3 += 1
		} else {
			carry = 0
		}
		xdbl[11] = y3
	}

	kmax = int(g.pr)
	for ; k < kmax; k++ {
		y1 := xdbl[jr] - xdbl[ir]
		y2 := y1 - carry
		if y2 < 0 {
			carry = twoToMinus48
			y2 += 1
		} else {
			carry = 0
		}
		xdbl[ir] = y2
		ydbl[ir] = y2 + twoTo28
		ir = (ir + 1) % 12
		jr = (jr + 1) % 12
	}

	ydbl[ir] = xdbl[ir] + twoTo28
	for k := (ir + 1) % 12; k > 0; k = (k + 1) % 12 {
		ydbl[k] = xdbl[k] + twoTo28
	}

	m := 0
	for k := 0; k < 12; k++ {
		x := xdbl[k]
		y2 := ydbl[k] - twoTo28
		if y2 > x {
			y2 -= 1.0 / twoTo24
		}
		y1 := (x - y2) * twoTo24

		g.xflt[m] = float32(y1)
		m++
		g.xflt[m] = float32(y2)
		m++
	}

	g.ir = ir
	g.is = 2 * ir
	g.isOld = 2 * ir
	g.jr = jr
	g.carry = carry
}

// Uniform returns the next uniform double in [0, 1]. It never blocks and
// never allocates.
func (g *Generator) Uniform() float64 {
	g.is = (g.is + 1) % 24
	if g.is == g.isOld {
		g.incrementState()
	}
	return float64(g.xflt[g.is])
}

// Int24 returns a random integer in [0, 2^24].
func (g *Generator) Int24() int {
	return int(g.Uniform() * twoTo24)
}
