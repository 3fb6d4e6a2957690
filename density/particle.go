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

// hydrogenMass is the atomic hydrogen mass in kg, used to convert a
// particle mass density (kg/m^3) into a number density (m^-3) under the
// pure-hydrogen-gas assumption the reference snapshot reader makes.
const hydrogenMass = 1.6737236e-27

// Particle is a single SPH particle as read from a snapshot: a position, a
// mass and a smoothing length, the three quantities the density kernel sum
// needs.
type Particle struct {
	Position        cmac.CoordinateVector
	Mass            float64 // kg
	SmoothingLength float64 // m
}

// Values is the initial physical state a density sampler assigns to a
// Voronoi cell before the first photon-transport iteration: a number
// density plus a temperature and ionic-fraction seed, mirroring the
// reference implementation's DensityValues (number_density, temperature,
// ionic_fraction).
type Values struct {
	NumberDensity     float64 // m^-3
	Temperature       float64 // K
	NeutralFractionH  float64
	NeutralFractionHe float64
}

// IonizationVariables seeds a cmac.IonizationVariables from v: the H/He
// neutral fractions become the initial IonicFractions entries a driver
// hands to its first transport+solve iteration, with every coolant ion
// starting fully neutral (the only assumption a bare density/temperature
// snapshot supports, since coolant abundances are orders of magnitude below
// H/He and their initial state barely affects the first iteration's
// optical depths).
func (v Values) IonizationVariables() cmac.IonizationVariables {
	var s cmac.IonizationVariables
	s.NumberDensity = v.NumberDensity
	s.Temperature = v.Temperature
	s.IonicFractions[cmac.IonHn] = v.NeutralFractionH
	s.IonicFractions[cmac.IonHen] = v.NeutralFractionHe
	return s
}
