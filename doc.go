/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

CMacIonize-Go is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with CMacIonize-Go.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package cmacionize is a Monte Carlo photoionization engine for
// astrophysical gas. Given a density distribution, a set of ionizing
// photon sources and atomic data, it iteratively computes the ionization
// state of hydrogen, helium and a handful of coolants on an unstructured
// Voronoi grid by simulating the propagation and absorption of discrete
// photon packets.
package cmacionize
