/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

// Package snapshot writes the per-cell ionization state of a completed run
// to a netCDF file, so it can be inspected without re-running the
// simulation (spec.md §9, "Output").
package snapshot

import (
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	cmac "github.com/knut0815/cmacionize"
	"github.com/knut0815/cmacionize/voronoi"
)

// formatVersion identifies the snapshot file layout, so a future reader can
// detect an incompatible file rather than silently misinterpreting it.
const formatVersion = "1"

// Write records the generator position, volume, density, temperature and
// ionic fractions of every cell in grid to the netCDF file w.
func Write(w *os.File, grid *voronoi.Grid, states []cmac.IonizationVariables) error {
	n := grid.NumCells()
	if len(states) != n {
		return fmt.Errorf("snapshot: %d cells but %d states", n, len(states))
	}

	x := sparse.ZerosDense(n)
	y := sparse.ZerosDense(n)
	z := sparse.ZerosDense(n)
	volume := sparse.ZerosDense(n)
	density := sparse.ZerosDense(n)
	temperature := sparse.ZerosDense(n)
	fractions := sparse.ZerosDense(int(cmac.NumberOfIonNames), n)

	for i := 0; i < n; i++ {
		cell := grid.GetCell(uint32(i))
		g := cell.Generator()
		x.Set(g.X, i)
		y.Set(g.Y, i)
		z.Set(g.Z, i)
		volume.Set(cell.Volume(), i)
		density.Set(states[i].NumberDensity, i)
		temperature.Set(states[i].Temperature, i)
		for ion := range states[i].IonicFractions {
			fractions.Set(states[i].IonicFractions[ion], ion, i)
		}
	}

	data := map[string]struct {
		dims        []string
		description string
		units       string
		array       *sparse.DenseArray
	}{
		"x":               {[]string{"cell"}, "generator x coordinate", "m", x},
		"y":               {[]string{"cell"}, "generator y coordinate", "m", y},
		"z":               {[]string{"cell"}, "generator z coordinate", "m", z},
		"volume":          {[]string{"cell"}, "cell volume", "m3", volume},
		"number_density":  {[]string{"cell"}, "total hydrogen number density", "m-3", density},
		"temperature":     {[]string{"cell"}, "gas temperature", "K", temperature},
		"ionic_fractions": {[]string{"ion", "cell"}, "neutral/ionized fraction by ion stage", "1", fractions},
	}

	h := cdf.NewHeader([]string{"cell", "ion"}, []int{n, int(cmac.NumberOfIonNames)})
	h.AddAttribute("", "comment", "CMacIonize-Go ionization snapshot")
	h.AddAttribute("", "format_version", formatVersion)
	h.AddAttribute("", "periodic", boolToInt32(grid.Periodic()))

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d := data[name]
		h.AddVariable(name, d.dims, []float32{0})
		h.AddAttribute(name, "description", d.description)
		h.AddAttribute(name, "units", d.units)
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := writeNCF(f, name, data[name].array); err != nil {
			return fmt.Errorf("snapshot: writing variable %s: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func boolToInt32(b bool) []int32 {
	if b {
		return []int32{1}
	}
	return []int32{0}
}

// writeNCF writes a fully-populated dense array to variable Var of f.
func writeNCF(f *cdf.File, Var string, data *sparse.DenseArray) error {
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}

	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	_, err := w.Write(data32)
	return err
}
