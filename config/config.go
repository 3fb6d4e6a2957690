/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

// Package config loads and validates the on-disk description of a run: the
// box domain, periodicity, worker count, random seed, photon budget and
// convergence tolerance the driver needs before it can build a Voronoi grid
// and start shooting packets. Quantities that carry physical units are
// checked against github.com/ctessum/unit's Dimensions at this boundary
// only; once validated, every value below is handed to the hot path as a
// bare float64, keeping unit.Unit at the configuration edge and plain
// floats inside the per-cell arrays on the hot path.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/unit"

	cmac "github.com/knut0815/cmacionize"
)

// Config is the fully parsed, dimensionally validated description of one
// simulation run.
type Config struct {
	// Box is the domain the Voronoi grid is built over.
	Box cmac.Box
	// Periodic holds per-axis periodicity flags (x, y, z).
	Periodic [3]bool

	// WorkerCount is the number of OS-thread workers the photon-transport
	// and ionization-solve job markets distribute batches across.
	WorkerCount int
	// Seed is the base RANLUX seed; worker w is seeded Seed+w.
	Seed int

	// PhotonsPerIteration is the number of packets shot per transport
	// iteration.
	PhotonsPerIteration int
	// JobSizeHint is the minimum batch size a JobMarket hands out.
	JobSizeHint int
	// MaxIterations bounds the transport/solve loop the driver runs.
	MaxIterations int
	// ConvergenceTolerance is the maximum allowed relative change in the
	// H neutral fraction across an iteration before the driver considers
	// the run converged.
	ConvergenceTolerance float64

	// Luminosity is the total ionizing luminosity of all sources, in
	// photons per second (s^-1): spec.md §4.6's L_total.
	Luminosity float64

	// Abundances are the element abundances (He/H, C/H, ...) applied to
	// every cell.
	Abundances cmac.Abundances

	// AtomicDataPath points at the recombination/charge-transfer rate
	// tables. Parsing their format is an external collaborator's concern
	// (spec.md §1); config only validates the path is non-empty.
	AtomicDataPath string
	// SnapshotPath, if non-empty, is where the driver writes the
	// converged ionization state via the snapshot package.
	SnapshotPath string
}

// raw mirrors the on-disk TOML layout. Fields carrying physical units are
// plain float64 in SI units; Load wraps them in unit.Unit only long enough
// to check their dimensions before copying the bare value into Config.
type raw struct {
	Box struct {
		Anchor  [3]float64
		Sides   [3]float64
		Periodic [3]bool
	}
	Workers struct {
		Count int
		Seed  int
	}
	Photons struct {
		PerIteration  int
		JobSizeHint   int
		MaxIterations int
		Tolerance     float64
		LuminosityHz  float64
	}
	Abundances struct {
		He, C, N, O, Ne, S float64
	}
	AtomicDataPath string
	SnapshotPath   string
}

// Load reads and validates a TOML configuration file at path.
func Load(path string) (*Config, error) {
	var r raw
	if _, err := toml.DecodeFile(path, &r); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return fromRaw(r)
}

func fromRaw(r raw) (*Config, error) {
	anchor := cmac.Vec3(r.Box.Anchor[0], r.Box.Anchor[1], r.Box.Anchor[2])
	sides := cmac.Vec3(r.Box.Sides[0], r.Box.Sides[1], r.Box.Sides[2])

	for _, s := range []float64{sides.X, sides.Y, sides.Z} {
		if err := unit.New(s, unit.Meter).Check(unit.Meter); err != nil {
			return nil, fmt.Errorf("config: box side: %w", err)
		}
		if s <= 0 {
			return nil, fmt.Errorf("config: box sides must be strictly positive, got %g", s)
		}
	}

	if err := unit.New(r.Photons.LuminosityHz, unit.Herz).Check(unit.Herz); err != nil {
		return nil, fmt.Errorf("config: luminosity: %w", err)
	}
	if r.Photons.LuminosityHz <= 0 {
		return nil, fmt.Errorf("config: luminosity must be positive, got %g", r.Photons.LuminosityHz)
	}

	if r.Workers.Count < 1 {
		return nil, fmt.Errorf("config: worker count must be at least 1, got %d", r.Workers.Count)
	}
	if r.Photons.PerIteration < 1 {
		return nil, fmt.Errorf("config: photons per iteration must be at least 1, got %d", r.Photons.PerIteration)
	}
	if r.Photons.MaxIterations < 1 {
		return nil, fmt.Errorf("config: max iterations must be at least 1, got %d", r.Photons.MaxIterations)
	}
	if r.Photons.Tolerance <= 0 {
		return nil, fmt.Errorf("config: convergence tolerance must be positive, got %g", r.Photons.Tolerance)
	}
	if r.AtomicDataPath == "" {
		return nil, fmt.Errorf("config: AtomicDataPath must be set")
	}
	for _, a := range []float64{r.Abundances.He, r.Abundances.C, r.Abundances.N, r.Abundances.O, r.Abundances.Ne, r.Abundances.S} {
		if a < 0 {
			return nil, fmt.Errorf("config: abundances must be non-negative, got %g", a)
		}
	}

	jobSizeHint := r.Photons.JobSizeHint
	if jobSizeHint < 1 {
		jobSizeHint = 1
	}

	return &Config{
		Box:                  cmac.Box{Anchor: anchor, Sides: sides},
		Periodic:             r.Box.Periodic,
		WorkerCount:          r.Workers.Count,
		Seed:                 r.Workers.Seed,
		PhotonsPerIteration:  r.Photons.PerIteration,
		JobSizeHint:          jobSizeHint,
		MaxIterations:        r.Photons.MaxIterations,
		ConvergenceTolerance: r.Photons.Tolerance,
		Luminosity:           r.Photons.LuminosityHz,
		Abundances:           cmac.NewAbundances(r.Abundances.He, r.Abundances.C, r.Abundances.N, r.Abundances.O, r.Abundances.Ne, r.Abundances.S),
		AtomicDataPath:       r.AtomicDataPath,
		SnapshotPath:         r.SnapshotPath,
	}, nil
}

// AnyPeriodic reports whether any axis of the box wraps.
func (c *Config) AnyPeriodic() bool {
	return c.Periodic[0] || c.Periodic[1] || c.Periodic[2]
}
