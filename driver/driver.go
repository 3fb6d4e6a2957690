/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

// Package driver runs the control loop spec.md §2 describes: reset
// per-cell integrals, shoot a batch of photon packets through the Voronoi
// grid, solve the per-cell ionization balance from the accumulated
// integrals, and repeat until the neutral-hydrogen fraction has converged
// or a fixed iteration cap is hit. It is the component that owns a Grid,
// an accum.MeanIntensities, and the set of per-cell IonizationVariables,
// and wires transport.RunIteration/ionization.Solver together the way
// run.go's Calculations/SteadyStateConvergenceCheck/Log wire InMAP's
// per-timestep passes together.
package driver

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/knut0815/cmacionize/accum"
	"github.com/knut0815/cmacionize/ionization"
	"github.com/knut0815/cmacionize/random"
	"github.com/knut0815/cmacionize/transport"
	"github.com/knut0815/cmacionize/voronoi"

	cmac "github.com/knut0815/cmacionize"
)

// Params bundles the run-level configuration the driver needs, independent
// of how it was loaded (the config package is one source, tests construct
// Params directly).
type Params struct {
	WorkerCount          int
	Seed                 int
	PhotonsPerIteration  int
	JobSizeHint          int
	MaxIterations        int
	ConvergenceTolerance float64
	Luminosity           float64
}

// Driver owns the mutable state of one simulation: the Voronoi grid, the
// per-cell physical/radiative state, and the mean-intensity accumulator
// transport writes into and the ionization solver reads from.
type Driver struct {
	Grid        *voronoi.Grid
	States      []cmac.IonizationVariables
	Intensities *accum.MeanIntensities
	Solver      ionization.Solver

	Source transport.Source
	Params Params
	Log    logrus.FieldLogger

	// OnIteration, if set, is called after every transport+solve iteration
	// with the iteration number, the convergence delta, and the elapsed
	// wall time since Run started. It is how an optional status server
	// observes progress without the driver depending on one.
	OnIteration func(iteration int, convergence, walltime float64)
}

// New builds a Driver over an already-computed grid, with states seeded
// from initial (typically a density.Sampler's output, via the caller).
// The grid's per-cell volumes are recorded into the accumulator here, once,
// matching spec.md §4.5's "populated once right after computing the
// Voronoi grid".
func New(grid *voronoi.Grid, states []cmac.IonizationVariables, source transport.Source, solver ionization.Solver, params Params, log logrus.FieldLogger) (*Driver, error) {
	n := grid.NumCells()
	if len(states) != n {
		return nil, fmt.Errorf("driver: %d cells but %d initial states", n, len(states))
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	intensities := accum.New(n, int(cmac.NumberOfIonNames))
	for i := 0; i < n; i++ {
		intensities.SetVolume(i, grid.GetCell(uint32(i)).Volume())
	}

	return &Driver{
		Grid:        grid,
		States:      states,
		Intensities: intensities,
		Solver:      solver,
		Source:      source,
		Params:      params,
		Log:         log,
	}, nil
}

// cellStates adapts the driver's States slice to transport.CellStates,
// read-only during an iteration's transport pass.
type cellStates struct{ states []cmac.IonizationVariables }

func (c cellStates) State(cell uint32) cmac.IonizationVariables { return c.states[cell] }

// Run repeatedly shoots Params.PhotonsPerIteration packets and solves the
// ionization balance, up to Params.MaxIterations times, stopping early once
// every cell with a nonzero previous H neutral fraction has changed by less
// than Params.ConvergenceTolerance relative to the previous iteration (spec.md
// §8's "convergence delta" diagnostic, generalized from a single-cell check
// to a whole-grid one the way a real driver needs).
func (d *Driver) Run() error {
	startTime := time.Now()

	for iteration := 1; iteration <= d.Params.MaxIterations; iteration++ {
		iterStart := time.Now()
		d.Intensities.Reset()

		totals, err := d.shootIteration()
		if err != nil {
			return fmt.Errorf("driver: iteration %d transport: %w", iteration, err)
		}

		if totals.TotalWeight <= 0 {
			return fmt.Errorf("driver: iteration %d: zero total photon weight shot", iteration)
		}
		jfac := d.Params.Luminosity / totals.TotalWeight

		if err := d.solveIteration(jfac); err != nil {
			return fmt.Errorf("driver: iteration %d solve: %w", iteration, err)
		}

		delta := d.maxNeutralFractionDelta()

		d.Log.WithFields(logrus.Fields{
			"iteration":   iteration,
			"packets":     d.Params.PhotonsPerIteration,
			"workers":     d.Params.WorkerCount,
			"seed":        d.Params.Seed,
			"walltime":    time.Since(startTime).Seconds(),
			"deltaWall":   time.Since(iterStart).Seconds(),
			"convergence": delta,
		}).Info("transport+solve iteration complete")

		if d.OnIteration != nil {
			d.OnIteration(iteration, delta, time.Since(startTime).Seconds())
		}

		if delta < d.Params.ConvergenceTolerance {
			return nil
		}
	}
	return fmt.Errorf("driver: did not converge within %d iterations", d.Params.MaxIterations)
}

func (d *Driver) shootIteration() (transport.WorkerTotals, error) {
	jobs := transport.NewJobMarket(d.Params.PhotonsPerIteration, d.Params.JobSizeHint, d.Params.WorkerCount)
	newGenerator := func(worker int) transport.UniformSource {
		return random.New(d.Params.Seed + worker)
	}
	return transport.RunIteration(d.Grid, d.Source, cellStates{d.States}, d.Intensities, jobs, d.Params.WorkerCount, newGenerator)
}

// solveIteration distributes the per-cell ionization solve across
// Params.WorkerCount goroutines pulling contiguous batches from a
// JobMarket, mirroring spec.md §4.6's "distribute cells across workers
// using the same job-market mechanism as photon transport": the market
// hands out batch sizes, and the driver turns each size into the next
// unclaimed contiguous run of cell indices. Each cell's accumulated values
// are copied from Intensities into its state's MeanIntensities before it is
// solved.
func (d *Driver) solveIteration(jfac float64) error {
	n := len(d.States)
	active := d.Params.WorkerCount
	if active < 1 {
		active = 1
	}
	jobs := transport.NewJobMarket(n, 100, active)

	type batch struct{ start, count int }
	batches := make(chan batch)
	go func() {
		defer close(batches)
		cursor := 0
		for {
			count, ok := jobs.GetJob()
			if !ok {
				return
			}
			batches <- batch{start: cursor, count: count}
			cursor += count
		}
	}()

	errCh := make(chan error, active)
	for w := 0; w < active; w++ {
		go func() {
			for b := range batches {
				for i := b.start; i < b.start+b.count; i++ {
					for ion := range d.States[i].MeanIntensities {
						d.States[i].MeanIntensities[ion] = d.Intensities.Get(i, ion)
					}
					if err := d.Solver.CalculateCell(jfac, &d.States[i]); err != nil {
						errCh <- err
						return
					}
				}
			}
			errCh <- nil
		}()
	}

	var firstErr error
	for w := 0; w < active; w++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// maxNeutralFractionDelta returns the largest relative change in H neutral
// fraction across every cell since the previous solve, the scalar Run uses
// to decide whether to keep iterating. Cells whose previous H neutral
// fraction is 0 are skipped.
func (d *Driver) maxNeutralFractionDelta() float64 {
	max := 0.0
	for _, s := range d.States {
		old := s.NeutralFractionHOld
		if old == 0 {
			continue
		}
		delta := math.Abs(s.IonicFractions[cmac.IonHn]-old) / old
		if delta > max {
			max = delta
		}
	}
	return max
}
