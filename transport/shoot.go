/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

package transport

import (
	"math"
	"sync"

	"github.com/knut0815/cmacionize/accum"
	"github.com/knut0815/cmacionize/voronoi"

	cmac "github.com/knut0815/cmacionize"
)

// WorkerTotals is one worker goroutine's contribution to the iteration-wide
// weight bookkeeping: the total weight it shot, broken down by the final
// PhotonType each packet ended up tagged with.
type WorkerTotals struct {
	TotalWeight  float64
	TypeWeight   [cmac.NumberOfPhotonTypes]float64
	ExitedWeight float64
}

// Add folds other into t.
func (t *WorkerTotals) Add(other WorkerTotals) {
	t.TotalWeight += other.TotalWeight
	t.ExitedWeight += other.ExitedWeight
	for i := range t.TypeWeight {
		t.TypeWeight[i] += other.TypeWeight[i]
	}
}

// ShootBatch runs n packets from source through grid using rng for
// sampling, accumulating path integrals into intensities. It implements
// spec.md §4.5's per-batch work list.
func ShootBatch(grid *voronoi.Grid, source Source, rng UniformSource, states CellStates, intensities *accum.MeanIntensities, n int) (WorkerTotals, error) {
	var totals WorkerTotals

	for i := 0; i < n; i++ {
		position, direction, frequency := source.Sample(rng)
		sigma, heCorr := source.CrossSections(frequency)

		photon := NewPhoton(position, direction, frequency)
		photon.CrossSections = sigma
		photon.CrossSectionHeCorr = heCorr

		tauTarget := -math.Log(rng.Uniform())

		result, err := Interact(grid, photon, tauTarget, states, intensities)
		if err != nil {
			return totals, err
		}

		totals.TotalWeight += photon.Weight
		if result.Absorbed {
			photon.Type = cmac.PhotonAbsorbed
			totals.TypeWeight[photon.Type] += photon.Weight
		} else {
			totals.ExitedWeight += photon.Weight
		}
	}

	return totals, nil
}

// RunIteration drains jobs across worksize goroutines, each shooting
// batches of photons with its own pre-seeded generator, and returns the
// combined WorkerTotals once every job has been exhausted. newGenerator(i)
// must return a worker-local, non-shared UniformSource for worker i (the
// reference implementation seeds each PhotonShootJob with base_seed+i so a
// run is reproducible for a fixed worker count, spec.md §8).
func RunIteration(grid *voronoi.Grid, source Source, states CellStates, intensities *accum.MeanIntensities, jobs *JobMarket, worksize int, newGenerator func(worker int) UniformSource) (WorkerTotals, error) {
	var (
		mu     sync.Mutex
		total  WorkerTotals
		firstErr error
		wg     sync.WaitGroup
	)

	for w := 0; w < worksize; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := newGenerator(worker)
			for {
				batch, ok := jobs.GetJob()
				if !ok {
					return
				}
				t, err := ShootBatch(grid, source, rng, states, intensities, batch)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					total.Add(t)
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	if firstErr != nil {
		return WorkerTotals{}, firstErr
	}
	return total, nil
}
