/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

package density

import "math"

// NeighbourDistanceHistogram is an optional diagnostic, not required for
// density sampling itself: a log-spaced histogram of pairwise distances
// between every particle and its octree neighbours, matching the reference
// reader's "particle neighbour statistics" report.
//
// numBins buckets span [minDist, maxDist) logarithmically. Counts below
// minDist and at or above maxDist are returned separately as belowCount and
// aboveCount rather than folded into the edge bins, so a caller can report
// the same "X% closer together, Y% further apart" breakdown the reference
// statistics file prints.
func (s *Sampler) NeighbourDistanceHistogram(minDist, maxDist float64, numBins int) (counts []int, belowCount, aboveCount int) {
	counts = make([]int, numBins)
	logMin := math.Log10(minDist)
	logSpan := math.Log10(maxDist) - logMin

	for i, pi := range s.tree.particles {
		for _, j := range s.tree.neighbours(pi.Position) {
			if j == i {
				continue
			}
			r := pi.Position.Sub(s.tree.particles[j].Position).Norm()
			if r < minDist {
				belowCount++
				continue
			}
			bin := int((math.Log10(r) - logMin) / logSpan * float64(numBins))
			if bin >= numBins {
				aboveCount++
				continue
			}
			counts[bin]++
		}
	}
	return counts, belowCount, aboveCount
}
