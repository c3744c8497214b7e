// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package orderparams

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// gauss is the inverse Gaussian penalty mapping a scaled deviation to a
// closeness score in (0,1].
func gauss(x float64) float64 {
	return math.Exp(-0.5 * x * x)
}

// matchSpectrum compares a sorted observed angle spectrum against the
// sorted ideal one entrywise and averages the per-entry penalties.
// Sorting makes the comparison invariant under neighbor permutation; the
// result is exactly 1 for an ideal motif and decays smoothly with
// distortion.
func matchSpectrum(observed, ideal []float64, igw float64) float64 {
	var sum float64
	for i := range observed {
		sum += gauss((observed[i] - ideal[i]) * igw)
	}
	return sum / float64(len(observed))
}

// scoreNearestAngle builds a variable-neighbor-count score that penalizes
// each pairwise angle by its deviation from the nearest ideal angle of the
// motif's angle set. Used by tet, oct and bcc, whose forms must degrade
// gracefully at any neighbor count.
func scoreNearestAngle(targets ...float64) func(*env, Params) (float64, bool) {
	return func(e *env, p Params) (float64, bool) {
		if e.degenerate {
			return 0, false
		}
		igw := p["IGW_TA"]
		angles := e.pairAngles()
		var sum float64
		for _, a := range angles {
			best := math.Inf(1)
			for _, t := range targets {
				if dev := math.Abs(a - t); dev < best {
					best = dev
				}
			}
			sum += gauss(best * igw)
		}
		return sum / float64(len(angles)), true
	}
}

// scoreSingleBond scores how strongly the site is bonded to exactly one
// neighbor: 1 - d1/d2 over the two nearest candidates, 1.0 when only one
// candidate resolves.
func scoreSingleBond(e *env, _ Params) (float64, bool) {
	if len(e.dists) == 1 {
		return 1.0, true
	}
	sorted := append([]float64(nil), e.dists...)
	sort.Float64s(sorted)
	if sorted[1] < 1e-8 {
		return 0, false
	}
	return 1.0 - sorted[0]/sorted[1], true
}

// scoreBent scores the angle formed by the two neighbors and the site
// against the target angle TA (fraction of 180°) with width 1/IGW_TA.
func scoreBent(e *env, p Params) (float64, bool) {
	if e.degenerate {
		return 0, false
	}
	frac := e.pairAngles()[0]
	return gauss((frac - p["TA"]) * p["IGW_TA"]), true
}

// distUniformity penalizes the spread of bond lengths around their mean.
func distUniformity(dists []float64, igw float64) float64 {
	mean := floats.Sum(dists) / float64(len(dists))
	if mean < 1e-8 {
		return 0
	}
	var sum float64
	for _, d := range dists {
		sum += gauss((d - mean) / mean * igw)
	}
	return sum / float64(len(dists))
}

// scoreRegularTriangle scores whether the three neighbors form an
// equilateral triangle with the site equidistant from its corners. The
// site may sit on the triangle axis at any height.
func scoreRegularTriangle(e *env, p Params) (float64, bool) {
	if e.degenerate {
		return 0, false
	}
	igw := p["IGW_DR"]
	sides := interNeighborDists(e)
	return distUniformity(sides, igw) * distUniformity(e.dists, igw), true
}

// scoreRegularSquare scores whether the four neighbors form a square
// (four equal sides plus two √2 diagonals) with the site equidistant from
// its corners; the site may sit on the square axis at any height.
func scoreRegularSquare(e *env, p Params) (float64, bool) {
	if e.degenerate {
		return 0, false
	}
	igw := p["IGW_DR"]
	seps := interNeighborDists(e)
	sort.Float64s(seps)
	side := floats.Sum(seps[:4]) / 4.0
	if side < 1e-8 {
		return 0, false
	}
	ideal := []float64{side, side, side, side, side * math.Sqrt2, side * math.Sqrt2}
	var sum float64
	for i, s := range seps {
		sum += gauss((s - ideal[i]) / ideal[i] * igw)
	}
	return sum / float64(len(seps)) * distUniformity(e.dists, igw), true
}

// scoreSqPyrLegacy is the legacy square pyramid form: right angles between
// all bond pairs combined with uniform bond lengths, degrading gracefully
// at any neighbor count.
func scoreSqPyrLegacy(e *env, p Params) (float64, bool) {
	if e.degenerate {
		return 0, false
	}
	right := scoreNearestAngle(0.5, 1.0)
	angular, ok := right(e, p)
	if !ok {
		return 0, false
	}
	return angular * distUniformity(e.dists, p["IGW_DR"]), true
}

// scoreSteinhardt builds the degree-l bond orientational order parameter.
func scoreSteinhardt(l int) func(*env, Params) (float64, bool) {
	return func(e *env, _ Params) (float64, bool) {
		if e.degenerate {
			return 0, false
		}
		return steinhardt(l, e.units)
	}
}

// interNeighborDists returns the neighbor-to-neighbor distances for all
// pairs, in pair order.
func interNeighborDists(e *env) []float64 {
	n := len(e.vecs)
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, e.vecs[i].Sub(e.vecs[j]).Norm())
		}
	}
	return out
}
