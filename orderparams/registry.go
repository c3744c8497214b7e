// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package orderparams

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// Type tags one motif of the order parameter catalog.
type Type string

// The motif catalog. Every type maps a site's neighbor geometry to a score
// in [0,1], except CN which reports the raw neighbor count.
const (
	CN          Type = "cn"
	SglBd       Type = "sgl_bd"
	Bent        Type = "bent"
	Tet         Type = "tet"
	Oct         Type = "oct"
	BCC         Type = "bcc"
	Q2          Type = "q2"
	Q4          Type = "q4"
	Q6          Type = "q6"
	RegTri      Type = "reg_tri"
	Sq          Type = "sq"
	SqPyrLegacy Type = "sq_pyr_legacy"
	TriPlan     Type = "tri_plan"
	SqPlan      Type = "sq_plan"
	PentPlan    Type = "pent_plan"
	TShape      Type = "T"
	SeeSaw      Type = "see_saw"
	TriPyr      Type = "tri_pyr"
	SqPyr       Type = "sq_pyr"
	PentPyr     Type = "pent_pyr"
	HexPyr      Type = "hex_pyr"
	TriBipyr    Type = "tri_bipyr"
	PentBipyr   Type = "pent_bipyr"
	HexBipyr    Type = "hex_bipyr"
	Cuboct      Type = "cuboct"
)

// Params holds per-motif numeric parameters. Recognized keys depend on the
// type: "TA" (target angle as a fraction of 180°), "IGW_TA" (inverse
// Gaussian width on angle fractions), "IGW_DR" (inverse Gaussian width on
// relative distance deviations).
type Params map[string]float64

// Default inverse Gaussian widths.
const (
	defaultIGWTA = 1.0 / 0.0667
	defaultIGWDR = 30.0
)

// env is the shared per-call neighbor geometry every motif scores against.
type env struct {
	vecs  []r3.Vector // bond vectors, site to neighbor
	units []r3.Vector // unit bond vectors
	dists []float64
	// degenerate is set when a neighbor coincides with the site, which
	// leaves bond directions undefined.
	degenerate bool

	angles []float64 // sorted pairwise bond angles as fractions of π, lazy
}

func newEnv(vecs []r3.Vector) *env {
	e := &env{vecs: vecs}
	e.units = make([]r3.Vector, len(vecs))
	e.dists = make([]float64, len(vecs))
	for i, v := range vecs {
		d := v.Norm()
		e.dists[i] = d
		if d < 1e-8 {
			e.degenerate = true
			continue
		}
		e.units[i] = v.Mul(1.0 / d)
	}
	return e
}

// pairAngles returns all pairwise bond angles, sorted ascending, as
// fractions of π.
func (e *env) pairAngles() []float64 {
	if e.angles != nil {
		return e.angles
	}
	n := len(e.units)
	angles := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			cosa := math.Max(-1.0, math.Min(1.0, e.units[i].Dot(e.units[j])))
			angles = append(angles, math.Acos(cosa)/math.Pi)
		}
	}
	sort.Float64s(angles)
	e.angles = angles
	return angles
}

// motif couples a neighbor-count predicate with a scoring function and its
// default parameters. The catalog is data plus pure functions; dispatch
// never branches on the tag.
type motif struct {
	accepts  func(n int) bool
	defaults Params
	score    func(e *env, p Params) (float64, bool)
}

func exactly(n int) func(int) bool { return func(m int) bool { return m == n } }
func atLeast(n int) func(int) bool { return func(m int) bool { return m >= n } }

var registry = map[Type]motif{
	CN: {
		accepts: atLeast(0),
		score: func(e *env, _ Params) (float64, bool) {
			return float64(len(e.vecs)), true
		},
	},
	SglBd: {
		accepts: atLeast(1),
		score:   scoreSingleBond,
	},
	Bent: {
		accepts:  exactly(2),
		defaults: Params{"TA": 1.0, "IGW_TA": defaultIGWTA},
		score:    scoreBent,
	},
	Tet: {
		accepts:  atLeast(2),
		defaults: Params{"IGW_TA": defaultIGWTA},
		score:    scoreNearestAngle(tetAngle),
	},
	Oct: {
		accepts:  atLeast(2),
		defaults: Params{"IGW_TA": defaultIGWTA},
		score:    scoreNearestAngle(0.5, 1.0),
	},
	BCC: {
		accepts:  atLeast(2),
		defaults: Params{"IGW_TA": defaultIGWTA},
		score:    scoreNearestAngle(1.0-tetAngle, tetAngle, 1.0),
	},
	Q2: {accepts: atLeast(1), score: scoreSteinhardt(2)},
	Q4: {accepts: atLeast(1), score: scoreSteinhardt(4)},
	Q6: {accepts: atLeast(1), score: scoreSteinhardt(6)},
	RegTri: {
		accepts:  exactly(3),
		defaults: Params{"IGW_DR": defaultIGWDR},
		score:    scoreRegularTriangle,
	},
	Sq: {
		accepts:  exactly(4),
		defaults: Params{"IGW_DR": defaultIGWDR},
		score:    scoreRegularSquare,
	},
	SqPyrLegacy: {
		accepts:  atLeast(2),
		defaults: Params{"IGW_TA": defaultIGWTA, "IGW_DR": defaultIGWDR},
		score:    scoreSqPyrLegacy,
	},
	TriPlan:   spectrumMotif(3, angleSpectrum(pair{120, 3})),
	SqPlan:    spectrumMotif(4, angleSpectrum(pair{90, 4}, pair{180, 2})),
	PentPlan:  spectrumMotif(5, angleSpectrum(pair{72, 5}, pair{144, 5})),
	TShape:    spectrumMotif(3, angleSpectrum(pair{90, 2}, pair{180, 1})),
	SeeSaw:    spectrumMotif(4, angleSpectrum(pair{90, 5}, pair{180, 1})),
	TriPyr:    spectrumMotif(4, angleSpectrum(pair{90, 3}, pair{120, 3})),
	SqPyr:     spectrumMotif(5, angleSpectrum(pair{90, 8}, pair{180, 2})),
	PentPyr:   spectrumMotif(6, angleSpectrum(pair{72, 5}, pair{90, 5}, pair{144, 5})),
	HexPyr:    spectrumMotif(7, angleSpectrum(pair{60, 6}, pair{90, 6}, pair{120, 6}, pair{180, 3})),
	TriBipyr:  spectrumMotif(5, angleSpectrum(pair{90, 6}, pair{120, 3}, pair{180, 1})),
	PentBipyr: spectrumMotif(7, angleSpectrum(pair{72, 5}, pair{90, 10}, pair{144, 5}, pair{180, 1})),
	HexBipyr:  spectrumMotif(8, angleSpectrum(pair{60, 6}, pair{90, 12}, pair{120, 6}, pair{180, 4})),
	Cuboct:    spectrumMotif(12, angleSpectrum(pair{60, 24}, pair{90, 12}, pair{120, 24}, pair{180, 6})),
}

// tetAngle is the ideal tetrahedral angle acos(-1/3) as a fraction of π.
var tetAngle = math.Acos(-1.0/3.0) / math.Pi

type pair struct {
	deg   float64
	count int
}

// angleSpectrum builds a sorted ideal pairwise-angle spectrum, as fractions
// of π, from (degrees, multiplicity) pairs.
func angleSpectrum(pairs ...pair) []float64 {
	var spec []float64
	for _, p := range pairs {
		for i := 0; i < p.count; i++ {
			spec = append(spec, p.deg/180.0)
		}
	}
	sort.Float64s(spec)
	return spec
}

// spectrumMotif builds a fixed-neighbor-count motif that matches the sorted
// observed pairwise-angle spectrum against the ideal one.
func spectrumMotif(n int, ideal []float64) motif {
	if len(ideal) != n*(n-1)/2 {
		panic("orderparams: ideal spectrum size does not match neighbor count")
	}
	return motif{
		accepts:  exactly(n),
		defaults: Params{"IGW_TA": defaultIGWTA},
		score: func(e *env, p Params) (float64, bool) {
			if e.degenerate {
				return 0, false
			}
			return matchSpectrum(e.pairAngles(), ideal, p["IGW_TA"]), true
		},
	}
}
