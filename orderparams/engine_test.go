// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package orderparams

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkozyrev/structenv/crystal"
)

func cartStructure(t *testing.T, edge float64, species []string, coords []r3.Vector) *crystal.Structure {
	t.Helper()
	lat, err := crystal.Cubic(edge)
	require.NoError(t, err)
	s, err := crystal.NewStructure(lat, species, coords, true)
	require.NoError(t, err)
	return s
}

func fracStructure(t *testing.T, lat crystal.Lattice, species []string, coords []r3.Vector) *crystal.Structure {
	t.Helper()
	s, err := crystal.NewStructure(lat, species, coords, false)
	require.NoError(t, err)
	return s
}

func cubicLattice(t *testing.T, a float64) crystal.Lattice {
	t.Helper()
	lat, err := crystal.Cubic(a)
	require.NoError(t, err)
	return lat
}

// evalOne scores a single order parameter at a site, via an explicit
// neighbor list when one is given and via the cutoff otherwise.
func evalOne(t *testing.T, typ Type, params Params, cutoff float64, s *crystal.Structure, site int, nbrs []int) Score {
	t.Helper()
	var opts []Option
	if cutoff > 0 {
		opts = append(opts, WithCutoff(cutoff))
	}
	eng, err := New([]Spec{{Type: typ, Params: params}}, opts...)
	require.NoError(t, err)
	var scores []Score
	if nbrs != nil {
		scores, err = eng.CalculateWithNeighbors(s, site, nbrs)
	} else {
		scores, err = eng.Calculate(s, site)
	}
	require.NoError(t, err)
	require.Len(t, scores, 1)
	return scores[0]
}

func singleBondFixture(t *testing.T) *crystal.Structure {
	return cartStructure(t, 10, []string{"H", "H", "H"},
		[]r3.Vector{{X: 1}, {}, {X: 6}})
}

func linearFixture(t *testing.T) *crystal.Structure {
	return cartStructure(t, 10, []string{"H", "H", "H"},
		[]r3.Vector{{X: 1}, {}, {X: 2}})
}

func TestSingleBond(t *testing.T) {
	sb := singleBondFixture(t)
	got := evalOne(t, SglBd, nil, 1.01, sb, 0, nil)
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-9)

	// Widening the cutoff pulls in the far atom twice via two images at
	// 5 Å each; 1 - 1/5.
	got = evalOne(t, SglBd, nil, 5.01, sb, 0, nil)
	require.True(t, got.Defined)
	assert.InDelta(t, 0.8, got.Value, 1e-9)

	got = evalOne(t, SglBd, nil, 1.01, linearFixture(t), 0, nil)
	require.True(t, got.Defined)
	assert.InDelta(t, 0.0, got.Value, 1e-9)
}

func TestBent(t *testing.T) {
	got := evalOne(t, Bent, Params{"TA": 1.0, "IGW_TA": 1.0 / 0.0667},
		1.01, linearFixture(t), 0, nil)
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-9)

	bent45 := cartStructure(t, 10, []string{"H", "H", "H"},
		[]r3.Vector{{}, {X: 0.707, Y: 0.707}, {X: 0.707}})
	got = evalOne(t, Bent, Params{"TA": 45.0 / 180.0, "IGW_TA": 1.0 / 0.0667},
		1.01, bent45, 0, nil)
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-6)
}

func TestCubicSite(t *testing.T) {
	cubic := fracStructure(t, cubicLattice(t, 1), []string{"H"}, []r3.Vector{{}})

	// Below the first shell nothing is coordinated: the count is a hard
	// zero and every motif is undefined.
	cn := evalOne(t, CN, nil, 0.99, cubic, 0, nil)
	require.True(t, cn.Defined)
	assert.Equal(t, 0.0, cn.Value)
	for _, typ := range []Type{Tet, Oct, BCC, Q2, Q4, Q6} {
		got := evalOne(t, typ, nil, 0.99, cubic, 0, nil)
		assert.False(t, got.Defined, "type %s", typ)
	}

	cn = evalOne(t, CN, nil, 1.01, cubic, 0, nil)
	require.True(t, cn.Defined)
	assert.Equal(t, 6.0, cn.Value)

	oct := evalOne(t, Oct, nil, 1.01, cubic, 0, nil)
	require.True(t, oct.Defined)
	assert.InDelta(t, 1.0, oct.Value, 1e-9)

	q2 := evalOne(t, Q2, nil, 1.01, cubic, 0, nil)
	require.True(t, q2.Defined)
	assert.InDelta(t, 0.0, q2.Value, 1e-6)

	q4 := evalOne(t, Q4, nil, 1.01, cubic, 0, nil)
	require.True(t, q4.Defined)
	assert.InDelta(t, 0.76376, q4.Value, 1e-4)

	q6 := evalOne(t, Q6, nil, 1.01, cubic, 0, nil)
	require.True(t, q6.Defined)
	assert.InDelta(t, 0.35355, q6.Value, 1e-4)
}

func TestBCCSite(t *testing.T) {
	bcc := fracStructure(t, cubicLattice(t, 1), []string{"H", "H"},
		[]r3.Vector{{}, {X: 0.5, Y: 0.5, Z: 0.5}})

	cn := evalOne(t, CN, nil, 0.87, bcc, 0, nil)
	assert.Equal(t, 8.0, cn.Value)

	// All eight bonds sit exactly on the bcc angle set.
	got := evalOne(t, BCC, nil, 0.87, bcc, 0, nil)
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-9)

	q4 := evalOne(t, Q4, nil, 0.87, bcc, 0, nil)
	assert.InDelta(t, 0.50918, q4.Value, 1e-4)
	q6 := evalOne(t, Q6, nil, 0.87, bcc, 0, nil)
	assert.InDelta(t, 0.62854, q6.Value, 1e-4)
}

func TestFCCSite(t *testing.T) {
	fcc := fracStructure(t, cubicLattice(t, 1), []string{"H", "H", "H", "H"},
		[]r3.Vector{{}, {Y: 0.5, Z: 0.5}, {X: 0.5, Z: 0.5}, {X: 0.5, Y: 0.5}})

	cn := evalOne(t, CN, nil, 0.71, fcc, 0, nil)
	assert.Equal(t, 12.0, cn.Value)

	q2 := evalOne(t, Q2, nil, 0.71, fcc, 0, nil)
	assert.InDelta(t, 0.0, q2.Value, 1e-6)
	q4 := evalOne(t, Q4, nil, 0.71, fcc, 0, nil)
	assert.InDelta(t, 0.19094, q4.Value, 1e-4)
	q6 := evalOne(t, Q6, nil, 0.71, fcc, 0, nil)
	assert.InDelta(t, 0.57452, q6.Value, 1e-4)
}

func TestHCPSite(t *testing.T) {
	lat, err := crystal.FromParameters(1, 1, 1.633, 90, 90, 120)
	require.NoError(t, err)
	hcp := fracStructure(t, lat, []string{"H", "H"},
		[]r3.Vector{
			{X: 0.3333, Y: 0.6667, Z: 0.25},
			{X: 0.6667, Y: 0.3333, Z: 0.75},
		})

	cn := evalOne(t, CN, nil, 1.01, hcp, 0, nil)
	assert.Equal(t, 12.0, cn.Value)

	q4 := evalOne(t, Q4, nil, 1.01, hcp, 0, nil)
	assert.InDelta(t, 0.09722, q4.Value, 1e-3)
	q6 := evalOne(t, Q6, nil, 1.01, hcp, 0, nil)
	assert.InDelta(t, 0.48476, q6.Value, 1e-3)
}

func TestDiamondSite(t *testing.T) {
	diamond := fracStructure(t, cubicLattice(t, 1),
		[]string{"H", "H", "H", "H", "H", "H", "H", "H"},
		[]r3.Vector{
			{Z: 0.5}, {X: 0.75, Y: 0.75, Z: 0.75},
			{Y: 0.5}, {X: 0.75, Y: 0.25, Z: 0.25},
			{X: 0.5}, {X: 0.25, Y: 0.75, Z: 0.25},
			{X: 0.5, Y: 0.5, Z: 0.5}, {X: 0.25, Y: 0.25, Z: 0.75},
		})

	cn := evalOne(t, CN, nil, 0.44, diamond, 0, nil)
	assert.Equal(t, 4.0, cn.Value)

	tet := evalOne(t, Tet, nil, 0.44, diamond, 0, nil)
	require.True(t, tet.Defined)
	assert.InDelta(t, 1.0, tet.Value, 1e-9)

	q4 := evalOne(t, Q4, nil, 0.44, diamond, 0, nil)
	assert.InDelta(t, 0.50918, q4.Value, 1e-4)
	q6 := evalOne(t, Q6, nil, 0.44, diamond, 0, nil)
	assert.InDelta(t, 0.62854, q6.Value, 1e-4)
}

func TestTetOffPlane(t *testing.T) {
	s := cartStructure(t, 100, []string{"H", "H", "H", "H"},
		[]r3.Vector{
			{X: 0.50, Y: 0.50, Z: 0.50},
			{X: 0.25, Y: 0.75, Z: 0.25},
			{X: 0.25, Y: 0.25, Z: 0.75},
			{X: 0.75, Y: 0.25, Z: 0.25},
		})
	cn := evalOne(t, CN, nil, 0.44, s, 0, nil)
	assert.Equal(t, 3.0, cn.Value)
	tet := evalOne(t, Tet, nil, 0.44, s, 0, nil)
	require.True(t, tet.Defined)
	assert.InDelta(t, 1.0, tet.Value, 1e-9)
}

func TestPlanarMotifs(t *testing.T) {
	triPlan := cartStructure(t, 30, []string{"H", "H", "H", "H"},
		[]r3.Vector{
			{X: 15, Y: 15.28867, Z: 15},
			{X: 14.5, Y: 15, Z: 15},
			{X: 15.5, Y: 15, Z: 15},
			{X: 15, Y: 15.866, Z: 15},
		})
	got := evalOne(t, TriPlan, nil, 1.01, triPlan, 0, nil)
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-3)

	sqPlan := cartStructure(t, 30, []string{"H", "H", "H", "H", "H"},
		[]r3.Vector{
			{X: 15, Y: 15, Z: 15},
			{X: 14.75, Y: 14.75, Z: 15},
			{X: 14.75, Y: 15.25, Z: 15},
			{X: 15.25, Y: 14.75, Z: 15},
			{X: 15.25, Y: 15.25, Z: 15},
		})
	got = evalOne(t, SqPlan, nil, 1.01, sqPlan, 0, nil)
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-6)

	pentPlan := cartStructure(t, 30, []string{"Xe", "F", "F", "F", "F", "F"},
		[]r3.Vector{
			{Y: -1.6237},
			{X: 1.17969},
			{X: -1.17969},
			{X: 1.90877, Y: -2.24389},
			{X: -1.90877, Y: -2.24389},
			{Y: -3.6307},
		})
	got = evalOne(t, PentPlan, nil, 0, pentPlan, 0, []int{1, 2, 3, 4, 5})
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-3)
}

func TestRegularTriangle(t *testing.T) {
	s := cartStructure(t, 30, []string{"H", "H", "H", "H"},
		[]r3.Vector{
			{X: 15, Y: 15.28867, Z: 15.65},
			{X: 14.5, Y: 15, Z: 15},
			{X: 15.5, Y: 15, Z: 15},
			{X: 15, Y: 15.866, Z: 15},
		})
	got := evalOne(t, RegTri, nil, 1.01, s, 0, nil)
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-3)
}

func TestRegularSquare(t *testing.T) {
	s := cartStructure(t, 30, []string{"H", "H", "H", "H", "H"},
		[]r3.Vector{
			{X: 15, Y: 15, Z: 15.707},
			{X: 14.75, Y: 14.75, Z: 15},
			{X: 14.75, Y: 15.25, Z: 15},
			{X: 15.25, Y: 14.75, Z: 15},
			{X: 15.25, Y: 15.25, Z: 15},
		})
	got := evalOne(t, Sq, nil, 1.01, s, 0, nil)
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-6)
}

func TestTShape(t *testing.T) {
	s := cartStructure(t, 30, []string{"H", "H", "H", "H"},
		[]r3.Vector{
			{X: 15, Y: 15, Z: 15},
			{X: 15, Y: 15, Z: 15.5},
			{X: 15, Y: 15.5, Z: 15},
			{X: 15, Y: 14.5, Z: 15},
		})
	got := evalOne(t, TShape, nil, 0, s, 0, []int{1, 2, 3})
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-9)
}

func TestSeeSaw(t *testing.T) {
	s := cartStructure(t, 30, []string{"H", "H", "H", "H", "H"},
		[]r3.Vector{
			{X: 15, Y: 15, Z: 15},
			{X: 15, Y: 15, Z: 14},
			{X: 15, Y: 15, Z: 16},
			{X: 15, Y: 14, Z: 15},
			{X: 14, Y: 15, Z: 15},
		})
	got := evalOne(t, SeeSaw, nil, 0, s, 0, []int{1, 2, 3, 4})
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-9)
}

func TestPyramids(t *testing.T) {
	sqPyr := cartStructure(t, 30, []string{"H", "H", "H", "H", "H", "H"},
		[]r3.Vector{
			{X: 15, Y: 15, Z: 15},
			{X: 15, Y: 15, Z: 15.3535},
			{X: 14.75, Y: 14.75, Z: 15},
			{X: 14.75, Y: 15.25, Z: 15},
			{X: 15.25, Y: 14.75, Z: 15},
			{X: 15.25, Y: 15.25, Z: 15},
		})
	got := evalOne(t, SqPyr, nil, 1.01, sqPyr, 0, nil)
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-6)
	got = evalOne(t, SqPyrLegacy, nil, 1.01, sqPyr, 0, nil)
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-3)

	triPyr := cartStructure(t, 30, []string{"P", "Cl", "Cl", "Cl", "Cl"},
		[]r3.Vector{
			{},
			{Z: 2.14},
			{Y: 2.02},
			{X: 1.74937, Y: -1.01},
			{X: -1.74937, Y: -1.01},
		})
	got = evalOne(t, TriPyr, nil, 0, triPyr, 0, []int{1, 2, 3, 4})
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-3)

	pentPyr := cartStructure(t, 30, []string{"Xe", "F", "F", "F", "F", "F", "F"},
		[]r3.Vector{
			{Y: -1.6237},
			{Y: -1.6237, Z: 1.17969},
			{X: 1.17969},
			{X: -1.17969},
			{X: 1.90877, Y: -2.24389},
			{X: -1.90877, Y: -2.24389},
			{Y: -3.6307},
		})
	got = evalOne(t, PentPyr, nil, 0, pentPyr, 0, []int{1, 2, 3, 4, 5, 6})
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-3)

	hexPyr := cartStructure(t, 30, []string{"H", "Li", "C", "C", "C", "C", "C", "C"},
		[]r3.Vector{
			{},
			{Z: 1.675},
			{X: 0.71, Y: 1.2298},
			{X: -0.71, Y: 1.2298},
			{X: 0.71, Y: -1.2298},
			{X: -0.71, Y: -1.2298},
			{X: 1.4199},
			{X: -1.4199},
		})
	got = evalOne(t, HexPyr, nil, 0, hexPyr, 0, []int{1, 2, 3, 4, 5, 6, 7})
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-3)
}

func TestBipyramids(t *testing.T) {
	triBipyr := cartStructure(t, 30, []string{"P", "Cl", "Cl", "Cl", "Cl", "Cl"},
		[]r3.Vector{
			{},
			{Z: 2.14},
			{Y: 2.02},
			{X: 1.74937, Y: -1.01},
			{X: -1.74937, Y: -1.01},
			{Z: -2.14},
		})
	got := evalOne(t, TriBipyr, nil, 0, triBipyr, 0, []int{1, 2, 3, 4, 5})
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-3)

	pentBipyr := cartStructure(t, 30, []string{"Xe", "F", "F", "F", "F", "F", "F", "F"},
		[]r3.Vector{
			{Y: -1.6237},
			{Y: -1.6237, Z: -1.17969},
			{Y: -1.6237, Z: 1.17969},
			{X: 1.17969},
			{X: -1.17969},
			{X: 1.90877, Y: -2.24389},
			{X: -1.90877, Y: -2.24389},
			{Y: -3.6307},
		})
	got = evalOne(t, PentBipyr, nil, 0, pentBipyr, 0, []int{1, 2, 3, 4, 5, 6, 7})
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-3)

	hexBipyr := cartStructure(t, 30, []string{"H", "Li", "Li", "C", "C", "C", "C", "C", "C"},
		[]r3.Vector{
			{},
			{Z: 1.675},
			{Z: -1.675},
			{X: 0.71, Y: 1.2298},
			{X: -0.71, Y: 1.2298},
			{X: 0.71, Y: -1.2298},
			{X: -0.71, Y: -1.2298},
			{X: 1.4199},
			{X: -1.4199},
		})
	got = evalOne(t, HexBipyr, nil, 0, hexBipyr, 0, []int{1, 2, 3, 4, 5, 6, 7, 8})
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-3)
}

func TestCuboctahedron(t *testing.T) {
	coords := []r3.Vector{
		{X: 15, Y: 15, Z: 15},
		{X: 15, Y: 14.5, Z: 14.5}, {X: 15, Y: 14.5, Z: 15.5},
		{X: 15, Y: 15.5, Z: 14.5}, {X: 15, Y: 15.5, Z: 15.5},
		{X: 14.5, Y: 15, Z: 14.5}, {X: 14.5, Y: 15, Z: 15.5},
		{X: 15.5, Y: 15, Z: 14.5}, {X: 15.5, Y: 15, Z: 15.5},
		{X: 14.5, Y: 14.5, Z: 15}, {X: 14.5, Y: 15.5, Z: 15},
		{X: 15.5, Y: 14.5, Z: 15}, {X: 15.5, Y: 15.5, Z: 15},
	}
	species := make([]string, len(coords))
	for i := range species {
		species[i] = "H"
	}
	s := cartStructure(t, 30, species, coords)
	nbrs := make([]int, 12)
	for i := range nbrs {
		nbrs[i] = i + 1
	}
	got := evalOne(t, Cuboct, nil, 0, s, 0, nbrs)
	require.True(t, got.Defined)
	assert.InDelta(t, 1.0, got.Value, 1e-9)
}

func TestSteinhardtSingleBond(t *testing.T) {
	s := singleBondFixture(t)
	for _, typ := range []Type{Q2, Q4, Q6} {
		got := evalOne(t, typ, nil, 0, s, 0, []int{1})
		require.True(t, got.Defined, "type %s", typ)
		assert.InDelta(t, 1.0, got.Value, 1e-9, "type %s", typ)
	}
}

func TestCalculate_VoronoiMode(t *testing.T) {
	cubic := fracStructure(t, cubicLattice(t, 1), []string{"H"}, []r3.Vector{{}})
	eng, err := New([]Spec{{Type: CN}, {Type: Oct}})
	require.NoError(t, err)
	scores, err := eng.Calculate(cubic, 0)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 6.0, scores[0].Value)
	require.True(t, scores[1].Defined)
	assert.InDelta(t, 1.0, scores[1].Value, 1e-9)
}

func TestCalculateWithNeighbors_Validation(t *testing.T) {
	bcc := fracStructure(t, cubicLattice(t, 1), []string{"H", "H"},
		[]r3.Vector{{}, {X: 0.5, Y: 0.5, Z: 0.5}})
	eng, err := New([]Spec{{Type: CN}, {Type: Tet}})
	require.NoError(t, err)

	// One explicit neighbor: the count applies, tet does not.
	scores, err := eng.CalculateWithNeighbors(bcc, 0, []int{1})
	require.NoError(t, err)
	assert.True(t, scores[0].Defined)
	assert.Equal(t, 1.0, scores[0].Value)
	assert.False(t, scores[1].Defined)

	_, err = eng.CalculateWithNeighbors(bcc, 0, []int{2})
	assert.ErrorIs(t, err, ErrNeighborIndex)
	_, err = eng.CalculateWithNeighbors(bcc, 0, []int{-1})
	assert.ErrorIs(t, err, ErrNeighborIndex)
	_, err = eng.CalculateWithNeighbors(bcc, 0, []int{0})
	assert.ErrorIs(t, err, ErrNeighborIndex)
	_, err = eng.CalculateWithNeighbors(bcc, 1, []int{0, 0})
	assert.ErrorIs(t, err, ErrNeighborIndex)
}

func TestCalculate_Idempotent(t *testing.T) {
	bcc := fracStructure(t, cubicLattice(t, 1), []string{"H", "H"},
		[]r3.Vector{{}, {X: 0.5, Y: 0.5, Z: 0.5}})
	eng, err := New([]Spec{{Type: CN}, {Type: BCC}, {Type: Q6}}, WithCutoff(0.87))
	require.NoError(t, err)
	first, err := eng.Calculate(bcc, 0)
	require.NoError(t, err)
	second, err := eng.Calculate(bcc, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]Spec{{Type: "frobnicate"}})
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = New([]Spec{{Type: Bent, Params: Params{"XX": 1}}})
	assert.ErrorIs(t, err, ErrUnknownParam)

	_, err = New([]Spec{{Type: CN, Params: Params{"TA": 1}}})
	assert.ErrorIs(t, err, ErrUnknownParam)

	_, err = New([]Spec{{Type: CN}}, WithCutoff(0))
	assert.Error(t, err)
	_, err = New([]Spec{{Type: CN}}, WithCutoff(-3))
	assert.Error(t, err)

	eng, err := New([]Spec{{Type: CN}, {Type: Bent, Params: Params{"TA": 0.25}}})
	require.NoError(t, err)
	assert.Equal(t, []Type{CN, Bent}, eng.Types())
}
