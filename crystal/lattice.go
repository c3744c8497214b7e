// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package crystal provides the periodic structure model consumed by the
// analysis packages: lattices, sites, immutable structures and periodic
// neighbor enumeration.
package crystal

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Lattice is a 3-D periodic lattice defined by three basis vectors in Å.
// The zero Lattice is not valid; use NewLattice, FromParameters or Cubic.
type Lattice struct {
	basis  [3]r3.Vector
	inv    [3][3]float64 // inverse of the row-basis matrix
	vol    float64
	widths [3]float64 // perpendicular widths of the unit cell
}

// NewLattice builds a lattice from three basis vectors. It returns an error
// if the vectors are linearly dependent.
func NewLattice(a, b, c r3.Vector) (Lattice, error) {
	m := mat.NewDense(3, 3, []float64{
		a.X, a.Y, a.Z,
		b.X, b.Y, b.Z,
		c.X, c.Y, c.Z,
	})
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return Lattice{}, fmt.Errorf("NewLattice: singular basis: %w", err)
	}

	l := Lattice{basis: [3]r3.Vector{a, b, c}}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			l.inv[i][j] = inv.At(i, j)
		}
	}
	l.vol = math.Abs(mat.Det(m))
	l.widths = [3]float64{
		l.vol / b.Cross(c).Norm(),
		l.vol / c.Cross(a).Norm(),
		l.vol / a.Cross(b).Norm(),
	}
	return l, nil
}

// FromParameters builds a lattice from cell lengths a, b, c (Å) and angles
// alpha, beta, gamma (degrees).
func FromParameters(a, b, c, alpha, beta, gamma float64) (Lattice, error) {
	if a <= 0 || b <= 0 || c <= 0 {
		return Lattice{}, fmt.Errorf("FromParameters: non-positive cell length (%v %v %v)", a, b, c)
	}
	alphaR := alpha * math.Pi / 180.0
	betaR := beta * math.Pi / 180.0
	gammaR := gamma * math.Pi / 180.0

	val := (math.Cos(alphaR)*math.Cos(betaR) - math.Cos(gammaR)) /
		(math.Sin(alphaR) * math.Sin(betaR))
	val = math.Max(-1.0, math.Min(1.0, val))
	gammaStar := math.Acos(val)

	va := r3.Vector{X: a * math.Sin(betaR), Y: 0, Z: a * math.Cos(betaR)}
	vb := r3.Vector{
		X: -b * math.Sin(alphaR) * math.Cos(gammaStar),
		Y: b * math.Sin(alphaR) * math.Sin(gammaStar),
		Z: b * math.Cos(alphaR),
	}
	vc := r3.Vector{X: 0, Y: 0, Z: c}
	return NewLattice(va, vb, vc)
}

// Cubic builds a cubic lattice with edge length a.
func Cubic(a float64) (Lattice, error) {
	return NewLattice(
		r3.Vector{X: a}, r3.Vector{Y: a}, r3.Vector{Z: a},
	)
}

// Basis returns the three basis vectors.
func (l Lattice) Basis() (a, b, c r3.Vector) {
	return l.basis[0], l.basis[1], l.basis[2]
}

// Volume returns the unit cell volume.
func (l Lattice) Volume() float64 {
	return l.vol
}

// Cartesian converts fractional coordinates to Cartesian.
func (l Lattice) Cartesian(frac r3.Vector) r3.Vector {
	return l.basis[0].Mul(frac.X).
		Add(l.basis[1].Mul(frac.Y)).
		Add(l.basis[2].Mul(frac.Z))
}

// Fractional converts Cartesian coordinates to fractional.
func (l Lattice) Fractional(cart r3.Vector) r3.Vector {
	return r3.Vector{
		X: cart.X*l.inv[0][0] + cart.Y*l.inv[1][0] + cart.Z*l.inv[2][0],
		Y: cart.X*l.inv[0][1] + cart.Y*l.inv[1][1] + cart.Z*l.inv[2][1],
		Z: cart.X*l.inv[0][2] + cart.Y*l.inv[1][2] + cart.Z*l.inv[2][2],
	}
}

// PerpendicularWidths returns the distances between opposite faces of the
// unit cell, one per lattice direction. The smallest width bounds how far a
// single shell of periodic images can reach.
func (l Lattice) PerpendicularWidths() [3]float64 {
	return l.widths
}

// MinWidth returns the smallest perpendicular width of the unit cell.
func (l Lattice) MinWidth() float64 {
	return math.Min(l.widths[0], math.Min(l.widths[1], l.widths[2]))
}
