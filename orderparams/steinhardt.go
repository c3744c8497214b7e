// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package orderparams

import (
	"math"

	"github.com/golang/geo/r3"
)

// steinhardt computes the rotationally invariant bond orientational order
// parameter q_l of Steinhardt, Nelson and Ronchetti over the given unit
// bond vectors:
//
//	q_l = sqrt( 4π/(2l+1) · Σ_m |⟨Y_lm⟩|² )
//
// where the average runs over bonds. The m<0 terms mirror the m>0 ones, so
// the sum is taken as |q_l0|² + 2·Σ_{m>0}|q_lm|².
func steinhardt(l int, units []r3.Vector) (float64, bool) {
	n := len(units)
	if n == 0 {
		return 0, false
	}
	var acc float64
	for m := 0; m <= l; m++ {
		var re, im float64
		for _, u := range units {
			// cos θ is the z component of a unit vector; φ comes from x, y.
			p := assocLegendre(l, m, u.Z)
			phi := math.Atan2(u.Y, u.X)
			norm := normFactor(l, m)
			re += norm * p * math.Cos(float64(m)*phi)
			im += norm * p * math.Sin(float64(m)*phi)
		}
		re /= float64(n)
		im /= float64(n)
		mag2 := re*re + im*im
		if m == 0 {
			acc += mag2
		} else {
			acc += 2 * mag2
		}
	}
	return math.Sqrt(4 * math.Pi / float64(2*l+1) * acc), true
}

// normFactor is the spherical harmonic normalization
// sqrt((2l+1)/(4π) · (l-m)!/(l+m)!).
func normFactor(l, m int) float64 {
	num := factorial(l - m)
	den := factorial(l + m)
	return math.Sqrt(float64(2*l+1) / (4 * math.Pi) * num / den)
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

// assocLegendre evaluates the associated Legendre polynomial P_l^m(x),
// Condon-Shortley phase included, by the standard upward recurrence.
func assocLegendre(l, m int, x float64) float64 {
	// P_m^m(x) = (-1)^m (2m-1)!! (1-x²)^(m/2)
	pmm := 1.0
	if m > 0 {
		somx2 := math.Sqrt((1 - x) * (1 + x))
		fact := 1.0
		for i := 1; i <= m; i++ {
			pmm *= -fact * somx2
			fact += 2
		}
	}
	if l == m {
		return pmm
	}
	// P_{m+1}^m(x) = x (2m+1) P_m^m(x)
	pmmp1 := x * float64(2*m+1) * pmm
	if l == m+1 {
		return pmmp1
	}
	// (l-m) P_l^m = x (2l-1) P_{l-1}^m - (l+m-1) P_{l-2}^m
	var pll float64
	for ll := m + 2; ll <= l; ll++ {
		pll = (x*float64(2*ll-1)*pmmp1 - float64(ll+m-1)*pmm) / float64(ll-m)
		pmm = pmmp1
		pmmp1 = pll
	}
	return pll
}
