// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package geom provides low-level geometry primitives for polyhedral analysis:
// solid angles of polygons, planar polygon measures and pyramid volumes.
package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// ErrInvalidGeometry reports a malformed input polygon.
var ErrInvalidGeometry = errors.New("geom: invalid geometry")

// triangleAreaEps is the squared-length scale below which a fan triangle is
// treated as degenerate and contributes no solid angle.
const triangleAreaEps = 1e-12

// SolidAngle returns the solid angle, in steradians, subtended by the planar
// (or near-planar) polygon poly as seen from view. The polygon is
// triangulated into a fan anchored at its first vertex and per-triangle
// angles are accumulated with the spherical-triangle tangent formula.
// The result is an unsigned magnitude in [0, 4π]; triangles with near-zero
// area contribute nothing. Polygons with fewer than 3 vertices yield an
// error wrapping ErrInvalidGeometry.
func SolidAngle(view r3.Vector, poly []r3.Vector) (float64, error) {
	if len(poly) < 3 {
		return 0, fmt.Errorf("SolidAngle: polygon has %d vertices, need at least 3: %w",
			len(poly), ErrInvalidGeometry)
	}

	rays := make([]r3.Vector, len(poly))
	norms := make([]float64, len(poly))
	for i, p := range poly {
		rays[i] = p.Sub(view)
		norms[i] = rays[i].Norm()
	}

	var total float64
	for i := 1; i < len(rays)-1; i++ {
		j := i + 1
		if rays[i].Sub(rays[0]).Cross(rays[j].Sub(rays[0])).Norm() < triangleAreaEps {
			continue
		}
		// Van Oosterom-Strackee: tan(Ω/2) = |r0·(ri×rj)| / denominator.
		tp := math.Abs(rays[0].Dot(rays[i].Cross(rays[j])))
		de := norms[0]*norms[i]*norms[j] +
			norms[i]*rays[0].Dot(rays[j]) +
			norms[j]*rays[0].Dot(rays[i]) +
			norms[0]*rays[i].Dot(rays[j])
		total += 2.0 * math.Atan2(tp, de)
	}
	return total, nil
}

// PolygonArea returns the area of the planar polygon poly. The vertices must
// be ordered along the perimeter. Slightly non-planar polygons are measured
// by the magnitude of the summed vector area.
func PolygonArea(poly []r3.Vector) (float64, error) {
	if len(poly) < 3 {
		return 0, fmt.Errorf("PolygonArea: polygon has %d vertices, need at least 3: %w",
			len(poly), ErrInvalidGeometry)
	}
	var sum r3.Vector
	for i := 1; i < len(poly)-1; i++ {
		a := poly[i].Sub(poly[0])
		b := poly[i+1].Sub(poly[0])
		sum = sum.Add(a.Cross(b))
	}
	return 0.5 * sum.Norm(), nil
}

// PolygonCentroid returns the vertex centroid of poly.
func PolygonCentroid(poly []r3.Vector) (r3.Vector, error) {
	if len(poly) == 0 {
		return r3.Vector{}, fmt.Errorf("PolygonCentroid: empty polygon: %w", ErrInvalidGeometry)
	}
	var c r3.Vector
	for _, p := range poly {
		c = c.Add(p)
	}
	return c.Mul(1.0 / float64(len(poly))), nil
}

// TetrahedronVolume returns the volume of the tetrahedron with vertices
// a, b, c and d.
func TetrahedronVolume(a, b, c, d r3.Vector) float64 {
	return math.Abs(b.Sub(a).Dot(c.Sub(a).Cross(d.Sub(a)))) / 6.0
}

// PyramidVolume returns the volume of the pyramid with the given apex and a
// planar base polygon, computed as a fan of tetrahedra.
func PyramidVolume(apex r3.Vector, base []r3.Vector) (float64, error) {
	if len(base) < 3 {
		return 0, fmt.Errorf("PyramidVolume: base has %d vertices, need at least 3: %w",
			len(base), ErrInvalidGeometry)
	}
	var v float64
	for i := 1; i < len(base)-1; i++ {
		v += TetrahedronVolume(apex, base[0], base[i], base[i+1])
	}
	return v, nil
}
