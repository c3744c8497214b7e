// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package structenv

import (
	"github.com/golang/geo/r3"

	"github.com/dkozyrev/structenv/crystal"
)

// Facet describes one Voronoi facet of a site's cell together with the
// neighbor it separates the site from.
type Facet struct {
	Neighbor crystal.Neighbor
	// Weight is the facet metric (solid angle or area, per WeightMode),
	// normalized so the dominant facet of the cell is 1.0.
	Weight     float64
	SolidAngle float64 // steradians
	Area       float64 // Å²
	Volume     float64 // pyramid volume contributed to the cell, Å³
	// Vertices is the number of corners of the facet polygon.
	Vertices int
	// Polygon holds the facet corners relative to the site.
	Polygon []r3.Vector
}

// Polyhedron is the Voronoi cell of one site, one facet per Voronoi
// neighbor. Facets are sorted by weight descending; ties keep candidate
// order. All values are recomputed per call and never cached.
type Polyhedron struct {
	Site   int
	Facets []Facet
}

// Volume returns the summed pyramid volume of the facets present. With
// no species filter this is the full cell volume; with WithTargetSpecies
// only the reported facets contribute.
func (p *Polyhedron) Volume() float64 {
	var v float64
	for _, f := range p.Facets {
		v += f.Volume
	}
	return v
}

// CoordinatedFacets returns the facets whose weight reaches ratio relative
// to the dominant facet.
func (p *Polyhedron) CoordinatedFacets(ratio float64) []Facet {
	var out []Facet
	for _, f := range p.Facets {
		if f.Weight >= ratio {
			out = append(out, f)
		}
	}
	return out
}
