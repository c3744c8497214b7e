// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package structenv

import (
	"fmt"
	"sort"

	"github.com/dkozyrev/structenv/crystal"
)

// CoordFinder derives coordination environments of a structure's sites from
// their Voronoi cells. A facet's solid angle (or area) measures how much of
// the site's surroundings the neighbor occupies, which is far less sensitive
// to distance noise than a hard cutoff. The finder holds only immutable
// configuration; every query is a pure function of the structure.
type CoordFinder struct {
	s   *crystal.Structure
	cfg Config
}

// NewCoordFinder returns a finder for the given structure.
func NewCoordFinder(s *crystal.Structure, opts ...Option) (*CoordFinder, error) {
	if s == nil {
		return nil, fmt.Errorf("NewCoordFinder: nil structure")
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &CoordFinder{s: s, cfg: cfg}, nil
}

// Polyhedron computes the Voronoi cell of site i. The tessellation uses all
// neighbor candidates within the configured cutoff; reported facets are
// restricted to the configured target species, while weights stay normalized
// against the dominant facet of the full cell.
func (f *CoordFinder) Polyhedron(i int) (*Polyhedron, error) {
	site, err := f.s.Site(i)
	if err != nil {
		return nil, fmt.Errorf("Polyhedron: %w", err)
	}
	nbrs, err := crystal.NeighborsWithin(f.s, i, f.cfg.Cutoff)
	if err != nil {
		return nil, fmt.Errorf("Polyhedron: %w", err)
	}
	cell, err := voronoiCell(nbrs, site.Cart, f.cfg)
	if err != nil {
		return nil, fmt.Errorf("Polyhedron: site %d: %w", i, err)
	}

	var maxWeight float64
	for _, cf := range cell {
		if w := f.facetWeight(cf); w > maxWeight {
			maxWeight = w
		}
	}

	poly := &Polyhedron{Site: i}
	for _, cf := range cell {
		n := nbrs[cf.candidate]
		if !f.targetSpecies(n.Species) {
			continue
		}
		poly.Facets = append(poly.Facets, Facet{
			Neighbor:   n,
			Weight:     f.facetWeight(cf) / maxWeight,
			SolidAngle: cf.solidAngle,
			Area:       cf.area,
			Volume:     cf.volume,
			Vertices:   len(cf.verts),
			Polygon:    cf.verts,
		})
	}
	sort.SliceStable(poly.Facets, func(a, b int) bool {
		return poly.Facets[a].Weight > poly.Facets[b].Weight
	})
	return poly, nil
}

// CoordinationNumber estimates the coordination number of site i as the sum
// of normalized facet weights that reach the configured fraction of the
// dominant facet. The default 1/3-of-max filter makes the estimate robust
// against the sliver facets a raw face count would include.
func (f *CoordFinder) CoordinationNumber(i int) (float64, error) {
	poly, err := f.Polyhedron(i)
	if err != nil {
		return 0, fmt.Errorf("CoordinationNumber: %w", err)
	}
	var cn float64
	for _, facet := range poly.CoordinatedFacets(f.cfg.FacetRatio) {
		cn += facet.Weight
	}
	return cn, nil
}

// CoordinatedSites returns the neighbors whose facets pass the same
// weight filter CoordinationNumber applies, sorted by weight descending.
func (f *CoordFinder) CoordinatedSites(i int) ([]Facet, error) {
	poly, err := f.Polyhedron(i)
	if err != nil {
		return nil, fmt.Errorf("CoordinatedSites: %w", err)
	}
	return poly.CoordinatedFacets(f.cfg.FacetRatio), nil
}

func (f *CoordFinder) facetWeight(cf cellFacet) float64 {
	if f.cfg.Weight == AreaWeight {
		return cf.area
	}
	return cf.solidAngle
}

func (f *CoordFinder) targetSpecies(sp string) bool {
	if len(f.cfg.TargetSpecies) == 0 {
		return true
	}
	for _, t := range f.cfg.TargetSpecies {
		if t == sp {
			return true
		}
	}
	return false
}
