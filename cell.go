// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package structenv analyzes coordination environments of atomic crystal
// structures: Voronoi-facet-weighted neighbor finding, coordination numbers
// under periodic boundary conditions, and Voronoi index signatures.
package structenv

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"

	"github.com/dkozyrev/structenv/crystal"
	"github.com/dkozyrev/structenv/geom"
)

// hullEps is the distance epsilon handed to quickhull. Dual points live on
// the 2/d scale of inverse Å, so this is far below any physical separation.
const hullEps = 1e-9

// cellFacet is one Voronoi facet of a site's cell, in coordinates relative
// to the site.
type cellFacet struct {
	candidate  int // index into the neighbor candidate slice
	verts      []r3.Vector
	area       float64
	solidAngle float64
	volume     float64
}

// voronoiCell computes the Voronoi cell of a site against the given neighbor
// candidates, in coordinates relative to center. The cell is the
// intersection of the perpendicular-bisector half-spaces; it is obtained as
// the polar dual of the convex hull of the inverted candidate points
// q = 2p/|p|², so each hull vertex corresponds to a cell facet and each hull
// facet plane to a cell vertex. Facets are returned in candidate order.
func voronoiCell(nbrs []crystal.Neighbor, center r3.Vector, cfg Config) ([]cellFacet, error) {
	if len(nbrs) < 4 {
		return nil, fmt.Errorf("voronoiCell: %d neighbor candidates: %w",
			len(nbrs), ErrInsufficientNeighbors)
	}

	duals := make([]r3.Vector, len(nbrs))
	for i, n := range nbrs {
		p := n.Cart.Sub(center)
		duals[i] = p.Mul(2.0 / p.Dot(p))
	}

	qh := new(quickhull.QuickHull)
	hull := qh.ConvexHull(duals, true, true, hullEps)
	if len(hull.Indices)%3 != 0 || len(hull.Indices) < 12 {
		return nil, fmt.Errorf("voronoiCell: degenerate hull with %d indices: %w",
			len(hull.Indices), ErrInsufficientNeighbors)
	}

	// Dualize each hull triangle back to a cell vertex, merging the
	// duplicates that coplanar triangles produce.
	numTriangles := len(hull.Indices) / 3
	var verts []r3.Vector
	incident := make(map[int][]int) // candidate -> unique cell vertex ids
	for t := 0; t < numTriangles; t++ {
		a := duals[hull.Indices[3*t]]
		b := duals[hull.Indices[3*t+1]]
		c := duals[hull.Indices[3*t+2]]
		n := b.Sub(a).Cross(c.Sub(a))
		d := n.Dot(a)
		if d < 0 {
			n, d = n.Mul(-1), -d
		}
		if d < hullEps {
			// A facet plane through the site: the candidates do not
			// surround the site and the cell is unbounded.
			return nil, fmt.Errorf("voronoiCell: unbounded cell: %w", ErrInsufficientNeighbors)
		}
		v := n.Mul(1.0 / d)
		id := -1
		for k := range verts {
			if verts[k].Sub(v).Norm() < cfg.MergeTol {
				id = k
				break
			}
		}
		if id < 0 {
			verts = append(verts, v)
			id = len(verts) - 1
		}
		for j := 0; j < 3; j++ {
			cand := hull.Indices[3*t+j]
			if !containsInt(incident[cand], id) {
				incident[cand] = append(incident[cand], id)
			}
		}
	}

	cands := make([]int, 0, len(incident))
	for cand := range incident {
		cands = append(cands, cand)
	}
	sort.Ints(cands)

	var facets []cellFacet
	for _, cand := range cands {
		ids := incident[cand]
		if len(ids) < 3 {
			// A grazing bisector plane touching the cell in an edge or a
			// point; not a facet.
			continue
		}
		axis := nbrs[cand].Cart.Sub(center).Normalize()
		poly := orderAroundAxis(ids, verts, axis)

		solid, err := geom.SolidAngle(r3.Vector{}, poly)
		if err != nil {
			return nil, fmt.Errorf("voronoiCell: facet of candidate %d: %w", cand, err)
		}
		if solid < cfg.MinFacetAngle {
			continue
		}
		area, err := geom.PolygonArea(poly)
		if err != nil {
			return nil, fmt.Errorf("voronoiCell: facet of candidate %d: %w", cand, err)
		}
		facets = append(facets, cellFacet{
			candidate:  cand,
			verts:      poly,
			area:       area,
			solidAngle: solid,
			// The facet lies on the bisector plane at half the neighbor
			// distance, so the pyramid from the site has that height.
			volume: area * nbrs[cand].Dist / 6.0,
		})
	}
	if len(facets) == 0 {
		return nil, fmt.Errorf("voronoiCell: no facets survive: %w", ErrInsufficientNeighbors)
	}
	return facets, nil
}

// orderAroundAxis returns the selected vertices ordered by angle around the
// facet axis, forming a convex polygon perimeter.
func orderAroundAxis(ids []int, verts []r3.Vector, axis r3.Vector) []r3.Vector {
	poly := make([]r3.Vector, len(ids))
	var centroid r3.Vector
	for i, id := range ids {
		poly[i] = verts[id]
		centroid = centroid.Add(verts[id])
	}
	centroid = centroid.Mul(1.0 / float64(len(ids)))

	// In-plane orthonormal basis.
	ref := poly[0].Sub(centroid)
	e1 := ref.Sub(axis.Mul(ref.Dot(axis)))
	if e1.Norm() < 1e-14 {
		e1 = arbitraryPerp(axis)
	}
	e1 = e1.Normalize()
	e2 := axis.Cross(e1)

	sort.SliceStable(poly, func(a, b int) bool {
		da := poly[a].Sub(centroid)
		db := poly[b].Sub(centroid)
		return math.Atan2(da.Dot(e2), da.Dot(e1)) < math.Atan2(db.Dot(e2), db.Dot(e1))
	})
	return poly
}

func arbitraryPerp(axis r3.Vector) r3.Vector {
	trial := r3.Vector{X: 1}
	if math.Abs(axis.X) > 0.9 {
		trial = r3.Vector{Y: 1}
	}
	return trial.Sub(axis.Mul(trial.Dot(axis)))
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
