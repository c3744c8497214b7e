// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package crystal

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// DedupTol is the distance below which two periodic images are considered
// the same neighbor candidate. It also excludes candidates coincident with
// the reference site.
const DedupTol = 1e-5

// Neighbor is a candidate neighbor of a reference site: a specific periodic
// image of a source site. Neighbors are created per query and carry no
// reference back into the Structure.
type Neighbor struct {
	Index   int    // index of the source site in the structure
	Species string //
	Cart    r3.Vector
	Dist    float64 // distance to the reference site
}

// NeighborsWithin enumerates all atoms, periodic images included, within
// cutoff (Å) of site i, sorted by distance ascending. The periodic image
// scan starts from the 27 cells nearest the reference site and expands
// shell by shell until the covered radius exceeds the cutoff, which guards
// against missed neighbors in skewed or small lattices. Images mapping to
// the same position within DedupTol are reported once.
// NeighborsWithin is a pure function of structure, site and cutoff.
func NeighborsWithin(s *Structure, i int, cutoff float64) ([]Neighbor, error) {
	if i < 0 || i >= s.NumSites() {
		return nil, fmt.Errorf("NeighborsWithin: site %d out of range [0 %d)", i, s.NumSites())
	}
	if cutoff <= 0 {
		return nil, fmt.Errorf("NeighborsWithin: cutoff %v must be positive", cutoff)
	}

	lat := s.lat
	minW := lat.MinWidth()
	shells := 1
	for (float64(shells)+0.5)*minW < cutoff {
		shells++
	}

	ref := s.sites[i].Cart
	var nbrs []Neighbor
	for j, site := range s.sites {
		// Recenter on the image nearest the reference so the shell scan
		// is valid for sites stored outside the unit cell.
		f0 := lat.Fractional(site.Cart.Sub(ref))
		f0 = r3.Vector{
			X: f0.X - math.Round(f0.X),
			Y: f0.Y - math.Round(f0.Y),
			Z: f0.Z - math.Round(f0.Z),
		}
		for la := -shells; la <= shells; la++ {
			for lb := -shells; lb <= shells; lb++ {
				for lc := -shells; lc <= shells; lc++ {
					d := lat.Cartesian(f0.Add(r3.Vector{
						X: float64(la), Y: float64(lb), Z: float64(lc),
					}))
					dist := d.Norm()
					if dist > cutoff || dist <= DedupTol {
						continue
					}
					nbrs = append(nbrs, Neighbor{
						Index:   j,
						Species: site.Species,
						Cart:    ref.Add(d),
						Dist:    dist,
					})
				}
			}
		}
	}

	sort.SliceStable(nbrs, func(a, b int) bool {
		if nbrs[a].Dist != nbrs[b].Dist {
			return nbrs[a].Dist < nbrs[b].Dist
		}
		if nbrs[a].Index != nbrs[b].Index {
			return nbrs[a].Index < nbrs[b].Index
		}
		va, vb := nbrs[a].Cart, nbrs[b].Cart
		if va.X != vb.X {
			return va.X < vb.X
		}
		if va.Y != vb.Y {
			return va.Y < vb.Y
		}
		return va.Z < vb.Z
	})
	return dedupNeighbors(nbrs), nil
}

// dedupNeighbors drops candidates whose positions coincide within DedupTol.
// The input must be sorted by distance; only candidates with nearly equal
// distances can coincide, so the scan window stays short.
func dedupNeighbors(nbrs []Neighbor) []Neighbor {
	out := nbrs[:0]
	for _, n := range nbrs {
		dup := false
		for k := len(out) - 1; k >= 0; k-- {
			if n.Dist-out[k].Dist > DedupTol {
				break
			}
			if n.Cart.Sub(out[k].Cart).Norm() < DedupTol {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}
