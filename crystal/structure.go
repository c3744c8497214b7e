// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package crystal

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Site is a single periodic site of a structure.
type Site struct {
	Species string
	Frac    r3.Vector
	Cart    r3.Vector
}

// Structure is an immutable set of periodic sites on a lattice. Periodic
// images are generated on demand by the neighbor enumerator; the Structure
// itself owns no neighbor state.
type Structure struct {
	lat   Lattice
	sites []Site
}

// NewStructure builds a structure from per-site species labels and
// coordinates. If cartesian is true the coordinates are Cartesian (Å),
// otherwise fractional.
func NewStructure(lat Lattice, species []string, coords []r3.Vector, cartesian bool) (*Structure, error) {
	if len(species) != len(coords) {
		return nil, fmt.Errorf("NewStructure: %d species for %d coordinates",
			len(species), len(coords))
	}
	if len(species) == 0 {
		return nil, fmt.Errorf("NewStructure: empty structure")
	}

	sites := make([]Site, len(species))
	for i := range species {
		s := Site{Species: species[i]}
		if cartesian {
			s.Cart = coords[i]
			s.Frac = lat.Fractional(coords[i])
		} else {
			s.Frac = coords[i]
			s.Cart = lat.Cartesian(coords[i])
		}
		sites[i] = s
	}
	return &Structure{lat: lat, sites: sites}, nil
}

// Lattice returns the lattice of the structure.
func (s *Structure) Lattice() Lattice {
	return s.lat
}

// NumSites returns the number of sites.
func (s *Structure) NumSites() int {
	return len(s.sites)
}

// Site returns a copy of the site at index i.
// It returns an error if the index is out of range.
func (s *Structure) Site(i int) (Site, error) {
	if i < 0 || i >= len(s.sites) {
		return Site{}, fmt.Errorf("Site: index %d out of range [0 %d)", i, len(s.sites))
	}
	return s.sites[i], nil
}
