// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package structenv

import (
	"errors"
	"fmt"
)

// ErrInsufficientNeighbors reports that a site has too few neighbor
// candidates for a Voronoi tessellation. Widening the cutoff is the only
// remedy, so the error is surfaced rather than retried.
var ErrInsufficientNeighbors = errors.New("structenv: insufficient neighbors for Voronoi tessellation")

// WeightMode selects the facet metric used as a neighbor weight.
type WeightMode int

const (
	// SolidAngleWeight weights facets by the solid angle they subtend at
	// the site. This is the default.
	SolidAngleWeight WeightMode = iota
	// AreaWeight weights facets by their area.
	AreaWeight
)

// Config collects every numeric tolerance shared by the neighbor enumerator,
// the Voronoi coordination finder and the index analyzer, so the components
// cannot silently diverge.
type Config struct {
	// Cutoff is the neighbor candidate search radius in Å.
	Cutoff float64
	// FacetRatio is the fraction of the dominant facet weight a facet must
	// reach to count toward coordination.
	FacetRatio float64
	// Weight selects the facet weight metric.
	Weight WeightMode
	// MergeTol is the distance below which Voronoi cell vertices produced
	// by coplanar hull triangles are merged.
	MergeTol float64
	// MinFacetAngle is the solid angle below which a facet is discarded as
	// a numerical artifact of a degenerate tessellation.
	MinFacetAngle float64
	// MaxFaceOrder is the largest face vertex count tracked by Voronoi
	// index signatures; faces of higher order are ignored.
	MaxFaceOrder int
	// TargetSpecies restricts the facets reported by the coordination
	// finder to the listed species. Empty means all species. The Voronoi
	// tessellation itself always uses every candidate.
	TargetSpecies []string
}

// DefaultConfig returns the default analysis configuration.
func DefaultConfig() Config {
	return Config{
		Cutoff:        10.0,
		FacetRatio:    1.0 / 3.0,
		Weight:        SolidAngleWeight,
		MergeTol:      1e-6,
		MinFacetAngle: 1e-7,
		MaxFaceOrder:  10,
	}
}

// Option configures a CoordFinder or an IndexAnalyzer.
type Option func(*Config) error

// WithCutoff sets the neighbor candidate search radius in Å.
func WithCutoff(cutoff float64) Option {
	return func(c *Config) error {
		if cutoff <= 0 {
			return fmt.Errorf("WithCutoff: cutoff %v must be positive", cutoff)
		}
		c.Cutoff = cutoff
		return nil
	}
}

// WithFacetRatio sets the weight-relative-to-max threshold a facet must
// reach to count toward coordination.
func WithFacetRatio(ratio float64) Option {
	return func(c *Config) error {
		if ratio <= 0 || ratio > 1 {
			return fmt.Errorf("WithFacetRatio: ratio %v must be in (0 1]", ratio)
		}
		c.FacetRatio = ratio
		return nil
	}
}

// WithWeightMode selects the facet weight metric.
func WithWeightMode(m WeightMode) Option {
	return func(c *Config) error {
		if m != SolidAngleWeight && m != AreaWeight {
			return fmt.Errorf("WithWeightMode: unknown mode %d", m)
		}
		c.Weight = m
		return nil
	}
}

// WithMaxFaceOrder sets the largest face vertex count tracked by Voronoi
// index signatures.
func WithMaxFaceOrder(order int) Option {
	return func(c *Config) error {
		if order < 3 {
			return fmt.Errorf("WithMaxFaceOrder: order %d must be at least 3", order)
		}
		c.MaxFaceOrder = order
		return nil
	}
}

// WithTargetSpecies restricts reported facets to the listed species.
func WithTargetSpecies(species ...string) Option {
	return func(c *Config) error {
		if len(species) == 0 {
			return fmt.Errorf("WithTargetSpecies: no species given")
		}
		c.TargetSpecies = append([]string(nil), species...)
		return nil
	}
}

func newConfig(opts []Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
