// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package orderparams quantifies how closely a site's coordination
// environment resembles ideal structural motifs. An Engine is configured
// with a list of motif specs and evaluates all of them in one pass over a
// site's neighbor geometry, producing a tri-state score per spec: a value
// between 0 and 1 (or a raw count for counting types), or undefined when
// the motif does not apply at the observed neighbor count.
package orderparams

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/dkozyrev/structenv"
	"github.com/dkozyrev/structenv/crystal"
)

var (
	// ErrUnknownType is returned by New for a type absent from the catalog.
	ErrUnknownType = errors.New("orderparams: unknown order parameter type")

	// ErrUnknownParam is returned by New for a parameter key the type
	// does not accept.
	ErrUnknownParam = errors.New("orderparams: unknown parameter")

	// ErrNeighborIndex is returned when an explicit neighbor list names an
	// out-of-range, duplicate, or self index.
	ErrNeighborIndex = errors.New("orderparams: invalid neighbor index")
)

// Spec selects one order parameter to evaluate, with optional parameter
// overrides merged over the type's defaults.
type Spec struct {
	Type   Type
	Params Params
}

// Score is the tri-state result of evaluating one spec at one site.
// Defined reports whether the motif applied at the observed neighbor
// count; Value is meaningless when Defined is false.
type Score struct {
	Value   float64
	Defined bool
}

// Engine evaluates a fixed list of order parameter specs against sites of
// a structure. Neighbors are resolved by distance cutoff when one is set,
// and by Voronoi facet analysis otherwise; CalculateWithNeighbors bypasses
// resolution entirely.
type Engine struct {
	specs  []resolved
	cutoff float64
}

type resolved struct {
	typ    Type
	motif  motif
	params Params
}

// Option adjusts Engine construction.
type Option func(*Engine) error

// WithCutoff switches neighbor resolution from Voronoi analysis to a
// fixed distance cutoff in Å.
func WithCutoff(cutoff float64) Option {
	return func(e *Engine) error {
		if cutoff <= 0 {
			return fmt.Errorf("orderparams.WithCutoff: cutoff must be positive, got %v", cutoff)
		}
		e.cutoff = cutoff
		return nil
	}
}

// New builds an Engine for the given specs. Each spec's parameters are
// merged over its type's defaults; an unknown type or parameter key is an
// error.
func New(specs []Spec, opts ...Option) (*Engine, error) {
	if len(specs) == 0 {
		return nil, errors.New("orderparams.New: no specs given")
	}
	e := &Engine{specs: make([]resolved, 0, len(specs))}
	for _, s := range specs {
		m, ok := registry[s.Type]
		if !ok {
			return nil, fmt.Errorf("orderparams.New: %w: %q", ErrUnknownType, s.Type)
		}
		params := make(Params, len(m.defaults))
		for k, v := range m.defaults {
			params[k] = v
		}
		for k, v := range s.Params {
			if _, known := m.defaults[k]; !known {
				return nil, fmt.Errorf("orderparams.New: %w: %q for type %q", ErrUnknownParam, k, s.Type)
			}
			params[k] = v
		}
		e.specs = append(e.specs, resolved{typ: s.Type, motif: m, params: params})
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Types returns the configured spec types in evaluation order.
func (e *Engine) Types() []Type {
	out := make([]Type, len(e.specs))
	for i, r := range e.specs {
		out[i] = r.typ
	}
	return out
}

// Calculate evaluates all specs at the given site, resolving neighbors by
// the engine's cutoff, or by Voronoi coordination when no cutoff is set.
// Scores come back in spec order.
func (e *Engine) Calculate(s *crystal.Structure, site int) ([]Score, error) {
	center, err := s.Site(site)
	if err != nil {
		return nil, fmt.Errorf("orderparams.Calculate: %w", err)
	}
	var vecs []r3.Vector
	if e.cutoff > 0 {
		nbrs, err := crystal.NeighborsWithin(s, site, e.cutoff)
		if err != nil {
			return nil, fmt.Errorf("orderparams.Calculate: %w", err)
		}
		vecs = make([]r3.Vector, len(nbrs))
		for i, nb := range nbrs {
			vecs[i] = nb.Cart.Sub(center.Cart)
		}
	} else {
		finder, err := structenv.NewCoordFinder(s)
		if err != nil {
			return nil, fmt.Errorf("orderparams.Calculate: %w", err)
		}
		facets, err := finder.CoordinatedSites(site)
		if err != nil {
			return nil, fmt.Errorf("orderparams.Calculate: %w", err)
		}
		vecs = make([]r3.Vector, len(facets))
		for i, f := range facets {
			vecs[i] = f.Neighbor.Cart.Sub(center.Cart)
		}
	}
	return e.score(vecs), nil
}

// CalculateWithNeighbors evaluates all specs at the given site against an
// explicit list of neighbor site indices. The named sites are used at
// their stored coordinates; no periodic images are considered. Indices
// must be in range, distinct, and different from the site itself.
func (e *Engine) CalculateWithNeighbors(s *crystal.Structure, site int, indices []int) ([]Score, error) {
	if site < 0 || site >= s.NumSites() {
		return nil, fmt.Errorf("orderparams.CalculateWithNeighbors: site %d out of range [0, %d)", site, s.NumSites())
	}
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= s.NumSites() {
			return nil, fmt.Errorf("orderparams.CalculateWithNeighbors: %w: %d out of range [0, %d)", ErrNeighborIndex, idx, s.NumSites())
		}
		if idx == site {
			return nil, fmt.Errorf("orderparams.CalculateWithNeighbors: %w: %d is the site itself", ErrNeighborIndex, idx)
		}
		if seen[idx] {
			return nil, fmt.Errorf("orderparams.CalculateWithNeighbors: %w: duplicate index %d", ErrNeighborIndex, idx)
		}
		seen[idx] = true
	}
	center, err := s.Site(site)
	if err != nil {
		return nil, fmt.Errorf("orderparams.CalculateWithNeighbors: %w", err)
	}
	vecs := make([]r3.Vector, len(indices))
	for i, idx := range indices {
		nb, err := s.Site(idx)
		if err != nil {
			return nil, fmt.Errorf("orderparams.CalculateWithNeighbors: %w", err)
		}
		vecs[i] = nb.Cart.Sub(center.Cart)
	}
	return e.score(vecs), nil
}

func (e *Engine) score(vecs []r3.Vector) []Score {
	env := newEnv(vecs)
	out := make([]Score, len(e.specs))
	for i, r := range e.specs {
		if !r.motif.accepts(len(vecs)) {
			continue
		}
		v, ok := r.motif.score(env, r.params)
		out[i] = Score{Value: v, Defined: ok}
	}
	return out
}
