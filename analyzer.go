// Copyright (c) 2026 Dmitry Kozyrev
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package structenv

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/dkozyrev/structenv/crystal"
)

// Signature is a Voronoi index: entry k counts the cell facets with k+3
// polygon vertices, up to the configured maximum face order. Equal local
// environments produce identical signatures, so a Signature's String form
// can serve as a tally key across an ensemble.
type Signature []int

// String renders the signature as a space-separated index, e.g.
// "[0 6 0 8 0 0 0 0]" for a bcc site.
func (sig Signature) String() string {
	return fmt.Sprint([]int(sig))
}

// SignatureCount pairs a signature with its frequency in an ensemble.
type SignatureCount struct {
	Signature Signature
	Count     int
}

// IndexAnalyzer classifies sites by the face-vertex-count signature of
// their Voronoi cells and tallies signature frequency across ensembles of
// structures, e.g. molecular dynamics trajectories.
type IndexAnalyzer struct {
	cfg Config
}

// NewIndexAnalyzer returns an analyzer with the given options.
func NewIndexAnalyzer(opts ...Option) (*IndexAnalyzer, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &IndexAnalyzer{cfg: cfg}, nil
}

// Analyze computes the Voronoi index signature of site i. Facets with more
// vertices than the configured maximum face order are ignored.
func (a *IndexAnalyzer) Analyze(s *crystal.Structure, i int) (Signature, error) {
	site, err := s.Site(i)
	if err != nil {
		return nil, fmt.Errorf("Analyze: %w", err)
	}
	nbrs, err := crystal.NeighborsWithin(s, i, a.cfg.Cutoff)
	if err != nil {
		return nil, fmt.Errorf("Analyze: %w", err)
	}
	cell, err := voronoiCell(nbrs, site.Cart, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("Analyze: site %d: %w", i, err)
	}

	sig := make(Signature, a.cfg.MaxFaceOrder-2)
	for _, f := range cell {
		if k := len(f.verts) - 3; k >= 0 && k < len(sig) {
			sig[k]++
		}
	}
	return sig, nil
}

// AnalyzeStructures tallies signature frequency over every site of every
// stepFreq-th structure and returns the topK most frequent signatures,
// descending by count with ties broken by first appearance. A site whose
// cell cannot be built is skipped without aborting the batch; such failures
// are joined into the returned error alongside the tallies.
func (a *IndexAnalyzer) AnalyzeStructures(ss []*crystal.Structure, stepFreq, topK int) ([]SignatureCount, error) {
	frames, err := sampleFrames(ss, stepFreq)
	if err != nil {
		return nil, fmt.Errorf("AnalyzeStructures: %w", err)
	}
	var errs []error
	tally := newTally()
	for _, fi := range frames {
		t, err := a.analyzeFrame(ss[fi])
		if err != nil {
			errs = append(errs, fmt.Errorf("frame %d: %w", fi, err))
		}
		tally.merge(t)
	}
	return tally.top(topK), errors.Join(errs...)
}

// AnalyzeEnsemble is AnalyzeStructures with the sampled frames analyzed by
// a bounded pool of workers. Per-frame tallies are merged in frame order,
// so the result is identical to the sequential path.
func (a *IndexAnalyzer) AnalyzeEnsemble(ss []*crystal.Structure, stepFreq, topK, workers int) ([]SignatureCount, error) {
	if workers < 1 {
		return nil, fmt.Errorf("AnalyzeEnsemble: workers %d must be positive", workers)
	}
	frames, err := sampleFrames(ss, stepFreq)
	if err != nil {
		return nil, fmt.Errorf("AnalyzeEnsemble: %w", err)
	}

	tallies := make([]*tally, len(frames))
	frameErrs := make([]error, len(frames))
	p := pool.New().WithMaxGoroutines(workers)
	for slot, fi := range frames {
		slot, fi := slot, fi
		p.Go(func() {
			t, err := a.analyzeFrame(ss[fi])
			tallies[slot] = t
			if err != nil {
				frameErrs[slot] = fmt.Errorf("frame %d: %w", fi, err)
			}
		})
	}
	p.Wait()

	merged := newTally()
	for _, t := range tallies {
		merged.merge(t)
	}
	return merged.top(topK), errors.Join(frameErrs...)
}

// analyzeFrame tallies one structure. Per-site failures abort only that
// site's analysis and are joined into the returned error.
func (a *IndexAnalyzer) analyzeFrame(s *crystal.Structure) (*tally, error) {
	var errs []error
	t := newTally()
	for i := 0; i < s.NumSites(); i++ {
		sig, err := a.Analyze(s, i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		t.add(sig)
	}
	return t, errors.Join(errs...)
}

func sampleFrames(ss []*crystal.Structure, stepFreq int) ([]int, error) {
	if stepFreq < 1 {
		return nil, fmt.Errorf("step frequency %d must be positive", stepFreq)
	}
	var frames []int
	for i := 0; i < len(ss); i += stepFreq {
		frames = append(frames, i)
	}
	return frames, nil
}

// tally counts signatures, remembering first-seen order for stable ranking.
type tally struct {
	counts map[string]int
	sigs   map[string]Signature
	order  []string
}

func newTally() *tally {
	return &tally{counts: make(map[string]int), sigs: make(map[string]Signature)}
}

func (t *tally) add(sig Signature) {
	key := sig.String()
	if _, ok := t.counts[key]; !ok {
		t.sigs[key] = sig
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

func (t *tally) merge(other *tally) {
	if other == nil {
		return
	}
	for _, key := range other.order {
		if _, ok := t.counts[key]; !ok {
			t.sigs[key] = other.sigs[key]
			t.order = append(t.order, key)
		}
		t.counts[key] += other.counts[key]
	}
}

func (t *tally) top(k int) []SignatureCount {
	out := make([]SignatureCount, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, SignatureCount{Signature: t.sigs[key], Count: t.counts[key]})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Count > out[b].Count
	})
	if k >= 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

// AverageCoordinationNumber computes the per-species mean Voronoi
// coordination number over every freq-th structure of an ensemble.
func AverageCoordinationNumber(ss []*crystal.Structure, freq int, opts ...Option) (map[string]float64, error) {
	frames, err := sampleFrames(ss, freq)
	if err != nil {
		return nil, fmt.Errorf("AverageCoordinationNumber: %w", err)
	}
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, fi := range frames {
		s := ss[fi]
		finder, err := NewCoordFinder(s, opts...)
		if err != nil {
			return nil, fmt.Errorf("AverageCoordinationNumber: %w", err)
		}
		for i := 0; i < s.NumSites(); i++ {
			cn, err := finder.CoordinationNumber(i)
			if err != nil {
				return nil, fmt.Errorf("AverageCoordinationNumber: frame %d: %w", fi, err)
			}
			site, _ := s.Site(i)
			sums[site.Species] += cn
			counts[site.Species]++
		}
	}
	avg := make(map[string]float64, len(sums))
	for sp, sum := range sums {
		avg[sp] = sum / float64(counts[sp])
	}
	return avg, nil
}
