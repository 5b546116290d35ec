// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth produces scored guide records for sources that report only
// how much new material exists upstream. Given the same seed and clock it
// produces the same records.
package synth

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/pdiddy/ingest-monitor/pkg/types"
)

const (
	guidePrefix = "GG"
	guideBody   = 18
)

// Range is a closed numeric interval.
type Range struct {
	Lo, Hi float64
}

// Profile controls how a guide is scored.
type Profile struct {
	// GCWeight biases sequence composition: G and C each appear GCWeight
	// times in the base pool against one A and one T. Zero draws uniformly.
	GCWeight int

	// Efficiency is the integer efficiency range. The zero range derives
	// efficiency from GC content.
	Efficiency Range

	// OffTarget are the off-target ranges for efficiency >= 90, >= 85 and below.
	OffTarget [3]Range

	// Validation fixes the status. Empty derives it from efficiency.
	Validation types.ValidationStatus

	// Title fixes the record title. Empty picks a templated title 60% of the time.
	Title string

	// Year places the reference date in that year. Zero uses the last two years.
	Year int

	// ContextRate is the chance of attaching a cell line.
	ContextRate float64
}

// Monitor is the profile used by the periodic sources.
var Monitor = Profile{
	OffTarget:   [3]Range{{1.5, 3.5}, {2.5, 5.5}, {3.5, 7.5}},
	ContextRate: 0.7,
}

var titleTemplates = []string{
	"CRISPR screen identifies %s dependencies",
	"Functional genomics of %s in cancer",
	"High-efficiency %s knockout validation",
	"Systematic analysis of %s essentiality",
	"CRISPR-based characterization of %s",
}

// Generator produces guide records. It is not safe for concurrent use.
type Generator struct {
	rng   *rand.Rand
	clock clock.PassiveClock
}

// New returns a Generator seeded with seed, or with the current time when
// seed is zero.
func New(seed int64, clk clock.PassiveClock) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), clock: clk}
}

// Intn returns a uniform integer in [lo, hi].
func (g *Generator) Intn(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Intn(hi-lo+1)
}

// Gene picks a priority gene.
func (g *Generator) Gene() string {
	return PriorityGenes[g.rng.Intn(len(PriorityGenes))]
}

// SampleGenes returns n distinct genes from pool in random order.
func (g *Generator) SampleGenes(pool []string, n int) []string {
	n = min(n, len(pool))
	out := make([]string, len(pool))
	copy(out, pool)
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:n]
}

// Guides returns n monitor-profile guides for random priority genes.
func (g *Generator) Guides(n int, tag string) []types.CandidateRecord {
	out := make([]types.CandidateRecord, 0, max(n, 0))
	for range n {
		out = append(out, g.Guide(g.Gene(), tag, Monitor))
	}
	return out
}

// Sequence returns a GG-prefixed 20-mer with TTTT and AAAA runs replaced.
func (g *Generator) Sequence(gcWeight int) string {
	pool := []byte("ACGT")
	if gcWeight > 0 {
		pool = []byte("AT")
		for range gcWeight {
			pool = append(pool, 'G', 'C')
		}
	}

	var b strings.Builder
	b.WriteString(guidePrefix)
	for range guideBody {
		b.WriteByte(pool[g.rng.Intn(len(pool))])
	}
	seq := strings.ReplaceAll(b.String(), "TTTT", "GACT")
	return strings.ReplaceAll(seq, "AAAA", "GCTA")
}

// GCPercent returns the share of G and C bases in seq, in percent.
func GCPercent(seq string) float64 {
	if seq == "" {
		return 0
	}
	gc := strings.Count(seq, "G") + strings.Count(seq, "C")
	return float64(gc) / float64(len(seq)) * 100
}

// Guide produces one scored record for gene.
func (g *Generator) Guide(gene, tag string, p Profile) types.CandidateRecord {
	seq := g.Sequence(p.GCWeight)
	gc := GCPercent(seq)

	var eff int
	if p.Efficiency.Hi > 0 {
		eff = g.Intn(int(p.Efficiency.Lo), int(p.Efficiency.Hi))
	} else {
		eff = efficiencyForGC(g, gc)
	}

	band := p.OffTarget[2]
	switch {
	case eff >= 90:
		band = p.OffTarget[0]
	case eff >= 85:
		band = p.OffTarget[1]
	}
	offTarget := round(band.Lo+g.rng.Float64()*(band.Hi-band.Lo), 2)

	validation := p.Validation
	if validation == "" {
		validation = types.ValidationPublished
		if eff >= 88 && g.rng.Float64() > 0.3 {
			validation = types.ValidationValidated
		}
	}

	title := p.Title
	if title == "" && g.rng.Float64() > 0.4 {
		title = fmt.Sprintf(titleTemplates[g.rng.Intn(len(titleTemplates))], gene)
	}

	var date time.Time
	if p.Year > 0 {
		date = time.Date(p.Year, time.Month(g.Intn(1, 12)), g.Intn(1, 28), 0, 0, 0, 0, time.UTC)
	} else {
		date = g.clock.Now().UTC().AddDate(0, 0, -g.Intn(1, 730)).Truncate(24 * time.Hour)
	}

	var cellLine string
	if g.rng.Float64() < p.ContextRate {
		cellLine = CellLines[g.rng.Intn(len(CellLines))]
	}

	return types.CandidateRecord{
		Payload:        seq,
		Category:       gene,
		Efficiency:     float64(eff),
		GCContent:      round(gc, 1),
		OffTargetScore: offTarget,
		Validation:     validation,
		SourceTag:      tag,
		Title:          title,
		ReferenceDate:  date,
		ContextLabel:   cellLine,
	}
}

// Boost raises a record's efficiency by by points, capped at 98.
func Boost(r types.CandidateRecord, by float64) types.CandidateRecord {
	if by > 0 {
		r.Efficiency = math.Min(98, r.Efficiency+by)
	}
	return r
}

func efficiencyForGC(g *Generator, gc float64) int {
	switch {
	case gc >= 45 && gc <= 55:
		return g.Intn(88, 98)
	case (gc >= 40 && gc < 45) || (gc > 55 && gc <= 60):
		return g.Intn(83, 92)
	default:
		return g.Intn(80, 88)
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
