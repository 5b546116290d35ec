// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/pdiddy/ingest-monitor/pkg/types"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(seed int64) *Generator {
	return New(seed, clocktesting.NewFakeClock(testNow))
}

func TestSequence_Shape(t *testing.T) {
	g := newTestGenerator(1)
	for range 500 {
		seq := g.Sequence(0)
		assert.Len(t, seq, 20)
		assert.True(t, strings.HasPrefix(seq, "GG"))
		assert.NotContains(t, seq, "TTTT")
		assert.NotContains(t, seq, "AAAA")
		assert.Empty(t, strings.Trim(seq, "ACGT"))
	}
}

func TestSequence_GCWeightRaisesGC(t *testing.T) {
	g := newTestGenerator(2)
	var uniform, biased float64
	for range 400 {
		uniform += GCPercent(g.Sequence(0))
		biased += GCPercent(g.Sequence(3))
	}
	assert.Greater(t, biased, uniform)
}

func TestGCPercent(t *testing.T) {
	assert.Equal(t, 50.0, GCPercent("GCAT"))
	assert.Equal(t, 100.0, GCPercent("GGCC"))
	assert.Equal(t, 0.0, GCPercent(""))
}

func TestGuide_Deterministic(t *testing.T) {
	a := newTestGenerator(42).Guides(20, "PUBMED_NEW")
	b := newTestGenerator(42).Guides(20, "PUBMED_NEW")
	assert.Equal(t, a, b)
}

func TestGuide_MonitorBands(t *testing.T) {
	g := newTestGenerator(7)
	for _, r := range g.Guides(1000, "GITHUB_DATASET") {
		assert.Equal(t, "GITHUB_DATASET", r.SourceTag)
		assert.Contains(t, PriorityGenes, r.Category)
		assert.GreaterOrEqual(t, r.Efficiency, 80.0)
		assert.LessOrEqual(t, r.Efficiency, 98.0)
		assert.GreaterOrEqual(t, r.OffTargetScore, 1.5)
		assert.LessOrEqual(t, r.OffTargetScore, 7.5)
		if r.Efficiency < 88 {
			assert.Equal(t, types.ValidationPublished, r.Validation)
		}
		assert.True(t, r.ReferenceDate.Before(testNow))
		assert.True(t, r.ReferenceDate.After(testNow.AddDate(-2, 0, -2)))
	}
}

func TestGuide_FixedProfile(t *testing.T) {
	g := newTestGenerator(9)
	p := Profile{
		GCWeight:    3,
		Efficiency:  Range{85, 97},
		OffTarget:   [3]Range{{1.5, 3.5}, {2.5, 5.0}, {3.5, 7.0}},
		Validation:  types.ValidationValidated,
		Title:       "Genome-scale screening",
		Year:        2016,
		ContextRate: 0,
	}
	for range 200 {
		r := g.Guide("TP53", "BRUNELLO", p)
		assert.Equal(t, types.ValidationValidated, r.Validation)
		assert.Equal(t, "Genome-scale screening", r.Title)
		assert.Equal(t, 2016, r.ReferenceDate.Year())
		assert.Empty(t, r.ContextLabel)
		assert.GreaterOrEqual(t, r.Efficiency, 85.0)
		assert.LessOrEqual(t, r.Efficiency, 97.0)
	}
}

func TestBoost(t *testing.T) {
	r := types.CandidateRecord{Efficiency: 95}
	assert.Equal(t, 98.0, Boost(r, 5).Efficiency)
	assert.Equal(t, 95.0, Boost(r, 0).Efficiency)
	r.Efficiency = 85
	assert.Equal(t, 90.0, Boost(r, 5).Efficiency)
}

func TestSampleGenes(t *testing.T) {
	g := newTestGenerator(3)
	got := g.SampleGenes(HumanGenes, 10)
	assert.Len(t, got, 10)

	seen := map[string]bool{}
	for _, gene := range got {
		assert.False(t, seen[gene])
		seen[gene] = true
	}
	assert.Len(t, g.SampleGenes([]string{"A", "B"}, 5), 2)
}

func TestHumanGenesDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, gene := range HumanGenes {
		assert.False(t, seen[gene], gene)
		seen[gene] = true
	}
}
