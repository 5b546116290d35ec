// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/pdiddy/ingest-monitor/internal/synth"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// Catalog stands in for vendor catalogs without a public API. Each fetch
// yields a random number of records between MinRecords and MaxRecords.
type Catalog struct {
	cfg types.SourceConfig
	gen *synth.Generator
	log *log.Entry
}

// Name returns the source name.
func (c *Catalog) Name() string { return c.cfg.Name }

// Fetch implements Adapter.
func (c *Catalog) Fetch(ctx context.Context, _ Window) ([]types.CandidateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := c.gen.Intn(c.cfg.MinRecords, c.cfg.MaxRecords)
	records := c.gen.Guides(n, c.cfg.Tag)
	for i := range records {
		records[i] = synth.Boost(records[i], c.cfg.EfficiencyBoost)
		if c.cfg.ForceValidated {
			records[i].Validation = types.ValidationValidated
		}
	}
	c.log.WithField("records", n).Info("catalog entries generated")
	return records, nil
}
