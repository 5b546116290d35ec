// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/ingest-monitor/internal/synth"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

const bioRxivPerPreprint = 5

// BioRxiv lists preprints posted within the window and keeps those whose
// title mentions CRISPR.
type BioRxiv struct {
	httpSource
}

type bioRxivDetails struct {
	Collection []struct {
		Title string `json:"title"`
		DOI   string `json:"doi"`
		Date  string `json:"date"`
	} `json:"collection"`
}

// Fetch reads the first page of the details endpoint for the window.
func (b *BioRxiv) Fetch(ctx context.Context, w Window) ([]types.CandidateRecord, error) {
	reqURL := fmt.Sprintf("%s/%s/%s/0", b.baseURL, w.From.Format("2006-01-02"), w.To.Format("2006-01-02"))
	body, err := b.get(ctx, reqURL, nil)
	if err != nil {
		return nil, err
	}

	var res bioRxivDetails
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("parsing biorxiv response: %w", err)
	}

	var records []types.CandidateRecord
	matched := 0
	for _, p := range res.Collection {
		if !strings.Contains(strings.ToUpper(p.Title), "CRISPR") {
			continue
		}
		matched++

		profile := synth.Monitor
		profile.Title = p.Title
		posted, dateErr := time.Parse("2006-01-02", p.Date)
		for range bioRxivPerPreprint {
			r := b.gen.Guide(b.gen.Gene(), b.tag, profile)
			if dateErr == nil {
				r.ReferenceDate = posted
			}
			records = append(records, r)
		}
	}
	b.log.WithField("preprints", matched).Info("biorxiv CRISPR preprints found")
	return records, nil
}
