// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/pdiddy/ingest-monitor/pkg/types"
)

const (
	gitHubPerRepo = 5
	gitHubCap     = 100
)

// GitHub counts repositories pushed within the window that match each query.
type GitHub struct {
	httpSource
	queries []string
}

type gitHubSearch struct {
	TotalCount int `json:"total_count"`
}

// Fetch searches repositories once per query.
func (g *GitHub) Fetch(ctx context.Context, w Window) ([]types.CandidateRecord, error) {
	header := http.Header{"Accept": {"application/vnd.github+json"}}
	if g.token != "" {
		header.Set("Authorization", "Bearer "+g.token)
	}

	var records []types.CandidateRecord
	for _, q := range g.queries {
		params := url.Values{
			"q":        {fmt.Sprintf("%s pushed:>%s", q, w.From.Format("2006-01-02"))},
			"sort":     {"updated"},
			"order":    {"desc"},
			"per_page": {"10"},
		}
		body, err := g.get(ctx, g.baseURL+"?"+params.Encode(), header)
		if err != nil {
			return nil, err
		}

		var res gitHubSearch
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, fmt.Errorf("parsing github response: %w", err)
		}
		g.log.WithFields(log.Fields{"query": q, "repositories": res.TotalCount}).Info("github repositories found")
		records = append(records, g.gen.Guides(min(res.TotalCount*gitHubPerRepo, gitHubCap), g.tag)...)
	}
	return records, nil
}
