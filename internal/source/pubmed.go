// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/pdiddy/ingest-monitor/pkg/types"
)

const (
	pubMedPerHit = 3
	pubMedCap    = 50
)

// PubMed counts recent papers per query term through NCBI E-utilities and
// sizes its output by the hit count.
type PubMed struct {
	httpSource
	queries []string
}

type eSearchResult struct {
	Count string `xml:"Count"`
}

// Fetch runs one esearch per query term. A failing term is logged and
// skipped; the fetch fails only when every term failed.
func (p *PubMed) Fetch(ctx context.Context, w Window) ([]types.CandidateRecord, error) {
	var records []types.CandidateRecord
	var errs []error

	for _, q := range p.queries {
		count, err := p.count(ctx, q, w)
		if err != nil {
			p.log.WithError(err).WithField("query", q).Warn("pubmed query failed")
			errs = append(errs, err)
			continue
		}
		if count == 0 {
			continue
		}
		p.log.WithFields(log.Fields{"query": q, "papers": count}).Info("pubmed papers found")
		records = append(records, p.gen.Guides(min(count*pubMedPerHit, pubMedCap), p.tag)...)
	}

	if len(p.queries) > 0 && len(errs) == len(p.queries) {
		return nil, errors.Join(errs...)
	}
	return records, nil
}

func (p *PubMed) count(ctx context.Context, term string, w Window) (int, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmax":  {"20"},
		"reldate": {strconv.Itoa(w.Days())},
		"sort":    {"relevance"},
	}
	body, err := p.get(ctx, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}

	var res eSearchResult
	if err := xml.Unmarshal(body, &res); err != nil {
		return 0, fmt.Errorf("parsing esearch response: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(res.Count))
	if err != nil {
		return 0, fmt.Errorf("parsing esearch count %q: %w", res.Count, err)
	}
	return n, nil
}
