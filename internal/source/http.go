// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pdiddy/ingest-monitor/internal/httputil"
	"github.com/pdiddy/ingest-monitor/internal/synth"
)

const maxBodyBytes = 8 << 20

// httpSource holds what every network adapter shares: the endpoint, the
// client, a request rate limit and the record generator.
type httpSource struct {
	name      string
	tag       string
	baseURL   string
	token     string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	gen       *synth.Generator
	log       *log.Entry
}

// Name returns the source name.
func (h *httpSource) Name() string { return h.name }

// get waits for the rate limiter, performs the request with 429 backoff,
// and returns the body of a 200 response.
func (h *httpSource) get(ctx context.Context, reqURL string, header http.Header) ([]byte, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, h.client, req, 0, h.log)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", h.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned HTTP %d", h.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", h.name, err)
	}
	return body, nil
}
