package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// SummaryFetcher opportunistically fetches a short knowledge summary for a
// keyword, used to enrich newly created concept nodes. Never on the
// critical path: an empty result just skips enrichment.
type SummaryFetcher interface {
	Fetch(ctx context.Context, keyword string) string
}

// NoopSummaryFetcher always returns "", so wiring it in yields a correctly
// functioning system with no enrichment performed.
type NoopSummaryFetcher struct{}

func (NoopSummaryFetcher) Fetch(ctx context.Context, keyword string) string { return "" }

// WikipediaSummaryFetcher implements SummaryFetcher against the English
// Wikipedia REST summary endpoint.
type WikipediaSummaryFetcher struct {
	userAgent string
	timeout   time.Duration
	client    *http.Client
	logger    *zap.Logger
}

// NewWikipediaSummaryFetcher creates a fetcher with the given descriptive
// User-Agent (required by Wikipedia's API etiquette policy).
func NewWikipediaSummaryFetcher(userAgent string, timeout time.Duration, logger *zap.Logger) *WikipediaSummaryFetcher {
	if userAgent == "" {
		userAgent = "cogkernel/1.0"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WikipediaSummaryFetcher{
		userAgent: userAgent,
		timeout:   timeout,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type wikiSummaryResponse struct {
	Extract string `json:"extract"`
}

// Fetch retrieves the summary extract for keyword, returning "" on any
// failure (transport error, non-200 status, or malformed body).
func (w *WikipediaSummaryFetcher) Fetch(ctx context.Context, keyword string) string {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("https://en.wikipedia.org/api/rest_v1/page/summary/%s", url.PathEscape(keyword))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("summary fetch failed", zap.String("keyword", keyword), zap.Error(err))
		}
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if w.logger != nil {
			w.logger.Warn("summary fetch returned non-200",
				zap.String("keyword", keyword), zap.Int("status", resp.StatusCode))
		}
		return ""
	}

	var out wikiSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ""
	}
	return out.Extract
}
