// Package adapters implements the two external collaborators the kernel
// delegates to: triple extraction over an LM backend, and opportunistic
// knowledge-summary enrichment. Both degrade to no-ops on any failure —
// callers never need to special-case adapter errors.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Triple is a (head, relation, tail) tuple extracted from text.
type Triple struct {
	Head     string
	Relation string
	Tail     string
}

// TripleExtractor turns an utterance into semantic triples. Implementations
// must tolerate non-JSON prologue/epilogue around the JSON payload and
// return an empty slice (never an error) on any failure.
type TripleExtractor interface {
	Extract(ctx context.Context, text string) []Triple
}

// NoopTripleExtractor always returns no triples, forcing the ingestion
// pipeline's fallback path. A correctly functioning (degraded) system must
// result from wiring this in.
type NoopTripleExtractor struct{}

func (NoopTripleExtractor) Extract(ctx context.Context, text string) []Triple { return nil }

// OllamaTripleExtractor implements TripleExtractor against a locally
// running language model's /api/generate endpoint, modeled on the
// embedding package's local-provider HTTP client.
type OllamaTripleExtractor struct {
	endpoint string
	model    string
	timeout  time.Duration
	client   *http.Client
	logger   *zap.Logger
}

// NewOllamaTripleExtractor creates an extractor against endpoint (default
// http://localhost:11434/api/generate when empty) using model.
func NewOllamaTripleExtractor(endpoint, model string, timeout time.Duration, logger *zap.Logger) *OllamaTripleExtractor {
	if endpoint == "" {
		endpoint = "http://localhost:11434/api/generate"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OllamaTripleExtractor{
		endpoint: endpoint,
		model:    model,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

const triplePrompt = "You are a knowledge graph builder. Extract semantic triples from the text.\n" +
	"Rules:\n" +
	"- Each triple: [head, relation, tail]\n" +
	"- head and tail MUST be short, atomic concepts (1-3 words max)\n" +
	"- Use simple, clear relations (e.g. IS_A, PART_OF, CAUSES)\n" +
	"- Output ONLY a JSON list of lists. No other text.\n\n" +
	"Text: %s\n\nTriples:"

// Extract calls the LM backend and parses its response as a JSON list of
// 3-element lists, stripping any markdown-fence prologue/epilogue first.
// Any transport error, malformed response, or non-list result yields an
// empty slice rather than propagating an error.
func (o *OllamaTripleExtractor) Extract(ctx context.Context, text string) []Triple {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  o.model,
		Prompt: fmt.Sprintf(triplePrompt, text),
		Stream: false,
		Options: map[string]interface{}{
			"temperature": 0.3,
		},
	})
	if err != nil {
		o.logf("marshal triple-extraction request failed", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		o.logf("create triple-extraction request failed", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		o.logf("triple-extraction request failed", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if o.logger != nil {
			o.logger.Warn("triple extractor returned non-200", zap.Int("status", resp.StatusCode))
		}
		return nil
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		o.logf("decode triple-extraction response failed", err)
		return nil
	}

	return parseTriples(gr.Response, o.logger)
}

// parseTriples extracts the first bracketed JSON array from raw (tolerating
// markdown-fence prologue/epilogue) and parses it as [][3]string triples.
func parseTriples(raw string, logger *zap.Logger) []Triple {
	arr := extractBracketedArray(raw)
	if arr == "" {
		return nil
	}

	var rows [][]string
	if err := json.Unmarshal([]byte(arr), &rows); err != nil {
		if logger != nil {
			logger.Warn("triple extractor returned malformed JSON", zap.Error(err))
		}
		return nil
	}

	triples := make([]Triple, 0, len(rows))
	for _, row := range rows {
		if len(row) != 3 {
			continue
		}
		head, rel, tail := strings.TrimSpace(row[0]), strings.TrimSpace(row[1]), strings.TrimSpace(row[2])
		if head == "" || rel == "" || tail == "" {
			continue
		}
		triples = append(triples, Triple{Head: head, Relation: rel, Tail: tail})
	}
	return triples
}

// extractBracketedArray scans raw for the first balanced [...] span,
// skipping over any markdown fence or commentary text surrounding it.
func extractBracketedArray(raw string) string {
	start := strings.IndexByte(raw, '[')
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

func (o *OllamaTripleExtractor) logf(msg string, err error) {
	if o.logger != nil {
		o.logger.Warn(msg, zap.Error(err))
	}
}
