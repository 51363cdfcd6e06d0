package ml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"NewsRecommender/internal/config"
	"NewsRecommender/internal/domain"
	"NewsRecommender/internal/ports"
)

// ErrNotConfigured is returned when no inference endpoint is set.
var ErrNotConfigured = errors.New("ml client is not configured")

// entityGroups are the NER groups kept from the model output.
var entityGroups = map[string]bool{"PER": true, "LOC": true, "ORG": true, "MISC": true}

// Client talks to an external inference service for summarization,
// sentiment, named entities and zero-shot classification.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[[]byte]
}

var (
	_ ports.Summarizer         = (*Client)(nil)
	_ ports.SentimentAnalyzer  = (*Client)(nil)
	_ ports.EntityExtractor    = (*Client)(nil)
	_ ports.CategoryClassifier = (*Client)(nil)
)

// NewClient creates a reusable HTTP client guarded by a circuit breaker.
func NewClient(cfg config.MLConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	settings := gobreaker.Settings{
		Name:        "ml-inference",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		endpoint: strings.TrimRight(cfg.InferenceURL, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		breaker:  gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// Summarize requests an abstractive summary.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	var resp struct {
		Summary string `json:"summary"`
	}
	if err := c.post(ctx, "/summarize", map[string]any{"text": text}, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Summary), nil
}

// Sentiment classifies the tone of text as Negative, Neutral or Positive.
func (c *Client) Sentiment(ctx context.Context, text string) (domain.Sentiment, error) {
	var resp struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := c.post(ctx, "/sentiment", map[string]any{"text": text}, &resp); err != nil {
		return domain.Sentiment{}, err
	}

	label, err := normalizeSentiment(resp.Label)
	if err != nil {
		return domain.Sentiment{}, err
	}
	return domain.Sentiment{Label: label, Confidence: resp.Confidence}, nil
}

// Entities returns the distinct person, location, organization and misc
// entities found in text, in order of appearance.
func (c *Client) Entities(ctx context.Context, text string) ([]string, error) {
	var resp struct {
		Entities []struct {
			Word  string `json:"word"`
			Group string `json:"entity_group"`
		} `json:"entities"`
	}
	if err := c.post(ctx, "/entities", map[string]any{"text": text}, &resp); err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	entities := make([]string, 0, len(resp.Entities))
	for _, ent := range resp.Entities {
		word := strings.TrimSpace(ent.Word)
		if word == "" || !entityGroups[strings.ToUpper(ent.Group)] {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		entities = append(entities, word)
	}
	return entities, nil
}

// Classify runs zero-shot classification and returns the best label.
func (c *Client) Classify(ctx context.Context, text string, labels []string) (string, float64, error) {
	var resp struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	payload := map[string]any{"text": text, "candidate_labels": labels}
	if err := c.post(ctx, "/classify", payload, &resp); err != nil {
		return "", 0, err
	}
	if len(resp.Labels) == 0 || len(resp.Labels) != len(resp.Scores) {
		return "", 0, fmt.Errorf("classify: malformed response with %d labels and %d scores", len(resp.Labels), len(resp.Scores))
	}

	best := 0
	for i, score := range resp.Scores {
		if score > resp.Scores[best] {
			best = i
		}
	}
	return resp.Labels[best], resp.Scores[best], nil
}

func normalizeSentiment(label string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "negative", "label_0":
		return domain.SentimentNegative, nil
	case "neutral", "label_1":
		return domain.SentimentNeutral, nil
	case "positive", "label_2":
		return domain.SentimentPositive, nil
	default:
		return "", fmt.Errorf("unknown sentiment label %q", label)
	}
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	if c.endpoint == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, path, body)
	})
	if err != nil {
		return fmt.Errorf("ml %s: %w", path, err)
	}

	if v == nil {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return raw, nil
}
