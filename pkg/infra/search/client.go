package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/callguard/callguard/pkg/domain/regulation"
)

//go:generate mockery --name=Index --dir=. --output=./mocks --filename=index_mock.go --case=underscore

// Index exposes the regulation search index: the controlled vocabulary of
// subcategory labels and exact-match lookup by label.
type Index interface {
	Subcategories(ctx context.Context) ([]string, error)
	TopBySubcategory(ctx context.Context, label string) (*regulation.Record, error)
}

type Config struct {
	Endpoint   string
	Key        string
	Index      string
	APIVersion string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2023-11-01"
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "regulation-index",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		logger: logger,
	}
}

type searchRequest struct {
	Search string   `json:"search"`
	Filter string   `json:"filter,omitempty"`
	Facets []string `json:"facets,omitempty"`
	Top    int      `json:"top"`
}

type facetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type searchDocument struct {
	regulation.Record
	Score float64 `json:"@search.score"`
}

type searchResponse struct {
	Facets map[string][]facetValue `json:"@search.facets"`
	Value  []searchDocument        `json:"value"`
}

// Subcategories lists the distinct subcategory values present in the index
// via a zero-result faceted query.
func (c *Client) Subcategories(ctx context.Context) ([]string, error) {
	resp, err := c.search(ctx, searchRequest{
		Search: "*",
		Facets: []string{"subcategory,count:100"},
		Top:    0,
	})
	if err != nil {
		return nil, err
	}

	facets := resp.Facets["subcategory"]
	labels := make([]string, 0, len(facets))
	for _, f := range facets {
		if f.Value != "" {
			labels = append(labels, f.Value)
		}
	}
	return labels, nil
}

// TopBySubcategory runs an exact-match filter on the subcategory field and
// keeps the first hit. Returns nil without error when nothing matches.
func (c *Client) TopBySubcategory(ctx context.Context, label string) (*regulation.Record, error) {
	escaped := strings.ReplaceAll(label, "'", "''")
	resp, err := c.search(ctx, searchRequest{
		Search: "*",
		Filter: fmt.Sprintf("subcategory eq '%s'", escaped),
		Top:    3,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Value) == 0 {
		return nil, nil
	}

	record := resp.Value[0].Record
	record.MatchScore = resp.Value[0].Score
	return &record, nil
}

func (c *Client) search(ctx context.Context, sr searchRequest) (*searchResponse, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doSearch(ctx, sr)
	})
	if err != nil {
		return nil, err
	}
	resp, ok := result.(*searchResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected search result type %T", result)
	}
	return resp, nil
}

func (c *Client) doSearch(ctx context.Context, sr searchRequest) (*searchResponse, error) {
	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.cfg.Endpoint, c.cfg.Index, c.cfg.APIVersion)

	payload, err := json.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.Key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search service returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"hits":   len(parsed.Value),
		"filter": sr.Filter,
	}).Debug("regulation index queried")

	return &parsed, nil
}
