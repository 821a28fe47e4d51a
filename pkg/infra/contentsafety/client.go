package contentsafety

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/callguard/callguard/pkg/domain/safety"
)

//go:generate mockery --name=Analyzer --dir=. --output=./mocks --filename=analyzer_mock.go --case=underscore

// Analyzer scores text across the fixed hazard categories.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Result, error)
}

// CategoryAnalysis is one category's severity as reported by the service.
type CategoryAnalysis struct {
	Category string `json:"category"`
	Severity int    `json:"severity"`
}

// Result is the raw moderation response. It is returned to callers verbatim
// so the API can surface it as rawSafetyResult.
type Result struct {
	BlocklistsMatch    []json.RawMessage  `json:"blocklistsMatch"`
	CategoriesAnalysis []CategoryAnalysis `json:"categoriesAnalysis"`
}

// Scores projects the analysis into the decision engine's input shape.
func (r *Result) Scores() safety.Scores {
	scores := make(safety.Scores, len(r.CategoriesAnalysis))
	for _, analysis := range r.CategoriesAnalysis {
		scores[safety.Category(analysis.Category)] = analysis.Severity
	}
	return scores
}

type Config struct {
	Endpoint   string
	Key        string
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
		cfg.APIVersion = "2024-09-01"
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "contentsafety",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		logger: logger,
	}
}

type analyzeRequest struct {
	Text           string   `json:"text"`
	BlocklistNames []string `json:"blocklistNames"`
}

func (c *Client) Analyze(ctx context.Context, text string) (*Result, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.analyze(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	r, ok := result.(*Result)
	if !ok {
		return nil, fmt.Errorf("unexpected moderation result type %T", result)
	}
	return r, nil
}

func (c *Client) analyze(ctx context.Context, text string) (*Result, error) {
	url := fmt.Sprintf("%s/contentsafety/text:analyze?api-version=%s", c.cfg.Endpoint, c.cfg.APIVersion)

	payload, err := json.Marshal(analyzeRequest{Text: text, BlocklistNames: []string{}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal moderation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moderation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read moderation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content safety service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse moderation response: %w", err)
	}

	if len(result.CategoriesAnalysis) == 0 {
		return nil, fmt.Errorf("no categories analysis in moderation response: %s", string(body))
	}

	c.logger.WithField("categories", len(result.CategoriesAnalysis)).Debug("moderation scores received")

	return &result, nil
}
