package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/sirupsen/logrus"

	"github.com/callguard/callguard/pkg/domain/transcript"
)

//go:generate mockery --name=Recognizer --dir=. --output=./mocks --filename=recognizer_mock.go --case=underscore

// Recognizer transcribes one normalized audio clip.
type Recognizer interface {
	Recognize(ctx context.Context, wav []byte) (transcript.Transcript, error)
}

type Config struct {
	Region      string
	Key         string
	Language    string
	Endpoint    string // overrides the region-derived URL, mainly for tests
	UseIdentity bool
}

// Client calls the Azure Speech short-audio REST endpoint with a single
// recognize-once request per clip.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

func (c *Client) Recognize(ctx context.Context, wav []byte) (transcript.Transcript, error) {
	url := c.endpoint() + "/speech/recognition/conversation/cognitiveservices/v1?language=" + c.cfg.Language

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(wav))
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("failed to create speech request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json")

	if c.cfg.UseIdentity {
		token, err := cognitiveServicesToken(ctx)
		if err != nil {
			return transcript.Transcript{}, fmt.Errorf("failed to get Azure AD token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("failed to read speech response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return transcript.Transcript{}, fmt.Errorf("speech service returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed recognitionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return transcript.Transcript{}, fmt.Errorf("failed to parse speech response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status": parsed.RecognitionStatus,
	}).Debug("speech recognition result")

	switch parsed.RecognitionStatus {
	case "Success":
		return transcript.Transcript{Text: parsed.DisplayText, Outcome: transcript.OutcomeRecognized}, nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return transcript.Transcript{Outcome: transcript.OutcomeNoMatch}, nil
	default:
		// "Error" and anything else the service may add map to a cancellation
		// carrying the reason, not a transport failure.
		return transcript.Transcript{
			Outcome:      transcript.OutcomeCanceled,
			CancelReason: parsed.RecognitionStatus,
		}, nil
	}
}

func (c *Client) endpoint() string {
	if c.cfg.Endpoint != "" {
		return c.cfg.Endpoint
	}
	return fmt.Sprintf("https://%s.stt.speech.microsoft.com", c.cfg.Region)
}

func cognitiveServicesToken(ctx context.Context) (string, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create credential: %w", err)
	}
	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{"https://cognitiveservices.azure.com/.default"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token.Token, nil
}
