// Package inference implements the HTTP client for the external
// radiograph-classification model service. The model itself is a black box;
// this client only understands its JSON envelope.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/neumonitor/triage-api/internal/core/domain"
	"github.com/neumonitor/triage-api/internal/core/ports"
)

const (
	defaultTimeout  = 30 * time.Second
	serviceTokenTTL = 5 * time.Minute
)

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config captures the settings for reaching the inference service.
type Config struct {
	BaseURL string
	// SharedSecret, when set, is used to sign a short-lived HS256 service
	// token attached to every request.
	SharedSecret string
	Timeout      time.Duration
}

// Client calls the model service over HTTP.
type Client struct {
	http httpClient
	cfg  Config
	now  func() time.Time
}

// NewClient builds a Client. When httpc is nil a default client with the
// configured timeout is used.
func NewClient(httpc httpClient, cfg Config) *Client {
	if httpc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpc = &http.Client{Timeout: timeout}
	}
	return &Client{http: httpc, cfg: cfg, now: time.Now}
}

type predictResponse struct {
	Diagnosis     string  `json:"diagnostico"`
	Confidence    float64 `json:"confianza"`
	Probabilities struct {
		Normal    float64 `json:"normal"`
		Pneumonia float64 `json:"neumonia"`
	} `json:"probabilidades"`
}

// Classify uploads the radiograph and returns the model's prediction.
func (c *Client) Classify(ctx context.Context, image []byte, filename string) (*ports.Prediction, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("imagen", filename)
	if err != nil {
		return nil, fmt.Errorf("inference: build form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("inference: write image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("inference: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/predecir", &body)
	if err != nil {
		return nil, fmt.Errorf("inference: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInferenceUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrInferenceUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("inference: read response: %w", err)
	}

	var pr predictResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("inference: decode response: %w", err)
	}

	return &ports.Prediction{
		Diagnosis:  domain.Diagnosis(pr.Diagnosis),
		Confidence: pr.Confidence,
		Probabilities: domain.Probabilities{
			Normal:    pr.Probabilities.Normal,
			Pneumonia: pr.Probabilities.Pneumonia,
		},
	}, nil
}

// Ping checks the model service health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/salud", nil)
	if err != nil {
		return fmt.Errorf("inference: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInferenceUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrInferenceUnavailable, resp.StatusCode)
	}
	return nil
}

// authorize signs and attaches a short-lived service token when a shared
// secret is configured.
func (c *Client) authorize(req *http.Request) error {
	if c.cfg.SharedSecret == "" {
		return nil
	}

	now := c.now()
	claims := jwt.MapClaims{
		"iss": "triage-api",
		"iat": now.Unix(),
		"exp": now.Add(serviceTokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.cfg.SharedSecret))
	if err != nil {
		return fmt.Errorf("inference: sign service token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
