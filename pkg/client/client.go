// Package client is the Go client for the Neumonitor triage API. It
// implements session.Backend for the session manager and exposes the
// protected endpoints, funnelling every 401 response through the manager's
// single cleanup path.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/neumonitor/triage-api/pkg/session"
)

const defaultTimeout = 30 * time.Second

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the triage API.
type Client struct {
	http    httpClient
	baseURL string

	// tokenFn supplies the current bearer token; onUnauthorized is invoked
	// for every 401 on a protected call.
	tokenFn        func() string
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h httpClient) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource supplies the bearer token for protected calls.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.tokenFn = fn }
}

// WithUnauthorizedHandler registers the 401 hook, typically
// (*session.Manager).HandleUnauthorized.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:           &http.Client{Timeout: defaultTimeout},
		baseURL:        baseURL,
		tokenFn:        func() string { return "" },
		onUnauthorized: func() {},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// envelope is the API's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// apiError carries the server-provided message for display.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.status, e.message)
}

// Message returns the user-facing text, satisfying the session package's
// message extraction.
func (e *apiError) Message() string {
	return e.message
}

// --- session.Backend ---

type loginData struct {
	Persona session.Profile `json:"persona"`
	Token   string          `json:"token"`
}

// Login authenticates and returns the session token and profile snapshot.
func (c *Client) Login(ctx context.Context, email, password string) (string, session.Profile, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})

	env, err := c.do(ctx, http.MethodPost, "/auth/login", "application/json", bytes.NewReader(body), false)
	if err != nil {
		return "", session.Profile{}, err
	}

	var data loginData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		return "", session.Profile{}, fmt.Errorf("client: invalid login response")
	}
	return data.Token, data.Persona, nil
}

// Logout revokes the session server-side. Best-effort by contract.
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// VerifySession asks the server whether token is still live. Returns
// session.ErrUnauthorized on definitive rejection; other errors indicate
// connectivity problems.
func (c *Client) VerifySession(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/verificar-sesion", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return session.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: verify session: status %d", resp.StatusCode)
	}
	return nil
}

// --- protected endpoints ---

// AnalysisResult mirrors the combined analysis response.
type AnalysisResult struct {
	ID            string  `json:"id"`
	Diagnosis     string  `json:"diagnostico"`
	Confidence    float64 `json:"confianza"`
	Vulnerability struct {
		Level       string `json:"nivel_vulnerabilidad"`
		Priority    string `json:"prioridad_atencion"`
		Explanation string `json:"explicacion"`
	} `json:"vulnerabilidad"`
	Recommendation string `json:"recomendacion"`
	Date           string `json:"fecha"`
}

// SubmitAnalysis uploads a radiograph for an authenticated patient.
func (c *Client) SubmitAnalysis(ctx context.Context, image []byte, filename, comments string) (*AnalysisResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("imagen", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if comments != "" {
		_ = mw.WriteField("comentarios", comments)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	env, err := c.do(ctx, http.MethodPost, "/analisis/subir", mw.FormDataContentType(), &buf, true)
	if err != nil {
		return nil, err
	}

	var out AnalysisResult
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("client: decode analysis: %w", err)
	}
	return &out, nil
}

// History returns the patient's analyses, newest first.
func (c *Client) History(ctx context.Context) ([]AnalysisResult, error) {
	env, err := c.do(ctx, http.MethodGet, "/analisis/historial", "", nil, true)
	if err != nil {
		return nil, err
	}

	var out []AnalysisResult
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("client: decode history: %w", err)
	}
	return out, nil
}

// do performs a request, decodes the envelope, and routes 401 responses on
// protected calls through the registered handler.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, protected bool) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if protected {
		if token := c.tokenFn(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if protected {
			c.onUnauthorized()
		}
		return nil, &apiError{status: resp.StatusCode, message: firstNonEmpty(env.Message, env.Error, "Credenciales inválidas")}
	}
	if resp.StatusCode >= 400 {
		return nil, &apiError{status: resp.StatusCode, message: firstNonEmpty(env.Message, env.Error, "Error del servidor")}
	}
	return &env, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
