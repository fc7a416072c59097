// Package llm is the REST client for the local generative-text backend
// (an Ollama-compatible /api/generate endpoint). The backend is treated as
// unreliable: the client classifies transport failures into typed errors so
// the narrative layer can degrade each one into a specific placeholder.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Typed failures the narrative bridge maps to placeholder results.
var (
	// ErrUnavailable means the backend could not be reached at all.
	ErrUnavailable = errors.New("llm backend unreachable")
	// ErrTimeout means the backend did not answer within the configured wait.
	ErrTimeout = errors.New("llm request timed out")
)

// StatusError is a non-success HTTP response from the backend.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm backend returned status %d", e.Code)
}

// Options are the generation settings sent with every request. Low
// temperature and a short prediction budget keep the model close to the
// required output format.
type Options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
	NumCtx      int     `json:"num_ctx"`
}

// DefaultOptions matches the settings the narrative prompt was tuned with.
func DefaultOptions() Options {
	return Options{Temperature: 0.1, NumPredict: 100, NumCtx: 2048}
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Raw     bool    `json:"raw"`
	Options Options `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Client talks to one generative backend with a bounded per-request wait.
type Client struct {
	http   *resty.Client
	model  string
	logger zerolog.Logger
}

// NewClient builds a client for the backend at baseURL generating with the
// named model. The timeout bounds the whole request including generation.
func NewClient(baseURL, model string, timeout time.Duration, logger zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: httpClient, model: model, logger: logger}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Generate runs one non-streaming completion and returns the raw response
// text. Failures come back as ErrUnavailable, ErrTimeout or *StatusError.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	start := time.Now()
	var result generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(generateRequest{
			Model:   c.model,
			Prompt:  prompt,
			Stream:  false,
			Raw:     true,
			Options: opts,
		}).
		SetResult(&result).
		// The backend's response format is untrusted; decode as JSON even
		// when it omits or mislabels the content type.
		ForceContentType("application/json").
		Post("/api/generate")
	if err != nil {
		classified := classifyTransportError(err)
		c.logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("llm request failed")
		return "", classified
	}
	if resp.StatusCode() != 200 {
		c.logger.Warn().Int("status", resp.StatusCode()).Msg("llm request rejected")
		return "", &StatusError{Code: resp.StatusCode()}
	}
	c.logger.Debug().Dur("elapsed", time.Since(start)).Int("chars", len(result.Response)).Msg("llm response received")
	return result.Response, nil
}

// classifyTransportError folds the transport error zoo into the two cases
// the pipeline distinguishes: the backend timed out, or it is unreachable.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
