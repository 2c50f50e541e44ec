// ABOUTME: OpenAI-backed completion client shared by the classifier and the crew
// ABOUTME: Handles timeouts, rate-limit retries, and JSON response validation

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	// DefaultModel is used when the config doesn't name one
	DefaultModel = "gpt-4o-mini"

	// DefaultTimeout bounds a single completion call
	DefaultTimeout = 60 * time.Second

	// MaxRetries is the retry budget for rate-limit errors
	MaxRetries = 3

	// BaseBackoff is the starting backoff between retries
	BaseBackoff = 2 * time.Second

	// MaxBackoff caps the exponential backoff
	MaxBackoff = 32 * time.Second
)

var (
	// ErrAPIKeyNotSet is returned when no API key is configured
	ErrAPIKeyNotSet = errors.New("OpenAI API key not set: set openai.api_key in config or OPENAI_API_KEY")

	// ErrInvalidJSON is returned when a JSON-mode response fails to parse
	ErrInvalidJSON = errors.New("model returned invalid JSON")

	// ErrMaxRetriesExceeded is returned when the rate-limit retry budget is spent
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// Request describes one completion call.
type Request struct {
	Prompt string
	Model  string // overrides the client default when set
	JSON   bool   // constrain the response to a JSON object
}

// Client wraps the OpenAI chat completions API.
type Client struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewClient creates a client with the given API key, default model, and
// per-call timeout. Zero values fall back to DefaultModel/DefaultTimeout.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
	}, nil
}

// Complete executes one completion call and returns the response text.
// Rate-limit errors are retried with exponential backoff; in JSON mode a
// non-JSON response is rejected with ErrInvalidJSON.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	content, err := c.completeWithRetry(ctx, model, req)
	if err != nil {
		return "", err
	}

	if req.JSON && !isValidJSON(content) {
		return "", fmt.Errorf("%w: %.80q", ErrInvalidJSON, content)
	}

	return content, nil
}

func (c *Client) completeWithRetry(ctx context.Context, model string, req Request) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * BaseBackoff
			if backoff > MaxBackoff {
				backoff = MaxBackoff
			}

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		params := openai.ChatCompletionNewParams{
			Model: shared.ChatModel(model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(req.Prompt),
			},
		}

		if req.JSON {
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{
					Type: "json_object",
				},
			}
		}

		completion, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			lastErr = err
			if isRateLimitError(err) {
				continue
			}
			return "", fmt.Errorf("OpenAI API call failed: %w", err)
		}

		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("no completion choices returned")
		}

		return completion.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}

	return false
}

func isValidJSON(s string) bool {
	var js json.RawMessage
	return json.Unmarshal([]byte(s), &js) == nil
}
