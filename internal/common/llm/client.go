// internal/common/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	commonhttp "realty-crm/internal/common/http"
	"realty-crm/internal/common/logger"
	"realty-crm/internal/common/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	ErrProviderTimeout = errors.New("LLM_PROVIDER_TIMEOUT")
	ErrProviderFailed  = errors.New("LLM_PROVIDER_FAILED")
	ErrEmptyCompletion = fmt.Errorf("%w: no response from AI", ErrProviderFailed)
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is one chat completion call.
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completer is implemented by anything that can turn a prompt into text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Config describes an OpenAI-compatible chat completions endpoint.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("llm api key is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("llm base url is required")
	}
	if c.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("llm max retries must not be negative")
	}
	return nil
}

type Client struct {
	config *Config
	http   *commonhttp.Client
	logger logger.Logger
	tracer trace.Tracer
}

func NewClient(config *Config, log logger.Logger, tracer trace.Tracer) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = 100 * time.Millisecond
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("llm")
	}

	return &Client{
		config: config,
		// request timeout is enforced via context so retries share one budget
		http:   commonhttp.NewClient(0),
		logger: log.WithFields(map[string]interface{}{"component": "llm", "model": config.Model}),
		tracer: tracer,
	}, nil
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// statusError carries a non-200 provider response.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("status %d: %s", e.status, e.message)
	}
	return fmt.Sprintf("status %d", e.status)
}

func (e *statusError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// Complete performs one logical chat completion. Transport errors, 429 and
// 5xx responses are retried up to MaxRetries times with exponential backoff;
// every other failure is terminal.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "llm.chat_completion", trace.WithAttributes(
		attribute.String("llm.model", c.config.Model),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	))
	defer span.End()

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.config.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrProviderFailed, err)
	}

	text, attempts, err := c.completeWithRetry(ctx, body)
	metrics.ProviderCallDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("llm.attempts", attempts))

	if err != nil {
		outcome := "failed"
		if errors.Is(err, ErrProviderTimeout) {
			outcome = "timeout"
		}
		metrics.ProviderCallsTotal.WithLabelValues(outcome).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("chat completion failed", map[string]interface{}{
			"attempts": attempts,
			"error":    err.Error(),
		})
		return "", err
	}

	metrics.ProviderCallsTotal.WithLabelValues("ok").Inc()
	return text, nil
}

func (c *Client) completeWithRetry(ctx context.Context, body []byte) (string, int, error) {
	var lastErr error
	attempt := 0

	for ; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.config.BackoffBase * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", attempt, fmt.Errorf("%w: %v", ErrProviderTimeout, ctx.Err())
			}
		}

		text, err := c.doOnce(ctx, body)
		if err == nil {
			return text, attempt + 1, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", attempt + 1, fmt.Errorf("%w: %v", ErrProviderTimeout, ctx.Err())
		}

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return "", attempt + 1, fmt.Errorf("%w: %v", ErrProviderFailed, err)
		}
		if errors.Is(err, ErrEmptyCompletion) {
			return "", attempt + 1, err
		}

		c.logger.Debug("chat completion attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}

	return "", attempt, fmt.Errorf("%w: %v", ErrProviderFailed, lastErr)
}

func (c *Client) doOnce(ctx context.Context, body []byte) (string, error) {
	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		se := &statusError{status: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil {
			se.message = er.Error.Message
		}
		return "", se
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrProviderFailed, err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}

	c.logger.Debug("chat completion received", map[string]interface{}{
		"responseId":       completion.ID,
		"finishReason":     completion.Choices[0].FinishReason,
		"promptTokens":     completion.Usage.PromptTokens,
		"completionTokens": completion.Usage.CompletionTokens,
	})

	return completion.Choices[0].Message.Content, nil
}
