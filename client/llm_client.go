package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Aashish23092/doc-field-extraction/dto"
)

// LLMConfig holds configuration for the completion client
type LLMConfig struct {
	BaseURL     string // OpenAI-compatible endpoint, e.g. llama.cpp server at http://127.0.0.1:8081/v1
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int           // retries after the first attempt, transient errors only
	RetryDelay  time.Duration // base delay between attempts
	HTTPClient  *http.Client  // Optional (tests)
}

// LLMClient completes prompts against a local model served over the
// OpenAI completions API. It is safe for concurrent use; whether the model
// behind it is reentrant is the caller's concern.
type LLMClient struct {
	client      openai.Client
	model       string
	temperature float64
	maxRetries  int
	retryDelay  time.Duration
	logger      *slog.Logger
}

func NewLLMClient(cfg LLMConfig, logger *slog.Logger) *LLMClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		cfg.APIKey = "sk-no-key-required"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		// retries are done here so context overflow is never retried
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}

	return &LLMClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		logger:      logger,
	}
}

// Complete returns the model's completion of prompt, cut at the first stop
// sequence and trimmed. Errors wrap dto.ErrContextOverflow or dto.ErrModelFailure.
func (c *LLMClient) Complete(ctx context.Context, prompt string, maxTokens int, stop []string) (string, error) {
	params := openai.CompletionNewParams{
		Model:       openai.CompletionNewParamsModel(c.model),
		Prompt:      openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(c.temperature),
	}
	if len(stop) > 0 {
		params.Stop = openai.CompletionNewParamsStopUnion{OfStringArray: stop}
	}

	start := time.Now()
	var text string
	err := retry.Do(
		func() error {
			resp, err := c.client.Completions.New(ctx, params)
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return retry.Unrecoverable(errors.New("no choices in completion response"))
			}
			text = resp.Choices[0].Text
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)+1),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("llm.complete.retry", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		err = classifyCompletionError(err)
		c.logger.Error("llm.complete.failed",
			"model", c.model,
			"prompt_chars", len(prompt),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return "", err
	}

	text = TrimAtStop(text, stop)
	c.logger.Debug("llm.complete.done",
		"model", c.model,
		"prompt_chars", len(prompt),
		"answer_chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// HealthCheck verifies the completion server is reachable
func (c *LLMClient) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx); err != nil {
		return fmt.Errorf("%w: models list failed: %v", dto.ErrModelFailure, err)
	}
	return nil
}

// TrimAtStop cuts text at the earliest stop sequence and trims whitespace.
// Servers that ignore the stop parameter still yield a single answer.
func TrimAtStop(text string, stop []string) string {
	cut := len(text)
	for _, s := range stop {
		if s == "" {
			continue
		}
		if i := strings.Index(text, s); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(text[:cut])
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if isContextOverflow(err) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	// transport errors
	return true
}

func isContextOverflow(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context size") ||
		strings.Contains(msg, "context length") ||
		strings.Contains(msg, "context window") ||
		strings.Contains(msg, "n_ctx")
}

func classifyCompletionError(err error) error {
	if isContextOverflow(err) {
		return fmt.Errorf("%w: %v", dto.ErrContextOverflow, err)
	}
	return fmt.Errorf("%w: %w", dto.ErrModelFailure, err)
}
