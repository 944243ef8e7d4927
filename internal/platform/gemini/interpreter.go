package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/gateway"
	"github.com/phrazzld/arcana/internal/generation"
	"google.golang.org/genai"
)

// Config configures the AIInterpreter.
type Config struct {
	APIKey    string
	ModelName string

	// BaseURL overrides the Gemini endpoint. Empty uses the default.
	BaseURL string

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// RetryDelay is the base backoff delay; attempt n waits
	// RetryDelay * 2^n scaled by a jitter factor in [0.5, 1).
	RetryDelay time.Duration

	// PromptTemplatePath overrides the embedded prompt template.
	PromptTemplatePath string
}

// contentGenerator is the part of the genai client the interpreter uses.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// AIInterpreter implements generation.Interpreter with Gemini.
type AIInterpreter struct {
	logger *slog.Logger
	config Config
	prompt *template.Template
	models contentGenerator
	sleep  func(ctx context.Context, d time.Duration) error
}

var _ generation.Interpreter = (*AIInterpreter)(nil)

// NewAIInterpreter creates an interpreter backed by a Gemini API client.
func NewAIInterpreter(ctx context.Context, logger *slog.Logger, cfg Config) (*AIInterpreter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}
	return newAIInterpreter(logger, cfg, client.Models)
}

func newAIInterpreter(logger *slog.Logger, cfg Config, models contentGenerator) (*AIInterpreter, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.MaxRetries < 0 {
		logger.Warn("invalid max retries value, using default", "max_retries", 3)
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	prompt, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	return &AIInterpreter{
		logger: logger.With("component", "gemini_interpreter"),
		config: cfg,
		prompt: prompt,
		models: models,
		sleep:  sleepContext,
	}, nil
}

// Interpret implements generation.Interpreter.
func (a *AIInterpreter) Interpret(ctx context.Context, req generation.Request) (domain.Interpretation, error) {
	if strings.TrimSpace(req.Question) == "" {
		return domain.Interpretation{}, domain.ErrEmptyQuestion
	}
	if len(req.Selection) == 0 {
		return domain.Interpretation{}, domain.ErrWrongSelectionCount
	}

	prompt, err := renderPrompt(a.prompt, req)
	if err != nil {
		return domain.Interpretation{}, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	text, err := a.callWithRetry(ctx, prompt)
	if err != nil {
		return domain.Interpretation{}, err
	}

	interp, err := gateway.NormalizeInterpretation([]byte(stripCodeFence(text)))
	if err != nil {
		a.logger.WarnContext(ctx, "model returned an unusable interpretation",
			"error", err,
			"response_length", len(text))
		return domain.Interpretation{}, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}
	return interp, nil
}

// callWithRetry calls the model, retrying transient failures with
// exponential backoff and jitter. Safety blocks and empty replies are
// permanent.
func (a *AIInterpreter) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := a.config.MaxRetries
	genConfig := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	for attempt := 0; ; attempt++ {
		a.logger.DebugContext(ctx, "making Gemini API call",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1)

		resp, err := a.models.GenerateContent(ctx, a.config.ModelName, genai.Text(prompt), genConfig)
		var text string
		if err == nil {
			text, err = responseText(resp)
		} else {
			err = classifyAPIError(err)
		}
		if err == nil {
			return text, nil
		}

		if !errors.Is(err, generation.ErrTransientFailure) {
			a.logger.WarnContext(ctx, "permanent Gemini error, not retrying", "error", err)
			return "", err
		}
		if attempt >= maxRetries {
			a.logger.WarnContext(ctx, "maximum retry attempts reached",
				"max_retries", maxRetries,
				"error", err)
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		delay := backoff(a.config.RetryDelay, attempt, rand.Float64())
		a.logger.InfoContext(ctx, "retrying Gemini call after delay",
			"attempt", attempt+1,
			"delay", delay,
			"error", err)
		if err := a.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
	}
}

// backoff returns base * 2^attempt scaled by a jitter factor in [0.5, 1).
func backoff(base time.Duration, attempt int, r float64) time.Duration {
	jitter := 0.5 + r*0.5
	return time.Duration(float64(base) * math.Pow(2, float64(attempt)) * jitter)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}
	return b.String(), nil
}

// classifyAPIError marks rate limits, server errors and transport failures
// as transient. Other API errors are permanent.
func classifyAPIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	if code != 0 && code != http.StatusTooManyRequests && code < 500 {
		return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}
	return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
}

// stripCodeFence removes a markdown code fence models sometimes add despite
// being asked not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
