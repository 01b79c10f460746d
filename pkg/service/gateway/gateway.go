// Package gateway wraps the text generation backend. Every failure is
// normalized into *model.GenerationError so callers can tell transient
// failures from permanent ones.
package gateway

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/Vamsi1807/AI-Call-Center/pkg/adapter"
	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/Vamsi1807/AI-Call-Center/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Generator produces text for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gateway is a Generator backed by Gemini
type Gateway struct {
	gemini   adapter.Gemini
	attempts int
	backoff  time.Duration
	config   *genai.GenerateContentConfig
}

// Option is a functional option for Gateway
type Option func(*Gateway)

// WithRetry retries transient failures up to attempts calls in total,
// waiting backoff (doubled each time) between them
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(g *Gateway) {
		if attempts > 0 {
			g.attempts = attempts
		}
		g.backoff = backoff
	}
}

// WithTemperature sets the sampling temperature of every request
func WithTemperature(t float32) Option {
	return func(g *Gateway) {
		g.config.Temperature = genai.Ptr(t)
	}
}

// New creates a Gateway
func New(gemini adapter.Gemini, opts ...Option) *Gateway {
	g := &Gateway{
		gemini:   gemini,
		attempts: 1,
		config:   &genai.GenerateContentConfig{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate sends prompt as a single user turn and returns the response text.
// Returned errors are always *model.GenerationError.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	ctx = logging.Component(ctx, "gateway")
	backoff := g.backoff
	var lastErr *model.GenerationError

	for attempt := 1; attempt <= g.attempts; attempt++ {
		text, err := g.generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !err.Transient() || attempt == g.attempts {
			break
		}

		logging.From(ctx).Warn("transient generation failure, retrying",
			"kind", err.Kind,
			"attempt", attempt,
			"backoff", backoff)

		select {
		case <-ctx.Done():
			return "", classify(ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return "", lastErr
}

func (g *Gateway) generate(ctx context.Context, prompt string) (string, *model.GenerationError) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := g.gemini.GenerateContent(ctx, contents, g.config)
	if err != nil {
		return "", classify(err)
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, *model.GenerationError) {
	if resp == nil {
		return "", invalid("empty response", nil)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", invalid("prompt blocked: "+string(resp.PromptFeedback.BlockReason), nil)
	}
	if len(resp.Candidates) == 0 {
		return "", invalid("no candidates in response", nil)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", invalid("candidate has no content, finish reason "+string(candidate.FinishReason), nil)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", invalid("response has no text", nil)
	}
	return text, nil
}

func invalid(detail string, err error) *model.GenerationError {
	if err == nil {
		err = goerr.New(detail)
	}
	return &model.GenerationError{Kind: model.GenerationInvalidResponse, Detail: detail, Err: err}
}

// classify maps a backend error into a GenerationError kind
func classify(err error) *model.GenerationError {
	if genErr, ok := model.AsGenerationError(err); ok {
		return genErr
	}

	kind := model.GenerationUnknown

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	var netErr net.Error

	switch {
	case errors.As(err, &apiErr):
		kind = apiErrorKind(apiErr)
	case errors.As(err, &apiErrPtr):
		kind = apiErrorKind(*apiErrPtr)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kind = model.GenerationUnavailable
	case errors.As(err, &netErr):
		kind = model.GenerationUnavailable
	}

	return &model.GenerationError{Kind: kind, Detail: err.Error(), Err: err}
}

func apiErrorKind(apiErr genai.APIError) model.GenerationErrorKind {
	switch {
	case apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED":
		return model.GenerationRateLimited
	case apiErr.Code >= 500 || apiErr.Status == "UNAVAILABLE" || apiErr.Status == "DEADLINE_EXCEEDED":
		return model.GenerationUnavailable
	default:
		return model.GenerationUnknown
	}
}
