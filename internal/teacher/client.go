// Package teacher calls a remote chat-completion model to grade free-form
// answers and turns its reply into a structured verdict. The remote reply
// is free text; parsing degrades through a fallback chain and never fails
// outright once a reply is in hand.
package teacher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gaokao-bench/grader/internal/teacher/prompts"
)

// Verdict is the grader's assessment of one answer.
type Verdict struct {
	Rationale string
	Score     float64
}

// Request carries everything the grader needs for one answer. Answer may be
// free text or a list of option tokens; it is joined for display.
type Request struct {
	Question    string
	Answer      any
	Analysis    string
	MaxScore    float64
	ModelOutput string
	Variant     prompts.Variant
}

// Config configures a grading client. Zero values fall back to defaults.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxRetries  int           // default 3
	MaxTokens   int           // default 1500
	Temperature float32       // default 0.3, kept low to stabilize the numeric score
	Timeout     time.Duration // per-request HTTP timeout, default 120s
}

// Client wraps an OpenAI-compatible chat-completion API.
type Client struct {
	api         *openai.Client
	model       string
	maxRetries  int
	maxTokens   int
	temperature float32

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a grading client.
func New(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}

	c := &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       cfg.Model,
		maxRetries:  cfg.MaxRetries,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		sleep:       sleepCtx,
	}
	if c.maxRetries <= 0 {
		c.maxRetries = 3
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 1500
	}
	if c.temperature == 0 {
		c.temperature = 0.3
	}
	return c
}

// Grade sends one grading request and parses the reply. Transport errors
// and empty replies are retried with exponential backoff; after the last
// attempt the call fails and no verdict is returned. A malformed reply is
// not retried: it degrades through the parsing chain instead.
func (c *Client) Grade(ctx context.Context, req Request) (*Verdict, error) {
	variant := req.Variant
	if variant == "" {
		variant = prompts.VariantStandard
	}

	system, err := prompts.SystemPrompt(variant)
	if err != nil {
		return nil, err
	}
	user, err := prompts.BuildGradePrompt(variant, prompts.GradeData{
		Question:    req.Question,
		Answer:      JoinAnswer(req.Answer),
		Analysis:    req.Analysis,
		MaxScore:    req.MaxScore,
		ModelOutput: req.ModelOutput,
	})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		})
		if err != nil {
			lastErr = err
		} else if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("grader returned no choices")
		} else {
			return ParseVerdict(resp.Choices[0].Message.Content), nil
		}

		slog.Warn("grader call failed",
			"attempt", attempt+1, "max_retries", c.maxRetries, "error", lastErr)
		if attempt < c.maxRetries-1 {
			// wait = 2^attempt seconds
			if err := c.sleep(ctx, time.Duration(1<<attempt)*time.Second); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("grader call failed after %d attempts: %w", c.maxRetries, lastErr)
}

// JoinAnswer renders a standard answer for the prompt: lists become a
// comma-joined string.
func JoinAnswer(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, fmt.Sprint(e))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
