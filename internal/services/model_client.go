package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"alfredoptarigan/career-reviewer/internal/models"
)

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Invocation is a parsed, schema-checked model response.
type Invocation struct {
	Payload  map[string]any
	Raw      json.RawMessage
	Usage    Usage
	Model    string
	Attempts int
}

type ModelClient interface {
	Invoke(ctx context.Context, kind models.ReviewKind, prompt string) (*Invocation, error)
}

type ModelClientConfig struct {
	AttemptTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

type modelClient struct {
	generator Generator
	schemas   map[models.ReviewKind]*jsonschema.Schema
	cfg       ModelClientConfig
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewModelClient(generator Generator, cfg ModelClientConfig) (ModelClient, error) {
	return newModelClient(generator, cfg)
}

func newModelClient(generator Generator, cfg ModelClientConfig) (*modelClient, error) {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}

	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	return &modelClient{
		generator: generator,
		schemas:   schemas,
		cfg:       cfg,
		sleep:     sleepContext,
	}, nil
}

// Invoke implements ModelClient. Every failure kind is retried the same way:
// MaxRetries more attempts with a fixed RetryDelay in between.
func (c *modelClient) Invoke(ctx context.Context, kind models.ReviewKind, prompt string) (*Invocation, error) {
	schema, ok := c.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	maxAttempts := c.cfg.MaxRetries + 1
	var lastErr *attemptError

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.cfg.RetryDelay); err != nil {
				return nil, fmt.Errorf("context cancelled: %w", err)
			}
		}

		inv, err := c.attempt(ctx, schema, prompt)
		if err == nil {
			inv.Attempts = attempt
			return inv, nil
		}
		lastErr = err

		// Check if context is cancelled
		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		}

		log.Printf("⚠️  %s attempt %d/%d failed: %v\n", kind, attempt, maxAttempts, err)
	}

	return nil, &InvocationError{Kind: lastErr.kind, Attempts: maxAttempts, Err: lastErr.err}
}

type generateResult struct {
	gen *Generation
	err error
}

func (c *modelClient) attempt(ctx context.Context, schema *jsonschema.Schema, prompt string) (*Invocation, *attemptError) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	// The generator may not honour cancellation; the timeout bounds our wait either way.
	done := make(chan generateResult, 1)
	go func() {
		gen, err := c.generator.Generate(attemptCtx, prompt)
		done <- generateResult{gen: gen, err: err}
	}()

	var res generateResult
	select {
	case res = <-done:
	case <-attemptCtx.Done():
		return nil, &attemptError{kind: ErrTimeout, err: attemptCtx.Err()}
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &attemptError{kind: ErrTimeout, err: res.err}
		}
		return nil, &attemptError{kind: ErrTransport, err: res.err}
	}
	if res.gen == nil {
		return nil, &attemptError{kind: ErrMalformedResponse, err: errors.New("empty generation")}
	}

	raw := StripCodeFence(res.gen.Text)

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &attemptError{kind: ErrMalformedResponse, err: fmt.Errorf("failed to unmarshal JSON: %w", err)}
	}
	if payload == nil {
		return nil, &attemptError{kind: ErrMalformedResponse, err: errors.New("response is null")}
	}

	if err := schema.Validate(any(payload)); err != nil {
		return nil, &attemptError{kind: ErrSchemaViolation, err: err}
	}

	return &Invocation{
		Payload: payload,
		Raw:     json.RawMessage(raw),
		Usage: Usage{
			InputTokens:  res.gen.InputTokens,
			OutputTokens: res.gen.OutputTokens,
		},
		Model: res.gen.Model,
	}, nil
}

// StripCodeFence removes a markdown code fence (with optional language tag)
// around a response, wherever it sits, then narrows what is left to the
// outermost JSON object so prose before or after it is dropped.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)

	if start := strings.Index(text, "```"); start >= 0 {
		body := text[start+3:]
		body = strings.TrimLeftFunc(body, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
		})
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		text = strings.TrimSpace(body)
	}

	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
