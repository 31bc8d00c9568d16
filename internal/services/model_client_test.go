package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/career-reviewer/internal/models"
)

const validReview = `{
  "overall_score": 78,
  "sections": [{"name": "Structure & Readability", "score": 80, "feedback": "Clear layout."}],
  "improvement_points": ["Quantify impact", "Trim the summary", "Group skills by area"],
  "reviewer_comment": "A solid first resume."
}`

type genStep struct {
	text  string
	err   error
	block bool
}

type fakeGenerator struct {
	mu    sync.Mutex
	steps []genStep
	calls int
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (*Generation, error) {
	g.mu.Lock()
	step := g.steps[min(g.calls, len(g.steps)-1)]
	g.calls++
	g.mu.Unlock()

	if step.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if step.err != nil {
		return nil, step.err
	}
	return &Generation{Text: step.text, Model: "test-model", InputTokens: 120, OutputTokens: 45}, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func newTestClient(t *testing.T, gen Generator, cfg ModelClientConfig) (*modelClient, *[]time.Duration) {
	t.Helper()
	c, err := newModelClient(gen, cfg)
	require.NoError(t, err)

	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return c, &sleeps
}

func defaultClientConfig() ModelClientConfig {
	return ModelClientConfig{AttemptTimeout: time.Second, MaxRetries: 2, RetryDelay: time.Second}
}

func TestInvokeSucceedsOnThirdAttempt(t *testing.T) {
	gen := &fakeGenerator{steps: []genStep{
		{err: errors.New("connection reset by peer")},
		{text: "Sure! Here is the review."},
		{text: validReview},
	}}
	c, sleeps := newTestClient(t, gen, defaultClientConfig())

	inv, err := c.Invoke(context.Background(), models.KindResume, "prompt")
	require.NoError(t, err)

	assert.Equal(t, 3, gen.callCount())
	assert.Equal(t, 3, inv.Attempts)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, *sleeps)
	assert.Equal(t, float64(78), inv.Payload["overall_score"])
	assert.Equal(t, Usage{InputTokens: 120, OutputTokens: 45}, inv.Usage)
	assert.Equal(t, "test-model", inv.Model)
	assert.JSONEq(t, validReview, string(inv.Raw))
}

func TestInvokeFailsAfterRetryCeiling(t *testing.T) {
	gen := &fakeGenerator{steps: []genStep{
		{text: "not json"},
		{err: errors.New("dial tcp: i/o timeout")},
		{err: errors.New("503 service unavailable")},
	}}
	c, sleeps := newTestClient(t, gen, defaultClientConfig())

	_, err := c.Invoke(context.Background(), models.KindResume, "prompt")
	require.Error(t, err)

	assert.Equal(t, 3, gen.callCount())
	assert.Len(t, *sleeps, 2)

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, 3, invErr.Attempts)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), "503 service unavailable")
}

func TestInvokeRetryCeilingFollowsConfig(t *testing.T) {
	gen := &fakeGenerator{steps: []genStep{{err: errors.New("boom")}}}
	cfg := defaultClientConfig()
	cfg.MaxRetries = 4
	c, sleeps := newTestClient(t, gen, cfg)

	_, err := c.Invoke(context.Background(), models.KindCoverLetter, "prompt")
	require.Error(t, err)
	assert.Equal(t, 5, gen.callCount())
	assert.Len(t, *sleeps, 4)
}

func TestInvokeCodeFenceIsTransparent(t *testing.T) {
	plain, _ := newTestClient(t, &fakeGenerator{steps: []genStep{{text: validReview}}}, defaultClientConfig())
	fenced, _ := newTestClient(t, &fakeGenerator{steps: []genStep{{text: "```json\n" + validReview + "\n```"}}}, defaultClientConfig())

	want, err := plain.Invoke(context.Background(), models.KindResume, "prompt")
	require.NoError(t, err)
	got, err := fenced.Invoke(context.Background(), models.KindResume, "prompt")
	require.NoError(t, err)

	assert.Equal(t, want.Payload, got.Payload)
	assert.Equal(t, 1, got.Attempts)
}

func TestInvokeToleratesProseAroundFence(t *testing.T) {
	for _, text := range []string{
		"Here is the review:\n```json\n" + validReview + "\n```",
		"```json\n" + validReview + "\n```\nLet me know if you need anything else.",
		"Review follows.\n" + validReview + "\nThanks!",
	} {
		gen := &fakeGenerator{steps: []genStep{{text: text}}}
		c, sleeps := newTestClient(t, gen, defaultClientConfig())

		inv, err := c.Invoke(context.Background(), models.KindResume, "prompt")
		require.NoError(t, err, text)
		assert.Equal(t, 1, inv.Attempts)
		assert.Empty(t, *sleeps)
		assert.EqualValues(t, 78, inv.Payload["overall_score"])
	}
}

func TestInvokeSchemaViolation(t *testing.T) {
	gen := &fakeGenerator{steps: []genStep{
		{text: `{"overall_score": 150, "sections": [], "improvement_points": [], "reviewer_comment": ""}`},
	}}
	c, _ := newTestClient(t, gen, defaultClientConfig())

	_, err := c.Invoke(context.Background(), models.KindResume, "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaViolation)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, 3, gen.callCount())
}

func TestInvokeMalformedResponses(t *testing.T) {
	for _, text := range []string{"null", "[1, 2, 3]", "{\"overall_score\": ", ""} {
		gen := &fakeGenerator{steps: []genStep{{text: text}}}
		cfg := defaultClientConfig()
		cfg.MaxRetries = 0
		c, _ := newTestClient(t, gen, cfg)

		_, err := c.Invoke(context.Background(), models.KindResume, "prompt")
		assert.ErrorIs(t, err, ErrMalformedResponse, "response %q", text)
	}
}

func TestInvokeTimeout(t *testing.T) {
	gen := &fakeGenerator{steps: []genStep{{block: true}}}
	c, _ := newTestClient(t, gen, ModelClientConfig{AttemptTimeout: 20 * time.Millisecond, MaxRetries: 1})

	_, err := c.Invoke(context.Background(), models.KindResume, "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, gen.callCount())
}

func TestInvokeUnknownKind(t *testing.T) {
	gen := &fakeGenerator{steps: []genStep{{text: validReview}}}
	c, _ := newTestClient(t, gen, defaultClientConfig())

	_, err := c.Invoke(context.Background(), models.ReviewKind("portfolio"), "prompt")
	assert.ErrorIs(t, err, ErrInvalidKind)
	assert.Equal(t, 0, gen.callCount())
}

func TestInvokeStopsWhenContextCancelled(t *testing.T) {
	gen := &fakeGenerator{steps: []genStep{{err: errors.New("boom")}}}
	c, _ := newTestClient(t, gen, defaultClientConfig())
	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	_, err := c.Invoke(ctx, models.KindResume, "prompt")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, gen.callCount())
}

func TestInvokeAnalysisKinds(t *testing.T) {
	payloads := map[models.ReviewKind]string{
		models.KindStudentAnalysis: `{"strengths":["Go"],"weaknesses":[],"recommendations":["Ship a project"],` +
			`"career_fit_score":64,"skill_scores":{"Go":70},"suitable_jobs":["Backend Engineer"]}`,
		models.KindJobMatching: `{"matches":[{"title":"Backend Intern","company":"Acme","match_score":72}],` +
			`"overall_readiness":60,"top_recommendation":"Apply","growth_plan":["Learn SQL"]}`,
		models.KindCounseling: `{"summary":"Focused student.","focus_areas":[{"topic":"Portfolio","advice":"Publish it."}],` +
			`"discussion_questions":["What excites you?"],"next_steps":["Update resume"]}`,
	}

	for kind, payload := range payloads {
		t.Run(string(kind), func(t *testing.T) {
			c, _ := newTestClient(t, &fakeGenerator{steps: []genStep{{text: payload}}}, defaultClientConfig())
			inv, err := c.Invoke(context.Background(), kind, "prompt")
			require.NoError(t, err)
			assert.Equal(t, 1, inv.Attempts)
		})
	}
}

func TestSchemasCoverEveryKind(t *testing.T) {
	schemas, err := compileSchemas()
	require.NoError(t, err)

	for _, kind := range append([]models.ReviewKind{models.KindResume, models.KindCoverLetter}, models.AnalysisKinds...) {
		assert.Contains(t, schemas, kind)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding space", "  \n```JSON\n{\"a\":1}\n```\n ", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
		{"prose before fence", "Here is the review:\n```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose after fence", "```json\n{\"a\":1}\n```\nLet me know if you need more.", `{"a":1}`},
		{"prose around bare object", "Here you go: {\"a\":{\"b\":2}} Good luck!", `{"a":{"b":2}}`},
		{"no object", "I cannot review this.", "I cannot review this."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}
