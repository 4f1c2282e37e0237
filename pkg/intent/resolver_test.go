package intent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"well-bot-be/internal/pkg/logger"
	"well-bot-be/pkg/llm"
)

type stubClassifier struct {
	calls atomic.Int32
	out   Classification
	err   error
	delay time.Duration
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.out, s.err
}

type stubProvider struct {
	response string
	err      error
	history  []llm.Message
}

func (p *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.history = history
	return p.response, p.err
}

func (p *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantIntent Intent
		wantArgs   map[string]interface{}
		wantMatch  bool
	}{
		{name: "todo list", text: "show my to-do list", wantIntent: TodoList, wantArgs: map[string]interface{}{}, wantMatch: true},
		{name: "todo list without my", text: "Show todo", wantIntent: TodoList, wantArgs: map[string]interface{}{}, wantMatch: true},
		{name: "todo add with content", text: "add todo buy groceries.", wantIntent: TodoAdd, wantArgs: map[string]interface{}{"content": "buy groceries"}, wantMatch: true},
		{name: "todo add without content falls through", text: "add to-do", wantMatch: false},
		{name: "journal with topic", text: "start journal about my weekend", wantIntent: JournalStart, wantArgs: map[string]interface{}{"topic": "my weekend"}, wantMatch: true},
		{name: "journal without topic", text: "let's start journal", wantIntent: JournalStart, wantArgs: map[string]interface{}{}, wantMatch: true},
		{name: "quote", text: "give me a quote", wantIntent: QuoteGet, wantArgs: map[string]interface{}{}, wantMatch: true},
		{name: "meditation", text: "start meditation", wantIntent: MeditationPlay, wantArgs: map[string]interface{}{}, wantMatch: true},
		{name: "stop meditation before play", text: "stop the meditation", wantIntent: MeditationStop, wantArgs: map[string]interface{}{}, wantMatch: true},
		{name: "session end wins over tools", text: "show my todo then bye", wantIntent: SessionEnd, wantArgs: map[string]interface{}{}, wantMatch: true},
		{name: "word boundary", text: "the goodbyes were hard", wantMatch: false},
		{name: "small talk", text: "I had a long day at work", wantMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := MatchPattern(tt.text)
			assert.Equal(t, tt.wantMatch, ok)
			if !tt.wantMatch {
				return
			}
			assert.Equal(t, tt.wantIntent, res.Intent)
			assert.Equal(t, PatternConfidence, res.Confidence)
			if diff := cmp.Diff(tt.wantArgs, res.Args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, SourcePattern, res.Source)
		})
	}
}

func TestMatchPatternIsDeterministic(t *testing.T) {
	inputs := []string{"show my to-do list", "add todo call mom", "goodbye", "quote please", "hmm"}
	for _, text := range inputs {
		first, firstOK := MatchPattern(text)
		for i := 0; i < 20; i++ {
			again, ok := MatchPattern(text)
			assert.Equal(t, firstOK, ok)
			assert.Equal(t, first, again)
		}
	}
}

func TestResolve_FastPathSkipsClassifier(t *testing.T) {
	cls := &stubClassifier{out: Classification{Intent: "quote.get", Confidence: 0.9, Args: map[string]interface{}{}}}
	r := NewResolver(cls, 200*time.Millisecond, logger.NewNopLogger())

	res := r.Resolve(context.Background(), "show my to-do list")

	assert.Equal(t, Result{Intent: TodoList, Confidence: 0.95, Args: map[string]interface{}{}, Source: SourcePattern}, res)
	assert.Equal(t, int32(0), cls.calls.Load())
}

func TestResolve_Classifier(t *testing.T) {
	tests := []struct {
		name       string
		classifier *stubClassifier
		budget     time.Duration
		want       Result
	}{
		{
			name:       "valid classification",
			classifier: &stubClassifier{out: Classification{Intent: "gratitude.add", Confidence: 0.8, Args: map[string]interface{}{"content": "sunshine"}}},
			budget:     200 * time.Millisecond,
			want:       Result{Intent: GratitudeAdd, Confidence: 0.8, Args: map[string]interface{}{"content": "sunshine"}, Source: SourceClassifier},
		},
		{
			name:       "nil args become empty",
			classifier: &stubClassifier{out: Classification{Intent: "small_talk", Confidence: 0.6}},
			budget:     200 * time.Millisecond,
			want:       Result{Intent: SmallTalk, Confidence: 0.6, Args: map[string]interface{}{}, Source: SourceClassifier},
		},
		{
			name:       "error fails open",
			classifier: &stubClassifier{err: errors.New("backend down")},
			budget:     200 * time.Millisecond,
			want:       defaultResult(),
		},
		{
			name:       "timeout fails open",
			classifier: &stubClassifier{out: Classification{Intent: "todo.list", Confidence: 1}, delay: 200 * time.Millisecond},
			budget:     20 * time.Millisecond,
			want:       defaultResult(),
		},
		{
			name:       "unknown intent fails open",
			classifier: &stubClassifier{out: Classification{Intent: "launch.rocket", Confidence: 0.9}},
			budget:     200 * time.Millisecond,
			want:       defaultResult(),
		},
		{
			name:       "confidence out of range fails open",
			classifier: &stubClassifier{out: Classification{Intent: "todo.list", Confidence: 1.5}},
			budget:     200 * time.Millisecond,
			want:       defaultResult(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.classifier, tt.budget, logger.NewNopLogger())

			res := r.Resolve(context.Background(), "I feel a bit off today")

			assert.Equal(t, tt.want, res)
			assert.Equal(t, int32(1), tt.classifier.calls.Load())
		})
	}
}

func TestResolve_NilClassifier(t *testing.T) {
	r := NewResolver(nil, time.Second, logger.NewNopLogger())
	assert.Equal(t, SmallTalk, r.Resolve(context.Background(), "hello there").Intent)
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Classification
		wantErr  bool
	}{
		{
			name:     "plain json",
			response: `{"intent": "todo.add", "confidence": 0.7, "args": {"content": "walk"}}`,
			want:     Classification{Intent: "todo.add", Confidence: 0.7, Args: map[string]interface{}{"content": "walk"}},
		},
		{
			name:     "fenced json with chatter",
			response: "```json\nSure! {\"intent\": \"Quote.Get\", \"confidence\": 1, \"args\": {}}\n```",
			want:     Classification{Intent: "quote.get", Confidence: 1, Args: map[string]interface{}{}},
		},
		{name: "missing args", response: `{"intent": "todo.add", "confidence": 0.7}`, wantErr: true},
		{name: "missing confidence", response: `{"intent": "todo.add", "args": {}}`, wantErr: true},
		{name: "negative confidence", response: `{"intent": "todo.add", "confidence": -0.1, "args": {}}`, wantErr: true},
		{name: "unknown intent", response: `{"intent": "dance", "confidence": 0.5, "args": {}}`, wantErr: true},
		{name: "not json", response: "I think it's small talk", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClassification(tt.response)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("classification mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLLMClassifier(t *testing.T) {
	provider := &stubProvider{response: `{"intent": "journal.start", "confidence": 0.88, "args": {"topic": "work"}}`}
	c := NewLLMClassifier(provider)

	got, err := c.Classify(context.Background(), "I'd like to write about work")

	require.NoError(t, err)
	assert.Equal(t, "journal.start", got.Intent)
	require.Len(t, provider.history, 2)
	assert.Equal(t, "system", provider.history[0].Role)
	assert.Equal(t, "I'd like to write about work", provider.history[1].Content)

	provider.err = errors.New("503")
	_, err = c.Classify(context.Background(), "x")
	assert.Error(t, err)
}
