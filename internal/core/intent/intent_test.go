package intent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"nutribot/internal/infrastructure/config"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordGuesser(t *testing.T) {
	tests := []struct {
		text       string
		label      Label
		confidence float64
	}{
		{"¿Qué puedo comer hoy?", LabelFoodRecommendation, 0.7},
		{"Recomiéndame una cena", LabelFoodRecommendation, 0.7},
		{"Hola!", LabelGreeting, 0.7},
		{"buenas noches", LabelGreeting, 0.7},
		{"necesito ayuda", LabelHelp, 0.7},
		{"el cielo es azul", LabelFallback, 0.5},
		{"", LabelFallback, 0},
		{"   ", LabelFallback, 0},
	}
	g := NewKeywordGuesser()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			out := g.Classify(context.Background(), "s", tt.text)
			require.True(t, out.OK())
			assert.Equal(t, tt.label, out.Intent.Label)
			assert.Equal(t, tt.confidence, out.Intent.Confidence)
			assert.Equal(t, "keyword", out.Intent.Source)
		})
	}
}

// 食物推薦關鍵字先於問候
func TestKeywordGuesserOrder(t *testing.T) {
	out := NewKeywordGuesser().Classify(context.Background(), "s", "hola, qué puedo comer")
	assert.Equal(t, LabelFoodRecommendation, out.Intent.Label)
}

type stubStrategy struct {
	name  string
	out   Outcome
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Classify(context.Context, string, string) Outcome {
	s.calls++
	return s.out
}

func TestChainFirstSuccessWins(t *testing.T) {
	failing := &stubStrategy{name: "down", out: Failure(ReasonUnavailable, errors.New("open"))}
	ok := &stubStrategy{name: "ok", out: Success(Intent{Label: LabelHelp, Confidence: 0.9, Source: "ok"})}
	never := &stubStrategy{name: "never", out: Success(Intent{Label: LabelGreeting})}

	got := NewChain(failing, ok, never).Classify(context.Background(), "s", "hola")
	assert.Equal(t, LabelHelp, got.Label)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 0, never.calls)
}

func TestChainFallsBackToKeywords(t *testing.T) {
	failing := &stubStrategy{name: "down", out: Failure(ReasonUpstream, errors.New("boom"))}
	got := NewChain(failing, nil).Classify(context.Background(), "s", "quiero comer algo")
	assert.Equal(t, LabelFoodRecommendation, got.Label)
	assert.Equal(t, "keyword", got.Source)
}

func completion(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + quote(content) + `}}]}`
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestClassifier(url string) *OpenRouterClassifier {
	return NewOpenRouterClassifier(config.OpenRouterConfig{
		APIKey:          "sk-test",
		BaseURL:         url,
		Model:           "test-model",
		MaxTokens:       50,
		Timeout:         2 * time.Second,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}, "nutribot", nil)
}

func TestOpenRouterClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion("```json\n{\"intent\": \"greeting\", \"confidence\": 0.93, \"reply\": \"¡Hola! ¿En qué te ayudo?\"}\n```")))
	}))
	defer srv.Close()

	out := newTestClassifier(srv.URL).Classify(context.Background(), "user-1", "buenas")
	require.True(t, out.OK(), "%v", out.Err)
	assert.Equal(t, LabelGreeting, out.Intent.Label)
	assert.Equal(t, 0.93, out.Intent.Confidence)
	assert.Equal(t, "¡Hola! ¿En qué te ayudo?", out.Intent.FulfillmentText)
	assert.Equal(t, "openrouter", out.Intent.Source)
}

func TestOpenRouterClassifierUnknownLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completion(`{"intent": "weather.query", "confidence": 0.8}`)))
	}))
	defer srv.Close()

	out := newTestClassifier(srv.URL).Classify(context.Background(), "u", "¿lloverá?")
	assert.Equal(t, ReasonUnrecognized, out.Reason)
}

func TestOpenRouterClassifierEmptyInputSkipsCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	out := newTestClassifier(srv.URL).Classify(context.Background(), "u", " ")
	assert.Equal(t, ReasonEmptyInput, out.Reason)
	assert.Zero(t, hits.Load())
}

func TestOpenRouterClassifierBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClassifier(srv.URL)
	for i := 0; i < 2; i++ {
		assert.Equal(t, ReasonUpstream, c.Classify(context.Background(), "u", "hola").Reason)
	}
	assert.Equal(t, ReasonUnavailable, c.Classify(context.Background(), "u", "hola").Reason)
	assert.Equal(t, int32(2), hits.Load())

	// 熔斷時整條鏈仍由關鍵字完成
	got := NewChain(c).Classify(context.Background(), "u", "hola")
	assert.Equal(t, LabelGreeting, got.Label)
	assert.Equal(t, "keyword", got.Source)
}


func TestParseAnswer(t *testing.T) {
	got, err := parseAnswer("Claro:\n```json\n{\"intent\":\"help\",\"confidence\":1.7}\n```")
	require.NoError(t, err)
	assert.Equal(t, LabelHelp, got.Label)
	assert.Equal(t, 1.0, got.Confidence)

	got, err = parseAnswer(`{"intent":" recommendation.food ","confidence":-2,"parameters":{"meal":"cena"}}`)
	require.NoError(t, err)
	assert.Equal(t, LabelFoodRecommendation, got.Label)
	assert.Zero(t, got.Confidence)
	assert.Equal(t, "cena", got.Parameters["meal"])

	_, err = parseAnswer("no lo sé")
	assert.Error(t, err)
}
