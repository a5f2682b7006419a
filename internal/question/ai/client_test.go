package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdm/interview-platform/internal/question"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, zerolog.Nop())
}

func TestGenerateSendsHistoryAndAuth(t *testing.T) {
	var gotAuth string
	var gotBody generateRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/generate", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(generateResponse{Question: aiQuestion{
			Text:       "Explain goroutine scheduling",
			Difficulty: "Hard",
			Type:       "opinion",
		}})
	})

	history := []question.Asked{{ID: 1, Text: "warmup", Difficulty: "easy", Type: "opinion"}}
	gen, err := client.Generate(context.Background(), history)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, gotBody.Questions, 1)
	assert.Equal(t, "warmup", gotBody.Questions[0].Text)

	assert.Equal(t, "Explain goroutine scheduling", gen.Text)
	assert.Equal(t, "hard", gen.Difficulty, "difficulty is normalized to lowercase")
	assert.Equal(t, "opinion", gen.Type)
}

func TestGenerateNormalizesUnknownFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Question: aiQuestion{
			Text:       "something",
			Difficulty: "brutal",
			Type:       "essay",
			Options:    []string{"a", "b"},
		}})
	})

	gen, err := client.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "medium", gen.Difficulty)
	assert.Equal(t, "opinion", gen.Type)
	assert.Nil(t, gen.Options, "non-mcq questions carry no options")
}

func TestGenerateRejectsEmptyQuestion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{})
	})

	_, err := client.Generate(context.Background(), nil)
	assert.Error(t, err)
}

func TestGenerateUpstreamFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.Generate(context.Background(), nil)
	assert.Error(t, err)
}

func TestEvaluateClampsScore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/evaluate", r.URL.Path)
		json.NewEncoder(w).Encode(evaluateResponse{Score: 140, Summary: "exceptional"})
	})

	eval, err := client.Evaluate(context.Background(), []question.TranscriptEntry{{ID: 1, Answer: "x"}})
	require.NoError(t, err)
	assert.Equal(t, 100, eval.Score)
	assert.Equal(t, "exceptional", eval.Summary)
}

func TestEvaluateRejectsEmptySummary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(evaluateResponse{Score: 50})
	})

	_, err := client.Evaluate(context.Background(), nil)
	assert.Error(t, err)
}
