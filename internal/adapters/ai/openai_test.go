package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/alsip/internal/adapters/ai"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)
	return body
}

func server(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Suggest(t *testing.T) {
	ctx := context.Background()

	t.Run("object with skills", func(t *testing.T) {
		srv := server(t, http.StatusOK, completion(t,
			`{"skills":[{"name":"Goroutines","importance":"critical","future_proof":true,"reason":"core"}]}`))
		c := ai.NewClient("test-key", ai.WithBaseURL(srv.URL+"/"), ai.WithModel("test-model"))

		out, err := c.Suggest(ctx, "Learn Go", "programming")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Goroutines", out[0].Name)
		assert.Equal(t, model.ImportanceCritical, out[0].Importance)
		assert.True(t, out[0].FutureProof)
	})

	t.Run("malformed content", func(t *testing.T) {
		srv := server(t, http.StatusOK, completion(t, "Sure! Here are some skills: Go, Rust"))
		c := ai.NewClient("test-key", ai.WithBaseURL(srv.URL), ai.WithModel("test-model"))

		_, err := c.Suggest(ctx, "Learn Go", "programming")
		assert.True(t, errors.Is(err, suggest.ErrMalformed))
		assert.False(t, errors.Is(err, model.ErrSuggestion))
	})

	t.Run("upstream error", func(t *testing.T) {
		srv := server(t, http.StatusTooManyRequests, []byte(`{"error":"rate limited"}`))
		c := ai.NewClient("test-key", ai.WithBaseURL(srv.URL), ai.WithModel("test-model"))

		_, err := c.Suggest(ctx, "Learn Go", "programming")
		assert.True(t, errors.Is(err, model.ErrSuggestion))
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("oversized response", func(t *testing.T) {
		padding := strings.Repeat(" ", ai.MaxResponseBytes)
		srv := server(t, http.StatusOK, completion(t, `{"skills":[]}`+padding))
		c := ai.NewClient("test-key", ai.WithBaseURL(srv.URL), ai.WithModel("test-model"))

		_, err := c.Suggest(ctx, "Learn Go", "programming")
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrSuggestion))
		assert.Contains(t, err.Error(), "exceeds")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()
		c := ai.NewClient("test-key", ai.WithBaseURL(srv.URL), ai.WithTimeout(20*time.Millisecond))

		_, err := c.Suggest(ctx, "Learn Go", "programming")
		assert.True(t, errors.Is(err, model.ErrSuggestion))
	})

	t.Run("through the suggestion service", func(t *testing.T) {
		srv := server(t, http.StatusOK, completion(t, `[]`))
		svc := suggest.NewService(ai.NewClient("test-key", ai.WithBaseURL(srv.URL), ai.WithModel("test-model")))

		res, err := svc.Suggest(ctx, suggest.Request{GoalTitle: "Learn Go"})
		require.NoError(t, err)
		assert.True(t, res.Fallback)
		assert.NotEmpty(t, res.Suggestions)
	})
}

func TestParseSuggestions(t *testing.T) {
	t.Run("bare array in a code fence", func(t *testing.T) {
		out, err := ai.ParseSuggestions("```json\n[{\"name\":\"SQL\",\"importance\":\"Nice-to-have\",\"futureProof\":true}]\n```")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, model.ImportanceNiceToHave, out[0].Importance)
		assert.True(t, out[0].FutureProof)
	})

	t.Run("unknown importance", func(t *testing.T) {
		_, err := ai.ParseSuggestions(`[{"name":"SQL","importance":"mandatory"}]`)
		assert.True(t, errors.Is(err, suggest.ErrMalformed))
	})

	t.Run("object without skills", func(t *testing.T) {
		_, err := ai.ParseSuggestions(`{"ideas":[]}`)
		assert.True(t, errors.Is(err, suggest.ErrMalformed))
	})
}
