package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"map-assistant/internal/config"
	"map-assistant/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backend(baseURL string) config.BackendConfig {
	return config.BackendConfig{
		BaseURL:    baseURL,
		ChatPath:   config.DefaultChatPath,
		HealthPath: config.DefaultHealthPath,
	}
}

func TestChatPostsMessageAndDecodesEnvelope(t *testing.T) {
	var gotBody model.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"intent":"search_places","confidence":0.8,"result":{"places":[]}}`)
	}))
	defer srv.Close()

	env, err := NewClient(backend(srv.URL)).Chat(context.Background(), "Tìm quán cafe")
	require.NoError(t, err)

	assert.Equal(t, "Tìm quán cafe", gotBody.Message)
	assert.True(t, env.Success)
	require.NotNil(t, env.Intent)
	assert.Equal(t, "search_places", *env.Intent)
	require.NotNil(t, env.Confidence)
	assert.InDelta(t, 0.8, *env.Confidence, 1e-9)
	assert.JSONEq(t, `{"places":[]}`, string(env.Result))
}

func TestChatNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(backend(srv.URL)).Chat(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed with status code 500")
}

func TestChatMalformedBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>not json</html>`)
	}))
	defer srv.Close()

	_, err := NewClient(backend(srv.URL)).Chat(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed response body")
}

func TestChatToleratesMistypedMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"intent":7,"confidence":"high","result":{"response":"ok"}}`)
	}))
	defer srv.Close()

	env, err := NewClient(backend(srv.URL)).Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Nil(t, env.Intent)
	assert.Nil(t, env.Confidence)
	assert.True(t, env.HasResult())
}

func TestChatTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := backend(srv.URL)
	cfg.Timeout = 50 * time.Millisecond

	_, err := NewClient(cfg).Chat(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Client.Timeout exceeded")
}

func TestChatConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(backend(url)).Chat(context.Background(), "hi")
	require.Error(t, err)
	assert.NotEmpty(t, err.Error())
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/health" {
			_, _ = io.WriteString(w, "OK")
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	require.NoError(t, NewClient(backend(srv.URL)).Health(context.Background()))

	cfg := backend(srv.URL)
	cfg.HealthPath = "/missing"
	err := NewClient(cfg).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
