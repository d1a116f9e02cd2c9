package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const (
	embeddingBody = `{"embeddings":[{"values":[0.25,0.5,1]}]}`
	emptyBody     = `{"embeddings":[]}`
	serverError   = `{"error":{"code":500,"message":"backend unavailable","status":"INTERNAL"}}`
)

// fakeGemini 前 failures 次返回 500，之后返回 body
func fakeGemini(t *testing.T, failures int32, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if hits.Add(1) <= failures {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(serverError))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := newClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	}, "gemini-embedding-001", 100)
	require.NoError(t, err)
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func TestEmbed(t *testing.T) {
	srv, hits := fakeGemini(t, 0, embeddingBody)
	c := testClient(t, srv)

	vec, err := c.Embed(context.Background(), "你好")
	require.NoError(t, err)
	require.Equal(t, []float32{0.25, 0.5, 1}, vec)
	require.Equal(t, int32(1), hits.Load())
}

func TestEmbed_RetriesServerErrors(t *testing.T) {
	srv, hits := fakeGemini(t, 1, embeddingBody)
	c := testClient(t, srv)

	vec, err := c.Embed(context.Background(), "你好")
	require.NoError(t, err)
	require.Len(t, vec, 3)
	require.GreaterOrEqual(t, hits.Load(), int32(2))
}

func TestEmbed_GivesUpAfterAttempts(t *testing.T) {
	srv, hits := fakeGemini(t, 1000, embeddingBody)
	c := testClient(t, srv)

	_, err := c.Embed(context.Background(), "你好")
	require.Error(t, err)
	require.ErrorContains(t, err, "embed failed after 3 attempts")
	require.GreaterOrEqual(t, hits.Load(), int32(embedAttempts))
}

func TestEmbed_EmptyResponse(t *testing.T) {
	srv, _ := fakeGemini(t, 0, emptyBody)
	c := testClient(t, srv)

	_, err := c.Embed(context.Background(), "你好")
	require.ErrorIs(t, err, ErrEmptyEmbedding)
}

func TestEmbed_CanceledDuringBackoff(t *testing.T) {
	srv, _ := fakeGemini(t, 1000, embeddingBody)
	c := testClient(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	c.backoff = func(int) time.Duration {
		cancel()
		return time.Hour
	}

	_, err := c.Embed(ctx, "你好")
	require.ErrorIs(t, err, context.Canceled)
}
