package imagegen

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/reprompt/internal/config"
)

func newOpenAI(t *testing.T, url, key string) *OpenAI {
	t.Helper()
	o, err := NewOpenAI(&config.OpenAIEnvConfig{OpenAIAPIKey: key, OpenAIAPIURL: url, OpenAITimeout: 5 * time.Second})
	require.NoError(t, err)
	return o
}

func TestGenerateImage_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"model":"dall-e-2"`)
		assert.Contains(t, string(body), `"prompt":"a red apple"`)
		assert.Contains(t, string(body), `"n":1`)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1700000000,"data":[{"url":"https://images.example/apple.png"}]}`))
	}))
	defer ts.Close()

	url, err := newOpenAI(t, ts.URL, "sk-test").GenerateImage(context.Background(), "a red apple")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/apple.png", url)
}

func TestGenerateImage_MissingKey(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer ts.Close()

	_, err := newOpenAI(t, ts.URL, "").GenerateImage(context.Background(), "a red apple")
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.ErrorIs(t, err, ErrProvider)
	assert.Zero(t, hits.Load())
}

func TestGenerateImage_Failures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Your request was rejected by the safety system","type":"invalid_request_error","code":"content_policy_violation"}}`))
	}))
	defer ts.Close()

	o := newOpenAI(t, ts.URL, "sk-test")
	_, err := o.GenerateImage(context.Background(), "something")
	require.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "safety system")

	_, err = o.GenerateImage(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestGenerateImage_EmptyData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	}))
	defer ts.Close()

	_, err := newOpenAI(t, ts.URL, "sk-test").GenerateImage(context.Background(), "a red apple")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestGenerateImage_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		case <-time.After(5 * time.Second):
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newOpenAI(t, ts.URL, "sk-test").GenerateImage(ctx, "a red apple")
	assert.ErrorIs(t, err, ErrProvider)
}
