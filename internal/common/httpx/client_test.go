package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/domain"
)

func newServer(t *testing.T) *httptest.Server {
	r := chi.NewRouter()
	r.Post("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		in["request_id"] = r.Header.Get("X-Request-ID")
		in["q"] = r.URL.Query().Get("q")
		_ = json.NewEncoder(w).Encode(in)
	})
	r.Get("/api/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"status":"error","error":"upstream down"}`))
	})
	r.Get("/api/garbage", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	r.Get("/api/forbidden", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestDo_RoundTrip(t *testing.T) {
	srv := newServer(t)
	c, err := New(srv.URL+"/api/", time.Second, nil)
	require.NoError(t, err)

	var out map[string]any
	err = c.Do(context.Background(), "echo", http.MethodPost, "/echo", url.Values{"q": {"x y"}}, map[string]any{"a": 1}, &out)
	require.NoError(t, err)
	assert.EqualValues(t, 1, out["a"])
	assert.Equal(t, "x y", out["q"])
	assert.NotEmpty(t, out["request_id"])
}

func TestDo_ErrorClassification(t *testing.T) {
	srv := newServer(t)
	c, err := New(srv.URL+"/api", time.Second, nil)
	require.NoError(t, err)
	var out map[string]any

	err = c.Do(context.Background(), "boom", http.MethodGet, "boom", nil, nil, &out)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Contains(t, err.Error(), "upstream down")

	err = c.Do(context.Background(), "garbage", http.MethodGet, "garbage", nil, nil, &out)
	assert.ErrorIs(t, err, domain.ErrNetwork)

	err = c.Do(context.Background(), "forbidden", http.MethodGet, "forbidden", nil, nil, &out)
	assert.ErrorIs(t, err, domain.ErrRejected)

	dead, err := New("http://127.0.0.1:1", 200*time.Millisecond, nil)
	require.NoError(t, err)
	err = dead.Do(context.Background(), "dead", http.MethodGet, "x", nil, nil, &out)
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("localhost", time.Second, nil)
	assert.Error(t, err)
}
