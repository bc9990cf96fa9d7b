package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGETSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "default", r.Header.Get("X-Default"))
		assert.Equal(t, "override", r.Header.Get("X-Both"))
		w.Write([]byte(`{"data":[1,2,3]}`))
	}))
	defer srv.Close()

	c := NewClient(
		WithHeaders(map[string]string{"X-Default": "default"}),
		WithHeader("X-Both", "default"),
	)
	resp, err := c.GET(context.Background(), srv.URL+"/api", map[string]string{"X-Both": "override"})
	require.NoError(t, err)

	var body struct {
		Data []int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	assert.Equal(t, []int{1, 2, 3}, body.Data)
}

func TestGETStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient().GET(context.Background(), srv.URL)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
}

func TestCookieJarCarriesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/home" {
			http.SetCookie(w, &http.Cookie{Name: "nsit", Value: "abc", Path: "/"})
			return
		}
		if c, err := r.Cookie("nsit"); err != nil || c.Value != "abc" {
			http.Error(w, "no session", http.StatusUnauthorized)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(WithCookieJar())
	_, err := c.GET(context.Background(), srv.URL+"/home")
	require.NoError(t, err)
	resp, err := c.GET(context.Background(), srv.URL+"/api")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))

	_, err = NewClient().GET(context.Background(), srv.URL+"/api")
	assert.Error(t, err)
}

func TestDoWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient()
	req := NewRequest(http.MethodGet, srv.URL).WithContext(context.Background())
	resp, err := c.DoWithRetry(req, &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoWithRetrySingleAttemptByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	req := NewRequest(http.MethodGet, srv.URL)
	_, err := NewClient().DoWithRetry(req, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
