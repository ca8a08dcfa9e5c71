package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ezshield/logrelay/encoding/json"
	"github.com/ezshield/logrelay/fetch"
	"github.com/ezshield/logrelay/http/api"
	"github.com/ezshield/logrelay/log"
	"github.com/ezshield/logrelay/prometheus"
	"github.com/ezshield/logrelay/relay"
	"github.com/ezshield/logrelay/relay/store"

	"github.com/stretchr/testify/require"
)

type indexFetcher struct{}

func (f indexFetcher) FetchText(ctx context.Context, path string) (string, error) {
	return "", nil
}

func (f indexFetcher) FetchBytes(ctx context.Context, path string) ([]byte, error) {
	return nil, nil
}

func request(t *testing.T, s Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)

	s.ServeHTTP(w, req)

	return w
}

func newTestServer(t *testing.T, readOnly bool, ready func() error) (Server, log.BufferWriter) {
	r, err := relay.New(relay.Config{
		Fetcher:        indexFetcher{},
		Store:          store.NewDummy(nil),
		PullRetryLimit: 3,
		PushRetryLimit: 3,
	})
	require.NoError(t, err)

	buffer := log.NewBufferWriter(log.Ldebug, 100)

	s, err := NewServer(Config{
		Logger:         log.New("HTTP").WithOutput(buffer),
		LogBuffer:      buffer,
		Relay:          r,
		PullRetryLimit: 3,
		PushRetryLimit: 3,
		Ready:          ready,
		Prometheus:     prometheus.New(false),
		ReadOnly:       readOnly,
	})
	require.NoError(t, err)

	return s, buffer
}

func TestRoutes(t *testing.T) {
	s, buffer := newTestServer(t, false, nil)

	w := request(t, s, "GET", "/ping")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pong", w.Body.String())

	w = request(t, s, "GET", "/ready")
	require.Equal(t, http.StatusOK, w.Code)

	w = request(t, s, "GET", "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "promhttp_metric_handler_requests_total")

	w = request(t, s, "GET", "/api")
	require.Equal(t, http.StatusOK, w.Code)

	w = request(t, s, "POST", "/api/v1/cycle")
	require.Equal(t, http.StatusOK, w.Code)

	report := api.Report{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Equal(t, 0, report.Files)
	require.Empty(t, report.Error)

	w = request(t, s, "GET", "/api/v1/state")
	require.Equal(t, http.StatusOK, w.Code)

	w = request(t, s, "GET", "/api/v1/log")
	require.Equal(t, http.StatusOK, w.Code)

	w = request(t, s, "GET", "/api/v1/fs")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = request(t, s, "GET", "/api/v1/proxy")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = request(t, s, "GET", "/api/v1/state/a.log")
	require.Equal(t, http.StatusNotFound, w.Code)

	requests := 0
	warnings := 0

	var last *log.Event

	for _, e := range buffer.Events() {
		if e.Component != "HTTP" {
			continue
		}

		requests++
		last = e

		if e.Level == log.Lwarn {
			warnings++
		}
	}

	require.Equal(t, 10, requests)
	require.Equal(t, 3, warnings)

	require.NotNil(t, last)
	require.Equal(t, "/api/v1/state/:name", last.Data["route"])
	require.Equal(t, "a.log", last.Data["file"])
}

func TestNotReadyFetch(t *testing.T) {
	s, _ := newTestServer(t, false, func() error {
		return fmt.Errorf("fetching index: %w", &fetch.TransportError{
			Path:       "logs.index",
			StatusCode: http.StatusUnauthorized,
			Err:        errors.New("unauthorized"),
		})
	})

	w := request(t, s, "GET", "/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	e := api.Error{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	require.Contains(t, e.Details, "file: logs.index")
	require.Contains(t, e.Details, "status: 401")
}

func TestReadOnly(t *testing.T) {
	s, _ := newTestServer(t, true, nil)

	w := request(t, s, "POST", "/api/v1/cycle")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = request(t, s, "GET", "/api/v1/state")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestNotReady(t *testing.T) {
	s, _ := newTestServer(t, false, func() error {
		return errors.New("last cycle failed")
	})

	w := request(t, s, "GET", "/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	e := api.Error{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	require.Equal(t, []string{"last cycle failed"}, e.Details)
	require.Equal(t, "Service Unavailable", e.Message)
}
