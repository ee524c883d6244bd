package wbapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, srv *httptest.Server, timeout time.Duration) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:      srv.URL,
		Endpoint:     "/api/v1/tariffs/box?date=2024-01-05",
		PingEndpoint: "/ping",
		Token:        "secret-token",
		Timeout:      timeout,
	}, zaptest.NewLogger(t))
}

func TestFetchTariffs_Success(t *testing.T) {
	var gotAuth, gotAccept, gotRequestID, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotRequestID = r.Header.Get("X-Request-Id")
		gotQuery = r.URL.Query().Get("date")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{"data":{"dtNextBox":"2024-01-06"}}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, time.Second)
	resp, err := c.FetchTariffs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Len(t, gotRequestID, 36)
	assert.Equal(t, "2024-01-05", gotQuery)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, srv.URL+"/api/v1/tariffs/box?date=2024-01-05", resp.URL)
	assert.Equal(t, `{"response":{"data":{"dtNextBox":"2024-01-06"}}}`, resp.RawBody)
	payload, ok := resp.Payload.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, payload, "response")
	assert.False(t, resp.FetchedAt.IsZero())
}

func TestFetchTariffs_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv, time.Second).FetchTariffs(context.Background())
	require.NoError(t, err)
	assert.Nil(t, resp.Payload)
	assert.Equal(t, "", resp.RawBody)
}

func TestFetchTariffs_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"title":"unauthorized"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, time.Second).FetchTariffs(context.Background())
	var apiErr *ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Failed to fetch tariffs. Status 401", apiErr.Message)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, `{"title":"unauthorized"}`, apiErr.RawBody)
	assert.False(t, apiErr.IsTimeout())
}

func TestFetchTariffs_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, time.Second).FetchTariffs(context.Background())
	var apiErr *ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Tariffs response is not valid JSON", apiErr.Message)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Equal(t, `<html>oops</html>`, apiErr.RawBody)
}

func TestFetchTariffs_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestClient(t, srv, 50*time.Millisecond).FetchTariffs(context.Background())
	var apiErr *ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Tariffs request timed out", apiErr.Message)
	assert.Equal(t, StatusTimeout, apiErr.StatusCode)
	assert.True(t, apiErr.IsTimeout())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestFetchTariffs_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url, Endpoint: "/x", Timeout: time.Second}, zaptest.NewLogger(t))
	_, err := c.FetchTariffs(context.Background())
	var apiErr *ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Unexpected error while calling tariffs API", apiErr.Message)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestPing(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, time.Second)
	require.NoError(t, c.Ping(context.Background()))

	status = http.StatusServiceUnavailable
	err := c.Ping(context.Background())
	var apiErr *ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestRequestGapWaitsAfterCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, time.Second)
	c.cfg.RequestGap = 80 * time.Millisecond

	start := time.Now()
	_, err := c.FetchTariffs(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}
