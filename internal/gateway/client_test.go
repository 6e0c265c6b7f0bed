package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamapay/wallet/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(baseURL string) config.GatewayConfig {
	return config.GatewayConfig{
		BaseURL:               baseURL,
		Username:              "user",
		Password:              "pass",
		Timeout:               time.Second,
		MaxAttempts:           3,
		BackoffBase:           time.Millisecond,
		BackoffCap:            5 * time.Millisecond,
		TokenRefreshThreshold: 5 * time.Minute,
	}
}

func writeToken(w http.ResponseWriter, token string) {
	//nolint:errcheck
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func TestClient_TokenCachedAcrossCalls(t *testing.T) {
	var tokenCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token/":
			tokenCalls.Add(1)
			writeToken(w, "tok1")
		default:
			assert.Equal(t, "Token tok1", r.Header.Get("Authorization"))
			//nolint:errcheck
			json.NewEncoder(w).Encode(map[string]string{"reference": "ext-1", "status": "PENDING"})
		}
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), testLogger())

	for range 3 {
		result, err := client.QueryStatus(context.Background(), "ext-1")
		require.NoError(t, err)
		assert.Equal(t, "PENDING", result.Status)
	}

	assert.Equal(t, int32(1), tokenCalls.Load(), "cached token should be reused")
}

func TestClient_TokenRefreshedAfterThreshold(t *testing.T) {
	var tokenCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/" {
			tokenCalls.Add(1)
			writeToken(w, "tok")
			return
		}
		//nolint:errcheck
		json.NewEncoder(w).Encode(map[string]string{"status": "PENDING"})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.TokenRefreshThreshold = 10 * time.Millisecond
	client := NewClient(cfg, testLogger())

	_, err := client.QueryStatus(context.Background(), "ext-1")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = client.QueryStatus(context.Background(), "ext-1")
	require.NoError(t, err)

	assert.Equal(t, int32(2), tokenCalls.Load(), "stale token should be refreshed")
}

func TestClient_ConcurrentCallersShareOneRefresh(t *testing.T) {
	var tokenCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/" {
			tokenCalls.Add(1)
			time.Sleep(20 * time.Millisecond)
			writeToken(w, "tok")
			return
		}
		//nolint:errcheck
		json.NewEncoder(w).Encode(map[string]string{"status": "PENDING"})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), testLogger())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := client.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok", token)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), tokenCalls.Load(), "concurrent callers must collapse into one refresh")
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var statusCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/" {
			writeToken(w, "tok")
			return
		}
		if statusCalls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		//nolint:errcheck
		json.NewEncoder(w).Encode(map[string]string{"status": "SUCCESSFUL"})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), testLogger())

	result, err := client.QueryStatus(context.Background(), "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESSFUL", result.Status)
	assert.Equal(t, int32(3), statusCalls.Load())
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var statusCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/" {
			writeToken(w, "tok")
			return
		}
		statusCalls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), testLogger())

	_, err := client.QueryStatus(context.Background(), "ext-1")
	require.Error(t, err)

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindUnavailable, gwErr.Kind)
	assert.True(t, gwErr.Retryable())
	assert.Equal(t, int32(3), statusCalls.Load())
}

func TestClient_ClampsMaxAttemptsToOne(t *testing.T) {
	var statusCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/" {
			writeToken(w, "tok")
			return
		}
		statusCalls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxAttempts = 0
	client := NewClient(cfg, testLogger())

	_, err := client.QueryStatus(context.Background(), "ext-1")
	require.Error(t, err)

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindUnavailable, gwErr.Kind)
	assert.Equal(t, int32(1), statusCalls.Load())
}

func TestClient_DoesNotRetryRejection(t *testing.T) {
	var collectCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/" {
			writeToken(w, "tok")
			return
		}
		collectCalls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		//nolint:errcheck
		w.Write([]byte(`{"message":"invalid phone"}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), testLogger())

	_, err := client.QueryStatus(context.Background(), "ext-1")
	require.Error(t, err)

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindRejected, gwErr.Kind)
	assert.False(t, gwErr.Retryable())
	assert.Contains(t, gwErr.Body, "invalid phone")
	assert.Equal(t, int32(1), collectCalls.Load(), "rejections must not be retried")
}

func TestClient_RefreshesTokenOn401AndReplays(t *testing.T) {
	var tokenCalls, statusCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/" {
			n := tokenCalls.Add(1)
			if n == 1 {
				writeToken(w, "stale")
			} else {
				writeToken(w, "fresh")
			}
			return
		}
		statusCalls.Add(1)
		if r.Header.Get("Authorization") == "Token stale" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		//nolint:errcheck
		json.NewEncoder(w).Encode(map[string]string{"status": "SUCCESSFUL"})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), testLogger())

	result, err := client.QueryStatus(context.Background(), "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESSFUL", result.Status)
	assert.Equal(t, int32(2), tokenCalls.Load())
	assert.Equal(t, int32(2), statusCalls.Load(), "request should be replayed once with a fresh token")
}

func TestClient_ClassifiesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/" {
			writeToken(w, "tok")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 20 * time.Millisecond
	cfg.MaxAttempts = 1
	client := NewClient(cfg, testLogger())

	_, err := client.QueryStatus(context.Background(), "ext-1")
	require.Error(t, err)

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindTimeout, gwErr.Kind)
	assert.True(t, gwErr.Retryable())
}

func TestClient_Backoff(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.BackoffBase = time.Second
	cfg.BackoffCap = 10 * time.Second
	client := NewClient(cfg, testLogger())

	for attempt := 1; attempt <= 8; attempt++ {
		delay := client.backoff(attempt)
		assert.GreaterOrEqual(t, delay, cfg.BackoffBase/2)
		assert.LessOrEqual(t, delay, cfg.BackoffCap)
	}
}
