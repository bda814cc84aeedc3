package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

var fastRetry = RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     2 * time.Millisecond,
	Multiplier:   2,
}

func getFactory(url string) RequestFactory {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestDoWithRetry_RecoversFromServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	resp, err := DoWithRetry(context.Background(), srv.Client(), getFactory(srv.URL), fastRetry, nil)
	if err != nil {
		t.Fatalf("DoWithRetry() error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestDoWithRetry_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := DoWithRetry(context.Background(), srv.Client(), getFactory(srv.URL), fastRetry, nil)
	var mcpErr *MCPError
	if !errors.As(err, &mcpErr) || mcpErr.Code != string(ErrServiceError) {
		t.Fatalf("error = %v, want %s", err, ErrServiceError)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestDoWithRetry_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := DoWithRetry(context.Background(), nil, getFactory(url), fastRetry, nil)
	var mcpErr *MCPError
	if !errors.As(err, &mcpErr) || mcpErr.Code != string(ErrNetworkError) {
		t.Fatalf("error = %v, want %s", err, ErrNetworkError)
	}
}

func TestDoWithRetry_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := fastRetry
	opts.InitialDelay = time.Hour
	_, err := DoWithRetry(ctx, srv.Client(), getFactory(srv.URL), opts, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestDoWithRetry_FactoryError(t *testing.T) {
	factory := func(ctx context.Context) (*http.Request, error) {
		return nil, errors.New("bad url")
	}
	_, err := DoWithRetry(context.Background(), nil, factory, fastRetry, nil)
	var mcpErr *MCPError
	if !errors.As(err, &mcpErr) || mcpErr.Code != string(ErrInternalError) {
		t.Fatalf("error = %v, want %s", err, ErrInternalError)
	}
}

func TestRetryOptionsNext(t *testing.T) {
	opts := RetryOptions{Multiplier: 2, MaxDelay: 3 * time.Second}
	if got := opts.next(time.Second); got != 2*time.Second {
		t.Errorf("next(1s) = %v, want 2s", got)
	}
	if got := opts.next(2 * time.Second); got != 3*time.Second {
		t.Errorf("next(2s) = %v, want 3s (capped)", got)
	}
}
