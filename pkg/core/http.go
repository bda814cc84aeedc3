package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/co2mcp/pkg/tracing"
)

// RetryOptions configures backoff for outbound HTTP calls
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions are used by the registry client
var DefaultRetryOptions = RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2.0,
}

// RequestFactory builds a fresh request for every attempt so bodies can be replayed.
type RequestFactory func(ctx context.Context) (*http.Request, error)

// next returns the delay that follows d.
func (o RetryOptions) next(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * o.Multiplier)
	if o.MaxDelay > 0 && d > o.MaxDelay {
		d = o.MaxDelay
	}
	return d
}

// DoWithRetry executes requests from factory until one returns a 2xx status.
// 4xx responses other than 429 are returned as errors without retrying.
// The caller owns the body of the returned response.
func DoWithRetry(ctx context.Context, client *http.Client, factory RequestFactory, opts RetryOptions, logger *slog.Logger) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	ctx, span := tracing.StartSpan(ctx, "http.retry",
		trace.WithAttributes(attribute.Int("http.retry.max_attempts", opts.MaxAttempts)),
	)
	defer span.End()

	var lastErr error
	delay := opts.InitialDelay

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			tracing.AddEvent(ctx, "retry_attempt", trace.WithAttributes(
				attribute.Int("attempt", attempt),
				attribute.Int64("delay_ms", delay.Milliseconds()),
			))
			logger.Debug("retrying request", "attempt", attempt, "delay", delay, "last_error", lastErr)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				span.SetStatus(codes.Error, "request cancelled")
				return nil, ctx.Err()
			}
			delay = opts.next(delay)
		}

		req, err := factory(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "request build failed")
			return nil, NewError(ErrInternalError, fmt.Sprintf("failed to build request: %v", err))
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			span.SetAttributes(
				attribute.String(tracing.AttrHTTPMethod, req.Method),
				attribute.Int(tracing.AttrHTTPStatusCode, resp.StatusCode),
				attribute.Int("http.retry.attempts", attempt),
			)
			span.SetStatus(codes.Ok, "")
			return resp, nil
		}

		resp.Body.Close()
		lastErr = NewError(ErrServiceError, fmt.Sprintf("%s %s returned status %d", req.Method, req.URL.Path, resp.StatusCode))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "retries exhausted")

	if mcpErr, ok := lastErr.(*MCPError); ok {
		return nil, mcpErr
	}
	return nil, NewError(ErrNetworkError, fmt.Sprintf("request failed: %v", lastErr)).
		WithGuidance("The remote service could not be reached; it will be retried on the next cycle")
}
