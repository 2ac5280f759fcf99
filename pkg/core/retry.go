package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/NERVsystems/tripmcp/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RetryOptions configures exponential backoff for outbound HTTP calls
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions suit short control-plane calls such as registry heartbeats
var DefaultRetryOptions = RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 250 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2.0,
}

// StatusError is a non-2xx reply. Body holds at most the first 512 bytes.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP status %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the status is worth retrying
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// RequestFactory builds a fresh request for each attempt so bodies can be resent
type RequestFactory func(ctx context.Context) (*http.Request, error)

// DoWithRetry sends the request built by factory until it gets a 2xx reply,
// a non-retryable status, or runs out of attempts. On success the caller
// owns the response body.
func DoWithRetry(ctx context.Context, client *http.Client, factory RequestFactory, options RetryOptions) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if options.MaxAttempts < 1 {
		options.MaxAttempts = 1
	}

	ctx, span := tracing.StartSpan(ctx, "http.client.retry",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("http.retry.max_attempts", options.MaxAttempts)),
	)
	defer span.End()

	logger := slog.Default()
	delay := options.InitialDelay
	var lastErr error

	for attempt := 0; attempt < options.MaxAttempts; attempt++ {
		if attempt > 0 {
			tracing.AddEvent(ctx, "retry_attempt",
				trace.WithAttributes(
					attribute.Int("attempt", attempt+1),
					attribute.Int64("delay_ms", delay.Milliseconds()),
				),
			)
			logger.Debug("retrying request",
				"attempt", attempt+1,
				"max_attempts", options.MaxAttempts,
				"delay", delay,
				"last_error", lastErr)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				span.SetStatus(codes.Error, "request cancelled")
				return nil, ctx.Err()
			}

			delay = time.Duration(float64(delay) * options.Multiplier)
			if delay > options.MaxDelay {
				delay = options.MaxDelay
			}
		}

		req, err := factory(ctx)
		if err != nil {
			// A request that cannot be built will not build on the next attempt either
			span.SetStatus(codes.Error, "request creation failed")
			return nil, fmt.Errorf("building request: %w", err)
		}
		span.SetAttributes(
			attribute.String(tracing.AttrHTTPMethod, req.Method),
			attribute.String("http.url", req.URL.String()),
		)

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			span.SetAttributes(
				attribute.Int(tracing.AttrHTTPStatusCode, resp.StatusCode),
				attribute.Int("http.retry.attempts", attempt+1),
			)
			span.SetStatus(codes.Ok, "")
			return resp, nil
		}

		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		lastErr = statusErr
		if !statusErr.Temporary() {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "request failed")

	var statusErr *StatusError
	if errors.As(lastErr, &statusErr) && !statusErr.Temporary() {
		return nil, statusErr
	}
	return nil, fmt.Errorf("after %d attempts: %w", options.MaxAttempts, lastErr)
}
