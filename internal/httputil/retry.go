// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across harvest stages.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"
)

// RetryDelay is the fixed pause between attempts after a server-side
// failure. Tests override this to avoid real sleeps.
var RetryDelay = 60 * time.Second

const defaultMaxRetries = 6

// DoWithRetry executes an HTTP request and retries on 5xx responses with a
// fixed delay between attempts. Transient server errors during pagination
// follow-ups are the only retryable failures in the harvesting engine;
// everything else passes through to the caller unchanged.
//
// When maxAttempts is 0 the default (6) is used. On each 5xx the response
// body is drained and closed before sleeping. If the context is cancelled
// during a wait the function returns ctx.Err(). After exhausting attempts
// the last 5xx response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxAttempts int) (*http.Response, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}

		// Exhausted attempts — return the 5xx response as-is.
		if attempt >= maxAttempts-1 {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(RetryDelay):
		}
	}
}
