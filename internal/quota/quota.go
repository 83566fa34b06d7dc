// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quota tracks the two independent GitHub rate pools ("search" and
// "core") and blocks the harvesting pass while an exhausted pool resets.
// Quota exhaustion is not an error: callers only see a delay, never a
// failure. The politeness delay between successive calls on a pool is a
// separate concern applied by the caller after each call.
package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Pool names as reported by the rate-limit endpoint.
const (
	PoolSearch = "search"
	PoolCore   = "core"
)

// UnknownRemaining is the sentinel for "no remaining-count information from
// a preceding call"; it forces a fresh quota query.
const UnknownRemaining = -1

// SafetyMargin is added on top of the reported reset time before resuming.
// Tests override this to avoid real sleeps.
var SafetyMargin = 2 * time.Second

// Politeness delays between successive calls on a pool, chosen so a full
// pass generates a constant load just under the documented limits
// (search: 30/min with token, 10/min without; core: 5000/h with token,
// 60/h without).
const (
	searchDelayAuth = 2 * time.Second
	searchDelayAnon = 6 * time.Second
	coreDelayAuth   = 600 * time.Millisecond
	coreDelayAnon   = 60 * time.Second
)

// Tracker queries the provider's quota endpoint and sleeps through resets.
// The two pools never share budget and are tracked independently.
type Tracker struct {
	client        *http.Client
	rateURL       string
	header        http.Header
	authenticated bool
	logger        *log.Logger
}

// NewTracker returns a tracker for the quota endpoint at rateURL. The
// header is sent verbatim on every quota query (media type and, when
// present, the authorization token). authenticated selects the shorter
// politeness delays.
func NewTracker(client *http.Client, rateURL string, header http.Header, authenticated bool, logger *log.Logger) *Tracker {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Tracker{
		client:        client,
		rateURL:       rateURL,
		header:        header,
		authenticated: authenticated,
		logger:        logger,
	}
}

// SearchDelay returns the pause the caller applies between two search calls.
func (t *Tracker) SearchDelay() time.Duration {
	if t.authenticated {
		return searchDelayAuth
	}
	return searchDelayAnon
}

// CoreDelay returns the pause the caller applies after a core call.
func (t *Tracker) CoreDelay() time.Duration {
	if t.authenticated {
		return coreDelayAuth
	}
	return coreDelayAnon
}

type rateLimitResponse struct {
	Resources map[string]poolState `json:"resources"`
}

type poolState struct {
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// CheckAndWait blocks until the pool has budget again. With a positive
// remaining hint it returns immediately; with the UnknownRemaining sentinel
// or zero it queries the quota endpoint, and if the provider reports an
// exhausted pool it sleeps until the reported reset plus SafetyMargin.
// The wait can span the pool's full reset window (up to an hour for
// unauthenticated core access) and is interrupted only by ctx.
func (t *Tracker) CheckAndWait(ctx context.Context, pool string, remaining int) error {
	if remaining != UnknownRemaining && remaining != 0 {
		return nil
	}

	state, err := t.query(ctx, pool)
	if err != nil {
		return err
	}
	if state.Remaining > 0 {
		return nil
	}

	wait := time.Until(time.Unix(state.Reset, 0)) + SafetyMargin
	if wait <= 0 {
		return nil
	}
	t.logger.Info("waiting for rate limit reset", "pool", pool, "wait", wait.Round(time.Second))
	return Sleep(ctx, wait)
}

func (t *Tracker) query(ctx context.Context, pool string) (poolState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.rateURL, nil)
	if err != nil {
		return poolState{}, fmt.Errorf("creating quota request: %w", err)
	}
	for k, vs := range t.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return poolState{}, fmt.Errorf("quota request: %w", err)
	}
	defer resp.Body.Close()

	var rl rateLimitResponse
	if err := json.NewDecoder(resp.Body).Decode(&rl); err != nil {
		return poolState{}, fmt.Errorf("parsing quota response: %w", err)
	}
	state, ok := rl.Resources[pool]
	if !ok {
		return poolState{}, fmt.Errorf("quota response has no %q pool", pool)
	}
	return state, nil
}

// ValidToken reports whether the token is accepted by the quota endpoint.
// An empty token is never valid.
func ValidToken(ctx context.Context, client *http.Client, rateURL, token string) bool {
	if token == "" {
		return false
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rateURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "token "+token)

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Sleep pauses for d with context cancellation support.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
