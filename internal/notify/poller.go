package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultPollInterval is how often the reconciler checks the Deal Service.
const DefaultPollInterval = 20 * time.Second

type polledDeal struct {
	ID   string `json:"id"`
	Date string `json:"date"`
}

// Reconciler covers the gap when push delivery is unavailable or was missed:
// every interval it fetches the newest deal's timestamp and flags the badge
// if it postdates the last acknowledgment. It is a reconciliation mechanism,
// not the primary channel, so redundant positives are fine and every failure
// is swallowed. The fetch runs behind a circuit breaker so a dead Deal
// Service is skipped instead of hammered.
type Reconciler struct {
	baseURL  string
	token    string
	interval time.Duration
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[[]polledDeal]

	badge Badge

	// viewing reports whether the deals screen is currently open; no badge
	// while the user is already looking at it.
	viewing func() bool
}

func NewReconciler(baseURL, token string, interval time.Duration, badge Badge, viewing func() bool) *Reconciler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if viewing == nil {
		viewing = func() bool { return false }
	}
	return &Reconciler{
		baseURL:  baseURL,
		token:    token,
		interval: interval,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker[[]polledDeal](gobreaker.Settings{
			Name: "deal-poll",
		}),
		badge:   badge,
		viewing: viewing,
	}
}

// Run polls until ctx is cancelled. An initial check fires immediately so a
// fresh session catches up without waiting a full interval.
func (r *Reconciler) Run(ctx context.Context) {
	r.check(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reconciler) check(ctx context.Context) {
	deals, err := r.breaker.Execute(func() ([]polledDeal, error) {
		return r.fetchDeals(ctx)
	})
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("deal poll: check skipped: %v", err)
		}
		return
	}
	if len(deals) == 0 {
		return
	}

	// Deals arrive newest first.
	newest, err := parseDealDate(deals[0].Date)
	if err != nil {
		return
	}

	if newest.After(r.badge.LastAcknowledgedAt()) && !r.viewing() {
		r.badge.Observe(newest)
	}
}

func (r *Reconciler) fetchDeals(ctx context.Context) ([]polledDeal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/deals", nil)
	if err != nil {
		return nil, err
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("deal service returned status %d", resp.StatusCode)
	}

	var deals []polledDeal
	if err := json.NewDecoder(resp.Body).Decode(&deals); err != nil {
		return nil, err
	}
	return deals, nil
}

func parseDealDate(s string) (time.Time, error) {
	if at, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return at, nil
	}
	return time.Parse(time.RFC3339, s)
}
