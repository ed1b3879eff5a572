package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/bmsinventoryspace-netizen/BMS/internal/domain"
)

// Client is the session's view of the Article Service: it fetches the public
// article list and keeps the last snapshot in memory. A refresh wholly
// replaces the prior snapshot; articles missing from a new refresh are gone.
type Client struct {
	baseURL string
	http    *http.Client
	sfg     singleflight.Group // collapses concurrent refreshes

	gen atomic.Uint64

	mu        sync.RWMutex
	installed uint64
	items     map[int64]domain.CatalogItem
	order     []int64
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
		items: make(map[int64]domain.CatalogItem),
	}
}

// Refresh pulls the public article list and replaces the snapshot. A response
// belonging to a superseded refresh is discarded without touching the
// snapshot, so snapshots never move backwards.
func (c *Client) Refresh(ctx context.Context) ([]domain.CatalogItem, error) {
	gen := c.gen.Add(1)

	v, err, _ := c.sfg.Do("refresh", func() (interface{}, error) {
		return c.fetchPublic(ctx)
	})
	if err != nil {
		return nil, err
	}

	items := v.([]domain.CatalogItem)
	c.install(gen, items)
	return items, nil
}

func (c *Client) fetchPublic(ctx context.Context) ([]domain.CatalogItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/articles/public", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}

	var items []domain.CatalogItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrFetch, err)
	}
	return items, nil
}

func (c *Client) install(gen uint64, items []domain.CatalogItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen <= c.installed {
		return // a newer refresh already landed
	}
	c.installed = gen

	m := make(map[int64]domain.CatalogItem, len(items))
	order := make([]int64, 0, len(items))
	for _, it := range items {
		m[it.ID] = it
		order = append(order, it.ID)
	}
	c.items = m
	c.order = order
}

// Get looks an article up in the current snapshot.
func (c *Client) Get(id int64) (domain.CatalogItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[id]
	if !ok {
		return domain.CatalogItem{}, ErrItemNotFound
	}
	return item, nil
}

// Items returns the current snapshot in upstream order.
func (c *Client) Items() []domain.CatalogItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.CatalogItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// TrackView bumps the article's view counter on the Article Service. Fire and
// forget: the result is discarded and failure never reaches the caller.
func (c *Client) TrackView(id int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		url := fmt.Sprintf("%s/api/articles/%d/view", c.baseURL, id)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
		if err != nil {
			return
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
}
