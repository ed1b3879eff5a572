package notify

import (
	"context"
	"sync"

	"github.com/bmsinventoryspace-netizen/BMS/internal/domain"
)

// Channel fans push sources and the poll reconciler into a single badge.
// Push is preferred; the reconciler always runs for privileged sessions and
// tolerates redundant positives, so the two never need coordination beyond
// the badge's own idempotence.
type Channel struct {
	badge      Badge
	sources    []DealSource
	reconciler *Reconciler

	wg sync.WaitGroup
}

func NewChannel(badge Badge, reconciler *Reconciler, sources ...DealSource) *Channel {
	return &Channel{badge: badge, sources: sources, reconciler: reconciler}
}

// Start launches every source and the reconciler. A source that dies stays
// dead until the next session; the reconciler covers the gap.
func (c *Channel) Start(ctx context.Context) {
	handler := func(ev domain.DealEvent) {
		c.badge.Observe(ev.ObservedAt)
	}

	for _, src := range c.sources {
		src := src
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			src.Run(ctx, handler)
		}()
	}

	if c.reconciler != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.reconciler.Run(ctx)
		}()
	}
}

// Wait blocks until all sources and the reconciler have stopped.
func (c *Channel) Wait() {
	c.wg.Wait()
}
