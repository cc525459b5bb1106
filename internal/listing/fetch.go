package listing

import (
	"context"

	"marketview/internal/domain"
)

// Fetch is the handle of one load request. It is cancelled when the view
// goes away or a newer load begins; its result is then discarded.
type Fetch struct {
	ctx    context.Context
	cancel context.CancelFunc
	gen    uint64
}

// Context is cancelled once the fetch is superseded or the view is closed.
func (f *Fetch) Context() context.Context { return f.ctx }

// Cancel releases the fetch; Apply will refuse its result.
func (f *Fetch) Cancel() { f.cancel() }

// Begin starts a load tied to parent and supersedes any earlier one.
func (c *Controller) Begin(parent context.Context) *Fetch {
	ctx, cancel := context.WithCancel(parent)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.cancel()
	}
	c.gen++
	f := &Fetch{ctx: ctx, cancel: cancel, gen: c.gen}
	c.current = f
	return f
}

// Apply installs the result of f unless f was superseded or cancelled.
func (c *Controller) Apply(f *Fetch, products []domain.Product) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f == nil || f.gen != c.gen || f.ctx.Err() != nil {
		return false
	}
	c.load(products)
	c.current = nil
	f.cancel()
	return true
}

// Load runs fetch under a fresh handle and applies its result. applied is
// false when the result arrived for a view that had moved on.
func (c *Controller) Load(ctx context.Context, fetch func(context.Context) ([]domain.Product, error)) (applied bool, err error) {
	f := c.Begin(ctx)
	products, err := fetch(f.Context())
	if err != nil {
		f.Cancel()
		return false, err
	}
	return c.Apply(f, products), nil
}
