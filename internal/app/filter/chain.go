package filter

import (
	"context"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the candidate.
// Filters are only applied if they declare they apply to the candidate's origin.
func (c *Chain) Execute(ctx context.Context, candidate Candidate) Result {
	for _, f := range c.filters {
		if !f.AppliesTo(candidate.Origin) {
			continue
		}

		result := f.Check(ctx, candidate)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Reset clears per-selection state before a new selection is filtered.
func (c *Chain) Reset() {
	for _, f := range c.filters {
		if r, ok := f.(Resetter); ok {
			r.Reset()
		}
	}
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
