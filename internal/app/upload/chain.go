package upload

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
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

// Build creates a chain from the enabled filters and their settings,
// keyed by filter name. Filters run in name order.
func Build(enabled map[string]map[string]any) (*Chain, error) {
	chain := NewChain()

	names := lo.Keys(enabled)
	sort.Strings(names)

	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			return nil, errors.Newf("unknown upload filter %q", name)
		}
		f := factory()
		if err := f.ValidateConfig(enabled[name]); err != nil {
			return nil, errors.Wrapf(err, "filter %s", name)
		}
		chain.Add(f)
		zlog.Debug().Msgf("upload filter enabled: %s", name)
	}
	return chain, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters that apply to the file's kind.
// Returns immediately if any filter rejects the file.
func (c *Chain) Execute(ctx context.Context, f File) Result {
	for _, filter := range c.filters {
		if !filter.AppliesTo(f.Kind) {
			continue
		}

		result := filter.Check(ctx, f)
		if !result.Accepted {
			zlog.Info().Msgf("upload rejected: file=%s filter=%s code=%s", f.Name, filter.Name(), result.Code)
			return result
		}
	}
	return Accept()
}

// Check runs the chain and converts a rejection into a *RejectedError.
func (c *Chain) Check(ctx context.Context, f File) error {
	if result := c.Execute(ctx, f); !result.Accepted {
		return &RejectedError{File: f.Name, Code: result.Code}
	}
	return nil
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
