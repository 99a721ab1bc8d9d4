package loader

import (
	"context"

	"github.com/odyssey-erp/ticketdash/internal/tickets"
)

// Source binds a Loader to one dataset path.
type Source struct {
	loader *Loader
	path   string
}

// NewSource returns a Source reading path through l.
func NewSource(l *Loader, path string) *Source {
	return &Source{loader: l, path: path}
}

// Path returns the configured dataset path.
func (s *Source) Path() string { return s.path }

// Dataset returns the memoized table for the configured path.
func (s *Source) Dataset(ctx context.Context) (*tickets.Table, error) {
	return s.loader.Load(ctx, s.path)
}

// Reload drops memoized tables and parses the dataset again.
func (s *Source) Reload(ctx context.Context) (*tickets.Table, error) {
	s.loader.Invalidate()
	return s.loader.Load(ctx, s.path)
}
