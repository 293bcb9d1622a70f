package contacts

import (
	"context"
	"errors"

	"github.com/wolfman30/wellness-companion/pkg/logging"
)

// Source records where a resolved contact came from.
type Source string

const (
	SourceStore   Source = "store"
	SourceSeeded  Source = "seeded"
	SourceDefault Source = "default"
)

// ActiveStore is the subset of Store the resolver needs.
type ActiveStore interface {
	Active(ctx context.Context) (*EmergencyContact, error)
	SeedDefault(ctx context.Context, c EmergencyContact) (*EmergencyContact, error)
}

// Resolution is the outcome of a lookup. Err is set when the store failed and
// the unpersisted default was used instead.
type Resolution struct {
	Contact EmergencyContact
	Source  Source
	Err     error
}

// Resolver finds the active contact, seeding the configured default when none
// exists. A default with no name or no reachable address is never seeded.
type Resolver struct {
	store    ActiveStore
	fallback EmergencyContact
	logger   *logging.Logger
}

// NewResolver builds a resolver. A nil store always yields the default.
func NewResolver(store ActiveStore, fallback EmergencyContact, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	fallback = fallback.Normalize()
	fallback.IsActive = true
	return &Resolver{store: store, fallback: fallback, logger: logger}
}

// Default returns the configured contact.
func (r *Resolver) Default() EmergencyContact {
	return r.fallback
}

// Resolve never fails; store problems degrade to the configured default.
func (r *Resolver) Resolve(ctx context.Context) Resolution {
	if r == nil {
		return Resolution{Source: SourceDefault}
	}
	if r.store == nil {
		return Resolution{Contact: r.fallback, Source: SourceDefault}
	}

	contact, err := r.store.Active(ctx)
	if err == nil {
		return Resolution{Contact: *contact, Source: SourceStore}
	}
	if !errors.Is(err, ErrNotFound) {
		r.logger.Warn("emergency contact lookup failed, using default", "error", err)
		return Resolution{Contact: r.fallback, Source: SourceDefault, Err: err}
	}

	if r.fallback.Validate() != nil {
		return Resolution{Contact: r.fallback, Source: SourceDefault}
	}
	seeded, err := r.store.SeedDefault(ctx, r.fallback)
	if err != nil {
		r.logger.Warn("emergency contact seeding failed, using default", "error", err)
		return Resolution{Contact: r.fallback, Source: SourceDefault, Err: err}
	}
	r.logger.Info("seeded default emergency contact", "name", seeded.Name)
	return Resolution{Contact: *seeded, Source: SourceSeeded}
}
