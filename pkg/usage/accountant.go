package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/prepdeck/prepdeck/pkg/logger"
)

// Store counts domain records. Implementations return ErrCounterUnsupported
// for counters they have no data source for.
type Store interface {
	Count(ctx context.Context, counter Counter, userID uuid.UUID, since time.Time) (int64, error)
}

// Accountant answers usage questions for the entitlement layer.
type Accountant struct {
	store Store
	log   *slog.Logger
}

// AccountantOption configures an Accountant.
type AccountantOption func(*Accountant)

// WithLogger sets the logger used to report storage failures.
func WithLogger(l *slog.Logger) AccountantOption {
	return func(a *Accountant) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAccountant creates an Accountant reading from store.
func NewAccountant(store Store, opts ...AccountantOption) *Accountant {
	if store == nil {
		panic("usage: store is required")
	}
	a := &Accountant{
		store: store,
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Count returns how many records of the counter's kind userID created at or
// after periodStart. A failing store yields ErrStorageUnavailable, never zero.
func (a *Accountant) Count(ctx context.Context, userID uuid.UUID, counter Counter, periodStart time.Time) (int64, error) {
	if !counter.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCounter, counter)
	}

	n, err := a.store.Count(ctx, counter, userID, periodStart)
	switch {
	case errors.Is(err, ErrCounterUnsupported):
		return 0, fmt.Errorf("%w: %q", ErrCounterUnsupported, counter)
	case err != nil:
		a.log.ErrorContext(ctx, "usage count failed",
			logger.UserID(userID.String()),
			logger.Counter(string(counter)),
			logger.Error(err),
		)
		return 0, errors.Join(ErrStorageUnavailable, err)
	case n < 0:
		return 0, errors.Join(ErrStorageUnavailable, fmt.Errorf("negative count %d for %q", n, counter))
	}
	return n, nil
}

// CountAll reads several counters concurrently. The first failure cancels the
// remaining reads and is returned.
func (a *Accountant) CountAll(ctx context.Context, userID uuid.UUID, counters []Counter, periodStart time.Time) (map[Counter]int64, error) {
	results := make([]int64, len(counters))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range counters {
		g.Go(func() error {
			n, err := a.Count(gctx, userID, c, periodStart)
			if err != nil {
				return err
			}
			results[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[Counter]int64, len(counters))
	for i, c := range counters {
		out[c] = results[i]
	}
	return out, nil
}
