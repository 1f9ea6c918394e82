package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FXCast/internal/domain/models"
	"FXCast/internal/domain/repository"
)

// Guarded bounds every call to the wrapped provider by a timeout.
// Expiry and any provider error surface as ErrCalendarUnavailable. A caller whose own
// context ends gets that context's error instead, which is not a provider failure.
type Guarded struct {
	inner   repository.CalendarProvider
	timeout time.Duration
}

// NewGuarded wraps inner; a non-positive timeout disables the bound.
func NewGuarded(inner repository.CalendarProvider, timeout time.Duration) *Guarded {
	return &Guarded{inner: inner, timeout: timeout}
}

func (g *Guarded) IsBusinessDay(ctx context.Context, date time.Time, market string) (bool, error) {
	return guard(ctx, g.timeout, func(ctx context.Context) (bool, error) {
		return g.inner.IsBusinessDay(ctx, date, market)
	})
}

func (g *Guarded) AdvanceBusinessDays(ctx context.Context, date time.Time, count int, market string) (time.Time, error) {
	return guard(ctx, g.timeout, func(ctx context.Context) (time.Time, error) {
		return g.inner.AdvanceBusinessDays(ctx, date, count, market)
	})
}

func (g *Guarded) Available() bool { return g.inner.Available() }

type result[T any] struct {
	val T
	err error
}

func guard[T any](parent context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if timeout <= 0 {
		v, err := fn(parent)
		return v, classify(parent, err)
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- result[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return zero, classify(parent, r.err)
		}
		return r.val, nil
	case <-ctx.Done():
		if err := parent.Err(); err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%w: %v", models.ErrCalendarUnavailable, ctx.Err())
	}
}

// classify maps a provider error to ErrCalendarUnavailable unless the caller gave up first.
func classify(parent context.Context, err error) error {
	if err == nil {
		return nil
	}
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if errors.Is(err, models.ErrCalendarUnavailable) || errors.Is(err, models.ErrInvalidRequest) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrCalendarUnavailable, err)
}
