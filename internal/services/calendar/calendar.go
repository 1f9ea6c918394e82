package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FXCast/internal/domain/models"
	"FXCast/pkg/util"
)

type businessDayFunc func(ctx context.Context, date time.Time) (bool, error)

// advance steps forward one civil day at a time, counting only business days.
// The start date itself is never counted; count 0 returns the input untouched.
func advance(ctx context.Context, date time.Time, count int, isBusiness businessDayFunc) (time.Time, error) {
	if count < 0 {
		return time.Time{}, fmt.Errorf("%w: negative business-day count %d", models.ErrInvalidRequest, count)
	}
	if count == 0 {
		return date, nil
	}

	d := util.CivilDate(date)
	// a year of consecutive holidays means the data is broken
	limit := count*7 + 366
	for steps := 0; count > 0; steps++ {
		if steps >= limit {
			return time.Time{}, fmt.Errorf("%w: no business day within %d days", models.ErrCalendarUnavailable, limit)
		}
		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}
		d = d.AddDate(0, 0, 1)
		ok, err := isBusiness(ctx, d)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			count--
		}
	}
	return d, nil
}

func marketKey(market string) string {
	return strings.ToLower(strings.TrimSpace(market))
}

// Weekend treats every Monday-Friday as a business day.
type Weekend struct{}

// NewWeekend returns the weekend-only calendar.
func NewWeekend() *Weekend { return &Weekend{} }

func (Weekend) IsBusinessDay(_ context.Context, date time.Time, _ string) (bool, error) {
	return !util.IsWeekend(util.CivilDate(date)), nil
}

func (w Weekend) AdvanceBusinessDays(ctx context.Context, date time.Time, count int, market string) (time.Time, error) {
	return advance(ctx, date, count, func(ctx context.Context, d time.Time) (bool, error) {
		return w.IsBusinessDay(ctx, d, market)
	})
}

func (Weekend) Available() bool { return true }

// Unavailable is the provider used when no calendar source is configured.
type Unavailable struct {
	Reason string
}

func (u Unavailable) IsBusinessDay(context.Context, time.Time, string) (bool, error) {
	return false, u.err()
}

func (u Unavailable) AdvanceBusinessDays(context.Context, time.Time, int, string) (time.Time, error) {
	return time.Time{}, u.err()
}

func (Unavailable) Available() bool { return false }

func (u Unavailable) err() error {
	if u.Reason == "" {
		return models.ErrCalendarUnavailable
	}
	return fmt.Errorf("%w: %s", models.ErrCalendarUnavailable, u.Reason)
}
