package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FXCast/pkg/util"

	mic "github.com/scmhub/calendar"
)

// ExchangeMarket binds a market id to an exchange MIC and its timezone.
type ExchangeMarket struct {
	ID       string
	Exchange string
	Zone     string
}

type exchangeEntry struct {
	cal *mic.Calendar
	loc *time.Location
}

// Exchange answers business-day questions from published exchange holiday calendars.
// Markets without an exchange follow the weekend rule.
type Exchange struct {
	markets map[string]exchangeEntry
}

// NewExchange builds calendars for every market that names an exchange.
func NewExchange(markets []ExchangeMarket) (*Exchange, error) {
	e := &Exchange{markets: make(map[string]exchangeEntry, len(markets))}
	for _, m := range markets {
		if m.Exchange == "" {
			continue
		}
		cal, err := exchangeCalendar(m.Exchange)
		if err != nil {
			return nil, fmt.Errorf("market %s: %w", m.ID, err)
		}
		loc, err := time.LoadLocation(m.Zone)
		if err != nil {
			return nil, fmt.Errorf("market %s: load zone: %w", m.ID, err)
		}
		e.markets[marketKey(m.ID)] = exchangeEntry{cal: cal, loc: loc}
	}
	return e, nil
}

func exchangeCalendar(code string) (*mic.Calendar, error) {
	switch strings.ToUpper(code) {
	case "XNYS":
		return mic.XNYS(), nil
	case "XLON":
		return mic.XLON(), nil
	case "XTKS":
		return mic.XTKS(), nil
	default:
		return nil, fmt.Errorf("unsupported exchange %q", code)
	}
}

func (e *Exchange) IsBusinessDay(_ context.Context, date time.Time, market string) (bool, error) {
	d := util.CivilDate(date)
	entry, ok := e.markets[marketKey(market)]
	if !ok {
		return !util.IsWeekend(d), nil
	}
	// noon on the civil date in the exchange's zone
	t := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, entry.loc)
	return entry.cal.IsBusinessDay(t), nil
}

func (e *Exchange) AdvanceBusinessDays(ctx context.Context, date time.Time, count int, market string) (time.Time, error) {
	return advance(ctx, date, count, func(ctx context.Context, d time.Time) (bool, error) {
		return e.IsBusinessDay(ctx, d, market)
	})
}

func (e *Exchange) Available() bool { return true }
