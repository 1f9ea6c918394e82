package calendar

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"FXCast/pkg/util"
)

// MonthDay is a holiday that recurs on the same date every year.
type MonthDay struct {
	Month time.Month
	Day   int
}

// builtinHolidays are the fixed-date holidays of each holiday set.
var builtinHolidays = map[string][]MonthDay{
	"JP": {
		{time.January, 1},
		{time.February, 11},
		{time.April, 29},
		{time.May, 3},
		{time.May, 4},
		{time.May, 5},
		{time.December, 31},
	},
	"US": {
		{time.January, 1},
		{time.July, 4},
		{time.December, 25},
	},
	"UK": {
		{time.January, 1},
		{time.December, 25},
		{time.December, 26},
	},
}

type holidaySet struct {
	recurring map[MonthDay]struct{}
	dated     map[time.Time]string
}

func (h *holidaySet) contains(date time.Time) bool {
	if _, ok := h.recurring[MonthDay{date.Month(), date.Day()}]; ok {
		return true
	}
	_, ok := h.dated[date]
	return ok
}

// Static is a calendar backed by in-memory holiday tables keyed by holiday set.
// Markets without a holiday set follow the weekend rule.
type Static struct {
	mu      sync.RWMutex
	sets    map[string]*holidaySet
	markets map[string]string
}

// NewStatic builds a calendar from the built-in tables. markets maps market id to holiday set key.
func NewStatic(markets map[string]string) *Static {
	s := &Static{
		sets:    make(map[string]*holidaySet, len(builtinHolidays)),
		markets: make(map[string]string, len(markets)),
	}
	for key, days := range builtinHolidays {
		set := s.set(key)
		for _, md := range days {
			set.recurring[md] = struct{}{}
		}
	}
	for market, key := range markets {
		if key == "" {
			continue
		}
		s.markets[marketKey(market)] = strings.ToUpper(key)
	}
	return s
}

func (s *Static) set(key string) *holidaySet {
	key = strings.ToUpper(key)
	set, ok := s.sets[key]
	if !ok {
		set = &holidaySet{recurring: map[MonthDay]struct{}{}, dated: map[time.Time]string{}}
		s.sets[key] = set
	}
	return set
}

// AddHolidays merges dated holidays into the tables.
func (s *Static) AddHolidays(holidays []Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range holidays {
		if h.Set == "" {
			return fmt.Errorf("holiday %q: set is required", h.Date)
		}
		d, err := time.Parse(time.DateOnly, h.Date)
		if err != nil {
			return fmt.Errorf("holiday %q: %w", h.Date, err)
		}
		s.set(h.Set).dated[d] = h.Name
	}
	return nil
}

// IsHoliday reports whether date is a holiday for market.
func (s *Static) IsHoliday(date time.Time, market string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.markets[marketKey(market)]
	if !ok {
		return false
	}
	set, ok := s.sets[key]
	if !ok {
		return false
	}
	return set.contains(util.CivilDate(date))
}

func (s *Static) IsBusinessDay(_ context.Context, date time.Time, market string) (bool, error) {
	d := util.CivilDate(date)
	if util.IsWeekend(d) {
		return false, nil
	}
	return !s.IsHoliday(d, market), nil
}

func (s *Static) AdvanceBusinessDays(ctx context.Context, date time.Time, count int, market string) (time.Time, error) {
	return advance(ctx, date, count, func(ctx context.Context, d time.Time) (bool, error) {
		return s.IsBusinessDay(ctx, d, market)
	})
}

func (s *Static) Available() bool { return true }
