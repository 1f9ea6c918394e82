package timezone

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"FXCast/internal/domain/models"
	"FXCast/internal/domain/repository"
)

// Market is a named trading venue with its IANA zone and local session window.
type Market struct {
	ID    string
	Zone  string
	Open  models.Clock
	Close models.Clock
}

var (
	defaultOpen  = models.Clock(0)
	defaultClose = models.MustClock("24:00")
)

type entry struct {
	market Market
	loc    *time.Location
}

// Resolver maps market names and IANA identifiers to zones.
type Resolver struct {
	markets map[string]entry
	zones   map[string]entry
	enabled bool
	loaded  bool
	cache   sync.Map // IANA name -> *time.Location
}

// New loads every market zone up front. The returned error lists markets whose zone
// failed to load; the resolver is still usable but reports itself unavailable.
func New(markets []Market, enabled bool) (*Resolver, error) {
	r := &Resolver{
		markets: make(map[string]entry, len(markets)),
		zones:   make(map[string]entry, len(markets)),
		enabled: enabled,
		loaded:  true,
	}

	var errs []error
	for _, m := range markets {
		loc, err := time.LoadLocation(m.Zone)
		if err != nil {
			r.loaded = false
			errs = append(errs, fmt.Errorf("market %s: %w", m.ID, err))
			continue
		}
		e := entry{market: m, loc: loc}
		r.markets[strings.ToLower(m.ID)] = e
		if _, dup := r.zones[m.Zone]; !dup {
			r.zones[m.Zone] = e
		}
	}
	return r, errors.Join(errs...)
}

// Available reports whether timezone support is enabled and every market zone loaded.
func (r *Resolver) Available() bool { return r.enabled && r.loaded }

// Resolve returns the zone for a market name or IANA identifier with its offset at the given instant.
func (r *Resolver) Resolve(id string, at time.Time) (repository.Zone, error) {
	if !r.enabled {
		return repository.Zone{}, fmt.Errorf("%w: timezone support disabled", models.ErrUnknownTimezone)
	}
	id = strings.TrimSpace(id)
	if id == "" || strings.EqualFold(id, "local") {
		return repository.Zone{}, fmt.Errorf("%w: %q", models.ErrUnknownTimezone, id)
	}

	if e, ok := r.markets[strings.ToLower(id)]; ok {
		return zoneOf(e.market.ID, e.loc, e.market.Open, e.market.Close, at), nil
	}

	loc, err := r.load(id)
	if err != nil {
		return repository.Zone{}, fmt.Errorf("%w: %q", models.ErrUnknownTimezone, id)
	}
	if e, ok := r.zones[loc.String()]; ok {
		return zoneOf(id, loc, e.market.Open, e.market.Close, at), nil
	}
	return zoneOf(id, loc, defaultOpen, defaultClose, at), nil
}

func (r *Resolver) load(name string) (*time.Location, error) {
	if v, ok := r.cache.Load(name); ok {
		return v.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	r.cache.Store(name, loc)
	return loc, nil
}

func zoneOf(id string, loc *time.Location, open, shut models.Clock, at time.Time) repository.Zone {
	_, offset := at.In(loc).Zone()
	return repository.Zone{
		ID:            id,
		Location:      loc,
		OffsetMinutes: offset / 60,
		SessionOpen:   open,
		SessionClose:  shut,
	}
}
