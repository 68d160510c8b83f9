package calendar

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DirectoryOptions configures a Directory.
type DirectoryOptions struct {
	// TTL is how long a calendar listing stays fresh. Zero disables caching.
	TTL time.Duration
	// Managed lists calendar ids managed in addition to the studio calendars.
	Managed []string
	// StudioCalendars is the explicit studio to calendar id mapping.
	StudioCalendars map[int]string
	// StudioKeywords maps studios to display-name keywords.
	StudioKeywords map[int]string
}

// Directory resolves which remote calendars this deployment manages.
type Directory struct {
	gateway Gateway
	opts    DirectoryOptions
	now     func() time.Time

	mu      sync.RWMutex
	cached  []CalendarInfo
	builtAt time.Time
	sf      singleflight.Group
}

// NewDirectory creates a directory over gateway.
func NewDirectory(gateway Gateway, opts DirectoryOptions) *Directory {
	return &Directory{gateway: gateway, opts: opts, now: time.Now}
}

// All returns every calendar visible to the account, served from cache when fresh.
func (d *Directory) All(ctx context.Context) ([]CalendarInfo, error) {
	if list, ok := d.fresh(); ok {
		return list, nil
	}

	res, err, _ := d.sf.Do("calendars", func() (any, error) {
		// A concurrent caller may have refreshed while we waited.
		if list, ok := d.fresh(); ok {
			return list, nil
		}
		list, err := d.gateway.ListCalendars(ctx)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.cached = list
		d.builtAt = d.now()
		d.mu.Unlock()
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]CalendarInfo(nil), res.([]CalendarInfo)...), nil
}

func (d *Directory) fresh() ([]CalendarInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.cached == nil || d.opts.TTL <= 0 || d.now().Sub(d.builtAt) >= d.opts.TTL {
		return nil, false
	}
	return append([]CalendarInfo(nil), d.cached...), true
}

// Invalidate drops the cached listing.
func (d *Directory) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}

// StudioCalendars returns the studio to calendar id mapping. The explicit
// mapping wins; otherwise each studio gets the first calendar, by name,
// whose display name contains its keyword.
func (d *Directory) StudioCalendars(ctx context.Context) (map[int]string, error) {
	if len(d.opts.StudioCalendars) > 0 {
		out := make(map[int]string, len(d.opts.StudioCalendars))
		for studio, id := range d.opts.StudioCalendars {
			out[studio] = id
		}
		return out, nil
	}
	if len(d.opts.StudioKeywords) == 0 {
		return map[int]string{}, nil
	}

	all, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	out := make(map[int]string)
	for studio, keyword := range d.opts.StudioKeywords {
		kw := strings.ToLower(keyword)
		for _, cal := range all {
			if strings.Contains(strings.ToLower(cal.Name), kw) {
				out[studio] = cal.ID
				break
			}
		}
	}
	return out, nil
}

// Managed returns the calendars this deployment may write to or purge.
func (d *Directory) Managed(ctx context.Context) ([]CalendarInfo, error) {
	all, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	studios, err := d.StudioCalendars(ctx)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]struct{}, len(d.opts.Managed)+len(studios))
	for _, id := range d.opts.Managed {
		allowed[id] = struct{}{}
	}
	for _, id := range studios {
		allowed[id] = struct{}{}
	}

	out := make([]CalendarInfo, 0, len(allowed))
	for _, cal := range all {
		if _, ok := allowed[cal.ID]; ok {
			out = append(out, cal)
		}
	}
	return out, nil
}

// IsManaged reports whether calendarID is one of the managed calendars.
func (d *Directory) IsManaged(ctx context.Context, calendarID string) (bool, error) {
	managed, err := d.Managed(ctx)
	if err != nil {
		return false, err
	}
	for _, cal := range managed {
		if cal.ID == calendarID {
			return true, nil
		}
	}
	return false, nil
}
