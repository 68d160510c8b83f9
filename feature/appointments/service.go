package appointments

import (
	"context"
	"strconv"
	"time"

	"clinic-manager/core/appointment"
	"clinic-manager/core/reconcile"

	"go.uber.org/zap"
)

// Listing is the response of the appointments listing.
type Listing struct {
	Month        int                  `json:"month"`
	Year         int                  `json:"year"`
	Count        int                  `json:"count"`
	Appointments []appointment.Record `json:"appointments"`
}

// YearsShown is how many years, the current one included, YearCounts reports.
const YearsShown = 3

// Service exposes the legacy appointments.
type Service struct {
	source *Source
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a new appointments service. Periods default to the
// current month in loc.
func NewService(source *Source, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{source: source, loc: loc, now: time.Now, logger: logger}
}

// Source returns the underlying appointment source.
func (s *Service) Source() *Source {
	return s.source
}

// CurrentPeriod returns the current month and year in the clinic time zone.
func (s *Service) CurrentPeriod() (int, int) {
	now := s.now().In(s.loc)
	return int(now.Month()), now.Year()
}

// List returns the appointments of month/year.
func (s *Service) List(ctx context.Context, month, year int) (*Listing, error) {
	if err := reconcile.ValidatePeriod(month, year); err != nil {
		return nil, err
	}
	records, err := s.source.Appointments(ctx, month, year)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []appointment.Record{}
	}
	return &Listing{Month: month, Year: year, Count: len(records), Appointments: records}, nil
}

// YearCounts returns, for the current year and the two before it, the
// appointment count of each of the twelve months keyed by year. Months
// without appointments report zero.
func (s *Service) YearCounts(ctx context.Context) (map[string][]MonthCount, error) {
	_, current := s.CurrentPeriod()
	first := current - YearsShown + 1

	counts, err := s.source.MonthlyCounts(ctx, first, current)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]MonthCount, YearsShown)
	for year := first; year <= current; year++ {
		months := make([]MonthCount, 12)
		for i := range months {
			months[i] = MonthCount{Year: year, Month: i + 1}
		}
		out[strconv.Itoa(year)] = months
	}
	for _, c := range counts {
		months, ok := out[strconv.Itoa(c.Year)]
		if !ok || c.Month < 1 || c.Month > 12 {
			continue
		}
		months[c.Month-1].Count = c.Count
	}
	return out, nil
}
