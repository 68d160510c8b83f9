package calendar

import (
	"context"
	"fmt"

	"clinic-manager/core/appointment"
	cal "clinic-manager/core/calendar"
	"clinic-manager/core/reconcile"

	ical "github.com/arran4/golang-ical"
)

// ExportICS renders the appointments of month/year as an iCalendar document.
// studio 0 exports every studio. Records without a date are left out.
func (s *Service) ExportICS(ctx context.Context, month, year, studio int) (string, error) {
	if err := reconcile.ValidatePeriod(month, year); err != nil {
		return "", err
	}
	records, err := s.source.Appointments(ctx, month, year)
	if err != nil {
		return "", fmt.Errorf("%w: %w", reconcile.ErrSourceRead, err)
	}

	doc := ical.NewCalendar()
	doc.SetMethod(ical.MethodPublish)
	doc.SetProductId("-//clinic-manager//appointments//EN")
	doc.SetXWRCalName(exportName(month, year, studio))
	doc.SetTimezoneId(s.events.Location.String())

	stamp := s.now().UTC()
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		if studio > 0 && reconcile.StudioFor(r, s.events.DailyNoteStudio) != studio {
			continue
		}
		uid := appointment.EventUID(r)
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}

		body := reconcile.BuildEvent(r, s.events.Location, s.events.DefaultDuration)
		ev := doc.AddEvent(uid)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(body.Start)
		ev.SetEndAt(body.End)
		ev.SetSummary(body.Summary)
		if body.Description != "" {
			ev.SetDescription(body.Description)
		}
		if r.TypeCode != "" {
			ev.SetProperty(ical.ComponentPropertyCategories, r.TypeCode)
		}
		if body.ColorID != cal.DefaultColor {
			ev.SetProperty(ical.ComponentProperty("X-CLINIC-COLOR"), body.ColorID)
		}
	}
	return doc.Serialize(), nil
}

func exportName(month, year, studio int) string {
	if studio > 0 {
		return fmt.Sprintf("Appointments %02d/%d studio %d", month, year, studio)
	}
	return fmt.Sprintf("Appointments %02d/%d", month, year)
}
