package reconcile

import (
	"time"

	"clinic-manager/core/appointment"
	"clinic-manager/core/calendar"
)

// BuildEvent renders the remote event body of r. The end time is the same
// synthesized end that enters the content hash.
func BuildEvent(r appointment.Record, loc *time.Location, defaultDuration time.Duration) calendar.EventBody {
	if loc == nil {
		loc = time.UTC
	}
	start := appointment.EffectiveStart(r)
	end := appointment.EffectiveEnd(r, defaultDuration)
	startAt := r.Date.In(start, loc)
	// Elapsed minutes, so a synthesized end may fall on the next day.
	endAt := startAt.Add(time.Duration(end.Minutes()-start.Minutes()) * time.Minute)

	return calendar.EventBody{
		Summary:       r.Title(),
		Description:   r.Notes,
		Start:         startAt,
		End:           endAt,
		TimeZone:      loc.String(),
		ColorID:       colorFor(r),
		AppointmentID: appointment.AppointmentID(r),
	}
}

func colorFor(r appointment.Record) string {
	switch r.Category() {
	case appointment.CategoryDailyNote:
		return calendar.DailyNoteColor
	case appointment.CategoryService:
		return calendar.ServiceColor
	default:
		return calendar.ColorFor(r.TypeCode)
	}
}
