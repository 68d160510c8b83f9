package syncstate

import "time"

// Entry links one appointment to its remote event.
type Entry struct {
	EventID    string    `json:"event_id"`
	CalendarID string    `json:"calendar_id"`
	Hash       string    `json:"hash"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	LastSync   time.Time `json:"last_sync"`
}

// InPeriod reports whether the entry was synced for month/year.
func (e Entry) InPeriod(month, year int) bool {
	return e.Month == month && e.Year == year
}

// State maps appointment ids to entries.
type State map[string]Entry

// Clone returns an independent copy of s.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// EntriesForPeriod returns the ids of the entries synced for month/year.
func EntriesForPeriod(s State, month, year int) map[string]struct{} {
	out := make(map[string]struct{})
	for id, e := range s {
		if e.InPeriod(month, year) {
			out[id] = struct{}{}
		}
	}
	return out
}
