package calendar

import "strings"

const (
	// DefaultColor is used for type codes without a mapping.
	DefaultColor = "1"
	// DailyNoteColor marks memos that belong to no patient, studio or doctor.
	DailyNoteColor = "8"
	// ServiceColor marks internal doctor slots without a patient.
	ServiceColor = "5"
)

// typeColors maps appointment type codes to remote color ids.
var typeColors = map[string]string{
	"VIS": "1",  // first visit
	"CON": "2",  // consultation
	"IGI": "7",  // hygiene
	"CHI": "11", // surgery
	"ORT": "9",  // orthodontics
	"PRO": "3",  // prosthetics
	"END": "6",  // endodontics
	"IMP": "10", // implantology
	"CTR": "4",  // check-up
}

// ColorFor returns the color id for a type code, DefaultColor when unknown.
func ColorFor(typeCode string) string {
	if c, ok := typeColors[strings.ToUpper(strings.TrimSpace(typeCode))]; ok {
		return c
	}
	return DefaultColor
}
