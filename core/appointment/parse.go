package appointment

import (
	"fmt"
	"math"
	"strings"
	"time"

	"clinic-manager/core/utils"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006",
}

// ParseDate normalizes a date value coming from the record store.
// It accepts Date, time.Time, *time.Time and the string layouts the legacy
// exports use. Empty values yield the zero Date without error.
func ParseDate(val any) (Date, error) {
	switch v := val.(type) {
	case nil:
		return Date{}, nil
	case Date:
		return v, nil
	case time.Time:
		if v.IsZero() {
			return Date{}, nil
		}
		return DateOf(v), nil
	case *time.Time:
		if v == nil || v.IsZero() {
			return Date{}, nil
		}
		return DateOf(*v), nil
	}

	s := utils.ToString(val)
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseClock normalizes a time-of-day value coming from the record store.
//
// Numbers are legacy decimal readings: the integer part is the hour and the
// first two decimals are the minutes, so 8.4 is 08:40 and 14.05 is 14:05.
// Minute values of 60 or more clamp to 59. A numeric zero is midnight;
// nil and empty strings are unset.
func ParseClock(val any) (Clock, error) {
	switch v := val.(type) {
	case nil:
		return Clock{}, nil
	case Clock:
		return v, nil
	case time.Time:
		if v.IsZero() {
			return Clock{}, nil
		}
		return At(v.Hour(), v.Minute()), nil
	case float64, float32, int, int64, int32:
		return clockFromDecimal(utils.ToFloat(v))
	}

	s := utils.ToString(val)
	if s == "" {
		return Clock{}, nil
	}
	if strings.Contains(s, ":") {
		for _, layout := range []string{"15:04", "15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return At(t.Hour(), t.Minute()), nil
			}
		}
		return Clock{}, fmt.Errorf("unrecognized time %q", s)
	}
	return clockFromDecimal(utils.ToFloat(strings.ReplaceAll(s, ",", ".")))
}

func clockFromDecimal(f float64) (Clock, error) {
	hour := int(f)
	if f < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("time %v out of range", f)
	}
	minute := int(math.Round((f - float64(hour)) * 100))
	if minute >= 60 {
		minute = 59
	}
	return At(hour, minute), nil
}
