package client

import (
	"time"

	"github.com/sevenofnine/scheduler/internal/domain"
)

// WidgetDate is the calendar widget's internal date wrapper.
type WidgetDate struct {
	Date string `json:"_date"`
}

// LocalOffsetMinutes returns UTC minus local time in minutes at now, the same
// sign as JavaScript's Date.getTimezoneOffset.
func LocalOffsetMinutes(now time.Time) int {
	_, secs := now.Zone()
	return -secs / 60
}

// Converter shifts naive timestamps between UTC and local wall-clock time.
// The offset is sampled on every call, so it follows the current zone rather
// than the zone in effect at the event's own date.
type Converter struct {
	// Offset returns UTC minus local in minutes. Nil uses the process zone.
	Offset func() int
}

// FixedOffset returns a Converter pinned to one offset.
func FixedOffset(minutes int) Converter {
	return Converter{Offset: func() int { return minutes }}
}

func (c Converter) offset() time.Duration {
	var m int
	if c.Offset != nil {
		m = c.Offset()
	} else {
		m = LocalOffsetMinutes(time.Now())
	}
	return time.Duration(m) * time.Minute
}

// ToLocal converts a UTC wire timestamp for display. Empty or unparsable
// values are returned unchanged.
func (c Converter) ToLocal(utc string) string {
	if utc == "" {
		return utc
	}
	t, err := domain.ParseTimestamp(utc)
	if err != nil {
		return utc
	}
	return t.Add(-c.offset()).Format(domain.TimestampLayout)
}

// ToUTC converts a local value back to a UTC wire timestamp. It accepts a
// string, a WidgetDate (by value, pointer or as a decoded {"_date": ...}
// map) or a time.Time read by its wall clock. Anything else, and anything
// that does not parse, passes through unchanged.
func (c Converter) ToUTC(local any) any {
	s, ok := unwrapDate(local)
	if !ok || s == "" {
		return local
	}
	t, err := domain.ParseTimestamp(s)
	if err != nil {
		return local
	}
	return t.Add(c.offset()).Format(domain.TimestampLayout)
}

func unwrapDate(v any) (string, bool) {
	switch d := v.(type) {
	case string:
		return d, true
	case WidgetDate:
		return d.Date, d.Date != ""
	case *WidgetDate:
		if d == nil || d.Date == "" {
			return "", false
		}
		return d.Date, true
	case map[string]any:
		s, ok := d["_date"].(string)
		return s, ok && s != ""
	case time.Time:
		if d.IsZero() {
			return "", false
		}
		return d.Format(domain.TimestampLayout), true
	default:
		return "", false
	}
}
