package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/emersion/go-ical"

	"github.com/sevenofnine/scheduler/internal/domain"
)

const productID = "-//scheduler//EN"

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	items, err := s.events.List(r.Context())
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	// a VCALENDAR needs at least one component
	if len(items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(buildCalendar(items, s.now())); err != nil {
		s.writeServiceErr(w, r, fmt.Errorf("encode calendar: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func buildCalendar(items []domain.WireEvent, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	for _, e := range items {
		cal.Children = append(cal.Children, toVEvent(e, stamp))
	}
	return cal
}

// toVEvent renders one event. Stored times are UTC wall clock; all-day
// events use DATE values with an exclusive end.
func toVEvent(e domain.WireEvent, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, e.ID+"@scheduler")
	ve.Props.SetText(ical.PropSummary, e.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())

	start, startErr := domain.ParseTimestamp(e.Start)
	end, endErr := domain.ParseTimestamp(e.End)
	if e.IsAllday {
		if startErr == nil {
			ve.Props.SetDate(ical.PropDateTimeStart, start)
			if endErr != nil || !end.After(start) {
				end = start
			}
			ve.Props.SetDate(ical.PropDateTimeEnd, end.AddDate(0, 0, 1))
		}
	} else {
		if startErr == nil {
			ve.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
		}
		if endErr == nil {
			ve.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
		}
	}

	if e.Body != "" {
		ve.Props.SetText(ical.PropDescription, e.Body)
	}
	if e.Location != "" {
		ve.Props.SetText(ical.PropLocation, e.Location)
	}
	if e.Category != "" {
		ve.Props.SetText(ical.PropCategories, e.Category)
	}
	return ve
}
