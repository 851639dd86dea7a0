package domain

import "time"

const (
	CategoryTime   = "time"
	CategoryAllDay = "allday"

	DefaultCalendarID = "cal1"
)

// Event is the stored form of a calendar entry. StartDate and EndDate are
// naive wall-clock values; clients convert to and from local time.
type Event struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description,omitempty"`
	StartDate           time.Time `json:"startDate"`
	EndDate             time.Time `json:"endDate"`
	Location            string    `json:"location,omitempty"`
	Attendees           string    `json:"attendees,omitempty"`
	Category            string    `json:"category"`
	IsAllDay            bool      `json:"isAllDay"`
	Color               string    `json:"color,omitempty"`
	BackgroundColor     string    `json:"backgroundColor,omitempty"`
	BorderColor         string    `json:"borderColor,omitempty"`
	DragBackgroundColor string    `json:"dragBackgroundColor,omitempty"`
}

// WireEvent is the JSON shape the calendar widget consumes.
type WireEvent struct {
	ID          string `json:"id"`
	CalendarID  string `json:"calendarId"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Location    string `json:"location"`
	Attendees   string `json:"attendees"`
	Category    string `json:"category"`
	IsAllday    bool   `json:"isAllday"`
	Color       string `json:"color"`
	BgColor     string `json:"bgColor"`
	BorderColor string `json:"borderColor"`
	DragBgColor string `json:"dragBgColor"`
}

func (e Event) Wire(calendarID string) WireEvent {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	return WireEvent{
		ID:          e.ID,
		CalendarID:  calendarID,
		Title:       e.Title,
		Body:        e.Description,
		Start:       FormatTimestamp(e.StartDate),
		End:         FormatTimestamp(e.EndDate),
		Location:    e.Location,
		Attendees:   e.Attendees,
		Category:    e.Category,
		IsAllday:    e.IsAllDay,
		Color:       e.Color,
		BgColor:     e.BackgroundColor,
		BorderColor: e.BorderColor,
		DragBgColor: e.DragBackgroundColor,
	}
}

// CreateRequest is the body accepted by the create operation. Dates stay
// strings here so parse failures can be reported per field.
type CreateRequest struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	StartDate           string    `json:"startDate"`
	EndDate             string    `json:"endDate"`
	Location            string    `json:"location"`
	Attendees           Attendees `json:"attendees"`
	Category            string    `json:"category"`
	IsAllDay            bool      `json:"isAllDay"`
	Color               string    `json:"color"`
	BackgroundColor     string    `json:"backgroundColor"`
	BorderColor         string    `json:"borderColor"`
	DragBackgroundColor string    `json:"dragBackgroundColor"`
}
