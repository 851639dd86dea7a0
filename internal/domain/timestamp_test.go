package domain

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	cases := []string{
		"2024-01-01T09:00:00",
		"2024-01-01T09:00",
		"2024-01-01 09:00:00",
		"2024-01-01T09:00:00Z",
		"2024-01-01T09:00:00.000Z",
		"2024-01-01T11:00:00+02:00",
	}
	for _, in := range cases {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseTimestamp(%q)=%v want %v", in, got, want)
		}
	}
	for _, in := range []string{"", "not-a-date", "2024-13-01T00:00:00"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)
	if got := FormatTimestamp(ts); got != "2024-01-01T09:15:00" {
		t.Fatalf("unexpected format: %s", got)
	}
	if FormatTimestamp(time.Time{}) != "" {
		t.Fatal("expected empty string for zero time")
	}
}

func TestEventWire(t *testing.T) {
	e := Event{
		ID:                  "1",
		Title:               "Standup",
		Description:         "daily",
		StartDate:           time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC),
		Category:            CategoryTime,
		IsAllDay:            true,
		BackgroundColor:     "#34c38f",
		DragBackgroundColor: "#000",
	}
	w := e.Wire("")
	if w.CalendarID != DefaultCalendarID || w.Body != "daily" || !w.IsAllday {
		t.Fatalf("unexpected wire: %+v", w)
	}
	if w.Start != "2024-01-01T09:00:00" || w.End != "2024-01-01T09:15:00" {
		t.Fatalf("unexpected dates: %s %s", w.Start, w.End)
	}
	if w.BgColor != "#34c38f" || w.DragBgColor != "#000" {
		t.Fatalf("unexpected colors: %+v", w)
	}
}
