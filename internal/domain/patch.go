package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Optional records whether a JSON field was present, whether it was null,
// and its value otherwise.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: v} }

func Null[T any]() Optional[T] { return Optional[T]{Set: true, Null: true} }

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// Attendees accepts either a single string or a list of strings. Lists drop
// empty and null entries and are joined with ", ".
type Attendees string

func (a *Attendees) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if data[0] == '[' {
		var items []*string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*a = JoinAttendees(items)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = Attendees(s)
	return nil
}

func JoinAttendees(items []*string) Attendees {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil || *item == "" {
			continue
		}
		kept = append(kept, *item)
	}
	return Attendees(strings.Join(kept, ", "))
}

// Patch is a sparse update: a field is applied only when its Optional is Set.
type Patch struct {
	Title       Optional[string]    `json:"title"`
	Description Optional[string]    `json:"description"`
	StartDate   Optional[string]    `json:"startDate"`
	EndDate     Optional[string]    `json:"endDate"`
	Location    Optional[string]    `json:"location"`
	Attendees   Optional[Attendees] `json:"attendees"`
	Category    Optional[string]    `json:"category"`
	IsAllDay    Optional[bool]      `json:"isAllDay"`
	Color       Optional[string]    `json:"color"`
	BgColor     Optional[string]    `json:"bgColor"`
	BorderColor Optional[string]    `json:"borderColor"`
	DragBgColor Optional[string]    `json:"dragBgColor"`
}

// Empty reports whether no known field is present.
func (p Patch) Empty() bool {
	return !(p.Title.Set || p.Description.Set || p.StartDate.Set || p.EndDate.Set ||
		p.Location.Set || p.Attendees.Set || p.Category.Set || p.IsAllDay.Set ||
		p.Color.Set || p.BgColor.Set || p.BorderColor.Set || p.DragBgColor.Set)
}

// FieldError reports a patch field whose JSON value has the wrong type.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// aliases maps storage-style names onto the wire names used by Patch.
// The wire name wins when a body carries both.
var aliases = map[string]string{
	"backgroundColor":     "bgColor",
	"dragBackgroundColor": "dragBgColor",
}

// DecodePatch reads a JSON object into a Patch. Unknown keys are ignored;
// an absent or null body yields an empty Patch.
func DecodePatch(data []byte) (Patch, error) {
	var p Patch
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return p, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return p, fmt.Errorf("decode patch: %w", err)
	}
	for alias, name := range aliases {
		if v, ok := raw[alias]; ok {
			if _, wire := raw[name]; !wire {
				raw[name] = v
			}
			delete(raw, alias)
		}
	}

	fields := []struct {
		name string
		dst  any
	}{
		{"title", &p.Title},
		{"description", &p.Description},
		{"startDate", &p.StartDate},
		{"endDate", &p.EndDate},
		{"location", &p.Location},
		{"attendees", &p.Attendees},
		{"category", &p.Category},
		{"isAllDay", &p.IsAllDay},
		{"color", &p.Color},
		{"bgColor", &p.BgColor},
		{"borderColor", &p.BorderColor},
		{"dragBgColor", &p.DragBgColor},
	}
	for _, f := range fields {
		v, ok := raw[f.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return Patch{}, &FieldError{Field: f.name, Err: err}
		}
	}
	return p, nil
}
