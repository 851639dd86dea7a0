package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sevenofnine/scheduler/internal/domain"
)

// FormLayout matches a datetime-local input value.
const FormLayout = "2006-01-02T15:04"

var ErrInvalidTransition = errors.New("invalid modal transition")

type ModalState int

const (
	ModalClosed ModalState = iota
	ModalCreating
	ModalEditing
	ModalSaving
	ModalDeleting
)

func (s ModalState) String() string {
	switch s {
	case ModalClosed:
		return "closed"
	case ModalCreating:
		return "creating"
	case ModalEditing:
		return "editing"
	case ModalSaving:
		return "saving"
	case ModalDeleting:
		return "deleting"
	default:
		return fmt.Sprintf("ModalState(%d)", int(s))
	}
}

// Form holds the edit dialog's inputs. Start and End are local and use
// FormLayout. An empty ID means a new event.
type Form struct {
	ID          string
	Title       string
	Description string
	Location    string
	Attendees   string
	Start       string
	End         string
	IsAllDay    bool
}

// FormError lists the inputs that block submission.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Validate applies the required-field checks the browser runs before submit.
func (f Form) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(f.Title) == "" {
		fields["title"] = "is required"
	}
	for name, v := range map[string]string{"start": f.Start, "end": f.End} {
		if v == "" {
			fields[name] = "is required"
			continue
		}
		if _, err := time.Parse(FormLayout, v); err != nil {
			fields[name] = "is not a valid date and time"
		}
	}
	if len(fields) > 0 {
		return &FormError{Fields: fields}
	}
	return nil
}

func (f Form) Draft() Draft {
	d := Draft{
		Title:       f.Title,
		Description: f.Description,
		Start:       f.Start,
		End:         f.End,
		Location:    f.Location,
		Attendees:   f.Attendees,
		IsAllDay:    f.IsAllDay,
		Category:    domain.CategoryTime,
		Color:       DefaultColor,
		BgColor:     DefaultBgColor,
		BorderColor: DefaultBgColor,
		DragBgColor: DefaultBgColor,
	}
	if f.IsAllDay {
		d.Category = domain.CategoryAllDay
	}
	return d
}

// Modal is the edit dialog's state machine. The zero value is closed.
type Modal struct {
	state ModalState
	prev  ModalState
	form  Form
}

func (m *Modal) State() ModalState { return m.state }

func (m *Modal) Form() Form { return m.form }

// OpenCreate opens an empty form holding a one-hour slot starting at anchor.
func (m *Modal) OpenCreate(anchor time.Time) error {
	if m.state != ModalClosed {
		return m.invalid("open create")
	}
	m.form = Form{
		Start: anchor.Format(FormLayout),
		End:   anchor.Add(time.Hour).Format(FormLayout),
	}
	m.state = ModalCreating
	return nil
}

// OpenEdit opens the form prefilled from a loaded event.
func (m *Modal) OpenEdit(ev domain.WireEvent) error {
	if m.state != ModalClosed {
		return m.invalid("open edit")
	}
	if ev.ID == "" {
		return fmt.Errorf("open edit: event has no id")
	}
	m.form = Form{
		ID:          ev.ID,
		Title:       ev.Title,
		Description: ev.Body,
		Location:    ev.Location,
		Attendees:   ev.Attendees,
		Start:       formValue(ev.Start),
		End:         formValue(ev.End),
		IsAllDay:    ev.IsAllday,
	}
	m.state = ModalEditing
	return nil
}

// SetForm replaces the inputs while the dialog is open. The event id cannot
// be changed.
func (m *Modal) SetForm(f Form) error {
	if m.state != ModalCreating && m.state != ModalEditing {
		return m.invalid("edit form")
	}
	f.ID = m.form.ID
	m.form = f
	return nil
}

// BeginSave validates the form and moves to saving. A form that fails
// validation leaves the dialog where it was.
func (m *Modal) BeginSave() (Form, error) {
	if m.state != ModalCreating && m.state != ModalEditing {
		return Form{}, m.invalid("save")
	}
	if err := m.form.Validate(); err != nil {
		return Form{}, err
	}
	m.prev, m.state = m.state, ModalSaving
	return m.form, nil
}

// BeginDelete moves an open edit dialog to deleting and returns the id.
func (m *Modal) BeginDelete() (string, error) {
	if m.state != ModalEditing {
		return "", m.invalid("delete")
	}
	m.prev, m.state = m.state, ModalDeleting
	return m.form.ID, nil
}

// Finish ends a save or delete. Success closes the dialog; failure returns
// it to the state it was in before.
func (m *Modal) Finish(err error) error {
	if m.state != ModalSaving && m.state != ModalDeleting {
		return m.invalid("finish")
	}
	if err != nil {
		m.state = m.prev
		return nil
	}
	m.state = ModalClosed
	m.form = Form{}
	return nil
}

// Close dismisses an open dialog. Closing is refused while a request is in flight.
func (m *Modal) Close() error {
	switch m.state {
	case ModalClosed:
		return nil
	case ModalCreating, ModalEditing:
		m.state = ModalClosed
		m.form = Form{}
		return nil
	default:
		return m.invalid("close")
	}
}

func (m *Modal) invalid(action string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, action, m.state)
}

func formValue(ts string) string {
	t, err := domain.ParseTimestamp(ts)
	if err != nil {
		return ""
	}
	return t.Format(FormLayout)
}
