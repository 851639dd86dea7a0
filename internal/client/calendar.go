package client

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sevenofnine/scheduler/internal/domain"
)

// Calendar keeps the loaded events and the edit dialog. Every successful
// mutation is followed by a full reload, so the view converges on the server.
type Calendar struct {
	client *Client
	log    *slog.Logger

	mu     sync.Mutex
	events []domain.WireEvent
	modal  Modal
}

func NewCalendar(c *Client, logger *slog.Logger) *Calendar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calendar{client: c, log: logger}
}

func (cal *Calendar) Events() []domain.WireEvent {
	cal.mu.Lock()
	defer cal.mu.Unlock()
	return slices.Clone(cal.events)
}

func (cal *Calendar) ModalState() ModalState {
	cal.mu.Lock()
	defer cal.mu.Unlock()
	return cal.modal.State()
}

func (cal *Calendar) Form() Form {
	cal.mu.Lock()
	defer cal.mu.Unlock()
	return cal.modal.Form()
}

func (cal *Calendar) Reload(ctx context.Context) error {
	events, err := cal.client.Load(ctx)
	if err != nil {
		cal.log.Error("load events failed", "err", err)
		return err
	}
	cal.mu.Lock()
	cal.events = events
	cal.mu.Unlock()
	return nil
}

// OpenCreate opens the dialog for a new event at anchor.
func (cal *Calendar) OpenCreate(anchor time.Time) error {
	cal.mu.Lock()
	defer cal.mu.Unlock()
	return cal.modal.OpenCreate(anchor)
}

// OpenEdit opens the dialog for a loaded event.
func (cal *Calendar) OpenEdit(id string) error {
	cal.mu.Lock()
	defer cal.mu.Unlock()
	ev, ok := cal.find(id)
	if !ok {
		return fmt.Errorf("open edit %s: %w", id, ErrNotFound)
	}
	return cal.modal.OpenEdit(ev)
}

func (cal *Calendar) SetForm(f Form) error {
	cal.mu.Lock()
	defer cal.mu.Unlock()
	return cal.modal.SetForm(f)
}

func (cal *Calendar) Close() error {
	cal.mu.Lock()
	defer cal.mu.Unlock()
	return cal.modal.Close()
}

// Save submits the dialog: create for a new event, update otherwise.
func (cal *Calendar) Save(ctx context.Context) error {
	cal.mu.Lock()
	form, err := cal.modal.BeginSave()
	cal.mu.Unlock()
	if err != nil {
		return err
	}

	if form.ID == "" {
		_, err = cal.client.Create(ctx, form.Draft())
	} else {
		_, err = cal.client.Update(ctx, form.ID, form.Draft())
	}
	cal.finish(err)
	if err != nil {
		cal.log.Error("save event failed", "id", form.ID, "err", err)
		return err
	}
	return cal.Reload(ctx)
}

// Delete removes the event open in the dialog.
func (cal *Calendar) Delete(ctx context.Context) error {
	cal.mu.Lock()
	id, err := cal.modal.BeginDelete()
	cal.mu.Unlock()
	if err != nil {
		return err
	}

	err = cal.client.Delete(ctx, id)
	cal.finish(err)
	if err != nil {
		cal.log.Error("delete event failed", "id", id, "err", err)
		return err
	}
	return cal.Reload(ctx)
}

// Move persists a drag or resize of a loaded event.
func (cal *Calendar) Move(ctx context.Context, id string, ch Changes) error {
	cal.mu.Lock()
	ev, ok := cal.find(id)
	cal.mu.Unlock()
	if !ok {
		return fmt.Errorf("move %s: %w", id, ErrNotFound)
	}
	sent, err := cal.client.Move(ctx, ev, ch)
	if err != nil {
		cal.log.Error("move event failed", "id", id, "err", err)
		return err
	}
	if !sent {
		return nil
	}
	return cal.Reload(ctx)
}

func (cal *Calendar) finish(err error) {
	cal.mu.Lock()
	defer cal.mu.Unlock()
	// only fails when the dialog is not saving or deleting, which Begin* ruled out
	_ = cal.modal.Finish(err)
}

func (cal *Calendar) find(id string) (domain.WireEvent, bool) {
	i := slices.IndexFunc(cal.events, func(e domain.WireEvent) bool { return e.ID == id })
	if i < 0 {
		return domain.WireEvent{}, false
	}
	return cal.events[i], true
}
