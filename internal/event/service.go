package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sevenofnine/scheduler/internal/domain"
	"github.com/sevenofnine/scheduler/internal/store"
)

// Recorder receives service-level measurements.
type Recorder interface {
	ObserveMutation(operation, outcome string)
	DroppedField(field string)
	SetEventCount(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveMutation(string, string) {}
func (nopRecorder) DroppedField(string)            {}
func (nopRecorder) SetEventCount(int)              {}

type Options struct {
	Store      store.Store
	Logger     *slog.Logger
	Metrics    Recorder
	CalendarID string
	// StrictDates rejects a partial update carrying an unparsable date
	// instead of skipping that field.
	StrictDates bool
}

// Service implements list, create, partial update and delete over a Store.
type Service struct {
	store       store.Store
	log         *slog.Logger
	metrics     Recorder
	calendarID  string
	strictDates bool
	validate    *validator.Validate
	newID       func() string

	// serialises read-modify-write sequences against the store
	mu sync.Mutex
}

func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := opts.Metrics
	if rec == nil {
		rec = nopRecorder{}
	}
	st := opts.Store
	if st == nil {
		st = store.NewMemory()
	}
	calendarID := opts.CalendarID
	if calendarID == "" {
		calendarID = domain.DefaultCalendarID
	}
	return &Service{
		store:       st,
		log:         logger,
		metrics:     rec,
		calendarID:  calendarID,
		strictDates: opts.StrictDates,
		validate:    newValidator(),
		newID:       uuid.NewString,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.WireEvent, error) {
	events, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]domain.WireEvent, 0, len(events))
	for _, e := range events {
		out = append(out, e.Wire(s.calendarID))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.WireEvent, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.WireEvent{}, err
		}
		return domain.WireEvent{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return e.Wire(s.calendarID), nil
}

func (s *Service) Create(ctx context.Context, in domain.CreateRequest) (domain.WireEvent, error) {
	e, err := s.buildEvent(in)
	if err != nil {
		s.metrics.ObserveMutation("create", outcome(err))
		return domain.WireEvent{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.newID()
	if err := s.store.Insert(ctx, e); err != nil {
		s.metrics.ObserveMutation("create", outcome(err))
		return domain.WireEvent{}, fmt.Errorf("create event: %w", err)
	}
	s.metrics.ObserveMutation("create", "ok")
	s.refreshCount(ctx)
	s.log.Info("event created", "id", e.ID, "title", e.Title)
	return e.Wire(s.calendarID), nil
}

// Update applies the fields present in p to the event and leaves every other
// field untouched. It returns the updated record.
func (s *Service) Update(ctx context.Context, id string, p domain.Patch) (domain.WireEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Get(ctx, id)
	if err != nil {
		s.metrics.ObserveMutation("update", outcome(err))
		if errors.Is(err, store.ErrNotFound) {
			return domain.WireEvent{}, err
		}
		return domain.WireEvent{}, fmt.Errorf("load event %s: %w", id, err)
	}
	if p.Empty() {
		s.metrics.ObserveMutation("update", "invalid")
		return domain.WireEvent{}, fmt.Errorf("%w: event data is required", ErrInvalidInput)
	}

	updated := current
	if err := s.apply(&updated, p); err != nil {
		s.metrics.ObserveMutation("update", outcome(err))
		return domain.WireEvent{}, err
	}
	if err := s.store.Replace(ctx, updated); err != nil {
		s.metrics.ObserveMutation("update", outcome(err))
		if errors.Is(err, store.ErrNotFound) {
			return domain.WireEvent{}, err
		}
		return domain.WireEvent{}, fmt.Errorf("update event %s: %w", id, err)
	}
	s.metrics.ObserveMutation("update", "ok")
	s.log.Info("event updated", "id", id, "title", updated.Title)
	return updated.Wire(s.calendarID), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		s.metrics.ObserveMutation("delete", outcome(err))
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	s.metrics.ObserveMutation("delete", "ok")
	s.refreshCount(ctx)
	s.log.Info("event deleted", "id", id)
	return nil
}

func (s *Service) apply(e *domain.Event, p domain.Patch) error {
	if p.Title.Set && !p.Title.Null {
		e.Title = p.Title.Value
	}
	if p.Description.Set {
		e.Description = p.Description.Value
	}
	if err := s.applyDate(e.ID, "startDate", p.StartDate, &e.StartDate); err != nil {
		return err
	}
	if err := s.applyDate(e.ID, "endDate", p.EndDate, &e.EndDate); err != nil {
		return err
	}
	if p.Location.Set {
		e.Location = p.Location.Value
	}
	if p.Attendees.Set {
		e.Attendees = string(p.Attendees.Value)
	}
	if p.Category.Set && !p.Category.Null {
		e.Category = p.Category.Value
	}
	if p.IsAllDay.Set {
		if p.IsAllDay.Null {
			return invalidField("isAllDay", "must be a boolean")
		}
		e.IsAllDay = p.IsAllDay.Value
	}
	// a null color keeps the stored one
	setColor(&e.Color, p.Color)
	setColor(&e.BackgroundColor, p.BgColor)
	setColor(&e.BorderColor, p.BorderColor)
	setColor(&e.DragBackgroundColor, p.DragBgColor)
	if e.EndDate.Before(e.StartDate) {
		return invalidField("endDate", "must not be before startDate")
	}
	return nil
}

func setColor(dst *string, v domain.Optional[string]) {
	if v.Set && !v.Null {
		*dst = v.Value
	}
}

// applyDate leaves dst unchanged for null or empty values. An unparsable
// value is skipped and logged unless strict dates are enabled.
func (s *Service) applyDate(id, field string, v domain.Optional[string], dst *time.Time) error {
	if !v.Set || v.Null || v.Value == "" {
		return nil
	}
	t, err := domain.ParseTimestamp(v.Value)
	if err != nil {
		if s.strictDates {
			return invalidField(field, msgInvalidTimestamp)
		}
		s.metrics.DroppedField(field)
		s.log.Warn("ignoring unparsable timestamp in update", "id", id, "field", field, "value", v.Value)
		return nil
	}
	*dst = t
	return nil
}

func (s *Service) refreshCount(ctx context.Context) {
	n, err := s.store.Len(ctx)
	if err != nil {
		s.log.Warn("count events failed", "err", err)
		return
	}
	s.metrics.SetEventCount(n)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
