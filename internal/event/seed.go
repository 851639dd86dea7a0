package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sevenofnine/scheduler/internal/domain"
	"github.com/sevenofnine/scheduler/internal/store"
)

// DemoEvents returns the sample calendar shown on a fresh start, placed
// relative to the day containing now.
func DemoEvents(now time.Time) []domain.Event {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	at := func(days, hours int) time.Time {
		return today.AddDate(0, 0, days).Add(time.Duration(hours) * time.Hour)
	}
	return []domain.Event{
		{
			ID:              "1",
			Title:           "Team Meeting",
			Description:     "Weekly team sync meeting",
			StartDate:       at(1, 10),
			EndDate:         at(1, 11),
			Location:        "Conference Room A",
			Attendees:       "John, Jane, Mike",
			Category:        domain.CategoryTime,
			Color:           "#ffffff",
			BackgroundColor: "#34c38f",
			BorderColor:     "#34c38f",
		},
		{
			ID:              "2",
			Title:           "Project Deadline",
			Description:     "Final project submission",
			StartDate:       at(3, 0),
			EndDate:         at(3, 0),
			Category:        domain.CategoryAllDay,
			IsAllDay:        true,
			Color:           "#ffffff",
			BackgroundColor: "#f46a6a",
			BorderColor:     "#f46a6a",
		},
		{
			ID:              "3",
			Title:           "Client Presentation",
			Description:     "Present quarterly results to client",
			StartDate:       at(2, 14),
			EndDate:         at(2, 16),
			Location:        "Virtual Meeting",
			Attendees:       "Client Team, Sales Team",
			Category:        domain.CategoryTime,
			Color:           "#ffffff",
			BackgroundColor: "#50a5f1",
			BorderColor:     "#50a5f1",
		},
	}
}

// Seed inserts the demo events when the store is empty.
func (s *Service) Seed(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.store.Len(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		s.log.Debug("store not empty, skipping seed", "events", n)
		return nil
	}
	for _, e := range DemoEvents(now) {
		if err := s.store.Insert(ctx, e); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("seed event %s: %w", e.ID, err)
		}
	}
	s.refreshCount(ctx)
	s.log.Info("seeded demo events")
	return nil
}
