package store

import (
	"context"
	"errors"

	"github.com/sevenofnine/scheduler/internal/domain"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrDuplicate = errors.New("event id already exists")
)

// Store holds events in insertion order.
type Store interface {
	List(ctx context.Context) ([]domain.Event, error)
	Get(ctx context.Context, id string) (domain.Event, error)
	Insert(ctx context.Context, e domain.Event) error
	Replace(ctx context.Context, e domain.Event) error
	Delete(ctx context.Context, id string) error
	Len(ctx context.Context) (int, error)
}
