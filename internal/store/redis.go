package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sevenofnine/scheduler/internal/domain"
)

// Redis keeps one JSON document per event and a list of ids for ordering.
// The document and its list entry are always written in one MULTI/EXEC.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) eventKey(id string) string { return r.prefix + "event:" + id }

func (r *Redis) orderKey() string { return r.prefix + "order" }

func (r *Redis) List(ctx context.Context) ([]domain.Event, error) {
	ids, err := r.client.LRange(ctx, r.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list event ids: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Event{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.eventKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	out := make([]domain.Event, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// id left in the order list without a document
			continue
		}
		var e domain.Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", ids[i], err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *Redis) Get(ctx context.Context, id string) (domain.Event, error) {
	raw, err := r.client.Get(ctx, r.eventKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Event{}, ErrNotFound
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	var e domain.Event
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return domain.Event{}, fmt.Errorf("decode event %s: %w", id, err)
	}
	return e, nil
}

func (r *Redis) Insert(ctx context.Context, e domain.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	key := r.eventKey(e.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(data), 0)
			pipe.RPush(ctx, r.orderKey(), e.ID)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicate), errors.Is(err, redis.TxFailedErr):
		// the key was written between WATCH and EXEC
		return ErrDuplicate
	default:
		return fmt.Errorf("insert event %s: %w", e.ID, err)
	}
}

func (r *Redis) Replace(ctx context.Context, e domain.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	ok, err := r.client.SetXX(ctx, r.eventKey(e.ID), string(data), 0).Result()
	if err != nil {
		return fmt.Errorf("replace event %s: %w", e.ID, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.eventKey(id))
		pipe.LRem(ctx, r.orderKey(), 0, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) Len(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, r.orderKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return int(n), nil
}
