package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sevenofnine/scheduler/internal/api"
	"github.com/sevenofnine/scheduler/internal/domain"
	"github.com/sevenofnine/scheduler/internal/event"
	"github.com/sevenofnine/scheduler/internal/store"
)

func TestLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "warn": slog.LevelWarn, "error": slog.LevelError, "info": slog.LevelInfo, "x": slog.LevelInfo}
	for in, want := range cases {
		if got := level(in); got != want {
			t.Fatalf("level(%q)=%v want %v", in, got, want)
		}
	}
}

func TestRunValidationError(t *testing.T) {
	t.Setenv("SCHED_STORE", "bogus")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := run(ctx); err == nil {
		t.Fatal("expected config validation error")
	}
}

func TestRunSuccessCancel(t *testing.T) {
	t.Setenv("SCHED_STORE", "memory")
	t.Setenv("SCHED_BIND_ADDRESS", "127.0.0.1:0")
	t.Setenv("SCHED_ENABLE_TRAY", "false")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(40 * time.Millisecond)
		cancel()
	}()
	err := run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected run error: %v", err)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := newCLI()
	a.Writer = &out
	a.ErrWriter = &errOut
	err := a.RunContext(context.Background(), append([]string{"scheduler"}, args...))
	return out.String(), err
}

func TestEventsCommands(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := event.New(event.Options{Store: store.NewMemory(), Logger: logger})
	srv := httptest.NewServer(api.New(api.Options{Events: svc, Logger: logger}).Handler())
	defer srv.Close()
	base := []string{"events", "--server", srv.URL, "--utc"}

	out, err := runCLI(t, append(base, "create",
		"--title", "Standup", "--start", "2024-01-01T09:00", "--end", "2024-01-01T09:15", "--location", "Room 1")...)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var created domain.WireEvent
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode create output %q: %v", out, err)
	}
	if created.ID == "" || created.Start != "2024-01-01T09:00:00" {
		t.Fatalf("unexpected created event: %+v", created)
	}

	if _, err := runCLI(t, append(base, "update", "--location", "Room 2", created.ID)...); err != nil {
		t.Fatalf("update: %v", err)
	}
	items, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Location != "Room 2" || items[0].Title != "Standup" || items[0].End != "2024-01-01T09:15:00" {
		t.Fatalf("update touched other fields: %+v", items[0])
	}

	out, err = runCLI(t, append(base, "list")...)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var listed []domain.WireEvent
	if err := json.Unmarshal([]byte(out), &listed); err != nil || len(listed) != 1 {
		t.Fatalf("unexpected list output %q: %v", out, err)
	}

	if _, err := runCLI(t, append(base, "update", created.ID)...); err == nil {
		t.Fatal("expected error for update without fields")
	}
	if _, err := runCLI(t, append(base, "delete", created.ID)...); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := runCLI(t, append(base, "delete", created.ID)...); err == nil {
		t.Fatal("expected not found on second delete")
	}
}
