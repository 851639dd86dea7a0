package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevenofnine/scheduler/internal/domain"
	"github.com/sevenofnine/scheduler/internal/store"
)

type fakeRecorder struct {
	mutations map[string]int
	dropped   map[string]int
	count     int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{mutations: map[string]int{}, dropped: map[string]int{}}
}

func (f *fakeRecorder) ObserveMutation(op, outcome string) { f.mutations[op+"/"+outcome]++ }
func (f *fakeRecorder) DroppedField(field string)          { f.dropped[field]++ }
func (f *fakeRecorder) SetEventCount(n int)                { f.count = n }

func newTestService(t *testing.T, strict bool) (*Service, *store.Memory, *fakeRecorder) {
	t.Helper()
	st := store.NewMemory()
	rec := newFakeRecorder()
	s := New(Options{
		Store:       st,
		Metrics:     rec,
		StrictDates: strict,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return s, st, rec
}

func standup() domain.CreateRequest {
	return domain.CreateRequest{
		Title:           "Standup",
		Description:     "daily sync",
		StartDate:       "2024-01-01T09:00:00",
		EndDate:         "2024-01-01T09:15:00",
		Location:        "Room 1",
		Attendees:       "A, B",
		Color:           "#ffffff",
		BackgroundColor: "#34c38f",
		BorderColor:     "#34c38f",
	}
}

func mustPatch(t *testing.T, body string) domain.Patch {
	t.Helper()
	p, err := domain.DecodePatch([]byte(body))
	require.NoError(t, err)
	return p
}

func TestCreateAssignsIDAndDefaults(t *testing.T) {
	ctx := context.Background()
	s, _, rec := newTestService(t, false)

	got, err := s.Create(ctx, standup())
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, domain.CategoryTime, got.Category)
	assert.Equal(t, domain.DefaultCalendarID, got.CalendarID)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, got, list[0])
	assert.Equal(t, 1, rec.count)
	assert.Equal(t, 1, rec.mutations["create/ok"])
}

func TestCreateUsesFreshUUIDs(t *testing.T) {
	ctx := context.Background()
	s := New(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	a, err := s.Create(ctx, standup())
	require.NoError(t, err)
	b, err := s.Create(ctx, standup())
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateWireFieldNames(t *testing.T) {
	s, _, _ := newTestService(t, false)
	in := standup()
	in.IsAllDay = true
	in.DragBackgroundColor = "#000000"

	got, err := s.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "daily sync", got.Body)
	assert.True(t, got.IsAllday)
	assert.Equal(t, "#34c38f", got.BgColor)
	assert.Equal(t, "#000000", got.DragBgColor)
	assert.Equal(t, "2024-01-01T09:00:00", got.Start)
	assert.Equal(t, "2024-01-01T09:15:00", got.End)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	cases := map[string]struct {
		mutate func(*domain.CreateRequest)
		fields []string
	}{
		"empty title":      {func(r *domain.CreateRequest) { r.Title = "" }, []string{"title"}},
		"blank title":      {func(r *domain.CreateRequest) { r.Title = "   " }, []string{"title"}},
		"missing dates":    {func(r *domain.CreateRequest) { r.StartDate, r.EndDate = "", "" }, []string{"startDate", "endDate"}},
		"unparsable start": {func(r *domain.CreateRequest) { r.StartDate = "tomorrow" }, []string{"startDate"}},
		"end before start": {func(r *domain.CreateRequest) { r.EndDate = "2024-01-01T08:00:00" }, []string{"endDate"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s, st, rec := newTestService(t, false)
			in := standup()
			tc.mutate(&in)

			_, err := s.Create(ctx, in)
			require.ErrorIs(t, err, ErrInvalidInput)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			for _, f := range tc.fields {
				assert.Contains(t, verr.Fields, f)
			}
			n, _ := st.Len(ctx)
			assert.Zero(t, n)
			assert.Equal(t, 1, rec.mutations["create/invalid"])
		})
	}
}

func TestUpdateTitleOnlyLeavesOtherFields(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, false)
	created, err := s.Create(ctx, standup())
	require.NoError(t, err)

	got, err := s.Update(ctx, created.ID, mustPatch(t, `{"title":"X"}`))
	require.NoError(t, err)

	want := created
	want.Title = "X"
	assert.Equal(t, want, got)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, list[0])
}

func TestUpdateUnparsableDateIsSkipped(t *testing.T) {
	ctx := context.Background()
	s, _, rec := newTestService(t, false)
	created, err := s.Create(ctx, standup())
	require.NoError(t, err)

	got, err := s.Update(ctx, created.ID, mustPatch(t, `{"startDate":"not a date","location":"Room 2"}`))
	require.NoError(t, err)
	assert.Equal(t, created.Start, got.Start)
	assert.Equal(t, "Room 2", got.Location)
	assert.Equal(t, 1, rec.dropped["startDate"])
}

func TestUpdateStrictDatesRejects(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, true)
	created, err := s.Create(ctx, standup())
	require.NoError(t, err)

	_, err = s.Update(ctx, created.ID, mustPatch(t, `{"startDate":"not a date","location":"Room 2"}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, msgInvalidTimestamp, verr.Fields["startDate"])

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Room 1", list[0].Location, "failed update must not persist other fields")
}

func TestUpdateDatesAndNullHandling(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, false)
	created, err := s.Create(ctx, standup())
	require.NoError(t, err)

	got, err := s.Update(ctx, created.ID, mustPatch(t, `{
		"startDate":"2024-01-02T10:00:00.000Z",
		"endDate":"2024-01-02T11:00:00Z",
		"title":null,
		"category":null,
		"location":null,
		"bgColor":null,
		"dragBgColor":null,
		"color":"#123456",
		"description":"",
		"startDateIgnored":"x"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T10:00:00", got.Start)
	assert.Equal(t, "2024-01-02T11:00:00", got.End)
	assert.Equal(t, "Standup", got.Title)
	assert.Equal(t, domain.CategoryTime, got.Category)
	assert.Empty(t, got.Location)
	assert.Equal(t, "#34c38f", got.BgColor, "null color keeps the stored value")
	assert.Equal(t, created.DragBgColor, got.DragBgColor)
	assert.Equal(t, "#123456", got.Color)
	assert.Empty(t, got.Body)
	assert.Equal(t, "#34c38f", got.BorderColor)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, false)
	created, err := s.Create(ctx, standup())
	require.NoError(t, err)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAttendeesList(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, false)
	created, err := s.Create(ctx, standup())
	require.NoError(t, err)

	got, err := s.Update(ctx, created.ID, mustPatch(t, `{"attendees":["A","","B"]}`))
	require.NoError(t, err)
	assert.Equal(t, "A, B", got.Attendees)
}

func TestUpdateIsAllDay(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, false)
	created, err := s.Create(ctx, standup())
	require.NoError(t, err)

	got, err := s.Update(ctx, created.ID, mustPatch(t, `{"isAllDay":true,"category":"allday"}`))
	require.NoError(t, err)
	assert.True(t, got.IsAllday)
	assert.Equal(t, domain.CategoryAllDay, got.Category)

	_, err = s.Update(ctx, created.ID, mustPatch(t, `{"isAllDay":null}`))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateRejectsEndBeforeStart(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, false)
	created, err := s.Create(ctx, standup())
	require.NoError(t, err)

	_, err = s.Update(ctx, created.ID, mustPatch(t, `{"startDate":"2024-01-01T10:00:00"}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "endDate")
}

func TestUpdateErrors(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, false)
	created, err := s.Create(ctx, standup())
	require.NoError(t, err)

	_, err = s.Update(ctx, "missing", mustPatch(t, `{"title":"X"}`))
	assert.ErrorIs(t, err, ErrNotFound)

	// unknown id wins over an empty body
	_, err = s.Update(ctx, "missing", domain.Patch{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Update(ctx, created.ID, domain.Patch{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, st, rec := newTestService(t, false)
	created, err := s.Create(ctx, standup())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)
	n, _ := st.Len(ctx)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Delete(ctx, created.ID))
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, rec.count)
}

func TestStandupScenario(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t, false)

	created, err := s.Create(ctx, domain.CreateRequest{
		Title:     "Standup",
		StartDate: "2024-01-01T09:00:00",
		EndDate:   "2024-01-01T09:15:00",
	})
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Standup", list[0].Title)
	assert.Equal(t, "2024-01-01T09:00:00", list[0].Start)

	_, err = s.Update(ctx, created.ID, mustPatch(t, `{"location":"Room 2"}`))
	require.NoError(t, err)
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Standup", list[0].Title)
	assert.Equal(t, "2024-01-01T09:00:00", list[0].Start)
	assert.Equal(t, "2024-01-01T09:15:00", list[0].End)
	assert.Equal(t, "Room 2", list[0].Location)

	require.NoError(t, s.Delete(ctx, created.ID))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s, _, rec := newTestService(t, false)
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

	require.NoError(t, s.Seed(ctx, now))
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Team Meeting", list[0].Title)
	assert.Equal(t, "2024-03-11T10:00:00", list[0].Start)
	assert.True(t, list[1].IsAllday)
	assert.Equal(t, domain.CategoryAllDay, list[1].Category)
	assert.Equal(t, 3, rec.count)

	// second seed is a no-op
	require.NoError(t, s.Seed(ctx, now))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

type failingStore struct{ store.Store }

func (failingStore) List(context.Context) ([]domain.Event, error) {
	return nil, errors.New("backend down")
}
func (failingStore) Get(context.Context, string) (domain.Event, error) {
	return domain.Event{}, errors.New("backend down")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("backend down") }

func TestBackendErrorsAreNotClientErrors(t *testing.T) {
	ctx := context.Background()
	s := New(Options{Store: failingStore{}, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	_, err := s.List(ctx)
	require.Error(t, err)

	_, err = s.Update(ctx, "1", mustPatch(t, `{"title":"X"}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidInput)

	err = s.Delete(ctx, "1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
