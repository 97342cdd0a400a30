package records_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/recordhub/backend/internal/service/events"
	"github.com/zhouzirui/recordhub/backend/internal/service/records"
	"github.com/zhouzirui/recordhub/backend/internal/store"
	"github.com/zhouzirui/recordhub/backend/internal/validate"
)

type widget struct {
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Color   string    `json:"color"`
	Created time.Time `json:"created"`
	Touched time.Time `json:"touched"`
}

func (w widget) RecordID() string { return strconv.Itoa(w.ID) }

func (w widget) WithID(id string) widget {
	w.ID, _ = strconv.Atoi(id)
	return w
}

func (w widget) Validate() error {
	return validate.First(
		validate.NotBlank("name", w.Name),
		validate.OneOf("color", w.Color, "red", "blue"),
	)
}

func (w widget) Derive(prev *widget, now time.Time) widget {
	if prev == nil {
		w.Created = now
	} else {
		w.Created = prev.Created
	}
	w.Touched = now
	return w
}

func (w widget) ConflictsWith(other widget) bool {
	return strings.EqualFold(w.Name, other.Name)
}

type widgetPatch struct {
	Name  *string
	Color *string
}

func (p widgetPatch) Apply(w widget) widget {
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Color != nil {
		w.Color = *p.Color
	}
	return w
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(t *testing.T) (*records.Service[widget], *clock, *events.Subscription) {
	t.Helper()
	c := &clock{t: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	hub := events.NewHub(zerolog.Nop())
	sub := hub.Subscribe("widgets")
	st := store.NewCollection[widget](store.NewSequence(), nil, zerolog.Nop())
	svc := records.NewService[widget]("widgets", "Widget", st,
		records.WithClock[widget](c.now),
		records.WithEvents[widget](hub),
		records.WithLogger[widget](zerolog.Nop()),
	)
	return svc, c, sub
}

func ptr[T any](v T) *T { return &v }

func TestCreateAssignsIDAndDerivedFields(t *testing.T) {
	svc, c, sub := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, widget{ID: 99, Name: "bolt", Color: "red", Created: time.Unix(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, c.t, created.Created)

	got, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	ev := <-sub.Events()
	assert.Equal(t, events.Created, ev.Action)
	assert.Equal(t, "1", ev.ID)
}

func TestCreateRejectsInvalidBeforeStoring(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, widget{Name: "bolt", Color: "green"})
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "color", verr.Field)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateRejectsConflicts(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, widget{Name: "Bolt", Color: "red"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, widget{Name: "bolt", Color: "blue"})
	var cerr *records.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "1", cerr.ExistingID)
}

func TestPatchOverwritesOnlyPresentFields(t *testing.T) {
	svc, c, sub := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, widget{Name: "bolt", Color: "red"})
	require.NoError(t, err)
	<-sub.Events()

	c.t = c.t.Add(time.Hour)
	patched, err := svc.Patch(ctx, "1", widgetPatch{Color: ptr("blue")})
	require.NoError(t, err)
	assert.Equal(t, created.ID, patched.ID)
	assert.Equal(t, "bolt", patched.Name)
	assert.Equal(t, "blue", patched.Color)
	assert.Equal(t, created.Created, patched.Created)
	assert.Equal(t, c.t, patched.Touched)

	ev := <-sub.Events()
	assert.Equal(t, events.Updated, ev.Action)

	// renaming to its own name is not a conflict
	_, err = svc.Patch(ctx, "1", widgetPatch{Name: ptr("BOLT")})
	require.NoError(t, err)
}

func TestReplaceKeepsPathID(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, widget{Name: "bolt", Color: "red"})
	require.NoError(t, err)

	replaced, err := svc.Replace(ctx, "1", widget{ID: 42, Name: "nut", Color: "blue"})
	require.NoError(t, err)
	assert.Equal(t, 1, replaced.ID)
	assert.Equal(t, "nut", replaced.Name)

	_, err = svc.Replace(ctx, "1", widget{Name: "nut", Color: "purple"})
	assert.Error(t, err)
	got, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "blue", got.Color)
}

func TestMissingRecordsReportNotFound(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "7")
	var nf *records.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Widget with ID 7 not found", nf.Error())
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = svc.Patch(ctx, "7", widgetPatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "7"), store.ErrNotFound)
}

func TestDeleteThenGetFails(t *testing.T) {
	svc, _, sub := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, widget{Name: "bolt", Color: "red"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.RecordID()))

	_, err = svc.Get(ctx, created.RecordID())
	assert.ErrorIs(t, err, store.ErrNotFound)

	<-sub.Events()
	ev := <-sub.Events()
	assert.Equal(t, events.Deleted, ev.Action)
	assert.Nil(t, ev.Record)
}

func TestFilter(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	for _, n := range []string{"alpha", "beta", "alps"} {
		_, err := svc.Create(ctx, widget{Name: n, Color: "red"})
		require.NoError(t, err)
	}

	got, err := svc.Filter(ctx, func(w widget) bool { return strings.HasPrefix(w.Name, "al") })
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].Name)
	assert.Equal(t, "alps", got[1].Name)
}
