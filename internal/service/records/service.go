// Package records binds a store to a record schema: it validates input,
// recomputes derived fields and announces every mutation.
package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/recordhub/backend/internal/service/events"
	"github.com/zhouzirui/recordhub/backend/internal/store"
)

// Entity is a record type with a self-check.
type Entity[T any] interface {
	store.Record[T]
	Validate() error
}

// Deriver is implemented by records with computed fields. prev is nil on
// create and holds the stored record on update.
type Deriver[T any] interface {
	Derive(prev *T, now time.Time) T
}

// Conflicter is implemented by records with uniqueness rules beyond the id.
type Conflicter[T any] interface {
	ConflictsWith(other T) bool
}

// Patch applies the fields present in a partial update.
type Patch[T any] interface {
	Apply(current T) T
}

// NotFoundError names the missing record.
type NotFoundError struct {
	Noun string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Noun, e.ID)
}

func (e *NotFoundError) Unwrap() error { return store.ErrNotFound }

// ConflictError reports a uniqueness violation against an existing record.
type ConflictError struct {
	Noun       string
	ExistingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists (ID %s)", e.Noun, e.ExistingID)
}

// Service runs CRUD for one collection.
type Service[T Entity[T]] struct {
	collection string
	noun       string
	store      store.Store[T]
	events     events.Publisher
	log        zerolog.Logger
	now        func() time.Time
}

// Option customises a Service.
type Option[T Entity[T]] func(*Service[T])

// WithClock overrides time.Now for derived timestamps.
func WithClock[T Entity[T]](now func() time.Time) Option[T] {
	return func(s *Service[T]) { s.now = now }
}

// WithEvents publishes every mutation to p.
func WithEvents[T Entity[T]](p events.Publisher) Option[T] {
	return func(s *Service[T]) { s.events = p }
}

// WithLogger sets the service logger.
func WithLogger[T Entity[T]](logger zerolog.Logger) Option[T] {
	return func(s *Service[T]) { s.log = logger }
}

// NewService creates a service for collection (e.g. "applications") whose
// records are called noun (e.g. "Application") in error messages.
func NewService[T Entity[T]](collection, noun string, st store.Store[T], opts ...Option[T]) *Service[T] {
	s := &Service[T]{
		collection: collection,
		noun:       noun,
		store:      st,
		log:        zerolog.Nop(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "records").Str("collection", collection).Logger()
	return s
}

// Collection returns the collection name.
func (s *Service[T]) Collection() string { return s.collection }

// Noun returns the singular record name used in messages.
func (s *Service[T]) Noun() string { return s.noun }

// Create validates input, assigns an id and stores it.
func (s *Service[T]) Create(ctx context.Context, input T) (T, error) {
	var zero T
	item := s.derive(nil, input)
	if err := item.Validate(); err != nil {
		return zero, err
	}
	if err := s.checkConflicts(ctx, "", item); err != nil {
		return zero, err
	}

	created, err := s.store.Create(ctx, item)
	if err != nil {
		return zero, s.wrap("", err)
	}

	s.log.Info().Str("id", created.RecordID()).Msg("record created")
	s.publish(events.Created, created.RecordID(), created)
	return created, nil
}

// Get returns the record with id.
func (s *Service[T]) Get(ctx context.Context, id string) (T, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, s.wrap(id, err)
	}
	return item, nil
}

// List returns every record in collection order.
func (s *Service[T]) List(ctx context.Context) ([]T, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, s.wrap("", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Filter returns the records matching pred, in collection order.
func (s *Service[T]) Filter(ctx context.Context, pred func(T) bool) ([]T, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Replace overwrites every mutable field of the record with id.
func (s *Service[T]) Replace(ctx context.Context, id string, input T) (T, error) {
	return s.update(ctx, id, func(T) T { return input })
}

// Patch overwrites only the fields present in p.
func (s *Service[T]) Patch(ctx context.Context, id string, p Patch[T]) (T, error) {
	return s.update(ctx, id, p.Apply)
}

// Delete removes the record with id.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.wrap(id, err)
	}
	s.log.Info().Str("id", id).Msg("record deleted")
	s.publish(events.Deleted, id, nil)
	return nil
}

func (s *Service[T]) update(ctx context.Context, id string, apply func(T) T) (T, error) {
	var zero T
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, s.wrap(id, err)
	}

	item := s.derive(&current, apply(current).WithID(id))
	if err := item.Validate(); err != nil {
		return zero, err
	}
	if err := s.checkConflicts(ctx, id, item); err != nil {
		return zero, err
	}

	updated, err := s.store.Update(ctx, id, item)
	if err != nil {
		return zero, s.wrap(id, err)
	}

	s.log.Info().Str("id", id).Msg("record updated")
	s.publish(events.Updated, id, updated)
	return updated, nil
}

func (s *Service[T]) derive(prev *T, item T) T {
	if d, ok := any(item).(Deriver[T]); ok {
		return d.Derive(prev, s.now())
	}
	return item
}

func (s *Service[T]) checkConflicts(ctx context.Context, selfID string, item T) error {
	c, ok := any(item).(Conflicter[T])
	if !ok {
		return nil
	}
	existing, err := s.store.List(ctx)
	if err != nil {
		return s.wrap("", err)
	}
	for _, other := range existing {
		if other.RecordID() != selfID && c.ConflictsWith(other) {
			return &ConflictError{Noun: s.noun, ExistingID: other.RecordID()}
		}
	}
	return nil
}

func (s *Service[T]) wrap(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Noun: s.noun, ID: id}
	}
	s.log.Error().Err(err).Str("id", id).Msg("store operation failed")
	return fmt.Errorf("%s store: %w", s.collection, err)
}

func (s *Service[T]) publish(action events.Action, id string, record any) {
	if s.events == nil {
		return
	}
	s.events.Publish(events.Event{
		Collection: s.collection,
		Action:     action,
		ID:         id,
		Record:     record,
		At:         s.now(),
	})
}
