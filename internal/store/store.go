// Package store keeps collections of records on one of several backing media:
// process memory, a single JSON file, a directory of per-record files, or SQLite.
package store

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrNotFound reports that no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrParse reports that persisted data could not be decoded.
	ErrParse = errors.New("malformed record data")
)

// Record is implemented by value types kept in a Store. WithID returns a copy
// carrying the store-assigned identifier.
type Record[T any] interface {
	RecordID() string
	WithID(id string) T
}

// Store is the CRUD contract every backend satisfies.
type Store[T Record[T]] interface {
	Create(ctx context.Context, item T) (T, error)
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context) ([]T, error)
	Update(ctx context.Context, id string, item T) (T, error)
	Delete(ctx context.Context, id string) error
}

// IDGenerator hands out identifiers. Observe is called for every id found in
// persisted data so that new ids never collide with loaded ones.
type IDGenerator interface {
	Next() string
	Observe(id string)
}

// Sequence yields 1, 2, 3, ... and resumes after the highest observed id.
type Sequence struct {
	mu   sync.Mutex
	next int
}

// NewSequence returns a Sequence starting at 1.
func NewSequence() *Sequence {
	return &Sequence{next: 1}
}

func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	return strconv.Itoa(id)
}

func (s *Sequence) Observe(id string) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return
	}
	s.mu.Lock()
	if n >= s.next {
		s.next = n + 1
	}
	s.mu.Unlock()
}

// UUIDs yields random v4 UUID strings.
type UUIDs struct{}

func (UUIDs) Next() string { return uuid.NewString() }

func (UUIDs) Observe(string) {}
