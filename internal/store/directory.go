package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/rs/zerolog"
)

const recordExt = ".json"

// Directory stores every record in its own <id>.json file.
type Directory[T Record[T]] struct {
	mu  sync.Mutex
	dir string
	ids IDGenerator
	log zerolog.Logger
}

// NewDirectory returns a per-record store rooted at dir and makes sure the
// directory exists.
func NewDirectory[T Record[T]](dir string, ids IDGenerator, logger zerolog.Logger) (*Directory[T], error) {
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	d := &Directory[T]{dir: dir, ids: ids, log: logger}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if id, ok := recordIDFromName(e); ok {
			ids.Observe(id)
		}
	}
	return d, nil
}

func (d *Directory[T]) Create(_ context.Context, item T) (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	if err := os.MkdirAll(d.dir, dirPermission); err != nil {
		return zero, fmt.Errorf("create directory %s: %w", d.dir, err)
	}

	id := d.ids.Next()
	for d.exists(id) {
		id = d.ids.Next()
	}
	item = item.WithID(id)
	if err := d.write(item); err != nil {
		return zero, err
	}
	d.log.Debug().Str("id", id).Msg("record file created")
	return item, nil
}

func (d *Directory[T]) Get(_ context.Context, id string) (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read(id)
}

func (d *Directory[T]) List(_ context.Context) ([]T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := os.ReadDir(d.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", d.dir, err)
	}

	items := make([]T, 0, len(entries))
	for _, e := range entries {
		id, ok := recordIDFromName(e)
		if !ok {
			continue
		}
		item, err := d.read(id)
		if err != nil {
			d.log.Warn().Err(err).Str("id", id).Msg("skipping unreadable record file")
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (d *Directory[T]) Update(_ context.Context, id string, item T) (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	if !validFileID(id) || !d.exists(id) {
		return zero, fmt.Errorf("id %s: %w", id, ErrNotFound)
	}
	item = item.WithID(id)
	if err := d.write(item); err != nil {
		return zero, err
	}
	return item, nil
}

func (d *Directory[T]) Delete(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !validFileID(id) {
		return fmt.Errorf("id %s: %w", id, ErrNotFound)
	}
	err := os.Remove(d.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("id %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("remove record %s: %w", id, err)
	}
	return nil
}

func (d *Directory[T]) read(id string) (T, error) {
	var item T
	if !validFileID(id) {
		return item, fmt.Errorf("id %s: %w", id, ErrNotFound)
	}
	data, err := os.ReadFile(d.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return item, fmt.Errorf("id %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return item, fmt.Errorf("read record %s: %w", id, err)
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("decode record %s: %w: %v", id, ErrParse, err)
	}
	return item, nil
}

func (d *Directory[T]) write(item T) error {
	data, err := json.Marshal(item, jsontext.WithIndent("    "))
	if err != nil {
		return fmt.Errorf("encode record %s: %w", item.RecordID(), err)
	}
	return writeFileAtomic(d.path(item.RecordID()), data)
}

func (d *Directory[T]) exists(id string) bool {
	_, err := os.Stat(d.path(id))
	return err == nil
}

func (d *Directory[T]) path(id string) string {
	return filepath.Join(d.dir, id+recordExt)
}

func recordIDFromName(e fs.DirEntry) (string, bool) {
	name := e.Name()
	if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, recordExt) {
		return "", false
	}
	return strings.TrimSuffix(name, recordExt), true
}

// validFileID keeps ids from escaping the store directory.
func validFileID(id string) bool {
	return id != "" && id != "." && !strings.Contains(id, "..") && !strings.ContainsAny(id, `/\`)
}
