package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Kind names a backing medium.
type Kind string

const (
	KindMemory Kind = "memory"
	KindFile   Kind = "file"
	KindDir    Kind = "dir"
	KindSQLite Kind = "sqlite"
)

// ParseKind accepts the backend names used in configuration.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindMemory, KindFile, KindDir, KindSQLite:
		return k, nil
	default:
		return "", fmt.Errorf("unknown store backend %q (want memory, file, dir or sqlite)", raw)
	}
}

// Options selects and parameterises a backend for Open.
type Options struct {
	Kind       Kind
	Collection string
	// Path is the JSON document for KindFile and the directory for KindDir.
	Path string
	// DB is required for KindSQLite.
	DB     *sql.DB
	IDs    IDGenerator
	Logger zerolog.Logger
}

// Open builds the store described by opts. A file-backed collection whose
// document cannot be read or parsed starts empty; the problem is logged, not
// returned.
func Open[T Record[T]](ctx context.Context, opts Options) (Store[T], error) {
	if opts.IDs == nil {
		opts.IDs = NewSequence()
	}
	logger := opts.Logger.With().
		Str("component", "store").
		Str("collection", opts.Collection).
		Str("backend", string(opts.Kind)).
		Logger()

	switch opts.Kind {
	case KindMemory:
		logger.Warn().Msg("in-memory store: data will not persist after shutdown")
		return NewCollection[T](opts.IDs, nil, logger), nil

	case KindFile:
		if opts.Path == "" {
			return nil, errors.New("file backend requires a path")
		}
		c := NewCollection[T](opts.IDs, NewJSONFile[T](opts.Path), logger)
		if err := c.Load(ctx); err != nil {
			logger.Error().Err(err).Str("path", opts.Path).Msg("could not load data file, starting with an empty collection")
		}
		return c, nil

	case KindDir:
		if opts.Path == "" {
			return nil, errors.New("dir backend requires a path")
		}
		d, err := NewDirectory[T](opts.Path, opts.IDs, logger)
		if err != nil {
			return nil, err
		}
		return d, nil

	case KindSQLite:
		if opts.DB == nil {
			return nil, errors.New("sqlite backend requires an open database")
		}
		s, err := NewSQLite[T](ctx, opts.DB, opts.Collection, opts.IDs, logger)
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Kind)
	}
}
