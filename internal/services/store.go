package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Store memoizes the loaded table for the life of the process. The first
// successful load is kept; concurrent callers during that load wait for the
// same result. A failed load is not kept, so the next caller retries.
//
// The shared load is detached from any single caller: a caller whose context
// ends stops waiting, but the load continues for the others, bounded by the
// loader's timeout.
type Store struct {
	loader *Loader
	path   string
	logger *slog.Logger
	load   func(ctx context.Context, path string) (*Table, error)

	group singleflight.Group
	table atomic.Pointer[Table]
}

func NewStore(loader *Loader, path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		loader: loader,
		path:   path,
		logger: logger,
		load:   loader.LoadFile,
	}
}

func (s *Store) Table(ctx context.Context) (*Table, error) {
	if t := s.table.Load(); t != nil {
		return t, nil
	}

	ch := s.group.DoChan(s.path, func() (any, error) {
		if t := s.table.Load(); t != nil {
			return t, nil
		}

		loadCtx := context.WithoutCancel(ctx)
		if s.loader.timeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, s.loader.timeout)
			defer cancel()
		}

		start := time.Now()
		t, err := s.load(loadCtx, s.path)
		if err != nil {
			return nil, err
		}
		s.table.Store(t)
		s.logger.Info("dataset cached", "source", s.path, "rows", len(t.Rows), "duration", time.Since(start))
		return t, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for %s: %w", s.path, context.Cause(ctx))
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("joined in-flight dataset load", "source", s.path)
		}
		return res.Val.(*Table), nil
	}
}

// Set installs a table without reading the source.
func (s *Store) Set(t *Table) {
	s.table.Store(t)
}

func (s *Store) Loaded() bool {
	return s.table.Load() != nil
}
