package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/product-analytics/internal/repository/models"
)

// EventStore is the write side of the events repository.
type EventStore interface {
	EnsureSchema(ctx context.Context) error
	ReplaceEvents(ctx context.Context, events []models.Event) error
}

// Loader replaces the stored events with the contents of a CSV log.
type Loader struct {
	store  EventStore
	logger *zap.Logger
}

func NewLoader(store EventStore, logger *zap.Logger) *Loader {
	if store == nil {
		panic("store must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		store:  store,
		logger: logger.Named("ingest"),
	}
}

// Load parses r and swaps it into the store. On a parse error the store is
// left untouched.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	started := time.Now()

	events, err := ReadCSV(r)
	if err != nil {
		return 0, err
	}

	if err := l.store.EnsureSchema(ctx); err != nil {
		return 0, fmt.Errorf("prepare store: %w", err)
	}
	if err := l.store.ReplaceEvents(ctx, events); err != nil {
		return 0, fmt.Errorf("store events: %w", err)
	}

	l.logger.Info("events loaded",
		zap.Int("rows", len(events)),
		zap.Duration("took", time.Since(started)))

	return len(events), nil
}

// LoadFile opens path and calls Load.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	n, err := l.Load(ctx, f)
	if err != nil {
		l.logger.Error("events load failed", zap.String("path", path), zap.Error(err))
		return 0, fmt.Errorf("load %s: %w", path, err)
	}
	return n, nil
}
