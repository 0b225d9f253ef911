// Package cli implements the analytics command line tool.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/godilite/product-analytics/internal/ingest"
	"github.com/godilite/product-analytics/internal/repository"
	"github.com/godilite/product-analytics/internal/service"
	dbbuilder "github.com/godilite/product-analytics/pkg/database"
)

var errNoData = errors.New("no events to analyze: pass --data or a populated --db")

type options struct {
	dataPath string
	dbPath   string
	verbose  bool
	logger   *zap.Logger
}

// NewRootCmd builds the command tree. A nil logger is replaced by a
// development logger on stderr at warn level, or debug with --verbose.
func NewRootCmd(logger *zap.Logger) *cobra.Command {
	opts := &options{logger: logger}

	root := &cobra.Command{
		Use:   "analytics",
		Short: "Product analytics over an event log",
		Long: `analytics loads an event CSV into sqlite and runs A/B tests,
dashboard reports and RICE prioritization against it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logger != nil {
				return nil
			}
			cfg := zap.NewDevelopmentConfig()
			cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
			if opts.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			opts.logger = l
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dataPath, "data", "", "events CSV to load before running the command")
	flags.StringVar(&opts.dbPath, "db", ":memory:", "sqlite database holding the events")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newABTestCmd(opts),
		newReportCmd(opts),
		newRiceCmd(opts),
		newIngestCmd(opts),
	)
	return root
}

// session is an open events store, loaded from --data when given.
type session struct {
	db      *sql.DB
	repo    *repository.EventRepository
	service *service.AnalyticsService
	loaded  int
}

func (s *session) Close() error {
	return s.db.Close()
}

func (o *options) open(ctx context.Context, requireData bool) (*session, error) {
	if o.dataPath == "" && (requireData || dbbuilder.IsInMemory(o.dbPath)) {
		return nil, errNoData
	}

	db, err := dbbuilder.New(ctx,
		dbbuilder.WithDataSource(o.dbPath),
		dbbuilder.WithRetry(1, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.dbPath, err)
	}

	repo := repository.NewEventRepository(db)
	s := &session{
		db:      db,
		repo:    repo,
		service: service.NewAnalyticsService(repo, o.logger),
	}

	if err := s.repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if o.dataPath != "" {
		n, err := ingest.NewLoader(s.repo, o.logger).LoadFile(ctx, o.dataPath)
		if err != nil {
			db.Close()
			return nil, err
		}
		s.loaded = n
	}
	return s, nil
}

// window resolves --start/--end, falling back to the stored event span.
func (s *session) window(ctx context.Context, startRaw, endRaw string) (time.Time, time.Time, error) {
	first, last, err := s.repo.GetEventSpan(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	start, end := first, last
	if startRaw != "" {
		if start, err = parseDate(startRaw, false); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
		}
	}
	if endRaw != "" {
		if end, err = parseDate(endRaw, true); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
		}
	}

	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, service.ErrNoEvents
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return start, end, nil
}

// parseDate accepts RFC3339 or YYYY-MM-DD. A bare end date covers the
// whole day.
func parseDate(raw string, isEnd bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", raw)
	}
	if isEnd {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}
