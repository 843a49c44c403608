package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"catalog/internal/domain"
	"catalog/internal/etl"
	"catalog/internal/report"
)

// ─────────────────────────────────────────────────────────────
// Import Service — one import end-to-end plus its triggers
// ─────────────────────────────────────────────────────────────

// ErrAlreadyRunning is returned when an import of the same file is in flight.
var ErrAlreadyRunning = errors.New("import already running")

var errWatcherClosed = errors.New("file watcher closed")

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// StoreGateway is a persistence gateway holding an open connection.
type StoreGateway interface {
	etl.Gateway
	Close() error
}

// GatewayFactory connects to the target store. It is called lazily, the
// first time a run has rows to persist.
type GatewayFactory func(ctx context.Context) (StoreGateway, error)

// Options configures an ImportService. Every field is optional.
type Options struct {
	Logger      *zap.Logger
	Out         io.Writer          // report destination, stdout when nil
	History     domain.RunLogStore // nil disables run history
	Emitter     EventEmitter
	OpenGateway GatewayFactory
	Source      etl.Source
	Rules       []etl.Rule
	Debounce    time.Duration
	Now         func() time.Time
}

// ImportService runs catalog imports and prints their reports.
type ImportService struct {
	opts    Options
	logger  *zap.Logger
	out     io.Writer
	emitter EventEmitter
	imports importGuard
}

// NewImportService creates an ImportService ready for use.
func NewImportService(opts Options) *ImportService {
	s := &ImportService{opts: opts, logger: opts.Logger, out: opts.Out, emitter: opts.Emitter}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.emitter == nil {
		s.emitter = LogEmitter{Logger: s.logger}
	}
	if s.opts.Debounce <= 0 {
		s.opts.Debounce = DefaultDebounce
	}
	return s
}

// ── Run ────────────────────────────────────────────────────

// Run executes one import and writes its report. The returned error is
// fatal (unreadable file, unknown source); row problems only show up in
// the report.
func (s *ImportService) Run(ctx context.Context, rc etl.RunConfig) (*etl.Result, error) {
	release, err := s.imports.acquire(rc)
	if err != nil {
		return nil, err
	}
	defer release()

	if rc.DryRun {
		if err := report.TestModeBanner(s.out); err != nil {
			return nil, fmt.Errorf("write banner: %w", err)
		}
	}

	gw := &lazyGateway{open: s.opts.OpenGateway}
	defer gw.Close()

	engine := &etl.Engine{
		Gateway: gw,
		Source:  s.opts.Source,
		Rules:   s.opts.Rules,
		Logger:  s.logger,
		Now:     s.opts.Now,
	}

	result, runErr := engine.Run(ctx, rc)
	if runErr != nil {
		s.record(result, runErr)
		s.emitter.Emit(ctx, EventImportFailed, map[string]string{
			"file":  rc.FilePath,
			"error": runErr.Error(),
		})
		return result, runErr
	}

	if err := report.Write(s.out, result); err != nil {
		return result, fmt.Errorf("write report: %w", err)
	}
	result.MarkReported()

	runLog := s.record(result, nil)
	s.emitter.Emit(ctx, EventImportCompleted, runLog)
	return result, nil
}

func (s *ImportService) record(result *etl.Result, runErr error) *domain.RunLog {
	if result == nil {
		return nil
	}
	runLog := result.RunLog(runErr)
	if s.opts.History == nil {
		return runLog
	}
	if err := s.opts.History.CreateRun(runLog); err != nil {
		s.logger.Warn("failed to record run history", zap.String("run_id", runLog.ID), zap.Error(err))
	}
	return runLog
}

// ListRuns returns the most recent runs from the history store.
func (s *ImportService) ListRuns(limit int) ([]domain.RunLog, error) {
	if s.opts.History == nil {
		return nil, errors.New("run history is not configured")
	}
	return s.opts.History.ListRuns(limit)
}

// ListSources returns the available source descriptors.
func (s *ImportService) ListSources() []etl.SourceSpec {
	return etl.ListSources()
}

// Running lists the imports currently in flight.
func (s *ImportService) Running() []etl.RunConfig {
	return s.imports.inFlight()
}

// WaitRunning blocks until all running imports finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *ImportService) WaitRunning(ctx context.Context) {
	s.imports.wait(ctx)
}

// ── Watchers (cron + file_watch) ──────────────────────────

// Watch re-runs the import whenever the file is written and, when schedule
// is non-empty, on that cron schedule. Runs never overlap; a trigger that
// fires while an import is in flight is skipped. Watch blocks until ctx is
// cancelled and returns once every run has finished.
func (s *ImportService) Watch(ctx context.Context, rc etl.RunConfig, schedule string) error {
	absPath, err := filepath.Abs(rc.FilePath)
	if err != nil {
		return fmt.Errorf("bad path %q: %w", rc.FilePath, err)
	}
	rc.FilePath = absPath

	var sched *cron.Cron
	if schedule != "" {
		sched = cron.New()
		if _, err := sched.AddFunc(schedule, func() { s.trigger(ctx, rc, "schedule") }); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir %q: %w", filepath.Dir(absPath), err)
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer watcher.Close()
		return s.watchLoop(egCtx, watcher, rc)
	})

	if sched != nil {
		sched.Start()
		s.logger.Info("import schedule started", zap.String("schedule", schedule), zap.String("file", absPath))
		eg.Go(func() error {
			<-egCtx.Done()
			// Stop waits for a run the scheduler already started.
			<-sched.Stop().Done()
			return nil
		})
	}

	s.logger.Info("watching file", zap.String("file", absPath))
	err = eg.Wait()
	s.imports.wait(context.Background())
	return err
}

func (s *ImportService) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, rc etl.RunConfig) error {
	var (
		debounce *time.Timer
		fire     <-chan time.Time
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errWatcherClosed
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if name, _ := filepath.Abs(event.Name); name != rc.FilePath {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(s.opts.Debounce)
			fire = debounce.C
		case <-fire:
			fire = nil
			s.trigger(ctx, rc, "file_watch")
		case err, ok := <-watcher.Errors:
			if !ok {
				return errWatcherClosed
			}
			s.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (s *ImportService) trigger(ctx context.Context, rc etl.RunConfig, by string) {
	if ctx.Err() != nil {
		return
	}
	logger := s.logger.With(zap.String("trigger", by), zap.String("file", rc.FilePath))
	logger.Info("running import")
	if _, err := s.Run(ctx, rc); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			logger.Info("import still running, trigger skipped")
			return
		}
		logger.Error("import failed", zap.Error(err))
	}
}

// ── Lazy gateway ──────────────────────────────────────────

// lazyGateway connects on the first Begin so a missing or unreadable
// source file is reported before the store is touched.
type lazyGateway struct {
	open GatewayFactory
	gw   StoreGateway
}

func (l *lazyGateway) Begin(ctx context.Context) (etl.Batch, error) {
	if l.gw == nil {
		if l.open == nil {
			return nil, errors.New("no persistence gateway configured")
		}
		gw, err := l.open(ctx)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		l.gw = gw
	}
	return l.gw.Begin(ctx)
}

func (l *lazyGateway) Close() error {
	if l.gw == nil {
		return nil
	}
	return l.gw.Close()
}
