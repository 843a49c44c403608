package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog/internal/domain"
)

// ── Pipeline ───────────────────────────────────────────────
// Orchestrates: read → classify → recover → re-classify → filter → persist.
// Stages run strictly in order and each consumes all of its input before
// the next begins. Bad rows never abort a run; they land in a bucket.

// Stage is a step of the ingestion state machine.
type Stage string

const (
	StagePending    Stage = ""
	StageLoaded     Stage = "loaded"
	StageClassified Stage = "classified"
	StageRecovered  Stage = "recovered"
	StageFiltered   Stage = "filtered"
	StagePersisted  Stage = "persisted"
	StageReported   Stage = "reported"
)

// DefaultSourceType is the source used when RunConfig.SourceType is empty.
const DefaultSourceType = "csv_file"

// RunConfig holds the configuration for a single ingestion run.
type RunConfig struct {
	FilePath   string `json:"filePath"`
	SourceType string `json:"sourceType"`
	// DryRun does all the work but rolls the transaction back.
	DryRun bool `json:"dryRun"`
}

// Result holds every bucket of one run. Buckets are owned by the run and
// discarded with it.
type Result struct {
	RunID      string    `json:"runId"`
	FilePath   string    `json:"filePath"`
	DryRun     bool      `json:"dryRun"`
	Stage      Stage     `json:"stage"`
	Header     []string  `json:"header"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Input         []domain.RawRow  `json:"input"`
	Malformed     []domain.RawRow  `json:"malformed"`
	Recovered     []domain.Product `json:"recovered"`
	Unrecoverable []domain.RawRow  `json:"unrecoverable"`
	RuleExcluded  []domain.Product `json:"ruleExcluded"`
	Eligible      []domain.Product `json:"eligible"` // typed rows handed to the gateway
	Inserted      []domain.Product `json:"inserted"`
	Duplicate     []domain.Product `json:"duplicate"`
	InsertFailed  []domain.Product `json:"insertFailed"`

	// PersistErr is set when the batch could not be opened or committed.
	// The run still completes; affected rows are counted as failed.
	PersistErr string `json:"persistError,omitempty"`
}

// Counts are the report totals of a run.
type Counts struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Counts summarizes the run. Skipped covers every row that did not land:
// unrecoverable, rule-excluded, duplicate and failed inserts.
func (r *Result) Counts() Counts {
	return Counts{
		Processed:  len(r.Input),
		Successful: len(r.Inserted),
		Skipped:    len(r.Unrecoverable) + len(r.RuleExcluded) + len(r.Duplicate) + len(r.InsertFailed),
		Failed:     len(r.InsertFailed),
	}
}

// MarkReported moves a persisted run to its terminal stage.
func (r *Result) MarkReported() {
	if r.Stage == StagePersisted {
		r.Stage = StageReported
	}
}

// RunLog converts the result into a history record.
func (r *Result) RunLog(runErr error) *domain.RunLog {
	log := &domain.RunLog{
		ID:            r.RunID,
		FilePath:      r.FilePath,
		DryRun:        r.DryRun,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		Processed:     len(r.Input),
		Malformed:     len(r.Malformed),
		Recovered:     len(r.Recovered),
		Unrecoverable: len(r.Unrecoverable),
		RuleExcluded:  len(r.RuleExcluded),
		Inserted:      len(r.Inserted),
		Duplicate:     len(r.Duplicate),
		InsertFailed:  len(r.InsertFailed),
	}
	switch {
	case runErr != nil:
		log.Status = domain.RunError
		log.Error = runErr.Error()
	case r.PersistErr != "":
		log.Status = domain.RunError
		log.Error = r.PersistErr
	case r.DryRun:
		log.Status = domain.RunRolledBack
	default:
		log.Status = domain.RunCommitted
	}
	return log
}

// ── Engine ─────────────────────────────────────────────────

// Engine runs the ingestion pipeline against a gateway.
type Engine struct {
	Gateway Gateway
	Source  Source // nil resolves RunConfig.SourceType from the registry
	Coercer *Coercer
	Rules   []Rule
	Logger  *zap.Logger
	Now     func() time.Time
}

// Run executes one ingestion end-to-end. The only error it returns is a
// fatal one (unreadable source, unknown source type); row problems are
// recorded in the result buckets.
func (e *Engine) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	coercer := e.Coercer
	if coercer == nil {
		coercer = NewCoercer()
	}
	rules := e.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	now := e.Now
	if now == nil {
		now = time.Now
	}

	result := &Result{
		RunID:     uuid.New().String(),
		FilePath:  cfg.FilePath,
		DryRun:    cfg.DryRun,
		StartedAt: now(),
	}
	logger = logger.With(zap.String("run_id", result.RunID), zap.String("file", cfg.FilePath))
	defer func() { result.FinishedAt = now() }()

	// 1. Resolve source and load the file.
	source := e.Source
	if source == nil {
		typ := cfg.SourceType
		if typ == "" {
			typ = DefaultSourceType
		}
		s, err := GetSource(typ)
		if err != nil {
			return result, err
		}
		source = s
	}

	ds, err := source.Read(ctx, cfg.FilePath)
	if err != nil {
		return result, err
	}
	result.Header = ds.Header
	result.Input = ds.Rows
	width := NewSchema(ds.Header).Width()
	e.advance(logger, result, StageLoaded, zap.Int("rows", len(ds.Rows)), zap.Int("width", width))

	// 2. Length check; well-formed rows are typed straight away.
	wellFormed, malformed := Classify(width, ds.Rows, coercer)
	result.Malformed = malformed
	e.advance(logger, result, StageClassified,
		zap.Int("well_formed", len(wellFormed)), zap.Int("malformed", len(malformed)))

	// 3. Try to repair long rows, then length check the candidates again.
	candidates, tooShort := RecoverLongRows(width, malformed, source.ParseLine)
	recovered, stillBad := Classify(width, candidates, coercer)
	for _, row := range stillBad {
		logger.Debug("row recovery rejected", zap.Int("line", row.Line), zap.Int("fields", row.Len()))
	}
	result.Recovered = recovered
	result.Unrecoverable = append(tooShort, stillBad...)
	typed := append(append([]domain.Product(nil), recovered...), wellFormed...)
	e.advance(logger, result, StageRecovered,
		zap.Int("recovered", len(recovered)), zap.Int("unrecoverable", len(result.Unrecoverable)))

	// 4. Import rules.
	kept, excluded := ApplyRules(typed, rules)
	for _, p := range excluded {
		if r := FirstExclusion(p, rules); r != nil {
			logger.Debug("excluded by import rule", zap.String("code", p.Code), zap.String("rule", r.Name()))
		}
	}
	result.RuleExcluded = excluded
	result.Eligible = kept
	e.advance(logger, result, StageFiltered, zap.Int("eligible", len(kept)), zap.Int("excluded", len(excluded)))

	// 5. Persist inside one transaction.
	e.persist(ctx, logger, result, kept, cfg.DryRun)
	e.advance(logger, result, StagePersisted,
		zap.Int("inserted", len(result.Inserted)),
		zap.Int("duplicate", len(result.Duplicate)),
		zap.Int("failed", len(result.InsertFailed)),
		zap.Bool("dry_run", cfg.DryRun))

	return result, nil
}

func (e *Engine) persist(ctx context.Context, logger *zap.Logger, result *Result, products []domain.Product, dryRun bool) {
	if e.Gateway == nil {
		result.PersistErr = "no persistence gateway configured"
		result.InsertFailed = append(result.InsertFailed, products...)
		return
	}

	batch, err := e.Gateway.Begin(ctx)
	if err != nil {
		logger.Error("begin transaction failed", zap.Error(err))
		result.PersistErr = fmt.Sprintf("begin: %s", err)
		result.InsertFailed = append(result.InsertFailed, products...)
		return
	}

	for _, p := range products {
		outcome, err := batch.Save(ctx, p)
		switch outcome {
		case domain.OutcomeInserted:
			result.Inserted = append(result.Inserted, p)
		case domain.OutcomeDuplicate:
			result.Duplicate = append(result.Duplicate, p)
		default:
			logger.Warn("insert failed", zap.String("code", p.Code), zap.Error(err))
			result.InsertFailed = append(result.InsertFailed, p)
		}
	}

	if dryRun {
		if err := batch.Rollback(); err != nil {
			logger.Error("rollback failed", zap.Error(err))
			result.PersistErr = fmt.Sprintf("rollback: %s", err)
		}
		return
	}
	if err := batch.Commit(); err != nil {
		logger.Error("commit failed", zap.Error(err))
		result.PersistErr = fmt.Sprintf("commit: %s", err)
		// Nothing landed.
		result.InsertFailed = append(result.InsertFailed, result.Inserted...)
		result.Inserted = nil
	}
}

func (e *Engine) advance(logger *zap.Logger, result *Result, stage Stage, fields ...zap.Field) {
	result.Stage = stage
	logger.Info("stage "+string(stage), fields...)
}
