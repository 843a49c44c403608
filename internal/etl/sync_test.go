package etl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/internal/domain"
	"catalog/internal/etl"
	"catalog/internal/etl/sources"
)

// ─────────────────────────────────────────────────────────────
// Engine tests
// Uses an in-memory gateway so every stage can be checked without a
// database.
// ─────────────────────────────────────────────────────────────

const header = "Product Code,Product Name,Product Description,Stock,Cost in GBP,Discontinued\n"

// memGateway is a Gateway keeping inserted codes in a map.
type memGateway struct {
	existing   map[string]bool
	failCodes  map[string]bool
	beginErr   error
	commitErr  error
	committed  []string
	rolledBack bool
}

func (g *memGateway) Begin(ctx context.Context) (etl.Batch, error) {
	if g.beginErr != nil {
		return nil, g.beginErr
	}
	return &memBatch{g: g, seen: map[string]bool{}}, nil
}

type memBatch struct {
	g       *memGateway
	seen    map[string]bool
	pending []string
}

func (b *memBatch) Save(ctx context.Context, p domain.Product) (domain.Outcome, error) {
	if b.g.existing[p.Code] || b.seen[p.Code] {
		return domain.OutcomeDuplicate, nil
	}
	if b.g.failCodes[p.Code] {
		return domain.OutcomeFailed, errors.New("constraint violation")
	}
	b.seen[p.Code] = true
	b.pending = append(b.pending, p.Code)
	return domain.OutcomeInserted, nil
}

func (b *memBatch) Commit() error {
	if b.g.commitErr != nil {
		return b.g.commitErr
	}
	b.g.committed = append(b.g.committed, b.pending...)
	return nil
}

func (b *memBatch) Rollback() error {
	b.g.rolledBack = true
	return nil
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stock.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func codes(ps []domain.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Code)
	}
	return out
}

func TestEngine_Run_EndToEnd(t *testing.T) {
	path := writeCSV(t, header+
		"P0001,TV,32 Tv,10,399.99,\n"+
		"P0002,Cd Player,Nice, great CD player,11,50.12,yes\n"+
		"P0003,VCR,Top notch VCR,3,2.50,\n"+
		"P0004,Bluray Player,Watch it in HD,1,24.55,\n"+
		"P0005,XBOX360,Best.console.ever,5,30.44,,x\n"+
		"P0006,Short\n")
	gw := &memGateway{}
	engine := &etl.Engine{Gateway: gw, Source: sources.CSVFile()}

	result, err := engine.Run(context.Background(), etl.RunConfig{FilePath: path})
	require.NoError(t, err)

	assert.Equal(t, etl.StagePersisted, result.Stage)
	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.Input, 6)
	assert.Len(t, result.Malformed, 3)
	assert.Equal(t, []string{"P0002"}, codes(result.Recovered))
	assert.Equal(t, "Nice, great CD player", result.Recovered[0].Description)
	assert.True(t, result.Recovered[0].Discontinued)

	// Short rows first, then long rows the repair did not fix.
	require.Len(t, result.Unrecoverable, 2)
	assert.Equal(t, "P0006", result.Unrecoverable[0].Field(0))
	assert.Equal(t, "P0005", result.Unrecoverable[1].Field(0))

	assert.Equal(t, []string{"P0003"}, codes(result.RuleExcluded))
	// Recovered rows go to the store ahead of the first-pass rows.
	assert.Equal(t, []string{"P0002", "P0001", "P0004"}, codes(result.Eligible))
	assert.Equal(t, []string{"P0002", "P0001", "P0004"}, codes(result.Inserted))
	assert.Equal(t, []string{"P0002", "P0001", "P0004"}, gw.committed)
	assert.False(t, gw.rolledBack)

	assert.Equal(t, etl.Counts{Processed: 6, Successful: 3, Skipped: 3, Failed: 0}, result.Counts())
}

func TestEngine_Run_DryRunRollsBack(t *testing.T) {
	path := writeCSV(t, header+"P0001,TV,32 Tv,10,399.99,\n")
	gw := &memGateway{}
	engine := &etl.Engine{Gateway: gw, Source: sources.CSVFile()}

	result, err := engine.Run(context.Background(), etl.RunConfig{FilePath: path, DryRun: true})
	require.NoError(t, err)

	assert.True(t, gw.rolledBack)
	assert.Empty(t, gw.committed)
	assert.Equal(t, []string{"P0001"}, codes(result.Inserted))
	assert.Equal(t, domain.RunRolledBack, result.RunLog(nil).Status)
}

func TestEngine_Run_DuplicatesAndFailures(t *testing.T) {
	path := writeCSV(t, header+
		"P0001,TV,32 Tv,10,399.99,\n"+
		"P0001,TV again,32 Tv,10,399.99,\n"+
		"P0007,Old,Already there,20,10,\n"+
		"P0008,Bad,Rejected by store,20,10,\n")
	gw := &memGateway{
		existing:  map[string]bool{"P0007": true},
		failCodes: map[string]bool{"P0008": true},
	}
	engine := &etl.Engine{Gateway: gw, Source: sources.CSVFile()}

	result, err := engine.Run(context.Background(), etl.RunConfig{FilePath: path})
	require.NoError(t, err)

	assert.Equal(t, []string{"P0001"}, codes(result.Inserted))
	assert.Equal(t, []string{"P0001", "P0007"}, codes(result.Duplicate))
	assert.Equal(t, []string{"P0008"}, codes(result.InsertFailed))
	assert.Equal(t, etl.Counts{Processed: 4, Successful: 1, Skipped: 3, Failed: 1}, result.Counts())
}

func TestEngine_Run_BeginFailure(t *testing.T) {
	path := writeCSV(t, header+"P0001,TV,32 Tv,10,399.99,\n")
	engine := &etl.Engine{Gateway: &memGateway{beginErr: errors.New("connection refused")}, Source: sources.CSVFile()}

	result, err := engine.Run(context.Background(), etl.RunConfig{FilePath: path})
	require.NoError(t, err)

	assert.Empty(t, result.Inserted)
	assert.Equal(t, []string{"P0001"}, codes(result.InsertFailed))
	assert.Contains(t, result.PersistErr, "connection refused")
	assert.Equal(t, domain.RunError, result.RunLog(nil).Status)
}

func TestEngine_Run_CommitFailure(t *testing.T) {
	path := writeCSV(t, header+"P0001,TV,32 Tv,10,399.99,\n")
	engine := &etl.Engine{Gateway: &memGateway{commitErr: errors.New("deadlock")}, Source: sources.CSVFile()}

	result, err := engine.Run(context.Background(), etl.RunConfig{FilePath: path})
	require.NoError(t, err)

	assert.Empty(t, result.Inserted)
	assert.Equal(t, []string{"P0001"}, codes(result.InsertFailed))
	assert.Contains(t, result.PersistErr, "deadlock")
}

func TestEngine_Run_MissingFile(t *testing.T) {
	engine := &etl.Engine{Gateway: &memGateway{}, Source: sources.CSVFile()}

	result, err := engine.Run(context.Background(), etl.RunConfig{FilePath: filepath.Join(t.TempDir(), "nope.csv")})

	require.ErrorIs(t, err, etl.ErrFatalIO)
	assert.Equal(t, etl.StagePending, result.Stage)
	assert.Equal(t, domain.RunError, result.RunLog(err).Status)
}

func TestEngine_Run_ResolvesRegisteredSource(t *testing.T) {
	path := writeCSV(t, header+"P0001,TV,32 Tv,10,399.99,\n")
	engine := &etl.Engine{Gateway: &memGateway{}}

	result, err := engine.Run(context.Background(), etl.RunConfig{FilePath: path})
	require.NoError(t, err)
	assert.Len(t, result.Inserted, 1)

	_, err = engine.Run(context.Background(), etl.RunConfig{FilePath: path, SourceType: "ftp"})
	assert.ErrorIs(t, err, etl.ErrUnknownSource)
}

func TestResult_MarkReported(t *testing.T) {
	r := &etl.Result{Stage: etl.StageFiltered}
	r.MarkReported()
	assert.Equal(t, etl.StageFiltered, r.Stage)

	r.Stage = etl.StagePersisted
	r.MarkReported()
	assert.Equal(t, etl.StageReported, r.Stage)
}

func TestEngine_Run_UsesClock(t *testing.T) {
	path := writeCSV(t, header+"P0001,TV,32 Tv,10,399.99,\n")
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := &etl.Engine{Gateway: &memGateway{}, Source: sources.CSVFile(), Now: func() time.Time { return at }}

	result, err := engine.Run(context.Background(), etl.RunConfig{FilePath: path})
	require.NoError(t, err)

	assert.Equal(t, at, result.StartedAt)
	assert.Equal(t, at, result.FinishedAt)
}
