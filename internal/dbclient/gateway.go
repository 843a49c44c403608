package dbclient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"catalog/internal/domain"
	"catalog/internal/etl"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ProductGateway is the persistence gateway for the product table, shared
// by MySQL, Postgres and SQLite.
type ProductGateway struct {
	db     *sql.DB
	driver domain.DatabaseDriver
	table  string
	logger *zap.Logger

	// Clock stamps dtmDiscontinued for discontinued products.
	Clock func() time.Time
}

// NewProductGateway wraps an open database handle.
func NewProductGateway(db *sql.DB, driver domain.DatabaseDriver, table string, logger *zap.Logger) (*ProductGateway, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductGateway{db: db, driver: driver, table: table, logger: logger, Clock: time.Now}, nil
}

// TestConnection verifies connectivity.
func (g *ProductGateway) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return g.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (g *ProductGateway) Close() error {
	return g.db.Close()
}

func (g *ProductGateway) existsQuery() string {
	return g.rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE strProductCode = ?", g.table))
}

func (g *ProductGateway) insertQuery() string {
	return g.rebind(fmt.Sprintf(
		`INSERT INTO %s (strProductCode, strProductName, strProductDesc, intStock, numCost, dtmAdded, dtmDiscontinued)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, ?)`, g.table))
}

// rebind rewrites ? placeholders to $n for Postgres.
func (g *ProductGateway) rebind(query string) string {
	if g.driver != domain.DatabaseDriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Begin opens the transaction every row of a run is written in and
// prepares the existence and insert statements on it.
func (g *ProductGateway) Begin(ctx context.Context) (etl.Batch, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}

	exists, err := tx.PrepareContext(ctx, g.existsQuery())
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("prepare exists: %w", err)
	}
	insert, err := tx.PrepareContext(ctx, g.insertQuery())
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	return &productBatch{
		tx:     tx,
		exists: exists,
		insert: insert,
		// A failed statement aborts the whole transaction in Postgres;
		// MySQL and SQLite only undo the statement itself.
		savepoints: g.driver == domain.DatabaseDriverPostgres,
		clock:      g.Clock,
		logger:     g.logger,
	}, nil
}

// productBatch is one open transaction against the product table.
type productBatch struct {
	tx         *sql.Tx
	exists     *sql.Stmt
	insert     *sql.Stmt
	savepoints bool
	clock      func() time.Time
	logger     *zap.Logger
}

func (b *productBatch) Save(ctx context.Context, p domain.Product) (domain.Outcome, error) {
	if !b.savepoints {
		return b.save(ctx, p)
	}

	// The savepoint covers the existence check too: any failed statement
	// aborts a Postgres transaction until it is rolled back.
	if _, err := b.tx.ExecContext(ctx, "SAVEPOINT product_sp"); err != nil {
		return domain.OutcomeFailed, fmt.Errorf("savepoint: %w", err)
	}
	outcome, err := b.save(ctx, p)
	if err != nil {
		if _, rbErr := b.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT product_sp"); rbErr != nil {
			b.logger.Error("rollback to savepoint failed", zap.String("code", p.Code), zap.Error(rbErr))
			return domain.OutcomeFailed, errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		return outcome, err
	}
	if _, err := b.tx.ExecContext(ctx, "RELEASE SAVEPOINT product_sp"); err != nil {
		return domain.OutcomeFailed, fmt.Errorf("release savepoint: %w", err)
	}
	return outcome, nil
}

func (b *productBatch) save(ctx context.Context, p domain.Product) (domain.Outcome, error) {
	var count int
	if err := b.exists.QueryRowContext(ctx, p.Code).Scan(&count); err != nil {
		b.logger.Warn("existence check failed", zap.String("code", p.Code), zap.Error(err))
		return domain.OutcomeFailed, fmt.Errorf("exists %s: %w", p.Code, err)
	}
	if count > 0 {
		return domain.OutcomeDuplicate, nil
	}

	_, err := b.insert.ExecContext(ctx,
		p.Code, p.Name, p.Description, int64(p.Stock), p.Cost, p.DiscontinuedAt(b.clock()),
	)
	if err != nil {
		b.logger.Warn("Insertion of "+p.Code+" failed", zap.Error(err))
		return domain.OutcomeFailed, fmt.Errorf("insert %s: %w", p.Code, err)
	}
	return domain.OutcomeInserted, nil
}

func (b *productBatch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (b *productBatch) Rollback() error {
	if err := b.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
