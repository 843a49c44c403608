package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"catalog/internal/domain"
)

// NewGateway opens the target store described by conn.
// The password must be provided separately (from the config file or env).
func NewGateway(ctx context.Context, conn *domain.DatabaseConnection, password string, logger *zap.Logger) (*ProductGateway, error) {
	var (
		driverName string
		dsn        string
	)
	switch conn.Driver {
	case domain.DatabaseDriverMySQL, "":
		driverName, dsn = "mysql", buildMySQLDSN(conn, password)
	case domain.DatabaseDriverPostgres:
		driverName, dsn = "postgres", buildPostgresDSN(conn, password)
	case domain.DatabaseDriverSQLite:
		driverName, dsn = "sqlite", buildSQLiteDSN(conn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", conn.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	// One batch, one transaction; a small pool is plenty.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	driver := conn.Driver
	if driver == "" {
		driver = domain.DatabaseDriverMySQL
	}
	g, err := NewProductGateway(db, driver, conn.TableName(), logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := g.TestConnection(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", driverName, err)
	}
	return g, nil
}
