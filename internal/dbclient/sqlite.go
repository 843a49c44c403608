package dbclient

import (
	"catalog/internal/domain"

	_ "modernc.org/sqlite"
)

// buildSQLiteDSN points at a local SQLite file; Host holds its path.
func buildSQLiteDSN(conn *domain.DatabaseConnection) string {
	path := conn.Host
	if path == "" {
		path = conn.Database
	}
	return path + "?_pragma=busy_timeout(5000)"
}
