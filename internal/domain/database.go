package domain

// DatabaseDriver represents the type of database engine holding the product table.
type DatabaseDriver string

const (
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
)

// DefaultProductTable is the table products are loaded into.
const DefaultProductTable = "tblproductdata"

// DatabaseConnection holds the metadata for connecting to the target store.
// The password is passed separately so it never ends up in logs.
type DatabaseConnection struct {
	Driver   DatabaseDriver `json:"driver"`
	Host     string         `json:"host"`     // hostname or file path (sqlite)
	Port     int            `json:"port"`     // 0 picks the driver default
	Database string         `json:"database"` // db name or empty for sqlite
	Username string         `json:"username"`
	SSLMode  string         `json:"sslMode"`
	Table    string         `json:"table"`
}

// TableName returns the configured product table or the default one.
func (c *DatabaseConnection) TableName() string {
	if c.Table == "" {
		return DefaultProductTable
	}
	return c.Table
}
