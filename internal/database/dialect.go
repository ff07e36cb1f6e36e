package database

// Dialect names the SQL flavour a *sql.DB speaks.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)
