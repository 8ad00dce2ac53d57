// Package database connects Bun to MySQL, PostgreSQL or SQLite, creates the
// tables of registered models, applies versioned migrations, logs queries
// and classifies driver errors (see IsSqlError) so callers can tell a
// duplicate key from a missing table without parsing messages themselves.
package database
