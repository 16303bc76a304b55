// Package sqlstore implements the store interfaces on PostgreSQL (through
// pgx) and SQLite (through modernc.org/sqlite), sharing one set of queries
// via sqlx.
//
// Queries are written with "?" placeholders and rebound for the driver.
// PostgreSQL transactions run at SERIALIZABLE isolation and lock the rows
// read by GetForUpdate; SQLite serialises writers on its single connection.
// The schema is embedded and applied with goose (see Migrate).
package sqlstore
