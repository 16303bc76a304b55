package store

import (
	"github.com/jmoiron/sqlx"
)

// DBTX is implemented by both *sqlx.DB and *sqlx.Tx, allowing SQL stores
// to work with either a database connection or a transaction.
type DBTX interface {
	sqlx.ExtContext
}
