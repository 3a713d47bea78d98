package db

import (
	"database/sql"

	"github.com/fourminutelog/fourminutelog/config"
	"github.com/fourminutelog/fourminutelog/log"
)

var shouldLogQueries bool

func init() {
	shouldLogQueries = config.Get().DBLogQueries
}

func logQuery(kind string, query string, args []any) {
	if !shouldLogQueries {
		return
	}
	log.Debug().
		Str("kind", kind).
		Str("sql", query).
		Interface("args", args).
		Msg("db query")
}

// Query runs a SELECT returning multiple rows
func Query(query string, args ...any) (*sql.Rows, error) {
	logQuery("select", query, args)
	return GetDB().Query(query, args...)
}

// QueryRow runs a SELECT returning a single row
func QueryRow(query string, args ...any) *sql.Row {
	logQuery("get", query, args)
	return GetDB().QueryRow(query, args...)
}

// Exec runs an INSERT/UPDATE/DELETE statement
func Exec(query string, args ...any) (sql.Result, error) {
	logQuery("run", query, args)
	return GetDB().Exec(query, args...)
}
