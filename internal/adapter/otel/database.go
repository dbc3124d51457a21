package otel

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OpenDB opens an instrumented SQLite database: every statement gets a span
// and the connection pool reports its stats as metrics. dsn should already
// carry the connection pragmas (see sqlite.WithPragmas) because a pooled
// connection may be reopened at any time.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := otelsql.Open("sqlite", dsn,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
	)
	if err != nil {
		return nil, fmt.Errorf("opening instrumented database: %w", err)
	}

	// One connection: SQLite has a single writer and River shares this pool.
	db.SetMaxOpenConns(1)

	if _, err := otelsql.RegisterDBStatsMetrics(db,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("registering db stats metrics: %w", err)
	}

	return db, nil
}
