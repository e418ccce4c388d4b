package store

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS records (
    project      TEXT NOT NULL,
    label        TEXT NOT NULL,
    timestamp    TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    content      TEXT NOT NULL,
    PRIMARY KEY (project, label)
);
CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(project, timestamp);
CREATE INDEX IF NOT EXISTS idx_records_content_hash ON records(content_hash);
`

// OpenPostgres opens a network record store behind a postgres:// URL
// via the pgx stdlib driver, creating the schema if needed.
func OpenPostgres(url string) (*SQLStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open record store %s: %w", url, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to record store %s: %w", url, err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLStore{db: db, dialect: dialectPostgres, location: url}, nil
}
