package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/recap/internal/record"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore implements RecordStore over database/sql for both
// backends. Queries are written with ? placeholders and rebound for
// PostgreSQL.
type SQLStore struct {
	db       *sql.DB
	dialect  dialect
	location string
}

func (s *SQLStore) Location() string { return s.location }

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind converts ? placeholders to $1..$n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// timestampKey renders a timestamp so that lexicographic order equals
// chronological order.
func timestampKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

func marshalRecord(rec *record.Record) (content, hash, tsKey string, err error) {
	h, err := rec.ContentHash()
	if err != nil {
		return "", "", "", err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal record %q: %w", rec.Label, err)
	}
	return string(b), h, timestampKey(rec.Timestamp), nil
}

func unmarshalRecord(content string) (*record.Record, error) {
	var rec record.Record
	if err := json.Unmarshal([]byte(content), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}
