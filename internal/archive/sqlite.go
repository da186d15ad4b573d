package archive

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/trait"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists archived trait values to a sqlite database so that
// reset histories survive a run.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the archive database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite archive path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := createTables(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trait_archive (
			org_id     TEXT NOT NULL,
			derived    TEXT NOT NULL,
			trait_name TEXT NOT NULL,
			seq        INTEGER NOT NULL,
			kind       TEXT NOT NULL,
			value      TEXT NOT NULL,
			PRIMARY KEY (org_id, derived, seq)
		)
	`)
	return err
}

func (s *SQLiteStore) RecordReset(ctx context.Context, orgID, traitName string, value cty.Value, policy trait.Archive) error {
	var derived string
	grows := false
	switch policy {
	case trait.ArchiveLastReset:
		derived = trait.LastResetName(traitName)
	case trait.ArchiveAllResets:
		derived = trait.AllResetsName(traitName)
		grows = true
	default:
		return nil
	}

	kind, text, err := encodeValue(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !grows {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO trait_archive (org_id, derived, trait_name, seq, kind, value)
			VALUES (?, ?, ?, 0, ?, ?)
			ON CONFLICT(org_id, derived, seq) DO UPDATE SET
				kind = excluded.kind,
				value = excluded.value
		`, orgID, derived, traitName, kind, text)
		return err
	}

	var next int
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq) + 1, 0) FROM trait_archive WHERE org_id = ? AND derived = ?
	`, orgID, derived).Scan(&next)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trait_archive (org_id, derived, trait_name, seq, kind, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`, orgID, derived, traitName, next, kind, text)
	return err
}

func (s *SQLiteStore) History(ctx context.Context, orgID, traitName string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT derived, seq, kind, value FROM trait_archive
		WHERE org_id = ? AND trait_name = ?
		ORDER BY derived = ? DESC, seq ASC
	`, orgID, traitName, trait.AllResetsName(traitName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var derived, kind, text string
		var seq int
		if err := rows.Scan(&derived, &seq, &kind, &text); err != nil {
			return nil, err
		}
		value, err := decodeValue(kind, text)
		if err != nil {
			return nil, err
		}
		out = append(out, Record{OrgID: orgID, Trait: traitName, Value: value, Seq: seq})
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
