// Package store persists source ghazals and published translation
// records in SQLite. Records are append-only: re-translating a ghazal at
// a new pipeline version inserts a new row, and existing rows are never
// updated or deleted.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/khorshidlab/divantran/internal"
)

// ErrVersionExists is returned when a record for the same ghazal and
// pipeline version has already been published.
var ErrVersionExists = errors.New("record already exists for this pipeline version")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ghazals (
		id TEXT PRIMARY KEY,
		number INTEGER NOT NULL,
		ganjoor_id INTEGER,
		title TEXT,
		meter TEXT,
		rhyme TEXT,
		payload TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- translation_records is append-only: one row per (ghazal, pipeline
	-- version), never updated in place.
	CREATE TABLE IF NOT EXISTS translation_records (
		record_id TEXT PRIMARY KEY,
		ghazal_id TEXT NOT NULL,
		pipeline_version TEXT NOT NULL,
		model TEXT,
		confidence TEXT,
		flagged BOOLEAN DEFAULT FALSE,
		translated_at TIMESTAMP,
		payload TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(ghazal_id, pipeline_version),
		FOREIGN KEY (ghazal_id) REFERENCES ghazals(id)
	);

	CREATE INDEX IF NOT EXISTS idx_records_ghazal ON translation_records(ghazal_id);
	CREATE INDEX IF NOT EXISTS idx_records_flagged ON translation_records(flagged);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveGhazal upserts a source ghazal. Source text may be re-fetched;
// unlike records it is not versioned.
func (s *Store) SaveGhazal(ctx context.Context, g *internal.Ghazal) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal ghazal %s: %w", g.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO ghazals (id, number, ganjoor_id, title, meter, rhyme, payload) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Number, g.InternalRef, g.Title, g.Meter, g.Rhyme, string(payload))
	return err
}

// Ghazal loads one source ghazal by id.
func (s *Store) Ghazal(ctx context.Context, id string) (*internal.Ghazal, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM ghazals WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ghazal not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	var g internal.Ghazal
	if err := json.Unmarshal([]byte(payload), &g); err != nil {
		return nil, fmt.Errorf("corrupt ghazal payload for %s: %w", id, err)
	}
	return &g, nil
}

// ListGhazals returns all stored ghazals ordered by number.
func (s *Store) ListGhazals(ctx context.Context) ([]internal.Ghazal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM ghazals ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Ghazal
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var g internal.Ghazal
		if err := json.Unmarshal([]byte(payload), &g); err != nil {
			return nil, fmt.Errorf("corrupt ghazal payload: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// AppendRecord inserts a published record. A second record for the same
// ghazal and pipeline version is rejected with ErrVersionExists; bumping
// the version is the only way to re-publish.
func (s *Store) AppendRecord(ctx context.Context, rec *internal.TranslationRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("refusing to persist incomplete record: %w", err)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.Provenance.RecordID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO translation_records (record_id, ghazal_id, pipeline_version, model, confidence, flagged, translated_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Provenance.RecordID, rec.Ghazal.ID, rec.Provenance.PipelineVersion,
		rec.Provenance.Model, string(rec.QA.Confidence), rec.Flagged,
		rec.Provenance.TranslatedAt, string(payload))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("ghazal %s at version %s: %w",
				rec.Ghazal.ID, rec.Provenance.PipelineVersion, ErrVersionExists)
		}
		return err
	}
	return nil
}

// HasRecord reports whether a record exists for the ghazal at the given
// pipeline version.
func (s *Store) HasRecord(ctx context.Context, ghazalID, pipelineVersion string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM translation_records WHERE ghazal_id = ? AND pipeline_version = ?`,
		ghazalID, pipelineVersion).Scan(&n)
	return n > 0, err
}

// Record loads one record by ghazal id and pipeline version.
func (s *Store) Record(ctx context.Context, ghazalID, pipelineVersion string) (*internal.TranslationRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM translation_records WHERE ghazal_id = ? AND pipeline_version = ?`,
		ghazalID, pipelineVersion).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no record for ghazal %s at version %s", ghazalID, pipelineVersion)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalRecord(payload)
}

// RecordVersions returns the full append-only history for one ghazal,
// oldest first.
func (s *Store) RecordVersions(ctx context.Context, ghazalID string) ([]*internal.TranslationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM translation_records WHERE ghazal_id = ? ORDER BY created_at, rowid`,
		ghazalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// LatestRecords returns the most recently appended record for every
// ghazal, ordered by ghazal number. This is the reader-facing view;
// superseded versions stay in the table.
func (s *Store) LatestRecords(ctx context.Context) ([]*internal.TranslationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tr.payload
		FROM translation_records tr
		JOIN ghazals g ON g.id = tr.ghazal_id
		WHERE tr.rowid = (
			SELECT rowid FROM translation_records
			WHERE ghazal_id = tr.ghazal_id
			ORDER BY created_at DESC, rowid DESC LIMIT 1
		)
		ORDER BY g.number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// FlaggedRecords returns the latest records still awaiting human review,
// ordered by ghazal number.
func (s *Store) FlaggedRecords(ctx context.Context) ([]*internal.TranslationRecord, error) {
	recs, err := s.LatestRecords(ctx)
	if err != nil {
		return nil, err
	}
	var out []*internal.TranslationRecord
	for _, r := range recs {
		if r.Flagged {
			out = append(out, r)
		}
	}
	return out, nil
}

// StoreStats summarises the published corpus.
type StoreStats struct {
	Ghazals      int
	Records      int
	Flagged      int
	ByConfidence map[internal.Confidence]int
	LastPublish  time.Time
}

// Stats returns summary statistics over all record versions.
func (s *Store) Stats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{ByConfidence: make(map[internal.Confidence]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ghazals`).Scan(&stats.Ghazals); err != nil {
		return nil, err
	}
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN flagged THEN 1 ELSE 0 END), 0),
		       MAX(translated_at)
		FROM translation_records`).Scan(&stats.Records, &stats.Flagged, &last)
	if err != nil {
		return nil, err
	}
	if last.Valid {
		stats.LastPublish = last.Time
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT confidence, COUNT(*) FROM translation_records GROUP BY confidence`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var conf string
		var n int
		if err := rows.Scan(&conf, &n); err != nil {
			return nil, err
		}
		stats.ByConfidence[internal.Confidence(conf)] = n
	}
	return stats, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func unmarshalRecord(payload string) (*internal.TranslationRecord, error) {
	var rec internal.TranslationRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("corrupt record payload: %w", err)
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*internal.TranslationRecord, error) {
	var out []*internal.TranslationRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		rec, err := unmarshalRecord(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
