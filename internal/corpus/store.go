// Package corpus persists resolved blocks into a durable, append-only,
// versioned SQLite store. Rows are never updated or deleted: v1 rows are
// raw extractions, v2 rows are auto-labeled, and v3 rows are human
// corrections linked to the row they supersede. The version chain is the
// audit trail that auto-label accuracy is measured against over time.
package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/archivist-ml/collate/internal/block"
)

// Version marks a corpus row's provenance.
type Version string

const (
	VersionExtracted Version = "v1" // auto-extracted canonical block
	VersionLabeled   Version = "v2" // auto-labeled
	VersionCorrected Version = "v3" // human-corrected
)

const schema = `
CREATE TABLE IF NOT EXISTS corpus_rows (
	id           TEXT PRIMARY KEY,
	block_id     TEXT NOT NULL,
	document_id  TEXT NOT NULL,
	page_no      INTEGER NOT NULL,
	bbox_x1      REAL NOT NULL DEFAULT 0,
	bbox_y1      REAL NOT NULL DEFAULT 0,
	bbox_x2      REAL NOT NULL DEFAULT 0,
	bbox_y2      REAL NOT NULL DEFAULT 0,
	text         TEXT NOT NULL,
	label        TEXT,
	label_tier   TEXT,
	confidence   REAL NOT NULL DEFAULT 0,
	source       TEXT NOT NULL,
	version      TEXT NOT NULL CHECK (version IN ('v1','v2','v3')),
	supersedes   TEXT REFERENCES corpus_rows(id),
	corrected_by TEXT,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_corpus_rows_block ON corpus_rows(block_id);
CREATE INDEX IF NOT EXISTS idx_corpus_rows_document ON corpus_rows(document_id);
CREATE INDEX IF NOT EXISTS idx_corpus_rows_version ON corpus_rows(version);
`

// Store is the corpus database handle. Safe for concurrent use; SQLite
// serializes writers and busy errors are retried with backoff.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the corpus database at path and bootstraps the
// schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize corpus schema: %w", err)
	}

	return &Store{db: db, logger: logger.With("component", "corpus")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendExtracted appends v1 rows for a document's canonical blocks,
// before labeling.
func (s *Store) AppendExtracted(ctx context.Context, documentID string, blocks []block.TextBlock) error {
	return s.appendBlocks(ctx, documentID, blocks, VersionExtracted)
}

// AppendLabeled appends v2 rows for a document's resolved blocks.
func (s *Store) AppendLabeled(ctx context.Context, documentID string, blocks []block.TextBlock) error {
	return s.appendBlocks(ctx, documentID, blocks, VersionLabeled)
}

func (s *Store) appendBlocks(ctx context.Context, documentID string, blocks []block.TextBlock, version Version) error {
	if len(blocks) == 0 {
		return nil
	}

	return s.withBusyRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin append: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO corpus_rows
				(id, block_id, document_id, page_no,
				 bbox_x1, bbox_y1, bbox_x2, bbox_y2,
				 text, label, label_tier, confidence, source, version, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare append: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		now := time.Now().UTC().Format(time.RFC3339Nano)
		for _, b := range blocks {
			var label, tier any
			if version != VersionExtracted {
				label, tier = string(b.Label), string(b.Tier)
			}
			if _, err := stmt.ExecContext(ctx,
				rowID(b.ID, version), b.ID, documentID, b.PageNo,
				b.BBox.X1, b.BBox.Y1, b.BBox.X2, b.BBox.Y2,
				b.Text, label, tier, b.Confidence, string(b.Source), string(version), now,
			); err != nil {
				return fmt.Errorf("append row for block %s: %w", b.ID, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit append: %w", err)
		}
		s.logger.Debug("appended corpus rows",
			"document_id", documentID, "version", string(version), "rows", len(blocks))
		return nil
	})
}

// rowID derives a deterministic row identity from block identity and
// version. Combined with INSERT OR IGNORE this makes document appends
// idempotent: restarting a batch re-derives the same row IDs and the second
// append is a no-op, which is what makes the pipeline safely restartable.
func rowID(blockID string, version Version) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(blockID+"/"+string(version))).String()
}

// Correct appends a v3 row recording a human-supplied label for a block.
// The original v2 row is referenced, never touched. Returns the new row ID.
func (s *Store) Correct(ctx context.Context, blockID string, corrected block.Label, reviewer string) (string, error) {
	if !block.ValidLabel(corrected) {
		return "", fmt.Errorf("label %q outside vocabulary", corrected)
	}

	var newID string
	err := s.withBusyRetry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, `
			SELECT id, document_id, page_no, bbox_x1, bbox_y1, bbox_x2, bbox_y2, text, source
			FROM corpus_rows WHERE block_id = ? AND version = 'v2'`, blockID)

		var (
			origID, documentID, text, source string
			pageNo                           int
			x1, y1, x2, y2                   float64
		)
		if err := row.Scan(&origID, &documentID, &pageNo, &x1, &y1, &x2, &y2, &text, &source); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("no labeled row for block %s", blockID)
			}
			return fmt.Errorf("lookup block %s: %w", blockID, err)
		}

		newID = uuid.New().String()
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO corpus_rows
				(id, block_id, document_id, page_no,
				 bbox_x1, bbox_y1, bbox_x2, bbox_y2,
				 text, label, label_tier, confidence, source, version,
				 supersedes, corrected_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'v3', ?, ?, ?)`,
			newID, blockID, documentID, pageNo,
			x1, y1, x2, y2,
			text, string(corrected), "human_correction", 1.0, source,
			origID, reviewer, time.Now().UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("append correction for block %s: %w", blockID, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("correction recorded", "block_id", blockID, "label", string(corrected), "reviewer", reviewer)
	return newID, nil
}

// withBusyRetry retries fn on SQLite lock contention. Anything else fails
// immediately.
func (s *Store) withBusyRetry(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(50*time.Millisecond),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
	)
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
