package corpus

import (
	"context"
	"fmt"
)

// Stats summarizes the corpus by version and label tier.
type Stats struct {
	RowsByVersion map[Version]int `json:"rows_by_version"`
	RowsByTier    map[string]int  `json:"rows_by_tier"`
	Documents     int             `json:"documents"`
}

// Stats reports corpus row counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	out := &Stats{
		RowsByVersion: make(map[Version]int),
		RowsByTier:    make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT version, COUNT(*) FROM corpus_rows GROUP BY version`)
	if err != nil {
		return nil, fmt.Errorf("version counts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var v string
		var n int
		if err := rows.Scan(&v, &n); err != nil {
			return nil, err
		}
		out.RowsByVersion[Version(v)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tierRows, err := s.db.QueryContext(ctx,
		`SELECT label_tier, COUNT(*) FROM corpus_rows WHERE version = 'v2' GROUP BY label_tier`)
	if err != nil {
		return nil, fmt.Errorf("tier counts: %w", err)
	}
	defer func() { _ = tierRows.Close() }()
	for tierRows.Next() {
		var tier string
		var n int
		if err := tierRows.Scan(&tier, &n); err != nil {
			return nil, err
		}
		out.RowsByTier[tier] = n
	}
	if err := tierRows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT document_id) FROM corpus_rows`).Scan(&out.Documents); err != nil {
		return nil, fmt.Errorf("document count: %w", err)
	}

	return out, nil
}

// Audit compares human corrections against the auto labels they superseded.
// The agreement rate is the signal driving the active-learning stopping
// criteria: when corrections stop disagreeing, the auto labels are good
// enough.
type Audit struct {
	Corrections int     `json:"corrections"`
	Agreements  int     `json:"agreements"`
	Rate        float64 `json:"agreement_rate"`
}

// CorrectionAudit reports how often human corrections agreed with the
// superseded auto label.
func (s *Store) CorrectionAudit(ctx context.Context) (*Audit, error) {
	out := &Audit{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN c.label = o.label THEN 1 ELSE 0 END), 0)
		FROM corpus_rows c
		JOIN corpus_rows o ON c.supersedes = o.id
		WHERE c.version = 'v3'`).Scan(&out.Corrections, &out.Agreements)
	if err != nil {
		return nil, fmt.Errorf("correction audit: %w", err)
	}
	if out.Corrections > 0 {
		out.Rate = float64(out.Agreements) / float64(out.Corrections)
	}
	return out, nil
}

// LatestLabel returns the effective label for a block: the most recent v3
// correction when one exists, otherwise the v2 auto label.
func (s *Store) LatestLabel(ctx context.Context, blockID string) (string, Version, error) {
	var label string
	var version string
	err := s.db.QueryRowContext(ctx, `
		SELECT label, version FROM corpus_rows
		WHERE block_id = ? AND version IN ('v2', 'v3') AND label IS NOT NULL
		ORDER BY version DESC, created_at DESC LIMIT 1`, blockID).Scan(&label, &version)
	if err != nil {
		return "", "", fmt.Errorf("latest label for block %s: %w", blockID, err)
	}
	return label, Version(version), nil
}
