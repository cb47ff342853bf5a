package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/floudata/pucp-time-series/internal/models"
)

// PostgresDiagnosisCatalog DiagnosisCatalog backed by the diagnosis_codes table
type PostgresDiagnosisCatalog struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ DiagnosisCatalog = (*PostgresDiagnosisCatalog)(nil)

// NewPostgresDiagnosisCatalog creates the catalog
func NewPostgresDiagnosisCatalog(db *sql.DB, logger *zap.Logger) *PostgresDiagnosisCatalog {
	return &PostgresDiagnosisCatalog{db: db, logger: logger}
}

// Lookup implements DiagnosisCatalog
func (c *PostgresDiagnosisCatalog) Lookup(ctx context.Context, codes []string) ([]models.DiagnosisEntry, error) {
	wanted := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		wanted = append(wanted, code)
	}
	if len(wanted) == 0 {
		return []models.DiagnosisEntry{}, nil
	}

	query := `
		SELECT
			snomed_code,
			full_name,
			COALESCE(acronym, '')
		FROM diagnosis_codes
		WHERE snomed_code = ANY($1)
	`
	rows, err := c.db.QueryContext(ctx, query, pq.Array(wanted))
	if err != nil {
		c.logger.Error("Failed to query diagnosis codes",
			zap.Strings("codes", wanted),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to query diagnosis codes: %w", err)
	}
	defer rows.Close()

	byCode := make(map[string]models.DiagnosisEntry, len(wanted))
	for rows.Next() {
		var e models.DiagnosisEntry
		if err := rows.Scan(&e.Code, &e.FullName, &e.Acronym); err != nil {
			return nil, fmt.Errorf("failed to scan diagnosis code: %w", err)
		}
		byCode[e.Code] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate diagnosis codes: %w", err)
	}

	out := make([]models.DiagnosisEntry, 0, len(byCode))
	for _, code := range wanted {
		if e, ok := byCode[code]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

const diagnosisSchema = `
	CREATE TABLE IF NOT EXISTS diagnosis_codes (
		snomed_code VARCHAR(32) PRIMARY KEY,
		full_name   TEXT NOT NULL,
		acronym     VARCHAR(32)
	)
`

// EnsureSchema creates the diagnosis_codes table if it is missing
func (c *PostgresDiagnosisCatalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, diagnosisSchema); err != nil {
		return fmt.Errorf("failed to create diagnosis_codes table: %w", err)
	}
	return nil
}

// Import upserts entries in a single transaction and returns the number written
func (c *PostgresDiagnosisCatalog) Import(ctx context.Context, entries []models.DiagnosisEntry) (int, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO diagnosis_codes (snomed_code, full_name, acronym)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (snomed_code) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			acronym = EXCLUDED.acronym
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare diagnosis upsert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, e := range entries {
		if e.Code == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, e.Code, e.FullName, e.Acronym); err != nil {
			c.logger.Error("Failed to upsert diagnosis code",
				zap.String("code", e.Code),
				zap.Error(err),
			)
			return 0, fmt.Errorf("failed to upsert diagnosis code %s: %w", e.Code, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit diagnosis import: %w", err)
	}
	return n, nil
}
