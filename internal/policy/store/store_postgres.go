package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"passgate/internal/policy/config"
	"passgate/internal/policy/rules"
)

// PostgresStore persists policy versions in PostgreSQL. Every Save
// inserts a new row; the newest row is the active policy, so the full
// change history stays queryable for audits.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed policy store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema returns the DDL for the backing table. Applied by migrations
// in production and by integration tests directly.
func Schema() string {
	return `
		CREATE TABLE IF NOT EXISTS password_policies (
			id UUID PRIMARY KEY,
			min_length INT NOT NULL,
			max_length INT NOT NULL,
			character_rules TEXT NOT NULL,
			min_characteristics INT NOT NULL,
			max_repeating_characters INT NOT NULL,
			dictionary_sources JSONB NOT NULL DEFAULT '[]',
			dictionary_case_sensitive BOOLEAN NOT NULL DEFAULT FALSE,
			good_strength DOUBLE PRECISION NOT NULL DEFAULT 0,
			expiration_days INT NOT NULL DEFAULT 0,
			expiration_grace_length INT NOT NULL DEFAULT 0,
			expiration_overrides_strength BOOLEAN NOT NULL DEFAULT FALSE,
			updated_by TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`
}

func (s *PostgresStore) Active(ctx context.Context) (*Record, error) {
	query := `
		SELECT id, min_length, max_length, character_rules, min_characteristics,
		       max_repeating_characters, dictionary_sources, dictionary_case_sensitive,
		       good_strength, expiration_days, expiration_grace_length,
		       expiration_overrides_strength, updated_by, updated_at
		FROM password_policies
		ORDER BY updated_at DESC
		LIMIT 1
	`
	record, err := scanPolicy(s.db.QueryRowContext(ctx, query))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get active policy: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Save(ctx context.Context, cfg config.Config, updatedBy string) (*Record, error) {
	sources, err := json.Marshal(cfg.DictionarySources)
	if err != nil {
		return nil, fmt.Errorf("marshal dictionary sources: %w", err)
	}

	record := &Record{
		ID:        uuid.NewString(),
		Config:    cfg.Clone(),
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now(),
	}

	query := `
		INSERT INTO password_policies (
			id, min_length, max_length, character_rules, min_characteristics,
			max_repeating_characters, dictionary_sources, dictionary_case_sensitive,
			good_strength, expiration_days, expiration_grace_length,
			expiration_overrides_strength, updated_by, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = s.db.ExecContext(ctx, query,
		record.ID,
		cfg.MinLength,
		cfg.MaxLength,
		rules.Format(cfg.CharacterRules),
		cfg.MinCharacteristics,
		cfg.MaxRepeatingCharacters,
		sources,
		cfg.DictionaryCaseSensitive,
		cfg.GoodStrength,
		cfg.ExpirationDays,
		cfg.ExpirationGraceLength,
		cfg.ExpirationOverridesStrength,
		record.UpdatedBy,
		record.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("save policy: %w", err)
	}
	return record, nil
}

type policyRow interface {
	Scan(dest ...any) error
}

func scanPolicy(row policyRow) (*Record, error) {
	var (
		record     Record
		ruleSpec   string
		sourcesRaw []byte
	)
	if err := row.Scan(
		&record.ID,
		&record.Config.MinLength,
		&record.Config.MaxLength,
		&ruleSpec,
		&record.Config.MinCharacteristics,
		&record.Config.MaxRepeatingCharacters,
		&sourcesRaw,
		&record.Config.DictionaryCaseSensitive,
		&record.Config.GoodStrength,
		&record.Config.ExpirationDays,
		&record.Config.ExpirationGraceLength,
		&record.Config.ExpirationOverridesStrength,
		&record.UpdatedBy,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if ruleSpec != "" {
		parsed, err := rules.Parse(ruleSpec)
		if err != nil {
			return nil, fmt.Errorf("parse stored character rules: %w", err)
		}
		record.Config.CharacterRules = parsed
	}
	if err := json.Unmarshal(sourcesRaw, &record.Config.DictionarySources); err != nil {
		return nil, fmt.Errorf("unmarshal dictionary sources: %w", err)
	}
	return &record, nil
}
