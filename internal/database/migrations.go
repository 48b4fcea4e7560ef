package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migrations are applied in order and must all be idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		document_id       TEXT PRIMARY KEY,
		file_name         TEXT NOT NULL,
		content_path      TEXT NOT NULL DEFAULT '',
		title             TEXT NOT NULL DEFAULT '',
		summary           TEXT NOT NULL DEFAULT '',
		first_lines       TEXT NOT NULL DEFAULT '',
		category          TEXT NOT NULL DEFAULT '',
		doc_type          TEXT NOT NULL DEFAULT '',
		legal_action      TEXT NOT NULL DEFAULT '',
		legal_domain      TEXT NOT NULL DEFAULT '',
		sub_areas         TEXT NOT NULL DEFAULT '[]',
		court             TEXT NOT NULL DEFAULT '',
		version           TEXT NOT NULL DEFAULT '',
		full_text_content TEXT,
		extracted_tags    TEXT NOT NULL DEFAULT '[]',
		summary_technical TEXT,
		summary_plain     TEXT,
		domain_terms      TEXT[],
		legal_domain_llm  TEXT,
		sub_areas_llm     TEXT,
		status            TEXT NOT NULL DEFAULT 'pending',
		error_message     TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status)`,

	// Append-only interaction log written by the conversational agent.
	// Created here so a fresh database serves every collaborator; the
	// pipeline itself never touches it.
	`CREATE TABLE IF NOT EXISTS interaction_logs (
		log_id           BIGSERIAL PRIMARY KEY,
		occurred_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		user_phone       TEXT NOT NULL,
		interaction_id   TEXT UNIQUE,
		user_message     TEXT,
		agent_response   TEXT,
		document_id_sent TEXT REFERENCES documents (document_id) ON DELETE SET NULL,
		feedback_raw     TEXT,
		feedback_sentiment TEXT,
		error_message    TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_interaction_user_time
		ON interaction_logs (user_phone, occurred_at)`,

	// Approval aggregates derived from user feedback, consumed by the
	// search ranker outside this pipeline.
	`CREATE TABLE IF NOT EXISTS approval_stats (
		stat_id               BIGSERIAL PRIMARY KEY,
		document_id           TEXT NOT NULL REFERENCES documents (document_id) ON DELETE CASCADE,
		normalized_query_hash TEXT NOT NULL,
		approval_count        INTEGER NOT NULL DEFAULT 0,
		last_approved_at      TIMESTAMPTZ,
		UNIQUE (document_id, normalized_query_hash)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_approval_query_hash
		ON approval_stats (normalized_query_hash)`,
}

// Migrate creates the metadata store schema. Safe to run repeatedly.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
