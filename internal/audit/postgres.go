package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresSink persists audit events to a Postgres table. The table is
// provisioned out of band:
//
//	CREATE TABLE audit_events (
//	    id              UUID PRIMARY KEY,
//	    event_type      TEXT NOT NULL,
//	    conversation_id TEXT NOT NULL,
//	    contact_id      TEXT,
//	    detail          TEXT,
//	    created_at      TIMESTAMPTZ NOT NULL
//	);
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink creates a Postgres-backed audit sink.
func NewPostgresSink(db *sql.DB) *PostgresSink {
	if db == nil {
		return nil
	}
	return &PostgresSink{db: db}
}

// Record inserts the event.
func (s *PostgresSink) Record(ctx context.Context, event Event) error {
	if s == nil || s.db == nil {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, event_type, conversation_id, contact_id, detail, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, string(event.EventType), event.ConversationID,
		nullString(event.ContactID), nullString(event.Detail), event.CreatedAt)

	if err != nil {
		return fmt.Errorf("audit: failed to insert event: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
