// Package sqlite keeps the audit trail in a SQLite database: one table of
// exported rows, one of live decision events and one of full session records.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS log_rows (
	session_id       TEXT PRIMARY KEY,
	start_time       TEXT NOT NULL,
	end_time         TEXT,
	duration_seconds TEXT,
	initial_raw_data TEXT,
	alpha_decisions  TEXT,
	beta_decisions   TEXT,
	gamma_decisions  TEXT,
	delta_decisions  TEXT,
	final_headline   TEXT,
	final_body       TEXT
);

CREATE TABLE IF NOT EXISTS decision_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	seq          INTEGER NOT NULL,
	stage        TEXT NOT NULL,
	action       TEXT NOT NULL,
	details_json TEXT,
	created_at   TEXT NOT NULL,
	UNIQUE (session_id, seq)
);

CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	detail_json TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

var (
	_ ports.RowSink      = (*Store)(nil)
	_ ports.EventSink    = (*Store)(nil)
	_ ports.SessionStore = (*Store)(nil)
	_ ports.DetailSink   = (*Store)(nil)
)

// Store is the SQLite audit store.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database and runs migrations. Use ":memory:" for tests.
//
// The pool holds a single connection, so concurrent sessions of a batch
// queue on it instead of failing with SQLITE_BUSY. The pragmas are part of
// the DSN so they hold for every connection the pool opens.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func dsn(dbPath string) string {
	d := dbPath + "?_pragma=busy_timeout(5000)"
	if dbPath != ":memory:" {
		d += "&_pragma=journal_mode(WAL)"
	}
	return d
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WriteRow inserts or replaces the row of a session.
func (s *Store) WriteRow(ctx context.Context, row domain.LogRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO log_rows (session_id, start_time, end_time, duration_seconds, initial_raw_data,
		 alpha_decisions, beta_decisions, gamma_decisions, delta_decisions, final_headline, final_body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.SessionID, row.StartTime, row.EndTime, row.DurationSeconds, row.InitialRawData,
		row.AlphaDecisions, row.BetaDecisions, row.GammaDecisions, row.DeltaDecisions,
		row.FinalHeadline, row.FinalBody,
	)
	if err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

// Rows returns every stored row ordered by start time.
func (s *Store) Rows(ctx context.Context) ([]domain.LogRow, error) {
	rs, err := s.db.QueryContext(ctx,
		`SELECT session_id, start_time, end_time, duration_seconds, initial_raw_data,
		 alpha_decisions, beta_decisions, gamma_decisions, delta_decisions, final_headline, final_body
		 FROM log_rows ORDER BY start_time, session_id`)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rs.Close()

	var out []domain.LogRow
	for rs.Next() {
		var r domain.LogRow
		var end, dur, raw, a, b, g, d, head, body sql.NullString
		if err := rs.Scan(&r.SessionID, &r.StartTime, &end, &dur, &raw, &a, &b, &g, &d, &head, &body); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.EndTime, r.DurationSeconds, r.InitialRawData = end.String, dur.String, raw.String
		r.AlphaDecisions, r.BetaDecisions, r.GammaDecisions, r.DeltaDecisions = a.String, b.String, g.String, d.String
		r.FinalHeadline, r.FinalBody = head.String, body.String
		out = append(out, r)
	}
	return out, rs.Err()
}

// Append records one decision event.
func (s *Store) Append(ctx context.Context, sessionID string, event domain.DecisionEvent) error {
	details, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decision_events (session_id, seq, stage, action, details_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, event.Seq, string(event.Stage), string(event.Kind), string(details),
		event.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Events returns the events of a session in sequence order.
func (s *Store) Events(ctx context.Context, sessionID string) ([]domain.DecisionEvent, error) {
	rs, err := s.db.QueryContext(ctx,
		`SELECT seq, stage, action, details_json, created_at FROM decision_events
		 WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rs.Close()

	var out []domain.DecisionEvent
	for rs.Next() {
		var (
			e       domain.DecisionEvent
			stage   string
			action  string
			details sql.NullString
			created string
		)
		if err := rs.Scan(&e.Seq, &stage, &action, &details, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Stage, e.Kind = domain.StageName(stage), domain.EventKind(action)
		if details.Valid && details.String != "null" {
			if err := json.Unmarshal([]byte(details.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("decode details of event %d: %w", e.Seq, err)
			}
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse time of event %d: %w", e.Seq, err)
		}
		out = append(out, e)
	}
	return out, rs.Err()
}

// Save stores the full record of a session.
func (s *Store) Save(ctx context.Context, detail *domain.SessionDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (session_id, detail_json, updated_at) VALUES (?, ?, ?)`,
		detail.SessionID, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// WriteDetail implements ports.DetailSink.
func (s *Store) WriteDetail(ctx context.Context, detail domain.SessionDetail) error {
	return s.Save(ctx, &detail)
}

// Load returns the full record of a session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.SessionDetail, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT detail_json FROM sessions WHERE session_id = ?`, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var detail domain.SessionDetail
	if err := json.Unmarshal([]byte(data), &detail); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &detail, nil
}

// Delete removes a session record and its events. The exported row stays:
// the audit log keeps one row per attempted document.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM decision_events WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	return tx.Commit()
}

// List returns stored session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT session_id FROM sessions ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rs.Close()

	var ids []string
	for rs.Next() {
		var id string
		if err := rs.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rs.Err()
}
