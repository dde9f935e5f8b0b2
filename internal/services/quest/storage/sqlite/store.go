// Package sqlite implements quest storage on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/chronoquest/internal/platform/storage/sqlitemigrate"
	coreencoding "github.com/louisbranch/chronoquest/internal/services/quest/core/encoding"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/amount"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/command"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
	"github.com/louisbranch/chronoquest/internal/services/quest/host"
	"github.com/louisbranch/chronoquest/internal/services/quest/storage"
	"github.com/louisbranch/chronoquest/internal/services/quest/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed journal, schedule, and ledger persistence.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a quest SQLite store and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	// One writer keeps sequence assignment serialized.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

type hashedEnvelope struct {
	Type          event.Type      `json:"type"`
	ChallengeID   uint64          `json:"challenge_id"`
	Timestamp     int64           `json:"timestamp"`
	ActorID       string          `json:"actor_id"`
	RequestID     string          `json:"request_id"`
	CorrelationID string          `json:"correlation_id"`
	CausationID   string          `json:"causation_id"`
	Payload       json.RawMessage `json:"payload"`
}

// Append journals evt under the next sequence number and a content hash.
func (s *Store) Append(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return event.Event{}, err
	}
	if strings.TrimSpace(string(evt.Type)) == "" {
		return event.Event{}, event.ErrTypeRequired
	}
	if evt.Timestamp.IsZero() {
		return event.Event{}, event.ErrTimestampRequired
	}
	if len(evt.PayloadJSON) == 0 {
		evt.PayloadJSON = []byte("{}")
	}
	evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
	hash, err := coreencoding.ContentHash(hashedEnvelope{
		Type:          evt.Type,
		ChallengeID:   evt.ChallengeID,
		Timestamp:     evt.Timestamp.UnixMilli(),
		ActorID:       evt.ActorID,
		RequestID:     evt.RequestID,
		CorrelationID: evt.CorrelationID,
		CausationID:   evt.CausationID,
		Payload:       json.RawMessage(evt.PayloadJSON),
	})
	if err != nil {
		return event.Event{}, fmt.Errorf("hash event: %w", err)
	}
	evt.Hash = hash

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var last int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events`).Scan(&last); err != nil {
		return event.Event{}, fmt.Errorf("read last seq: %w", err)
	}
	evt.Seq = uint64(last) + 1
	_, err = tx.ExecContext(ctx, `
INSERT INTO events (
	seq,
	hash,
	event_type,
	challenge_id,
	timestamp,
	actor_id,
	request_id,
	correlation_id,
	causation_id,
	payload_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		int64(evt.Seq),
		evt.Hash,
		string(evt.Type),
		int64(evt.ChallengeID),
		evt.Timestamp.UnixMilli(),
		evt.ActorID,
		evt.RequestID,
		evt.CorrelationID,
		evt.CausationID,
		string(evt.PayloadJSON),
	)
	if err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit append: %w", err)
	}
	return evt, nil
}

// ListEvents lists events with seq greater than afterSeq in sequence order.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	seq,
	hash,
	event_type,
	challenge_id,
	timestamp,
	actor_id,
	request_id,
	correlation_id,
	causation_id,
	payload_json
FROM events
WHERE seq > ?
ORDER BY seq
LIMIT ?
`, int64(afterSeq), limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0, limit)
	for rows.Next() {
		var (
			evt         event.Event
			seq         int64
			eventType   string
			challengeID int64
			timestamp   int64
			payload     string
		)
		if err := rows.Scan(
			&seq,
			&evt.Hash,
			&eventType,
			&challengeID,
			&timestamp,
			&evt.ActorID,
			&evt.RequestID,
			&evt.CorrelationID,
			&evt.CausationID,
			&payload,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Type = event.Type(eventType)
		evt.ChallengeID = uint64(challengeID)
		evt.Timestamp = time.UnixMilli(timestamp).UTC()
		evt.PayloadJSON = []byte(payload)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// EnqueueSchedule persists a pending delivery.
func (s *Store) EnqueueSchedule(ctx context.Context, record storage.ScheduleRecord) (storage.ScheduleRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ScheduleRecord{}, err
	}
	cmd := record.Command
	cmd.Type = command.Type(strings.TrimSpace(string(cmd.Type)))
	cmd.ActorID = strings.TrimSpace(cmd.ActorID)
	if cmd.Type == "" {
		return storage.ScheduleRecord{}, command.ErrTypeRequired
	}
	if cmd.ActorID == "" {
		return storage.ScheduleRecord{}, command.ErrActorIDRequired
	}
	if record.DueAt.IsZero() {
		return storage.ScheduleRecord{}, fmt.Errorf("due time is required")
	}
	if len(cmd.PayloadJSON) == 0 {
		cmd.PayloadJSON = []byte("{}")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	record.Command = cmd
	record.DueAt = record.DueAt.UTC().Truncate(time.Millisecond)
	record.CreatedAt = record.CreatedAt.UTC().Truncate(time.Millisecond)
	record.Outcome = storage.OutcomePending
	record.DeliveredAt = time.Time{}
	record.Detail = ""

	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO schedules (
	due_at,
	command_type,
	actor_id,
	value,
	request_id,
	correlation_id,
	causation_id,
	payload_json,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.DueAt.UnixMilli(),
		string(cmd.Type),
		cmd.ActorID,
		cmd.Value.String(),
		cmd.RequestID,
		cmd.CorrelationID,
		cmd.CausationID,
		string(cmd.PayloadJSON),
		record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return storage.ScheduleRecord{}, fmt.Errorf("enqueue schedule: %w", err)
	}
	record.ID, err = result.LastInsertId()
	if err != nil {
		return storage.ScheduleRecord{}, fmt.Errorf("schedule id: %w", err)
	}
	return record, nil
}

// ListDueSchedules lists undelivered schedules due at or before now, earliest
// first, ties in enqueue order.
func (s *Store) ListDueSchedules(ctx context.Context, now time.Time, limit int) ([]storage.ScheduleRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	id,
	due_at,
	command_type,
	actor_id,
	value,
	request_id,
	correlation_id,
	causation_id,
	payload_json,
	created_at
FROM schedules
WHERE delivered_at IS NULL AND due_at <= ?
ORDER BY due_at, id
LIMIT ?
`, now.UTC().UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()

	records := make([]storage.ScheduleRecord, 0, limit)
	for rows.Next() {
		var (
			record      storage.ScheduleRecord
			dueAt       int64
			commandType string
			value       string
			payload     string
			createdAt   int64
		)
		if err := rows.Scan(
			&record.ID,
			&dueAt,
			&commandType,
			&record.Command.ActorID,
			&value,
			&record.Command.RequestID,
			&record.Command.CorrelationID,
			&record.Command.CausationID,
			&payload,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		record.Command.Value, err = amount.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("schedule %d value: %w", record.ID, err)
		}
		record.DueAt = time.UnixMilli(dueAt).UTC()
		record.CreatedAt = time.UnixMilli(createdAt).UTC()
		record.Command.Type = command.Type(commandType)
		record.Command.PayloadJSON = []byte(payload)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return records, nil
}

// MarkDelivered records the outcome of a delivery. A schedule is delivered at
// most once.
func (s *Store) MarkDelivered(ctx context.Context, id int64, outcome storage.ScheduleOutcome, detail string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	switch outcome {
	case storage.OutcomeAccepted, storage.OutcomeRejected:
	default:
		return fmt.Errorf("delivery outcome %q is invalid", outcome)
	}
	if at.IsZero() {
		at = s.now()
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE schedules
SET delivered_at = ?, outcome = ?, detail = ?
WHERE id = ? AND delivered_at IS NULL
`, at.UTC().UnixMilli(), string(outcome), strings.TrimSpace(detail), id)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark delivered rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("schedule %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// CountPendingSchedules returns the number of undelivered schedules.
func (s *Store) CountPendingSchedules(ctx context.Context) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules WHERE delivered_at IS NULL`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending schedules: %w", err)
	}
	return count, nil
}

// RecordTransfer appends a transfer to the ledger.
func (s *Store) RecordTransfer(ctx context.Context, record storage.TransferRecord) (storage.TransferRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.TransferRecord{}, err
	}
	to, err := account.Parse(string(record.Account))
	if err != nil {
		return storage.TransferRecord{}, err
	}
	record.Account = to
	switch record.Kind {
	case host.TransferPrize, host.TransferRefund:
	default:
		return storage.TransferRecord{}, fmt.Errorf("transfer kind %q is invalid", record.Kind)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}
	record.CreatedAt = record.CreatedAt.UTC().Truncate(time.Millisecond)
	record.RequestID = strings.TrimSpace(record.RequestID)

	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO transfers (
	challenge_id,
	account,
	value,
	kind,
	request_id,
	created_at
) VALUES (?, ?, ?, ?, ?, ?)
`,
		int64(record.ChallengeID),
		record.Account.String(),
		record.Value.String(),
		string(record.Kind),
		record.RequestID,
		record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return storage.TransferRecord{}, fmt.Errorf("record transfer: %w", err)
	}
	record.ID, err = result.LastInsertId()
	if err != nil {
		return storage.TransferRecord{}, fmt.Errorf("transfer id: %w", err)
	}
	return record, nil
}

// ListTransfers lists ledger entries oldest first.
func (s *Store) ListTransfers(ctx context.Context, filter storage.TransferFilter) ([]storage.TransferRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	var (
		clauses []string
		args    []any
	)
	if !filter.Account.IsZero() {
		clauses = append(clauses, "account = ?")
		args = append(args, strings.TrimSpace(filter.Account.String()))
	}
	if filter.ChallengeID != nil {
		clauses = append(clauses, "challenge_id = ?")
		args = append(args, int64(*filter.ChallengeID))
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	query := `
SELECT
	id,
	challenge_id,
	account,
	value,
	kind,
	request_id,
	created_at
FROM transfers`
	if len(clauses) > 0 {
		query += "\nWHERE " + strings.Join(clauses, " AND ")
	}
	query += "\nORDER BY id\nLIMIT ?"
	args = append(args, filter.Limit)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	records := make([]storage.TransferRecord, 0, filter.Limit)
	for rows.Next() {
		var (
			record      storage.TransferRecord
			challengeID int64
			to          string
			value       string
			kind        string
			createdAt   int64
		)
		if err := rows.Scan(&record.ID, &challengeID, &to, &value, &kind, &record.RequestID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		record.Value, err = amount.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("transfer %d value: %w", record.ID, err)
		}
		record.ChallengeID = uint64(challengeID)
		record.Account = account.ID(to)
		record.Kind = host.TransferKind(kind)
		record.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return records, nil
}

var (
	_ storage.EventStore    = (*Store)(nil)
	_ storage.ScheduleStore = (*Store)(nil)
	_ storage.TransferStore = (*Store)(nil)
)
