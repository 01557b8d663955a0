package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	// SQLite driver registration.
	_ "github.com/mattn/go-sqlite3"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// Store defines the persistence operations consumed by the wake engine.
type Store interface {
	// GetAlarm returns the standing alarm with the given id.
	GetAlarm(ctx context.Context, id int64) (*alarm.Definition, error)
	// ConsumeOneShot returns the one-shot alarm with the given id and
	// deletes it in the same transaction.
	ConsumeOneShot(ctx context.Context, id int64) (*alarm.Definition, error)
	// SaveAlarm inserts or replaces a standing alarm.
	SaveAlarm(ctx context.Context, def *alarm.Definition) error
	// SaveOneShot inserts or replaces a one-shot alarm.
	SaveOneShot(ctx context.Context, def *alarm.Definition) error
	// SetActive flips the active flag of a standing alarm.
	SetActive(ctx context.Context, id int64, active bool) error
	// ListAlarms returns every standing alarm ordered by id.
	ListAlarms(ctx context.Context) ([]*alarm.Definition, error)
	// AppendWakeEvent appends one immutable history record.
	AppendWakeEvent(ctx context.Context, event *alarm.WakeEvent) error
	// ListWakeEvents returns up to limit most recent history records.
	ListWakeEvents(ctx context.Context, limit int) ([]*alarm.WakeEvent, error)
}

// ErrNotFound is returned when no alarm with the requested id exists.
var ErrNotFound = errors.New("alarm not found")

// errEventIsNotSet is returned when a nil wake event is appended.
var errEventIsNotSet = errors.New("wake event is not set")

// schema creates the three tables on first open. Repeat days are stored as a
// weekday bitmask (bit 0 = Sunday, matching time.Weekday); challenge
// parameters are stored as JSON next to the variant tag.
const schema = `
CREATE TABLE IF NOT EXISTS alarms (
	id             INTEGER PRIMARY KEY,
	hour           INTEGER NOT NULL,
	minute         INTEGER NOT NULL,
	repeat_days    INTEGER NOT NULL,
	is_active      INTEGER NOT NULL,
	sound          TEXT NOT NULL DEFAULT '',
	label          TEXT NOT NULL DEFAULT '',
	challenge_kind TEXT NOT NULL DEFAULT '',
	challenge_json TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS one_shot_alarms (
	id             INTEGER PRIMARY KEY,
	hour           INTEGER NOT NULL,
	minute         INTEGER NOT NULL,
	sound          TEXT NOT NULL DEFAULT '',
	label          TEXT NOT NULL DEFAULT '',
	challenge_kind TEXT NOT NULL DEFAULT '',
	challenge_json TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS wake_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	alarm_id     INTEGER NOT NULL,
	label        TEXT NOT NULL DEFAULT '',
	challenge    TEXT NOT NULL DEFAULT '',
	completed_at TIMESTAMP NOT NULL
);
`

// SQLStore is the SQLite-backed implementation of Store.
type SQLStore struct {
	db *sql.DB

	// mu protects the change listener.
	mu       sync.RWMutex
	onChange func()
}

// Open opens (and if necessary creates) the SQLite database at path.
// Use ":memory:" for an ephemeral store in tests.
func Open(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// The engine performs concurrent reads and writes from multiple
	// goroutines; a single connection serializes them through SQLite.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// SetChangeListener registers a callback invoked after every mutation of the
// alarm tables. Used by the engine to re-synchronize triggers.
func (s *SQLStore) SetChangeListener(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onChange = fn
}

// notifyChanged invokes the change listener if one is registered.
func (s *SQLStore) notifyChanged() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()

	if fn != nil {
		fn()
	}
}

// GetAlarm returns the standing alarm with the given id.
func (s *SQLStore) GetAlarm(ctx context.Context, id int64) (*alarm.Definition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, hour, minute, repeat_days, is_active, sound, label, challenge_kind, challenge_json
		FROM alarms WHERE id = ?`, id)

	return scanAlarm(row)
}

// ConsumeOneShot returns the one-shot alarm with the given id and deletes it
// atomically, so a racing second resolution sees ErrNotFound.
func (s *SQLStore) ConsumeOneShot(ctx context.Context, id int64) (*alarm.Definition, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `
		SELECT id, hour, minute, sound, label, challenge_kind, challenge_json
		FROM one_shot_alarms WHERE id = ?`, id)

	def := &alarm.Definition{}

	var kind, params string

	err = row.Scan(&def.ID, &def.Time.Hour, &def.Time.Minute, &def.Sound, &def.Label, &kind, &params)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("scan one-shot alarm: %w", err)
	}

	if err = decodeChallenge(kind, params, &def.Challenge); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM one_shot_alarms WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete one-shot alarm: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return def, nil
}

// SaveAlarm inserts or replaces a standing alarm.
func (s *SQLStore) SaveAlarm(ctx context.Context, def *alarm.Definition) error {
	params, err := encodeChallenge(def.Challenge)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO alarms
			(id, hour, minute, repeat_days, is_active, sound, label, challenge_kind, challenge_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.ID, def.Time.Hour, def.Time.Minute, packDays(def.RepeatDays),
		def.IsActive, def.Sound, def.Label, string(def.Challenge.Kind), params)
	if err != nil {
		return fmt.Errorf("save alarm: %w", err)
	}

	s.notifyChanged()

	return nil
}

// SaveOneShot inserts or replaces a one-shot alarm.
func (s *SQLStore) SaveOneShot(ctx context.Context, def *alarm.Definition) error {
	params, err := encodeChallenge(def.Challenge)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO one_shot_alarms
			(id, hour, minute, sound, label, challenge_kind, challenge_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		def.ID, def.Time.Hour, def.Time.Minute, def.Sound, def.Label,
		string(def.Challenge.Kind), params)
	if err != nil {
		return fmt.Errorf("save one-shot alarm: %w", err)
	}

	s.notifyChanged()

	return nil
}

// SetActive flips the active flag of a standing alarm.
func (s *SQLStore) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE alarms SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("set active flag: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	s.notifyChanged()

	return nil
}

// ListAlarms returns every standing alarm ordered by id.
func (s *SQLStore) ListAlarms(ctx context.Context) ([]*alarm.Definition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hour, minute, repeat_days, is_active, sound, label, challenge_kind, challenge_json
		FROM alarms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}
	defer rows.Close()

	var defs []*alarm.Definition

	for rows.Next() {
		def, err := scanAlarm(rows)
		if err != nil {
			return nil, err
		}

		defs = append(defs, def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alarms: %w", err)
	}

	return defs, nil
}

// AppendWakeEvent appends one immutable history record.
func (s *SQLStore) AppendWakeEvent(ctx context.Context, event *alarm.WakeEvent) error {
	if event == nil {
		return errEventIsNotSet
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wake_events (alarm_id, label, challenge, completed_at)
		VALUES (?, ?, ?, ?)`,
		event.AlarmID, event.Label, string(event.Challenge), event.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("append wake event: %w", err)
	}

	return nil
}

// ListWakeEvents returns up to limit most recent history records, newest first.
func (s *SQLStore) ListWakeEvents(ctx context.Context, limit int) ([]*alarm.WakeEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT alarm_id, label, challenge, completed_at
		FROM wake_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list wake events: %w", err)
	}
	defer rows.Close()

	var events []*alarm.WakeEvent

	for rows.Next() {
		var (
			event alarm.WakeEvent
			kind  string
		)

		if err := rows.Scan(&event.AlarmID, &event.Label, &kind, &event.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan wake event: %w", err)
		}

		event.Challenge = alarm.ChallengeKind(kind)
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wake events: %w", err)
	}

	return events, nil
}

// rowScanner lets scanAlarm work for both QueryRow and Query results.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAlarm decodes one alarms row into a Definition.
func scanAlarm(row rowScanner) (*alarm.Definition, error) {
	def := &alarm.Definition{}

	var (
		days         int
		kind, params string
	)

	err := row.Scan(&def.ID, &def.Time.Hour, &def.Time.Minute, &days, &def.IsActive,
		&def.Sound, &def.Label, &kind, &params)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("scan alarm: %w", err)
	}

	def.RepeatDays = unpackDays(days)

	if err := decodeChallenge(kind, params, &def.Challenge); err != nil {
		return nil, err
	}

	return def, nil
}

// challengeParams is the JSON shape of variant-specific parameters.
type challengeParams struct {
	Difficulty     int           `json:"difficulty,omitempty"`
	TargetLength   int           `json:"target_length,omitempty"`
	ExpectedCode   string        `json:"expected_code,omitempty"`
	UniqueCodeGoal int           `json:"unique_code_goal,omitempty"`
	TargetLabel    string        `json:"target_label,omitempty"`
	MinConfidence  float64       `json:"min_confidence,omitempty"`
	Duration       time.Duration `json:"duration,omitempty"`
}

// encodeChallenge serializes the variant parameters to JSON.
func encodeChallenge(spec alarm.ChallengeSpec) (string, error) {
	data, err := json.Marshal(challengeParams{
		Difficulty:     spec.Difficulty,
		TargetLength:   spec.TargetLength,
		ExpectedCode:   spec.ExpectedCode,
		UniqueCodeGoal: spec.UniqueCodeGoal,
		TargetLabel:    spec.TargetLabel,
		MinConfidence:  spec.MinConfidence,
		Duration:       spec.Duration,
	})
	if err != nil {
		return "", fmt.Errorf("encode challenge: %w", err)
	}

	return string(data), nil
}

// decodeChallenge fills spec from the variant tag and JSON parameters.
func decodeChallenge(kind, raw string, spec *alarm.ChallengeSpec) error {
	var params challengeParams
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return fmt.Errorf("decode challenge: %w", err)
		}
	}

	*spec = alarm.ChallengeSpec{
		Kind:           alarm.ChallengeKind(kind),
		Difficulty:     params.Difficulty,
		TargetLength:   params.TargetLength,
		ExpectedCode:   params.ExpectedCode,
		UniqueCodeGoal: params.UniqueCodeGoal,
		TargetLabel:    params.TargetLabel,
		MinConfidence:  params.MinConfidence,
		Duration:       params.Duration,
	}

	return nil
}

// packDays folds weekdays into a bitmask, bit 0 = Sunday.
func packDays(days []time.Weekday) int {
	mask := 0
	for _, d := range days {
		mask |= 1 << int(d)
	}

	return mask
}

// unpackDays expands a weekday bitmask back into a sorted slice.
func unpackDays(mask int) []time.Weekday {
	if mask == 0 {
		return nil
	}

	days := make([]time.Weekday, 0, 7)

	for d := time.Sunday; d <= time.Saturday; d++ {
		if mask&(1<<int(d)) != 0 {
			days = append(days, d)
		}
	}

	return days
}
