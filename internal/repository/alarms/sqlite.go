package alarms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	domain "github.com/work-piyush006/lifesync-ai/internal/domain/alarm"
)

// Repository defines persistence operations the scheduling core depends on.
type Repository interface {
	List(ctx context.Context) ([]*domain.Alarm, error)
	ListEnabled(ctx context.Context) ([]*domain.Alarm, error)
	GetByID(ctx context.Context, id int64) (*domain.Alarm, error)
	Create(ctx context.Context, alarm *domain.Alarm) (*domain.Alarm, error)
	ReplaceAll(ctx context.Context, alarms []*domain.Alarm) error
	SetEnabled(ctx context.Context, id int64, enabled bool) (*domain.Alarm, error)
	Delete(ctx context.Context, id int64) error
}

// TonePool defines the append-only registry of custom and self-recorded
// audio sources available to the shuffle tone.
type TonePool interface {
	RegisterTone(ctx context.Context, t *ToneRecord) (*ToneRecord, error)
	ListTones(ctx context.Context) ([]*ToneRecord, error)
	DeleteToneByPath(ctx context.Context, path string) error
}

// ToneRecord is one registered audio source in the tone pool.
type ToneRecord struct {
	// ID is the pool-unique identifier.
	ID int64
	// Path is the audio file location on disk.
	Path string
	// Kind records how the tone was produced: custom or self_recorded.
	Kind domain.Tone
	// CreatedAt is when the tone was registered.
	CreatedAt time.Time
}

// ErrNotFound is returned when an alarm or tone does not exist.
var ErrNotFound = errors.New("not found")

// schemaVersion is bumped whenever the table layout changes.
const schemaVersion = 1

// schema is the versioned v1 layout. Field defaults live here: enabled
// defaults to 1 so records written by older callers stay enabled.
const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS alarms (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  label         TEXT    NOT NULL DEFAULT '',
  hour          INTEGER NOT NULL,
  minute        INTEGER NOT NULL,
  tone          TEXT    NOT NULL DEFAULT 'default',
  tone_ref      TEXT    NOT NULL DEFAULT '',
  conditions    TEXT    NOT NULL DEFAULT 'face',
  geo_latitude  REAL,
  geo_longitude REAL,
  enabled       INTEGER NOT NULL DEFAULT 1,
  created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tones (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  path       TEXT    NOT NULL UNIQUE,
  kind       TEXT    NOT NULL,
  created_at INTEGER NOT NULL
);
`

// Store persists alarms and the tone pool in SQLite.
type Store struct {
	// sqlDB is the underlying database handle.
	sqlDB *sql.DB
}

// Open opens the SQLite store at the provided path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err = sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err = stampVersion(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()

		return nil, err
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}

	return s.sqlDB.Close()
}

// stampVersion records the schema version on first open and rejects files
// written by a newer build.
func stampVersion(ctx context.Context, sqlDB *sql.DB) error {
	var version int64

	err := sqlDB.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err = sqlDB.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}

		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version > schemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported %d", version, schemaVersion)
	}

	return nil
}

// alarmColumns is the column list shared by every alarm query.
const alarmColumns = `id, label, hour, minute, tone, tone_ref, conditions, geo_latitude, geo_longitude, enabled, created_at`

// List returns every alarm ordered by id.
func (s *Store) List(ctx context.Context) ([]*domain.Alarm, error) {
	return s.listWhere(ctx, ``)
}

// ListEnabled returns only the alarms that should have a wake event registered.
func (s *Store) ListEnabled(ctx context.Context) ([]*domain.Alarm, error) {
	return s.listWhere(ctx, `WHERE enabled = 1`)
}

// listWhere runs the shared list query with an optional filter clause.
func (s *Store) listWhere(ctx context.Context, where string) ([]*domain.Alarm, error) {
	query := `SELECT ` + alarmColumns + ` FROM alarms ` + where + ` ORDER BY id ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}
	defer rows.Close()

	var result []*domain.Alarm

	for rows.Next() {
		a, err := scanAlarm(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list alarms: %w", err)
		}

		result = append(result, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	return result, nil
}

// GetByID returns one alarm or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Alarm, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+alarmColumns+` FROM alarms WHERE id = ?`, id)

	a, err := scanAlarm(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get alarm: %w", err)
	}

	return a, nil
}

// Create normalizes, validates and inserts a new alarm, allocating its id.
func (s *Store) Create(ctx context.Context, alarm *domain.Alarm) (*domain.Alarm, error) {
	record := alarm.Clone()
	record.Normalize()

	if err := record.Validate(); err != nil {
		return nil, err
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO alarms (label, hour, minute, tone, tone_ref, conditions, geo_latitude, geo_longitude, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		insertArgs(record)...,
	)
	if err != nil {
		return nil, fmt.Errorf("create alarm: %w", err)
	}

	record.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create alarm: %w", err)
	}

	return record, nil
}

// ReplaceAll atomically swaps the whole alarm collection. This is the
// load/replace-all contract the external UI uses for bulk edits.
func (s *Store) ReplaceAll(ctx context.Context, alarms []*domain.Alarm) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace alarms: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM alarms`); err != nil {
		return fmt.Errorf("replace alarms: %w", err)
	}

	for _, a := range alarms {
		record := a.Clone()
		record.Normalize()

		if err = record.Validate(); err != nil {
			return err
		}

		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now()
		}

		if _, err = tx.ExecContext(
			ctx,
			`INSERT INTO alarms (id, label, hour, minute, tone, tone_ref, conditions, geo_latitude, geo_longitude, enabled, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			append([]any{record.ID}, insertArgs(record)...)...,
		); err != nil {
			return fmt.Errorf("replace alarms: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("replace alarms: %w", err)
	}

	return nil
}

// SetEnabled toggles the enabled flag and returns the updated record.
func (s *Store) SetEnabled(ctx context.Context, id int64, enabled bool) (*domain.Alarm, error) {
	result, err := s.sqlDB.ExecContext(ctx, `UPDATE alarms SET enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return nil, fmt.Errorf("set alarm enabled: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("set alarm enabled: %w", err)
	}

	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(ctx, id)
}

// Delete removes an alarm. Deleting an unknown id returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM alarms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete alarm: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete alarm: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// RegisterTone appends an audio source to the tone pool.
// Registering the same path twice is not an error; the existing row wins.
func (s *Store) RegisterTone(ctx context.Context, t *ToneRecord) (*ToneRecord, error) {
	if t == nil || t.Path == "" {
		return nil, errors.New("tone path is required")
	}

	record := *t
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if record.Kind != domain.ToneCustom && record.Kind != domain.ToneSelfRecorded {
		return nil, fmt.Errorf("tone kind must be custom or self-recorded, got %q", record.Kind)
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO tones (path, kind, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET kind = excluded.kind`,
		record.Path, string(record.Kind), record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("register tone: %w", err)
	}

	record.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("register tone: %w", err)
	}

	return &record, nil
}

// ListTones returns every registered tone ordered by registration time.
func (s *Store) ListTones(ctx context.Context) ([]*ToneRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, path, kind, created_at FROM tones ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tones: %w", err)
	}
	defer rows.Close()

	var result []*ToneRecord

	for rows.Next() {
		var (
			record    ToneRecord
			kind      string
			createdAt int64
		)

		if err = rows.Scan(&record.ID, &record.Path, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("list tones: %w", err)
		}

		record.Kind = domain.Tone(kind)
		record.CreatedAt = time.UnixMilli(createdAt)

		result = append(result, &record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list tones: %w", err)
	}

	return result, nil
}

// DeleteToneByPath removes a pool entry whose backing file disappeared.
// Unknown paths are ignored so the watcher can prune blindly.
func (s *Store) DeleteToneByPath(ctx context.Context, path string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM tones WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete tone: %w", err)
	}

	return nil
}

// scanAlarm reads one alarm row through the provided scan function.
func scanAlarm(scan func(dest ...any) error) (*domain.Alarm, error) {
	var (
		a          domain.Alarm
		tone       string
		conditions string
		latitude   sql.NullFloat64
		longitude  sql.NullFloat64
		enabled    int64
		createdAt  int64
	)

	if err := scan(
		&a.ID, &a.Label, &a.Hour, &a.Minute, &tone, &a.ToneRef,
		&conditions, &latitude, &longitude, &enabled, &createdAt,
	); err != nil {
		return nil, err
	}

	a.Tone = domain.Tone(tone)
	a.Conditions = decodeConditions(conditions)
	a.Enabled = enabled != 0
	a.CreatedAt = time.UnixMilli(createdAt)

	if latitude.Valid && longitude.Valid {
		a.GeoTarget = &domain.GeoPoint{
			Latitude:  latitude.Float64,
			Longitude: longitude.Float64,
		}
	}

	return &a, nil
}

// insertArgs builds the value list matching the non-id insert column order.
func insertArgs(a *domain.Alarm) []any {
	var latitude, longitude any
	if a.GeoTarget != nil {
		latitude = a.GeoTarget.Latitude
		longitude = a.GeoTarget.Longitude
	}

	return []any{
		a.Label, a.Hour, a.Minute, string(a.Tone), a.ToneRef,
		encodeConditions(a.Conditions), latitude, longitude,
		boolToInt(a.Enabled), a.CreatedAt.UnixMilli(),
	}
}

// encodeConditions stores the condition set as a comma-separated list.
func encodeConditions(conditions []domain.Condition) string {
	parts := make([]string, 0, len(conditions))
	for _, c := range conditions {
		parts = append(parts, string(c))
	}

	return strings.Join(parts, ",")
}

// decodeConditions parses the stored list, falling back to {Face} on an
// empty value so legacy rows stay dismissable.
func decodeConditions(value string) []domain.Condition {
	var result []domain.Condition

	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, domain.Condition(part))
		}
	}

	if len(result) == 0 {
		return []domain.Condition{domain.ConditionFace}
	}

	return result
}

// boolToInt maps a bool onto the 0/1 SQLite representation.
func boolToInt(b bool) int64 {
	if b {
		return 1
	}

	return 0
}

var (
	_ Repository = (*Store)(nil)
	_ TonePool   = (*Store)(nil)
)
