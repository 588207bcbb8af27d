package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	status         TEXT NOT NULL,
	error          TEXT,
	config_json    TEXT NOT NULL,
	data_path      TEXT NOT NULL,
	train_sessions TEXT NOT NULL,
	test_sessions  TEXT NOT NULL,
	accuracy       REAL,
	metrics_json   TEXT,
	model_summary  TEXT,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stage_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL,
	detail      TEXT,
	duration_ms REAL NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS stage_log_run ON stage_log(run_id);
`

// timeLayout is fixed width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #endregion schema

// #region store-struct
// Store keeps a history of pipeline runs in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open ledger: %w", apperr.ErrIO, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: pragma: %w", apperr.ErrIO, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", apperr.ErrIO, err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region record-run
// RecordRun inserts rec. CreatedAt defaults to now.
func (s *Store) RecordRun(rec RunRecord) error {
	if rec.RunID == "" {
		return fmt.Errorf("%w: run id is required", apperr.ErrConfig)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = StatusOK
	}
	if rec.ConfigJSON == "" {
		rec.ConfigJSON = "{}"
	}
	train, err := json.Marshal(nonNil(rec.TrainSessions))
	if err != nil {
		return fmt.Errorf("marshal train sessions: %w", err)
	}
	test, err := json.Marshal(nonNil(rec.TestSessions))
	if err != nil {
		return fmt.Errorf("marshal test sessions: %w", err)
	}

	var accuracy interface{}
	if rec.Status == StatusOK {
		accuracy = rec.Accuracy
	}

	_, err = s.db.Exec(
		`INSERT INTO runs (run_id, status, error, config_json, data_path, train_sessions, test_sessions,
		                   accuracy, metrics_json, model_summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Status, nullIfEmpty(rec.Error), rec.ConfigJSON, rec.DataPath,
		string(train), string(test), accuracy, nullIfEmpty(rec.MetricsJSON),
		nullIfEmpty(rec.ModelSummary), rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("%w: insert run: %w", apperr.ErrIO, err)
	}
	return nil
}

// #endregion record-run

// #region get-run
const runColumns = `run_id, status, error, config_json, data_path, train_sessions, test_sessions,
	accuracy, metrics_json, model_summary, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var rec RunRecord
	var errText, metrics, summary sql.NullString
	var accuracy sql.NullFloat64
	var train, test, created string

	if err := row.Scan(&rec.RunID, &rec.Status, &errText, &rec.ConfigJSON, &rec.DataPath,
		&train, &test, &accuracy, &metrics, &summary, &created); err != nil {
		return RunRecord{}, err
	}
	rec.Error = errText.String
	rec.MetricsJSON = metrics.String
	rec.ModelSummary = summary.String
	rec.Accuracy = accuracy.Float64
	if err := json.Unmarshal([]byte(train), &rec.TrainSessions); err != nil {
		return RunRecord{}, fmt.Errorf("%w: train sessions: %w", apperr.ErrParse, err)
	}
	if err := json.Unmarshal([]byte(test), &rec.TestSessions); err != nil {
		return RunRecord{}, fmt.Errorf("%w: test sessions: %w", apperr.ErrParse, err)
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, created)
	return rec, nil
}

// GetRun retrieves a run by id.
func (s *Store) GetRun(id string) (RunRecord, error) {
	rec, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id))
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion get-run

// #region stages
// LogStage appends a stage entry to the stage_log table.
func (s *Store) LogStage(entry StageEntry) error {
	return logStage(s.db, entry)
}

func logStage(db *sql.DB, entry StageEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Status == "" {
		entry.Status = StatusOK
	}
	_, err := db.Exec(
		`INSERT INTO stage_log (run_id, stage, status, detail, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Stage,
		entry.Status,
		nullIfEmpty(entry.Detail),
		float64(entry.Duration)/float64(time.Millisecond),
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("log stage: %w", err)
	}
	return nil
}

// StagesForRun returns the stages of one run in the order they were logged.
func (s *Store) StagesForRun(runID string) ([]StageEntry, error) {
	rows, err := s.db.Query(
		`SELECT run_id, stage, status, detail, duration_ms, created_at
		 FROM stage_log WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()

	var out []StageEntry
	for rows.Next() {
		var e StageEntry
		var detail sql.NullString
		var ms float64
		var created string
		if err := rows.Scan(&e.RunID, &e.Stage, &e.Status, &detail, &ms, &created); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		e.Detail = detail.String
		e.Duration = time.Duration(ms * float64(time.Millisecond))
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion stages

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// #endregion helpers
