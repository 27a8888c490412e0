// Package sqlitestore keeps the per-day time log, day plans and manual
// overtime in a SQLite database, keyed by user and ISO date.
package sqlitestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
)

const currentVersion = 1

// DefaultUser is used when no user id is configured.
const DefaultUser = "default"

type Store struct {
	db   *sql.DB
	user string
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// All reads and writes are scoped to user.
func New(dbPath, user string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	if user == "" {
		user = DefaultUser
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, user: user}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory(user string) (*Store, error) {
	return New(":memory:", user)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentVersion {
		return nil
	}
	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS time_log (
		user_id   TEXT NOT NULL,
		date      TEXT NOT NULL,
		id        TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		kind      TEXT NOT NULL,
		PRIMARY KEY (user_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_time_log_day ON time_log(user_id, date);

	CREATE TABLE IF NOT EXISTS day_info (
		user_id     TEXT NOT NULL,
		date        TEXT NOT NULL,
		kind        TEXT NOT NULL DEFAULT '',
		shift_id    TEXT NOT NULL DEFAULT '',
		leave_type  TEXT NOT NULL DEFAULT '',
		leave_hours REAL,
		on_call     INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, date)
	);

	CREATE TABLE IF NOT EXISTS manual_overtime (
		user_id     TEXT NOT NULL,
		date        TEXT NOT NULL,
		id          TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		type        TEXT NOT NULL,
		note        TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (user_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_manual_overtime_day ON manual_overtime(user_id, date);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// LoadDay returns the record stored for day, or an empty one.
func (s *Store) LoadDay(day time.Time) (model.DayFile, error) {
	date := day.Format(timecalc.DateLayout)
	df := model.DayFile{
		Date:           date,
		Entries:        []model.TimeEntry{},
		ManualOvertime: []model.ManualOvertimeEntry{},
	}

	rows, err := s.db.Query(
		`SELECT id, timestamp, kind FROM time_log WHERE user_id = ? AND date = ? ORDER BY rowid`,
		s.user, date,
	)
	if err != nil {
		return model.DayFile{}, fmt.Errorf("query time log for %s: %w", date, err)
	}
	for rows.Next() {
		var e model.TimeEntry
		var ts, kind string
		if err := rows.Scan(&e.ID, &ts, &kind); err != nil {
			rows.Close()
			return model.DayFile{}, err
		}
		e.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			rows.Close()
			return model.DayFile{}, fmt.Errorf("parse timestamp of entry %s: %w", e.ID, err)
		}
		e.Kind = model.EntryKind(kind)
		df.Entries = append(df.Entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return model.DayFile{}, err
	}
	rows.Close()

	info, err := s.loadDayInfo(date)
	if err != nil {
		return model.DayFile{}, err
	}
	df.Info = info

	rows, err = s.db.Query(
		`SELECT id, duration_ms, type, note FROM manual_overtime WHERE user_id = ? AND date = ? ORDER BY rowid`,
		s.user, date,
	)
	if err != nil {
		return model.DayFile{}, fmt.Errorf("query manual overtime for %s: %w", date, err)
	}
	defer rows.Close()
	for rows.Next() {
		var m model.ManualOvertimeEntry
		var typ string
		if err := rows.Scan(&m.ID, &m.DurationMs, &typ, &m.Note); err != nil {
			return model.DayFile{}, err
		}
		m.Type = model.OvertimeType(typ)
		df.ManualOvertime = append(df.ManualOvertime, m)
	}
	return df, rows.Err()
}

func (s *Store) loadDayInfo(date string) (model.DayInfo, error) {
	var kind, shiftID, leaveType string
	var leaveHours sql.NullFloat64
	var onCall bool
	err := s.db.QueryRow(
		`SELECT kind, shift_id, leave_type, leave_hours, on_call FROM day_info WHERE user_id = ? AND date = ?`,
		s.user, date,
	).Scan(&kind, &shiftID, &leaveType, &leaveHours, &onCall)
	if err == sql.ErrNoRows {
		return model.Unplanned(), nil
	}
	if err != nil {
		return model.DayInfo{}, fmt.Errorf("query day info for %s: %w", date, err)
	}

	var info model.DayInfo
	switch model.DayKind(kind) {
	case model.DayShift:
		info = model.OnShift(shiftID)
	case model.DayLeave:
		l := model.Leave{Type: leaveType}
		if leaveHours.Valid {
			h := leaveHours.Float64
			l.Hours = &h
		}
		info = model.OnLeave(l)
	}
	return info.WithOnCall(onCall), nil
}

// SaveDay replaces everything stored for day with df in one transaction.
func (s *Store) SaveDay(day time.Time, df model.DayFile) error {
	date := day.Format(timecalc.DateLayout)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"time_log", "day_info", "manual_overtime"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE user_id = ? AND date = ?`, s.user, date); err != nil {
			return fmt.Errorf("clear %s for %s: %w", table, date, err)
		}
	}

	for _, e := range df.Entries {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO time_log (user_id, date, id, timestamp, kind) VALUES (?, ?, ?, ?, ?)`,
			s.user, date, e.ID, e.Timestamp.Format(time.RFC3339Nano), string(e.Kind),
		); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}

	if kind := df.Info.Kind(); kind != model.DayUnplanned || df.Info.OnCall() {
		shiftID, _ := df.Info.ShiftID()
		leave, _ := df.Info.Leave()
		var hours sql.NullFloat64
		if leave.Hours != nil {
			hours = sql.NullFloat64{Float64: *leave.Hours, Valid: true}
		}
		if _, err := tx.Exec(
			`INSERT INTO day_info (user_id, date, kind, shift_id, leave_type, leave_hours, on_call) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.user, date, string(kind), shiftID, leave.Type, hours, df.Info.OnCall(),
		); err != nil {
			return fmt.Errorf("insert day info: %w", err)
		}
	}

	for _, m := range df.ManualOvertime {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO manual_overtime (user_id, date, id, duration_ms, type, note) VALUES (?, ?, ?, ?, ?, ?)`,
			s.user, date, m.ID, m.DurationMs, string(m.Type), m.Note,
		); err != nil {
			return fmt.Errorf("insert manual overtime %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}
