package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
)

// Backend persists one DayFile per calendar day.
type Backend interface {
	// LoadDay returns the record for day, or an empty one if none exists.
	LoadDay(day time.Time) (model.DayFile, error)
	SaveDay(day time.Time, df model.DayFile) error
	Close() error
}

// BaseDir returns the root data directory (~/.wtt).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".wtt"), nil
}

// Files stores each day as a human-readable JSON file below Base.
type Files struct {
	Base string
}

// NewFiles returns a file backend rooted at base.
func NewFiles(base string) *Files {
	return &Files{Base: base}
}

// dayFilePath returns the path for the given date's JSON file.
func (f *Files) dayFilePath(t time.Time) string {
	return filepath.Join(f.Base, t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}

// emptyDay returns the record of a day nothing was stored for.
func emptyDay(t time.Time) model.DayFile {
	return model.DayFile{
		Date:           t.Format(timecalc.DateLayout),
		Entries:        []model.TimeEntry{},
		ManualOvertime: []model.ManualOvertimeEntry{},
	}
}

// LoadDay loads the DayFile for the given date. Returns an empty DayFile if not found.
func (f *Files) LoadDay(t time.Time) (model.DayFile, error) {
	path := f.dayFilePath(t)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return emptyDay(t), nil
	}
	if err != nil {
		return model.DayFile{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var df model.DayFile
	if err := json.Unmarshal(data, &df); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return model.DayFile{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	if df.Entries == nil {
		df.Entries = []model.TimeEntry{}
	}
	if df.ManualOvertime == nil {
		df.ManualOvertime = []model.ManualOvertimeEntry{}
	}
	return df, nil
}

// SaveDay atomically writes a DayFile for the given date.
func (f *Files) SaveDay(t time.Time, df model.DayFile) error {
	path := f.dayFilePath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	df.Date = t.Format(timecalc.DateLayout)
	data, err := json.MarshalIndent(df, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to a unique temp file then rename.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage error creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error writing temp file: %w", errors.Join(werr, cerr))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// Close is a no-op; files are not held open between calls.
func (f *Files) Close() error { return nil }
