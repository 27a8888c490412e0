package storage

import (
	"fmt"
	"path/filepath"

	"github.com/Tiliavir/work-time-tracker/internal/sqlitestore"
)

// Driver names accepted by Open.
const (
	DriverFiles  = "files"
	DriverSQLite = "sqlite"
)

// Open returns the backend selected by driver. An empty path selects the
// default location below ~/.wtt.
func Open(driver, path, user string) (Backend, error) {
	switch driver {
	case "", DriverFiles:
		if path == "" {
			base, err := BaseDir()
			if err != nil {
				return nil, err
			}
			path = base
		}
		return NewFiles(path), nil
	case DriverSQLite:
		if path == "" {
			base, err := BaseDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(base, "wtt.db")
		}
		return sqlitestore.New(path, user)
	default:
		return nil, fmt.Errorf("unknown storage driver %q (want %q or %q)", driver, DriverFiles, DriverSQLite)
	}
}
