package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/config"
	_ "modernc.org/sqlite"
)

// FileName is the archive file created inside the base directory.
const FileName = "phosra.db"

// migrations are applied in order; migrations[i] moves user_version from i to i+1.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS manifests (
	  id               TEXT PRIMARY KEY,
	  session_id       TEXT NOT NULL,
	  provider         TEXT NOT NULL,
	  schema_version   TEXT NOT NULL,
	  snapshot_at      INTEGER NOT NULL,
	  exported_at      INTEGER NOT NULL,
	  applied          INTEGER NOT NULL,
	  skipped          INTEGER NOT NULL,
	  platform_managed INTEGER NOT NULL,
	  changes          INTEGER NOT NULL,
	  body_json        TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_manifests_provider_exported
	ON manifests(provider, exported_at DESC);
	CREATE INDEX IF NOT EXISTS idx_manifests_session
	ON manifests(session_id, exported_at DESC);`,
}

// CurrentSchemaVersion is the user_version after all migrations ran.
var CurrentSchemaVersion = len(migrations)

// Init opens the manifest archive at baseDir/phosra.db. The base directory
// and its exports subdirectory are created owner-only.
func Init(baseDir string) (*sql.DB, error) {
	for _, dir := range []string{baseDir, filepath.Join(baseDir, "exports")} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		_ = os.Chmod(dir, 0700)
	}

	path := filepath.Join(baseDir, FileName)
	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	if err := checkJournal(conn); err != nil {
		conn.Close()
		return nil, err
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}

	_ = os.Chmod(path, 0600)
	return conn, nil
}

// ConfigurePool applies non-zero pool limits from cfg.
func ConfigurePool(conn *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

func migrate(conn *sql.DB) error {
	version, err := GetUserVersion(conn)
	if err != nil {
		return err
	}
	for v := version; v < len(migrations); v++ {
		if _, err := conn.Exec(migrations[v]); err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if err := SetUserVersion(conn, v+1); err != nil {
			return err
		}
	}
	return nil
}

// checkJournal fails unless the DSN pragma switched the archive to WAL.
func checkJournal(conn *sql.DB) error {
	var mode string
	if err := conn.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("failed to read journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("archive journal mode is %s, want wal", mode)
	}
	return nil
}

// GetUserVersion reads the user_version pragma.
func GetUserVersion(conn *sql.DB) (int, error) {
	var version int
	if err := conn.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion writes the user_version pragma.
func SetUserVersion(conn *sql.DB, version int) error {
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to write user_version: %w", err)
	}
	return nil
}
