package db

import (
	"database/sql"
	"strings"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
)

// ManifestRecord is one archived manifest. Times are unix seconds.
type ManifestRecord struct {
	ID              string
	SessionID       string
	Provider        string
	SchemaVersion   string
	SnapshotAt      int64
	ExportedAt      int64
	Applied         int
	Skipped         int
	PlatformManaged int
	Changes         int
	BodyJSON        string
}

// ListFilters narrows List. Empty fields match everything.
type ListFilters struct {
	Provider  string
	SessionID string
}

const manifestColumns = `id, session_id, provider, schema_version, snapshot_at, exported_at,
	applied, skipped, platform_managed, changes, body_json`

// Insert archives a manifest. Re-exporting the same snapshot replaces the row.
func Insert(db *sql.DB, r *ManifestRecord) error {
	query := `
		INSERT INTO manifests (` + manifestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			exported_at = excluded.exported_at,
			body_json   = excluded.body_json
	`
	_, err := db.Exec(query,
		r.ID, r.SessionID, r.Provider, r.SchemaVersion, r.SnapshotAt, r.ExportedAt,
		r.Applied, r.Skipped, r.PlatformManaged, r.Changes, r.BodyJSON,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetByID returns the archived manifest for a snapshot id.
func GetByID(db *sql.DB, id string) (*ManifestRecord, error) {
	row := db.QueryRow(`SELECT `+manifestColumns+` FROM manifests WHERE id = ?`, id)
	r, err := scanManifest(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("manifest", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// List returns summaries (BodyJSON left empty), newest export first.
func List(db *sql.DB, f ListFilters, limit, offset int) ([]ManifestRecord, error) {
	where, args := buildWhere(f)
	query := `SELECT id, session_id, provider, schema_version, snapshot_at, exported_at,
		applied, skipped, platform_managed, changes, '' FROM manifests` + where +
		` ORDER BY exported_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []ManifestRecord{}
	for rows.Next() {
		r, err := scanManifest(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// Count returns the number of archived manifests matching f.
func Count(db *sql.DB, f ListFilters) (int, error) {
	where, args := buildWhere(f)
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM manifests`+where, args...).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// PurgeBefore deletes manifests exported before cutoff (unix seconds).
func PurgeBefore(db *sql.DB, cutoff int64) (int, error) {
	res, err := db.Exec(`DELETE FROM manifests WHERE exported_at < ?`, cutoff)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

func buildWhere(f ListFilters) (string, []any) {
	var conds []string
	var args []any
	if f.Provider != "" {
		conds = append(conds, "provider = ?")
		args = append(args, f.Provider)
	}
	if f.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanManifest(s scanner) (*ManifestRecord, error) {
	var r ManifestRecord
	err := s.Scan(
		&r.ID, &r.SessionID, &r.Provider, &r.SchemaVersion, &r.SnapshotAt, &r.ExportedAt,
		&r.Applied, &r.Skipped, &r.PlatformManaged, &r.Changes, &r.BodyJSON,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
