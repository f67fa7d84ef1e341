package db

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newRecord(id, session, provider string, exportedAt int64) *ManifestRecord {
	return &ManifestRecord{
		ID:              id,
		SessionID:       session,
		Provider:        provider,
		SchemaVersion:   "1.0.0",
		SnapshotAt:      exportedAt - 10,
		ExportedAt:      exportedAt,
		Applied:         2,
		Skipped:         1,
		PlatformManaged: 1,
		Changes:         3,
		BodyJSON:        fmt.Sprintf(`{"snapshot_id":%q}`, id),
	}
}

func TestInsertAndGetByID(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Insert(db, newRecord("m1", "s1", "netflix", 1000)))

	got, err := GetByID(db, "m1")
	require.NoError(t, err)
	require.Equal(t, "s1", got.SessionID)
	require.Equal(t, "netflix", got.Provider)
	require.Equal(t, 2, got.Applied)
	require.Equal(t, `{"snapshot_id":"m1"}`, got.BodyJSON)
}

func TestInsert_ReexportReplacesBody(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Insert(db, newRecord("m1", "s1", "netflix", 1000)))
	r := newRecord("m1", "s1", "netflix", 2000)
	r.BodyJSON = `{"v":2}`
	require.NoError(t, Insert(db, r))

	got, err := GetByID(db, "m1")
	require.NoError(t, err)
	require.Equal(t, int64(2000), got.ExportedAt)
	require.Equal(t, `{"v":2}`, got.BodyJSON)

	n, err := Count(db, ListFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestGetByID_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := GetByID(db, "missing")
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestList_FiltersAndOrder(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Insert(db, newRecord("a", "s1", "netflix", 100)))
	require.NoError(t, Insert(db, newRecord("b", "s1", "disneyplus", 200)))
	require.NoError(t, Insert(db, newRecord("c", "s2", "netflix", 300)))

	all, err := List(db, ListFilters{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "c", all[0].ID)
	require.Equal(t, "a", all[2].ID)
	require.Empty(t, all[0].BodyJSON, "list omits bodies")

	nf, err := List(db, ListFilters{Provider: "netflix"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, nf, 2)

	s1nf, err := List(db, ListFilters{Provider: "netflix", SessionID: "s1"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, s1nf, 1)
	require.Equal(t, "a", s1nf[0].ID)

	page, err := List(db, ListFilters{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "b", page[0].ID)

	n, err := Count(db, ListFilters{SessionID: "s1"})
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestList_Empty(t *testing.T) {
	db := openTestDB(t)

	out, err := List(db, ListFilters{}, 10, 0)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)
}

func TestPurgeBefore(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Insert(db, newRecord("old", "s1", "netflix", 100)))
	require.NoError(t, Insert(db, newRecord("new", "s1", "netflix", 500)))

	n, err := PurgeBefore(db, 300)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = GetByID(db, "old")
	require.True(t, errors.Is(err, errors.ErrNotFound))
	_, err = GetByID(db, "new")
	require.NoError(t, err)
}
