package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_Idempotent(t *testing.T) {
	db, err := Open(MemoryDSN)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var names []string
	rows, err := db.Query(`SELECT name FROM _migrations ORDER BY name`)
	require.NoError(t, err)
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{"sql/001_init.sql", "sql/002_daily_unique.sql"}, names)

	for _, table := range []string{"users", "results"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
	for _, index := range []string{"results_daily_user", "results_daily_anon"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, index).Scan(&name)
		assert.NoError(t, err, index)
	}
}

func TestMigrate_DailyUniqueKeepsFirstWin(t *testing.T) {
	db, err := Open(MemoryDSN)
	require.NoError(t, err)
	defer db.Close()

	// Schema as it stood before the daily indexes, with a duplicate already stored.
	schema, err := migrations.ReadFile("sql/001_init.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE _migrations (name TEXT PRIMARY KEY); INSERT INTO _migrations(name) VALUES ('sql/001_init.sql')`)
	require.NoError(t, err)

	insert := `INSERT INTO results (id, game_id, anonymous_id, difficulty, daily_date, moves, elapsed_seconds, created_at)
               VALUES (?, ?, 'anon', 'hard', ?, ?, 30, '2024-03-01T00:00:00Z')`
	for _, r := range []struct {
		id, date string
		moves    int
	}{{"r1", "2024-03-01", 8}, {"r2", "2024-03-01", 6}, {"r3", "", 5}, {"r4", "", 5}} {
		_, err := db.Exec(insert, r.id, "g-"+r.id, r.date, r.moves)
		require.NoError(t, err)
	}

	require.NoError(t, Migrate(db))

	var ids []string
	rows, err := db.Query(`SELECT id FROM results ORDER BY id`)
	require.NoError(t, err)
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{"r1", "r3", "r4"}, ids)

	_, err = db.Exec(insert, "r5", "g-r5", "2024-03-01", 4)
	assert.Error(t, err, "a second daily row for the same guest is rejected")
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	db, err := OpenMigrated(path)
	require.NoError(t, err)
	defer db.Close()
	assert.FileExists(t, path)
}
