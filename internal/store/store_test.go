package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/discordbridge/internal/logging"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", logging.New(nil, "silent"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	require.NoError(t, db.SQL().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)

	require.NoError(t, db.migrate(), "running migrations again is a no-op")
	require.NoError(t, db.SQL().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)

	for _, table := range []string{"plugin_settings", "settings_audit"} {
		var name string
		err := db.SQL().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.db")
	db, err := Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	s := NewSettingsStore(db)
	require.NoError(t, s.Put(context.Background(), "p", `{"a":1}`, "a"))
	require.NoError(t, db.Close())

	db, err = Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	defer db.Close()
	doc, err := NewSettingsStore(db).Get(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, doc)
}

func TestSettingsStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewSettingsStore(testDB(t))

	doc, err := s.Get(ctx, "com.rune.discord")
	require.NoError(t, err)
	assert.Empty(t, doc)

	require.NoError(t, s.Put(ctx, "com.rune.discord", `{"auto_connect":false}`, "auto_connect"))
	require.NoError(t, s.Put(ctx, "com.rune.discord", `{"auto_connect":true}`, "auto_connect"))
	doc, err = s.Get(ctx, "com.rune.discord")
	require.NoError(t, err)
	assert.Equal(t, `{"auto_connect":true}`, doc)

	require.NoError(t, s.Delete(ctx, "com.rune.discord"))
	require.NoError(t, s.Delete(ctx, "com.rune.discord"))
	doc, err = s.Get(ctx, "com.rune.discord")
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestSettingsStore_RejectsInvalidJSON(t *testing.T) {
	s := NewSettingsStore(testDB(t))
	err := s.Put(context.Background(), "p", "{nope", "")
	require.Error(t, err)

	h, err := s.History(context.Background(), "p", 0)
	require.NoError(t, err)
	assert.Empty(t, h, "failed writes are not audited")
}

func TestSettingsStore_History(t *testing.T) {
	ctx := context.Background()
	s := NewSettingsStore(testDB(t))

	require.NoError(t, s.Put(ctx, "p", `{}`, "token"))
	require.NoError(t, s.Put(ctx, "p", `{}`, "intents.guilds"))
	require.NoError(t, s.Delete(ctx, "p"))
	require.NoError(t, s.Put(ctx, "other", `{}`, "x"))

	h, err := s.History(ctx, "p", 10)
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, ActionDelete, h[0].Action)
	assert.Equal(t, "intents.guilds", h[1].Path)
	assert.Equal(t, "token", h[2].Path)
	assert.False(t, h[0].At.IsZero())

	h, err = s.History(ctx, "p", 1)
	require.NoError(t, err)
	assert.Len(t, h, 1)
}
