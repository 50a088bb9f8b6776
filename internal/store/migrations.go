package store

type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of schema migrations. Never edit an
// applied entry; append a new one.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create plugin settings",
		SQL: `
			CREATE TABLE plugin_settings (
				plugin_id   TEXT PRIMARY KEY,
				document    TEXT NOT NULL,
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
	{
		Version: 2,
		Name:    "create settings audit",
		SQL: `
			CREATE TABLE settings_audit (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				plugin_id   TEXT NOT NULL,
				action      TEXT NOT NULL,
				path        TEXT NOT NULL DEFAULT '',
				changed_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			);

			CREATE INDEX idx_settings_audit_plugin ON settings_audit (plugin_id, id);
		`,
	},
}
