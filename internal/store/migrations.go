package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS id_mapper (
	account    TEXT NOT NULL,
	folder     TEXT NOT NULL,
	alias      INTEGER NOT NULL,
	id         TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (account, folder, alias),
	UNIQUE (account, folder, id)
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
