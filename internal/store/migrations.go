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

CREATE TABLE IF NOT EXISTS messages (
	email_id    TEXT PRIMARY KEY,
	sent_at     DATETIME,
	sender      TEXT NOT NULL DEFAULT '',
	subject     TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	ingested_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger (
	id         TEXT PRIMARY KEY,
	site       TEXT NOT NULL,
	contact    TEXT NOT NULL,
	status     TEXT NOT NULL CHECK(status IN ('sent', 'opened', 'failed', 'skipped')),
	notes      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS prospects (
	id               TEXT PRIMARY KEY,
	site_name        TEXT NOT NULL,
	homepage_url     TEXT,
	contact_email    TEXT,
	contact_form_url TEXT,
	relevance        TEXT NOT NULL DEFAULT '',
	found_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages(sent_at);
CREATE INDEX IF NOT EXISTS idx_messages_ingested_at ON messages(ingested_at);
CREATE INDEX IF NOT EXISTS idx_ledger_site_contact ON ledger(site, contact);
CREATE INDEX IF NOT EXISTS idx_ledger_status ON ledger(status);
CREATE INDEX IF NOT EXISTS idx_prospects_contact_email ON prospects(contact_email);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
