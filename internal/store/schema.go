package store

// CoreSchema creates the five relational tables that hold notes, tags,
// tag assignments, tag aliases, and tag-hierarchy edges. Integer
// primary keys are stable identity per the data model; note_tags has
// no surrogate key because (note_id, tag_id) is itself the identity.
const CoreSchema = `
CREATE TABLE IF NOT EXISTS notes (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	content                TEXT NOT NULL,
	content_enhanced       TEXT,
	enhancement_model      TEXT,
	enhancement_confidence REAL,
	enhanced_at            DATETIME,
	created_at             DATETIME NOT NULL,
	updated_at             DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at);

CREATE TABLE IF NOT EXISTS tags (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	name              TEXT NOT NULL UNIQUE COLLATE NOCASE,
	degree_centrality INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS note_tags (
	note_id       INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	tag_id        INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	source        TEXT NOT NULL CHECK (source IN ('user', 'llm')),
	confidence    REAL NOT NULL CHECK (confidence >= 0.0 AND confidence <= 1.0),
	model_version TEXT,
	verified      INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL,
	PRIMARY KEY (note_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_note_tags_note ON note_tags(note_id);
CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag_id);

CREATE TABLE IF NOT EXISTS tag_aliases (
	alias            TEXT PRIMARY KEY,
	canonical_tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	source           TEXT NOT NULL CHECK (source IN ('user', 'llm')),
	confidence       REAL NOT NULL CHECK (confidence >= 0.0 AND confidence <= 1.0),
	model_version    TEXT,
	created_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tag_aliases_canonical ON tag_aliases(canonical_tag_id);

CREATE TABLE IF NOT EXISTS edges (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	source_tag_id   INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	target_tag_id   INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	hierarchy_type  TEXT CHECK (hierarchy_type IN ('generic', 'partitive') OR hierarchy_type IS NULL),
	confidence      REAL NOT NULL CHECK (confidence >= 0.0 AND confidence <= 1.0),
	valid_from      DATETIME,
	valid_until     DATETIME,
	source          TEXT NOT NULL CHECK (source IN ('user', 'llm')),
	model_version   TEXT,
	verified        INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_tag_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_tag_id);
CREATE INDEX IF NOT EXISTS idx_edges_created_at ON edges(created_at);
CREATE INDEX IF NOT EXISTS idx_edges_updated_at ON edges(updated_at);
CREATE INDEX IF NOT EXISTS idx_edges_hierarchy_type ON edges(hierarchy_type);

CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER PRIMARY KEY,
	applied_at DATETIME NOT NULL
);
`

// FTS5Schema creates the standalone notes_fts virtual table and the
// triggers that keep it in sync with notes and note_tags. The table
// is rebuilt entirely by Rebuild() rather than relying on the
// external-content mechanism, so it carries its own copies of
// content, content_enhanced, and a space-joined tag name list.
const FTS5Schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
	note_id UNINDEXED,
	content,
	content_enhanced,
	tags,
	tokenize = 'porter'
);

CREATE TRIGGER IF NOT EXISTS notes_fts_after_insert
AFTER INSERT ON notes
BEGIN
	INSERT INTO notes_fts(note_id, content, content_enhanced, tags)
	VALUES (
		new.id,
		new.content,
		COALESCE(new.content_enhanced, ''),
		COALESCE((SELECT GROUP_CONCAT(t.name, ' ') FROM note_tags nt JOIN tags t ON t.id = nt.tag_id WHERE nt.note_id = new.id), '')
	);
END;

CREATE TRIGGER IF NOT EXISTS notes_fts_after_update
AFTER UPDATE ON notes
BEGIN
	DELETE FROM notes_fts WHERE note_id = old.id;
	INSERT INTO notes_fts(note_id, content, content_enhanced, tags)
	VALUES (
		new.id,
		new.content,
		COALESCE(new.content_enhanced, ''),
		COALESCE((SELECT GROUP_CONCAT(t.name, ' ') FROM note_tags nt JOIN tags t ON t.id = nt.tag_id WHERE nt.note_id = new.id), '')
	);
END;

CREATE TRIGGER IF NOT EXISTS notes_fts_after_delete
AFTER DELETE ON notes
BEGIN
	DELETE FROM notes_fts WHERE note_id = old.id;
END;

CREATE TRIGGER IF NOT EXISTS note_tags_fts_after_insert
AFTER INSERT ON note_tags
BEGIN
	DELETE FROM notes_fts WHERE note_id = new.note_id;
	INSERT INTO notes_fts(note_id, content, content_enhanced, tags)
	SELECT
		n.id,
		n.content,
		COALESCE(n.content_enhanced, ''),
		COALESCE((SELECT GROUP_CONCAT(t.name, ' ') FROM note_tags nt JOIN tags t ON t.id = nt.tag_id WHERE nt.note_id = n.id), '')
	FROM notes n WHERE n.id = new.note_id;
END;

CREATE TRIGGER IF NOT EXISTS note_tags_fts_after_delete
AFTER DELETE ON note_tags
BEGIN
	DELETE FROM notes_fts WHERE note_id = old.note_id;
	INSERT INTO notes_fts(note_id, content, content_enhanced, tags)
	SELECT
		n.id,
		n.content,
		COALESCE(n.content_enhanced, ''),
		COALESCE((SELECT GROUP_CONCAT(t.name, ' ') FROM note_tags nt JOIN tags t ON t.id = nt.tag_id WHERE nt.note_id = n.id), '')
	FROM notes n WHERE n.id = old.note_id;
END;
`

// schemaVersion is the current migration level. See migrations.go.
const schemaVersion = 1
