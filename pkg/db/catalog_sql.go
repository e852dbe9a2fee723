package db

const CurrentVersion = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS catalog (
		id            TEXT PRIMARY KEY,
		parent_id     TEXT REFERENCES catalog(id) ON DELETE CASCADE,
		filename      TEXT NOT NULL DEFAULT '',
		title         TEXT,
		description   TEXT,
		created       INTEGER NOT NULL,
		published     INTEGER NOT NULL,
		audio_size    INTEGER,
		audio_type    TEXT,
		duration      INTEGER NOT NULL DEFAULT 0,
		thumbnail_url TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS catalog_parent_id ON catalog(parent_id)`,
	`CREATE INDEX IF NOT EXISTS catalog_filename ON catalog(filename)`,
	`CREATE INDEX IF NOT EXISTS catalog_created ON catalog(created)`,
}

const entryColumns = `id, parent_id, filename, title, description, created, published,
	audio_size, audio_type, duration, thumbnail_url`

const (
	selectEntry = `SELECT ` + entryColumns + ` FROM catalog WHERE id = ?`

	// Insertion order is the rowid order
	selectChildren = `SELECT ` + entryColumns + ` FROM catalog WHERE parent_id = ? ORDER BY rowid`

	selectChapters = `SELECT ` + entryColumns + ` FROM catalog WHERE parent_id = ? ORDER BY filename, rowid`

	selectStandalone = `SELECT ` + entryColumns + ` FROM catalog c
		WHERE c.parent_id IS NULL AND c.title IS NOT NULL
		AND NOT EXISTS (SELECT 1 FROM catalog ch WHERE ch.parent_id = c.id)
		ORDER BY c.created, c.rowid`

	selectRoots = `SELECT c.id, c.title, c.description, c.thumbnail_url, c.duration,
		(SELECT COUNT(*) FROM catalog ch WHERE ch.parent_id = c.id) AS children
		FROM catalog c
		WHERE c.parent_id IS NULL AND c.title IS NOT NULL`

	orderRoots = ` ORDER BY c.created DESC, c.rowid DESC`

	insertEntry = `INSERT INTO catalog (` + entryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	updateChapter = `UPDATE catalog
		SET title = ?, description = ?, duration = ?, audio_size = ?, audio_type = ?
		WHERE id = ? AND parent_id IS NOT NULL`

	updateBook = `UPDATE catalog
		SET title = ?, description = ?, duration = ?, audio_size = ?, audio_type = ?
		WHERE id = ? AND parent_id IS NULL`

	deleteEntry = `DELETE FROM catalog WHERE id = ? OR parent_id = ?`
)
