package storage

import (
	"fmt"
)

func (d *Database) runMigrations() error {
	migrations := []string{
		createTables,
		createIndexes,
	}

	for i, migration := range migrations {
		if _, err := d.db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const createTables = `
CREATE TABLE IF NOT EXISTS tracks (
	source TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	length_ns INTEGER DEFAULT 0,
	played INTEGER DEFAULT 0,
	last_opened TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS markers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	time_ns INTEGER NOT NULL,
	label TEXT DEFAULT '',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (source) REFERENCES tracks(source) ON DELETE CASCADE
);
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_tracks_last_opened ON tracks(last_opened DESC);
CREATE INDEX IF NOT EXISTS idx_markers_source ON markers(source, time_ns);
`
