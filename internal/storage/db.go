package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Alexander-D-Karpov/waveview/internal/config"
	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

// Database persists markers and the recents library. Peaks are never
// written here; they are cheap to recompute and geometry-dependent.
type Database struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	debug  bool
}

func NewDatabase(cfg *config.Config) (*Database, error) {
	dbDir := filepath.Dir(cfg.Storage.DatabasePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := openDatabase(cfg.Storage.DatabasePath, cfg.Storage.EnableWAL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	storage := &Database{
		db:    db,
		debug: cfg.Debug,
	}

	if err := storage.runMigrations(); err != nil {
		if closeErr := storage.Close(); closeErr != nil {
			log.Printf("Failed to close database after migration error: %v", closeErr)
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return storage, nil
}

func openDatabase(dbPath string, enableWAL bool) (*sql.DB, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		log.Printf("Creating new database at %s", dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=memory",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=30000",
	}

	if enableWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				log.Printf("Failed to close database after pragma error: %v", closeErr)
			}
			return nil, fmt.Errorf("execute pragma %s: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Failed to close database after ping error: %v", closeErr)
		}
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func (d *Database) debugLog(operation string, err error, duration time.Duration) {
	if !d.debug || err == nil {
		return
	}
	log.Printf("[DB] %s failed in %v: %v", operation, duration, err)
}

func (d *Database) checkClosed() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return fmt.Errorf("database is closed")
	}
	return nil
}

// SaveTrack inserts or refreshes a recents entry.
func (d *Database) SaveTrack(ctx context.Context, track *types.Track) error {
	start := time.Now()

	if err := d.checkClosed(); err != nil {
		return err
	}

	query := `
		INSERT INTO tracks (source, name, length_ns, played, last_opened, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(source) DO UPDATE SET
			name = excluded.name,
			length_ns = excluded.length_ns,
			played = tracks.played + 1,
			last_opened = CURRENT_TIMESTAMP
	`

	_, err := d.db.ExecContext(ctx, query, track.Source, track.Name, int64(track.Length), track.Played)
	if err != nil {
		d.debugLog("SaveTrack", err, time.Since(start))
		return fmt.Errorf("save track: %w", err)
	}
	return nil
}

// GetTracks returns the recents library, most recently opened first.
func (d *Database) GetTracks(ctx context.Context, limit int) ([]*types.Track, error) {
	start := time.Now()

	if err := d.checkClosed(); err != nil {
		return nil, err
	}

	query := `
		SELECT source, name, length_ns, played, last_opened, created_at
		FROM tracks
		ORDER BY last_opened DESC
		LIMIT ?
	`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		d.debugLog("GetTracks", err, time.Since(start))
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Printf("Failed to close rows: %v", closeErr)
		}
	}()

	var tracks []*types.Track
	for rows.Next() {
		track := &types.Track{}
		var length int64
		if err := rows.Scan(&track.Source, &track.Name, &length, &track.Played,
			&track.LastOpened, &track.CreatedAt); err != nil {
			d.debugLog("GetTracks", err, time.Since(start))
			return nil, fmt.Errorf("scan track: %w", err)
		}
		track.Length = time.Duration(length)
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		d.debugLog("GetTracks", err, time.Since(start))
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tracks, nil
}

// SaveMarker stores a marker and fills in its assigned id.
func (d *Database) SaveMarker(ctx context.Context, marker *types.Marker) error {
	start := time.Now()

	if err := d.checkClosed(); err != nil {
		return err
	}

	query := `
		INSERT INTO markers (source, time_ns, label, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`

	res, err := d.db.ExecContext(ctx, query, marker.Source, int64(marker.Time), marker.Label)
	if err != nil {
		d.debugLog("SaveMarker", err, time.Since(start))
		return fmt.Errorf("save marker: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("marker id: %w", err)
	}
	marker.ID = id
	return nil
}

// GetMarkers returns markers for one source ordered by time.
func (d *Database) GetMarkers(ctx context.Context, source string) ([]*types.Marker, error) {
	start := time.Now()

	if err := d.checkClosed(); err != nil {
		return nil, err
	}

	query := `
		SELECT id, source, time_ns, label, created_at
		FROM markers
		WHERE source = ?
		ORDER BY time_ns ASC
	`

	rows, err := d.db.QueryContext(ctx, query, source)
	if err != nil {
		d.debugLog("GetMarkers", err, time.Since(start))
		return nil, fmt.Errorf("query markers: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Printf("Failed to close rows: %v", closeErr)
		}
	}()

	var markers []*types.Marker
	for rows.Next() {
		marker := &types.Marker{}
		var t int64
		if err := rows.Scan(&marker.ID, &marker.Source, &t, &marker.Label, &marker.CreatedAt); err != nil {
			d.debugLog("GetMarkers", err, time.Since(start))
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		marker.Time = time.Duration(t)
		markers = append(markers, marker)
	}

	if err := rows.Err(); err != nil {
		d.debugLog("GetMarkers", err, time.Since(start))
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return markers, nil
}

// DeleteMarker removes one marker by id.
func (d *Database) DeleteMarker(ctx context.Context, id int64) error {
	start := time.Now()

	if err := d.checkClosed(); err != nil {
		return err
	}

	if _, err := d.db.ExecContext(ctx, `DELETE FROM markers WHERE id = ?`, id); err != nil {
		d.debugLog("DeleteMarker", err, time.Since(start))
		return fmt.Errorf("delete marker: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}
