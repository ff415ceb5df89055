// Package sqlite provides the embedded SQLite implementation of local player storage.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/storage"
	"github.com/mcoot/savebridge/internal/storage/sqlite/migrations"
)

// Store persists player data in a local SQLite database.
type Store struct {
	db        *sql.DB
	closeOnce sync.Once
	closeErr  error
}

var _ storage.LocalStorage = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle. Later calls return the first result.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func (s *Store) GetPlayerData(ctx context.Context, id string) (*model.PlayerData, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, gold, hearts FROM player_data WHERE id = ?`, id)
	return scanPlayerData(row)
}

func (s *Store) SavePlayerData(ctx context.Context, data *model.PlayerData) error {
	if strings.TrimSpace(data.ID) == "" {
		return fmt.Errorf("player data id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO player_data (id, gold, hearts, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   gold = excluded.gold,
		   hearts = excluded.hearts,
		   updated_at = excluded.updated_at`,
		data.ID, data.Gold, data.Hearts, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save player data: %w", err)
	}
	return nil
}

func (s *Store) UpdatePlayerData(ctx context.Context, id string, fn func(*model.PlayerData) error) (*model.PlayerData, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT id, gold, hearts FROM player_data WHERE id = ?`, id)
	data, err := scanPlayerData(row)
	if err != nil {
		return nil, err
	}

	if err := fn(data); err != nil {
		return nil, err
	}
	data.ID = id

	if _, err := tx.ExecContext(ctx,
		`UPDATE player_data SET gold = ?, hearts = ?, updated_at = ? WHERE id = ?`,
		data.Gold, data.Hearts, time.Now().UTC().UnixMilli(), id,
	); err != nil {
		return nil, fmt.Errorf("update player data: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return data, nil
}

func (s *Store) DeletePlayerData(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM player_data WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete player data: %w", err)
	}
	return nil
}

func scanPlayerData(row *sql.Row) (*model.PlayerData, error) {
	var data model.PlayerData
	if err := row.Scan(&data.ID, &data.Gold, &data.Hearts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerDataNotFound
		}
		return nil, fmt.Errorf("get player data: %w", err)
	}
	return &data, nil
}
