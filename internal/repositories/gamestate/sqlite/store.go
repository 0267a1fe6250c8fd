// Package sqlite provides a SQLite-backed game state repository.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/KirkDiggler/dm-table/internal/repositories/gamestate"
	"github.com/KirkDiggler/dm-table/internal/repositories/gamestate/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const migrationTable = "schema_migrations"

// Store persists game state in SQLite.
type Store struct {
	sqlDB *sql.DB
	clock gamestate.TimeProvider
}

var _ gamestate.Repository = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	return OpenWithClock(path, gamestate.SystemClock())
}

// OpenWithClock opens a store that stamps writes with clock.
func OpenWithClock(path string, clock gamestate.TimeProvider) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; the version column still guards other processes.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, clock: clock}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Create inserts an idle document at version 0.
func (s *Store) Create(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return dnderr.InvalidArgument("session ID cannot be empty")
	}

	data, err := json.Marshal(combat.NewState())
	if err != nil {
		return dnderr.Wrap(err, "failed to serialize combat state")
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_state (session_id, combat_state, version, paused, updated_at) VALUES (?, ?, 0, 0, ?)`,
		sessionID, string(data), toMillis(s.clock.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return dnderr.AlreadyExistsf("game state for session %s already exists", sessionID)
		}
		return dnderr.StorageFailure(err, "failed to create game state")
	}
	return nil
}

// Get returns one session document.
func (s *Store) Get(ctx context.Context, sessionID string) (*gamestate.Snapshot, error) {
	var (
		raw       string
		version   int64
		paused    int
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT combat_state, version, paused, updated_at FROM game_state WHERE session_id = ?`,
		sessionID,
	).Scan(&raw, &version, &paused, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dnderr.NotFoundf("game state for session %s not found", sessionID)
	}
	if err != nil {
		return nil, dnderr.StorageFailure(err, "failed to get game state")
	}

	state := combat.NewState()
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, dnderr.StorageFailure(err, "failed to deserialize combat state")
	}
	state.Normalize()

	return &gamestate.Snapshot{
		SessionID: sessionID,
		Combat:    state,
		Version:   version,
		Paused:    paused != 0,
		UpdatedAt: fromMillis(updatedAt),
	}, nil
}

// SaveCombat compares and swaps on the version column inside one transaction
// that also mirrors player HP onto session_characters.
func (s *Store) SaveCombat(ctx context.Context, sessionID string, state *combat.State, expectedVersion int64, hp []gamestate.PlayerHP) (int64, error) {
	if state == nil {
		return 0, dnderr.InvalidArgument("combat state cannot be nil")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return 0, dnderr.Wrap(err, "failed to serialize combat state")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, dnderr.StorageFailure(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE game_state SET combat_state = ?, version = version + 1, updated_at = ?
		 WHERE session_id = ? AND version = ?`,
		string(data), toMillis(s.clock.Now()), sessionID, expectedVersion,
	)
	if err != nil {
		return 0, dnderr.StorageFailure(err, "failed to save combat state")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dnderr.StorageFailure(err, "failed to save combat state")
	}
	if n == 0 {
		if err := exists(ctx, tx, sessionID); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("session %s no longer at version %d: %w", sessionID, expectedVersion, gamestate.ErrVersionConflict)
	}

	for _, h := range hp {
		if _, err := tx.ExecContext(ctx,
			`UPDATE session_characters SET current_hp = ? WHERE session_id = ? AND character_id = ?`,
			h.CurrentHP, sessionID, h.CharacterID,
		); err != nil {
			return 0, dnderr.StorageFailure(err, "failed to mirror player hp")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, dnderr.StorageFailure(err, "failed to commit combat state")
	}
	return expectedVersion + 1, nil
}

// SetPaused updates the pause flag only.
func (s *Store) SetPaused(ctx context.Context, sessionID string, paused bool) error {
	flag := 0
	if paused {
		flag = 1
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE game_state SET paused = ?, updated_at = ? WHERE session_id = ?`,
		flag, toMillis(s.clock.Now()), sessionID,
	)
	if err != nil {
		return dnderr.StorageFailure(err, "failed to update pause flag")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return dnderr.NotFoundf("game state for session %s not found", sessionID)
	}
	return nil
}

// ListRoster returns roster entries ordered by character id.
func (s *Store) ListRoster(ctx context.Context, sessionID string) ([]*gamestate.RosterMember, error) {
	if err := exists(ctx, s.sqlDB, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT character_id, name, current_hp, max_hp, ac FROM session_characters
		 WHERE session_id = ? ORDER BY character_id`,
		sessionID,
	)
	if err != nil {
		return nil, dnderr.StorageFailure(err, "failed to list roster")
	}
	defer rows.Close()

	members := []*gamestate.RosterMember{}
	for rows.Next() {
		m := &gamestate.RosterMember{}
		if err := rows.Scan(&m.CharacterID, &m.Name, &m.CurrentHP, &m.MaxHP, &m.AC); err != nil {
			return nil, dnderr.StorageFailure(err, "failed to scan roster member")
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dnderr.StorageFailure(err, "failed to list roster")
	}
	return members, nil
}

// PutRosterMember upserts one roster entry.
func (s *Store) PutRosterMember(ctx context.Context, sessionID string, member *gamestate.RosterMember) error {
	if err := gamestate.ValidateMember(member); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "invalid roster member")
	}
	if err := exists(ctx, s.sqlDB, sessionID); err != nil {
		return err
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO session_characters (session_id, character_id, name, current_hp, max_hp, ac)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, character_id) DO UPDATE SET
		   name = excluded.name,
		   current_hp = excluded.current_hp,
		   max_hp = excluded.max_hp,
		   ac = excluded.ac`,
		sessionID, member.CharacterID, member.Name, member.CurrentHP, member.MaxHP, member.AC,
	)
	if err != nil {
		return dnderr.StorageFailure(err, "failed to store roster member")
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q queryer, sessionID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM game_state WHERE session_id = ?`, sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return dnderr.NotFoundf("game state for session %s not found", sessionID)
	}
	if err != nil {
		return dnderr.StorageFailure(err, "failed to check game state")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// applyMigrations runs each embedded file at most once, in name order.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := sqlDB.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, applied_at INTEGER NOT NULL)`, migrationTable,
	)); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		var applied int
		err := sqlDB.QueryRow(fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE name = ?`, migrationTable), file).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if applied > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		up := upSection(string(content))
		if strings.TrimSpace(up) == "" {
			continue
		}

		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(
			fmt.Sprintf(`INSERT INTO %s (name, applied_at) VALUES (?, ?)`, migrationTable),
			file, time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

func upSection(content string) string {
	const upMarker, downMarker = "-- +migrate Up", "-- +migrate Down"
	start := strings.Index(content, upMarker)
	if start == -1 {
		return content
	}
	content = content[start+len(upMarker):]
	if end := strings.Index(content, downMarker); end != -1 {
		return content[:end]
	}
	return content
}
