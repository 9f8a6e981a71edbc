package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stellarcache/galaxy/internal/apperr"
	"github.com/stellarcache/galaxy/internal/config"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the embedded Store, also used by tests with an in-memory
// database.
type SQLiteStore struct {
	conn *sqlx.DB
	log  *zap.Logger
}

type saveRow struct {
	Slot             string `db:"slot"`
	GeneratorName    string `db:"generator_name"`
	GeneratorVersion int    `db:"generator_version"`
	State            []byte `db:"state"`
	SavedAt          int64  `db:"saved_at"`
}

type historyRow struct {
	SaveInfo
	SavedAt int64 `db:"saved_at"`
}

// OpenSQLite opens the database and applies the sqlite migrations. A single
// connection serialises writers and keeps in-memory databases alive.
func OpenSQLite(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := runSQLiteMigrations(ctx, conn.DB); err != nil {
		conn.Close()
		return nil, err
	}
	log.Info("opened sqlite save store", zap.String("dsn", cfg.DSN))
	return &SQLiteStore{conn: conn, log: log}, nil
}

func (s *SQLiteStore) SaveGalaxy(ctx context.Context, rec SaveRecord) error {
	if err := checkRecord(rec); err != nil {
		return err
	}
	blob, err := EncodeState(rec.State)
	if err != nil {
		return err
	}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}
	row := saveRow{
		Slot:             rec.Slot,
		GeneratorName:    rec.GeneratorName,
		GeneratorVersion: rec.GeneratorVersion,
		State:            blob,
		SavedAt:          rec.SavedAt.UnixNano(),
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO galaxy_saves (slot, generator_name, generator_version, state, saved_at)
		 VALUES (:slot, :generator_name, :generator_version, :state, :saved_at)
		 ON CONFLICT (slot) DO UPDATE SET
		     generator_name = excluded.generator_name,
		     generator_version = excluded.generator_version,
		     state = excluded.state,
		     saved_at = excluded.saved_at`, row,
	); err != nil {
		return fmt.Errorf("save upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO galaxy_save_history (slot, generator_name, generator_version, state_size, saved_at)
		 VALUES (?, ?, ?, ?, ?)`,
		row.Slot, row.GeneratorName, row.GeneratorVersion, len(blob), row.SavedAt,
	); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadGalaxy(ctx context.Context, slot string) (*SaveRecord, error) {
	var row saveRow
	err := s.conn.GetContext(ctx, &row,
		`SELECT slot, generator_name, generator_version, state, saved_at
		 FROM galaxy_saves WHERE slot = ?`, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("save slot %q", slot)
	}
	if err != nil {
		return nil, fmt.Errorf("load save %q: %w", slot, err)
	}
	state, err := DecodeState(row.State)
	if err != nil {
		return nil, err
	}
	return &SaveRecord{
		Slot:             row.Slot,
		GeneratorName:    row.GeneratorName,
		GeneratorVersion: row.GeneratorVersion,
		State:            state,
		SavedAt:          time.Unix(0, row.SavedAt),
	}, nil
}

func (s *SQLiteStore) History(ctx context.Context, slot string, limit int) ([]SaveInfo, error) {
	var rows []historyRow
	if err := s.conn.SelectContext(ctx, &rows,
		`SELECT slot, generator_name, generator_version, state_size, saved_at
		 FROM galaxy_save_history WHERE slot = ?
		 ORDER BY saved_at DESC, id DESC LIMIT ?`, slot, limit,
	); err != nil {
		return nil, fmt.Errorf("save history %q: %w", slot, err)
	}
	out := make([]SaveInfo, len(rows))
	for i, r := range rows {
		out[i] = r.SaveInfo
		out[i].SavedAt = time.Unix(0, r.SavedAt)
	}
	return out, nil
}

func (s *SQLiteStore) Close() {
	if err := s.conn.Close(); err != nil {
		s.log.Warn("close sqlite save store", zap.Error(err))
	}
}
