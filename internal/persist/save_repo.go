package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stellarcache/galaxy/internal/apperr"
)

// SaveRepo is the postgres Store.
type SaveRepo struct {
	db *DB
}

func NewSaveRepo(db *DB) *SaveRepo {
	return &SaveRepo{db: db}
}

// SaveGalaxy replaces the slot and appends to its history in one
// transaction.
func (r *SaveRepo) SaveGalaxy(ctx context.Context, rec SaveRecord) error {
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

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO galaxy_saves (slot, generator_name, generator_version, state, saved_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (slot) DO UPDATE SET
		     generator_name = EXCLUDED.generator_name,
		     generator_version = EXCLUDED.generator_version,
		     state = EXCLUDED.state,
		     saved_at = EXCLUDED.saved_at`,
		rec.Slot, rec.GeneratorName, rec.GeneratorVersion, blob, rec.SavedAt,
	); err != nil {
		return fmt.Errorf("save upsert: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO galaxy_save_history (slot, generator_name, generator_version, state_size, saved_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.Slot, rec.GeneratorName, rec.GeneratorVersion, len(blob), rec.SavedAt,
	); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *SaveRepo) LoadGalaxy(ctx context.Context, slot string) (*SaveRecord, error) {
	rec := &SaveRecord{}
	var blob []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT slot, generator_name, generator_version, state, saved_at
		 FROM galaxy_saves WHERE slot = $1`, slot,
	).Scan(&rec.Slot, &rec.GeneratorName, &rec.GeneratorVersion, &blob, &rec.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("save slot %q", slot)
	}
	if err != nil {
		return nil, fmt.Errorf("load save %q: %w", slot, err)
	}
	if rec.State, err = DecodeState(blob); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *SaveRepo) History(ctx context.Context, slot string, limit int) ([]SaveInfo, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT slot, generator_name, generator_version, state_size, saved_at
		 FROM galaxy_save_history WHERE slot = $1
		 ORDER BY saved_at DESC, id DESC LIMIT $2`, slot, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("save history %q: %w", slot, err)
	}
	defer rows.Close()

	var out []SaveInfo
	for rows.Next() {
		var info SaveInfo
		if err := rows.Scan(&info.Slot, &info.GeneratorName, &info.GeneratorVersion, &info.StateSize, &info.SavedAt); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func (r *SaveRepo) Close() {
	r.db.Close()
}
