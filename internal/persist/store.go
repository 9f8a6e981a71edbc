package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/stellarcache/galaxy/internal/apperr"
	"github.com/stellarcache/galaxy/internal/config"
	"go.uber.org/zap"
	"lukechampine.com/blake3"
)

// SaveRecord is one saved generator state. State is the generator's JSON
// descriptor; stores keep it compressed.
type SaveRecord struct {
	Slot             string
	GeneratorName    string
	GeneratorVersion int
	State            json.RawMessage
	SavedAt          time.Time
}

// SaveInfo describes a past save without its state.
type SaveInfo struct {
	Slot             string    `db:"slot"`
	GeneratorName    string    `db:"generator_name"`
	GeneratorVersion int       `db:"generator_version"`
	StateSize        int       `db:"state_size"`
	SavedAt          time.Time `db:"-"`
}

// Store persists generator state by slot.
type Store interface {
	SaveGalaxy(ctx context.Context, rec SaveRecord) error
	// LoadGalaxy returns a not_found error for an unknown slot and a
	// corrupt_save error when the stored envelope does not verify.
	LoadGalaxy(ctx context.Context, slot string) (*SaveRecord, error)
	// History lists the most recent saves of slot, newest first.
	History(ctx context.Context, slot string, limit int) ([]SaveInfo, error)
	Close()
}

// Open connects the store the configuration names and applies its
// migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := NewDB(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return NewSaveRepo(db), nil
	case "sqlite", "":
		return OpenSQLite(ctx, cfg, log)
	}
	return nil, fmt.Errorf("open store: unknown driver %q", cfg.Driver)
}

var envelopeMagic = [4]byte{'G', 'X', 'S', '1'}

const envelopeHeader = len(envelopeMagic) + 32

// EncodeState wraps a state in magic, a blake3 checksum of the plain bytes
// and an lz4 frame.
func EncodeState(state []byte) ([]byte, error) {
	sum := blake3.Sum256(state)
	var buf bytes.Buffer
	buf.Write(envelopeMagic[:])
	buf.Write(sum[:])
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(state); err != nil {
		return nil, fmt.Errorf("compress state: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress state: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeState reverses EncodeState. Anything that does not verify is a
// corrupt_save.
func DecodeState(blob []byte) ([]byte, error) {
	if len(blob) < envelopeHeader || !bytes.Equal(blob[:len(envelopeMagic)], envelopeMagic[:]) {
		return nil, apperr.CorruptSavef("save envelope header missing")
	}
	var want [32]byte
	copy(want[:], blob[len(envelopeMagic):envelopeHeader])

	state, err := io.ReadAll(lz4.NewReader(bytes.NewReader(blob[envelopeHeader:])))
	if err != nil {
		return nil, apperr.WrapCorruptSave("decompress save", err)
	}
	if blake3.Sum256(state) != want {
		return nil, apperr.CorruptSavef("save checksum mismatch")
	}
	return state, nil
}

func checkRecord(rec SaveRecord) error {
	if rec.Slot == "" {
		return fmt.Errorf("save galaxy: empty slot")
	}
	if !json.Valid(rec.State) {
		return fmt.Errorf("save galaxy %q: state is not json", rec.Slot)
	}
	return nil
}
