package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/user/quiet-dominion/internal/types"
)

// SnapshotStore persists the whole GameState as one zstd-compressed JSON
// snapshot under a single well-known path. Writes go through a temp file and
// rename so a crash mid-save never corrupts the previous snapshot.
type SnapshotStore struct {
	savePath string
	fileLock sync.Mutex

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewSnapshotStore creates a snapshot store writing to savePath.
func NewSnapshotStore(savePath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &SnapshotStore{
		savePath: savePath,
		encoder:  encoder,
		decoder:  decoder,
	}, nil
}

// Save writes the state snapshot to disk.
func (ss *SnapshotStore) Save(state *types.GameState) error {
	ss.fileLock.Lock()
	defer ss.fileLock.Unlock()

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	compressed := ss.encoder.EncodeAll(raw, nil)

	tmpPath := ss.savePath + ".tmp"
	if err := os.WriteFile(tmpPath, compressed, 0644); err != nil {
		return fmt.Errorf("failed to write game state: %w", err)
	}
	if err := os.Rename(tmpPath, ss.savePath); err != nil {
		return fmt.Errorf("failed to replace game state file: %w", err)
	}

	return nil
}

// Exists reports whether a snapshot is present on disk.
func (ss *SnapshotStore) Exists() bool {
	_, err := os.Stat(ss.savePath)
	return err == nil
}

// Load reads the snapshot into the given state. Fields absent from the
// snapshot keep the values already in state, so loading over a fresh default
// state gives sane values for fields added after the save was written.
func (ss *SnapshotStore) Load(into *types.GameState) error {
	ss.fileLock.Lock()
	defer ss.fileLock.Unlock()

	compressed, err := os.ReadFile(ss.savePath)
	if err != nil {
		return fmt.Errorf("failed to read game state file: %w", err)
	}

	raw, err := ss.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return fmt.Errorf("failed to decompress game state: %w", err)
	}

	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("failed to parse game state: %w", err)
	}

	return nil
}
