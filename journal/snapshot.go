package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rustyeddy/tradeportal/ledger"
)

// SaveSnapshot writes the persisted part of s under SnapshotKey.
func SaveSnapshot(ctx context.Context, st Store, s ledger.State) error {
	b, err := json.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return st.Set(ctx, SnapshotKey, b)
}

// LoadSnapshot reads the snapshot. found is false when nothing was saved.
func LoadSnapshot(ctx context.Context, st Store) (snap ledger.Snapshot, found bool, err error) {
	b, found, err := st.Get(ctx, SnapshotKey)
	if err != nil || !found {
		return snap, found, err
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return snap, true, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

func ClearSnapshot(ctx context.Context, st Store) error {
	return st.Delete(ctx, SnapshotKey)
}

// SaveJSON and LoadJSON store any value as JSON under key.
func SaveJSON(ctx context.Context, st Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return st.Set(ctx, key, b)
}

func LoadJSON(ctx context.Context, st Store, key string, v any) (bool, error) {
	b, found, err := st.Get(ctx, key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
