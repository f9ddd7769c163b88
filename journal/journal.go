// Package journal is the local, device-side persistence for the portal: a
// small key/value store holding the state snapshot and the pending sync
// queue, plus org-mode rendering of the trade journal.
package journal

import (
	"context"
	"errors"
	"time"
)

// SnapshotKey is the single key the full state snapshot is stored under.
const SnapshotKey = "tradingPortalData"

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("journal: store closed")

// Store is a byte-oriented key/value store.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Timestamped is implemented by stores that record when each key was last
// written.
type Timestamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
}
