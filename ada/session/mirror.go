package session

import (
	"context"
	"time"

	"github.com/odit-bit/ada/ada/dialogue"
)

// Mirror keeps dialogue snapshots outside the process so a session can be
// recreated after a restart.
type Mirror interface {
	Load(ctx context.Context, key string) (dialogue.Snapshot, bool, error)
	Store(ctx context.Context, key string, snap dialogue.Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
