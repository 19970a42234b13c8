// Package store persists named view snapshots so a session's tree and
// expansion state can be restored later. Two backends exist: a file
// store for local use and a MongoDB store for shared deployments.
package store

import (
	"context"
	"errors"

	"github.com/canopyviz/canopy/pkg/wire"
)

// ErrNotFound is returned when no snapshot exists under the requested
// name.
var ErrNotFound = errors.New("snapshot not found")

// Store persists snapshots keyed by name. Saving under an existing
// name replaces the previous snapshot.
type Store interface {
	Save(ctx context.Context, snap wire.Snapshot) error
	Load(ctx context.Context, name string) (wire.Snapshot, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Close(ctx context.Context) error
}
