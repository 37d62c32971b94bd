// Package lock serializes scheduler runs that share a build root.
package lock

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const defaultRetryDelay = 250 * time.Millisecond

var _ ports.WorkspaceLocker = (*Locker)(nil)

// Locker implements ports.WorkspaceLocker. Goroutines of one process queue on
// an in-memory mutex per workspace; processes queue on an advisory lock file
// inside the workspace.
type Locker struct {
	local      mutexMap[string]
	retryDelay time.Duration
}

// NewLocker creates a new Locker.
func NewLocker() *Locker {
	return &Locker{retryDelay: defaultRetryDelay}
}

// Acquire blocks until workspace is locked. It gives up only when ctx is
// canceled.
func (l *Locker) Acquire(ctx context.Context, workspace string) (func(), error) {
	key, err := filepath.Abs(workspace)
	if err != nil {
		key = filepath.Clean(workspace)
	}

	unlockLocal, err := l.local.lock(ctx, key)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrLockAcquireFailed, err.Error()), "workspace", key)
	}

	if err := os.MkdirAll(key, domain.DirPerm); err != nil {
		unlockLocal()
		return nil, zerr.With(zerr.Wrap(domain.ErrLockCreateFailed, err.Error()), "workspace", key)
	}

	fileLock := flock.New(domain.LockPath(key))
	locked, err := fileLock.TryLockContext(ctx, l.retryDelay)
	if err != nil || !locked {
		unlockLocal()
		if ctx.Err() != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrLockAcquireFailed, ctx.Err().Error()), "workspace", key)
		}
		msg := "lock file not acquired"
		if err != nil {
			msg = err.Error()
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrLockCreateFailed, msg), "workspace", key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = fileLock.Unlock()
			unlockLocal()
		})
	}, nil
}
