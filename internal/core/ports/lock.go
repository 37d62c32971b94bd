package ports

import "context"

// WorkspaceLocker serializes scheduler runs over a build root.
//
//go:generate mockgen -source=lock.go -destination=mocks/mock_lock.go -package=mocks
type WorkspaceLocker interface {
	// Acquire blocks until the lock for workspace is held and returns the
	// function releasing it.
	Acquire(ctx context.Context, workspace string) (release func(), err error)
}
