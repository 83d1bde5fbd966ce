package watcher

import "context"

// Watcher defines the interface for intake directory monitoring
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// SessionHandler is a function that processes a dropped session directory
type SessionHandler func(ctx context.Context, sessionDir string) error
