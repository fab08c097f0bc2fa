package persist

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

var shared = struct {
	mu    sync.Mutex
	conns map[string]*DB
	group singleflight.Group
}{conns: make(map[string]*DB)}

// Shared returns the process-wide connection for path, opening it on first
// use. Concurrent first callers wait on the same open and receive the same
// *DB. A failed open is not remembered, so a later call retries.
//
// Shared connections live for the life of the process.
func Shared(ctx context.Context, path string) (*DB, error) {
	shared.mu.Lock()
	if db, ok := shared.conns[path]; ok {
		shared.mu.Unlock()
		return db, nil
	}
	shared.mu.Unlock()

	ch := shared.group.DoChan(path, func() (any, error) {
		shared.mu.Lock()
		if db, ok := shared.conns[path]; ok {
			shared.mu.Unlock()
			return db, nil
		}
		shared.mu.Unlock()

		db, err := Open(path)
		if err != nil {
			return nil, err
		}
		shared.mu.Lock()
		shared.conns[path] = db
		shared.mu.Unlock()
		return db, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("open shared database: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("open shared database: %w", res.Err)
		}
		return res.Val.(*DB), nil
	}
}
