// Package dbtest provides an in-memory db.Transactor for service tests.
package dbtest

import (
	"context"
	"sync"
)

// Snapshotter is implemented by in-memory repositories. Snapshot captures
// the current state and returns a function that restores it.
type Snapshotter interface {
	Snapshot() (restore func())
}

// Transactor runs fn and, when fn fails, restores every registered
// repository to its state before the call. Nested calls join the outer one.
type Transactor struct {
	mu      sync.Mutex
	repos   []Snapshotter
	depth   int
	Commits int
	Aborts  int
}

func NewTransactor(repos ...Snapshotter) *Transactor {
	return &Transactor{repos: repos}
}

func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.depth++
	outer := t.depth == 1
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.depth--
		t.mu.Unlock()
	}()

	if !outer {
		return fn(ctx)
	}

	restores := make([]func(), 0, len(t.repos))
	for _, r := range t.repos {
		restores = append(restores, r.Snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		t.Aborts++
		return err
	}
	t.Commits++
	return nil
}
