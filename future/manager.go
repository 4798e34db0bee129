// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package future

import (
	"context"
	"fmt"
	"sync"
)

// Dependency is implemented by anything that may have a pending future,
// typically a resource embedding a [Manager].
type Dependency interface {
	PendingFuture() *Future
}

// Manager owns the single pending-future slot of a resource.
//
// The zero value is ready to use and schedules onto [DefaultPool].
type Manager struct {
	mu      sync.Mutex
	pending *Future
	pool    *Pool
}

// SetPool makes the manager schedule onto p.
func (m *Manager) SetPool(p *Pool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pool = p
}

// PendingFuture returns the most recently scheduled future, or nil.
func (m *Manager) PendingFuture() *Future {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Wait blocks until the most recently scheduled task finishes and returns its error.
// Since every task waits for its predecessor, this also waits for earlier tasks.
func (m *Manager) Wait(ctx context.Context) error {
	f := m.PendingFuture()
	if f == nil {
		return nil
	}
	return f.Wait(ctx)
}

// swap installs f as the pending future and returns the previous one.
func (m *Manager) swap(f *Future) (prev *Future, pool *Pool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, m.pending = m.pending, f
	pool = m.pool
	if pool == nil {
		pool = DefaultPool()
	}
	return prev, pool
}

// settle hands the slot back to prev once the synchronous task f is done,
// unless a later task has taken it. A failed synchronous task is reported to
// its caller and does not fail later tasks.
func (m *Manager) settle(f, prev *Future) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == f {
		m.pending = prev
	}
}

// Options controls how a task is scheduled.
type Options struct {
	// Sync runs the task in-line on the calling goroutine.
	Sync bool

	// Deps are resources whose pending futures must finish first.
	Deps []Dependency

	// Name labels the task in errors.
	Name string
}

// Run schedules fn as an in-place mutation of the resource owning m;
// the task becomes the pending future of m.
func Run(ctx context.Context, m *Manager, opts Options, fn func(context.Context) error) (*Future, error) {
	return schedule(ctx, m, nil, opts, fn)
}

// Construct schedules fn as the construction of the resource owning created;
// the task becomes the pending future of created.
func Construct(ctx context.Context, created *Manager, opts Options, fn func(context.Context) error) (*Future, error) {
	return schedule(ctx, created, nil, opts, fn)
}

// Bind schedules fn as a method of the resource owning receiver that mutates
// the resource owning arg. The task runs after the pending futures of both and
// becomes the pending future of arg; the slot of receiver is left untouched.
func Bind(ctx context.Context, receiver, arg *Manager, opts Options, fn func(context.Context) error) (*Future, error) {
	return schedule(ctx, arg, []Dependency{receiver}, opts, fn)
}

func schedule(ctx context.Context, owner *Manager, extra []Dependency, opts Options, fn func(context.Context) error) (*Future, error) {
	deps := make([]Dependency, 0, len(extra)+len(opts.Deps))
	deps = append(deps, extra...)
	deps = append(deps, opts.Deps...)

	// Dependencies are captured before the swap so that a resource depending
	// on itself waits for its previous task rather than for this one.
	waits := pendingOf(deps)
	f := newFuture(opts.Name)
	prev, pool := owner.swap(f)
	if prev != nil {
		waits = append([]*Future{prev}, waits...)
	}

	if opts.Sync {
		// f holds the slot while the task runs in-line, so tasks scheduled
		// concurrently run after it.
		err := awaitAll(ctx, opts.Name, waits)
		if err == nil {
			f.start()
			err = run(ctx, fn)
		}
		f.complete(err)
		owner.settle(f, prev)
		return f, err
	}

	taskCtx := context.WithoutCancel(ctx)
	go func() {
		if err := awaitAll(taskCtx, opts.Name, waits); err != nil {
			f.complete(err)
			return
		}
		var err error
		if perr := pool.do(taskCtx, func() {
			f.start()
			err = run(taskCtx, fn)
		}); perr != nil {
			err = perr
		}
		f.complete(err)
	}()
	return f, nil
}

func pendingOf(deps []Dependency) []*Future {
	var out []*Future
	for _, d := range deps {
		if d == nil {
			continue
		}
		if f := d.PendingFuture(); f != nil {
			out = append(out, f)
		}
	}
	return out
}

// awaitAll waits for every future; the first failure becomes a dependency error.
func awaitAll(ctx context.Context, name string, futures []*Future) error {
	for _, f := range futures {
		if err := f.Wait(ctx); err != nil {
			return &DependencyError{Task: name, Dependency: f.Name(), Err: err}
		}
	}
	return nil
}

// DependencyError reports a task that did not run because a task it depended on failed.
type DependencyError struct {
	Task       string
	Dependency string
	Err        error
}

// Error implements [error].
func (e *DependencyError) Error() string {
	task, dep := e.Task, e.Dependency
	if task == "" {
		task = "task"
	}
	if dep == "" {
		dep = "a dependency"
	}
	return fmt.Sprintf("%s not run: %s failed: %v", task, dep, e.Err)
}

// Unwrap returns the error of the failed dependency.
func (e *DependencyError) Unwrap() error { return e.Err }
