// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package future lets resource methods run in-line or on a shared worker pool.
//
// Every resource embeds a [Manager] that owns at most one pending [Future].
// Scheduling a method swaps the pending slot before the task starts, and the
// task first waits for the previous slot value and for the pending futures of
// every resource it depends on. Calls against one resource therefore observe
// program order, and waiting on the latest future observes every earlier call.
//
//	fut, err := future.Run(ctx, &r.Manager, future.Options{Deps: []future.Dependency{other}}, func(ctx context.Context) error {
//		return r.update(ctx, other)
//	})
//	...
//	err = r.Wait(ctx)
package future

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle state of a [Future].
type State int

const (
	// Pending indicates the task is waiting for its dependencies or a pool slot.
	Pending State = iota
	// Running indicates the task is executing.
	Running
	// Done indicates the task finished, successfully or not.
	Done
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Future is the eventual outcome of a scheduled task.
type Future struct {
	mu sync.Mutex

	state atomic.Int64

	name string
	err  error
	done chan struct{}

	callbacks []func(*Future)

	created  time.Time
	started  time.Time
	finished time.Time
}

func newFuture(name string) *Future {
	f := &Future{
		name:    name,
		done:    make(chan struct{}),
		created: time.Now(),
	}
	f.state.Store(int64(Pending))
	return f
}

// Completed returns a future that is already done with err.
func Completed(err error) *Future {
	f := newFuture("")
	f.complete(err)
	return f
}

// Name returns the name the task was scheduled with.
func (f *Future) Name() string { return f.name }

// State returns the current state.
func (f *Future) State() State { return State(f.state.Load()) }

// Done returns a channel that is closed when the task finishes.
func (f *Future) Done() <-chan struct{} { return f.done }

// IsDone reports whether the task finished.
func (f *Future) IsDone() bool { return f.State() == Done }

// Err returns the error of a finished task, or nil while it is still running.
func (f *Future) Err() error {
	if !f.IsDone() {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Wait blocks until the task finishes and returns its error.
//
// Cancelling ctx abandons the wait, not the task.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Elapsed returns the time between the start and the end of the task, or zero if it never ran.
func (f *Future) Elapsed() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started.IsZero() || f.finished.IsZero() {
		return 0
	}
	return f.finished.Sub(f.started)
}

// AddCallback registers fn to run once the task finishes.
// If it already has, fn runs immediately on the calling goroutine.
func (f *Future) AddCallback(fn func(*Future)) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	if !f.IsDone() {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	fn(f)
}

func (f *Future) start() {
	f.mu.Lock()
	f.started = time.Now()
	f.mu.Unlock()
	f.state.Store(int64(Running))
}

func (f *Future) complete(err error) {
	f.mu.Lock()
	f.err = err
	f.finished = time.Now()
	f.state.Store(int64(Done))
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	close(f.done)
	for _, cb := range callbacks {
		cb(f)
	}
}

// run executes fn, converting a panic into an error.
func run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(ctx)
}
