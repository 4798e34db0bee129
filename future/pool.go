// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package future

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultPoolSize returns min(32, max(4, 5×NumCPU)).
func DefaultPoolSize() int {
	return min(32, max(4, 5*runtime.NumCPU()))
}

// Pool bounds the number of tasks executing at once.
type Pool struct {
	size int
	sem  *semaphore.Weighted
}

// NewPool returns a pool running at most size tasks at once.
// A size below one is treated as one.
func NewPool(size int) *Pool {
	size = max(size, 1)
	return &Pool{
		size: size,
		sem:  semaphore.NewWeighted(int64(size)),
	}
}

var defaultPool = sync.OnceValue(func() *Pool {
	return NewPool(DefaultPoolSize())
})

// DefaultPool returns the process-wide pool.
func DefaultPool() *Pool { return defaultPool() }

// Size returns the number of slots.
func (p *Pool) Size() int { return p.size }

// do runs fn while holding one slot.
func (p *Pool) do(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	fn()
	return nil
}
