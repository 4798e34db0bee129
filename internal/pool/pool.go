// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package pool provides typed object pools and a shared [*bytes.Buffer] pool
// for building resource names and listings.
package pool

import (
	"bytes"
	"sync"
)

// maxBufferCap is the largest buffer capacity returned to [Buffer].
const maxBufferCap = 64 << 10

// Pool is a typed wrapper around [sync.Pool].
type Pool[T any] struct {
	pool    sync.Pool
	recycle func(T) bool
}

// New returns a pool constructing values with fn. recycle, when non-nil,
// prepares a value for reuse and reports whether it should be kept.
func New[T any](fn func() T, recycle func(T) bool) *Pool[T] {
	return &Pool[T]{
		pool:    sync.Pool{New: func() any { return fn() }},
		recycle: recycle,
	}
}

// Get returns a pooled value, or a new one if the pool is empty.
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put returns x to the pool.
func (p *Pool[T]) Put(x T) {
	if p.recycle != nil && !p.recycle(x) {
		return
	}
	p.pool.Put(x)
}

// Buffer pools empty [*bytes.Buffer] values. Buffers grown beyond 64 KiB are dropped.
var Buffer = New(
	func() *bytes.Buffer { return new(bytes.Buffer) },
	func(b *bytes.Buffer) bool {
		if b.Cap() > maxBufferCap {
			return false
		}
		b.Reset()
		return true
	},
)
