// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package xiter

import (
	"iter"
)

// Error returns an iterator that yields only err.
func Error[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

// Collect drains seq, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Map applies fn to every value of seq. An error from seq or fn ends the iteration.
func Map[T, U any](seq iter.Seq2[T, error], fn func(T) (U, error)) iter.Seq2[U, error] {
	return func(yield func(U, error) bool) {
		var zero U
		for v, err := range seq {
			if err != nil {
				yield(zero, err)
				return
			}
			u, err := fn(v)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}

// Take yields at most n values of seq. n <= 0 yields everything.
func Take[T any](seq iter.Seq2[T, error], n int) iter.Seq2[T, error] {
	if n <= 0 {
		return seq
	}
	return func(yield func(T, error) bool) {
		i := 0
		for v, err := range seq {
			if !yield(v, err) || err != nil {
				return
			}
			i++
			if i == n {
				return
			}
		}
	}
}
