// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package lro

import "time"

// Backoff is an exponential polling schedule.
type Backoff struct {
	// Initial is the first delay.
	Initial time.Duration

	// Max caps the delay.
	Max time.Duration

	// Multiplier scales the delay after every poll.
	Multiplier float64
}

// DefaultBackoff starts at 5s, doubles, and caps at 300s.
var DefaultBackoff = Backoff{
	Initial:    5 * time.Second,
	Max:        300 * time.Second,
	Multiplier: 2,
}

// Next returns the delay following d.
func (b Backoff) Next(d time.Duration) time.Duration {
	m := b.Multiplier
	if m < 1 {
		m = 1
	}
	next := time.Duration(float64(d) * m)
	if b.Max > 0 && next > b.Max {
		next = b.Max
	}
	return next
}

// Schedule returns the first n delays of b.
func (b Backoff) Schedule(n int) []time.Duration {
	out := make([]time.Duration, 0, n)
	d := b.Initial
	for range n {
		out = append(out, d)
		d = b.Next(d)
	}
	return out
}

func (b Backoff) normalize() Backoff {
	if b.Initial <= 0 {
		b.Initial = DefaultBackoff.Initial
	}
	if b.Max > 0 && b.Initial > b.Max {
		b.Initial = b.Max
	}
	return b
}
