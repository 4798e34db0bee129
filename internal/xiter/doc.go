// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package xiter contains helpers for [iter.Seq2] sequences that pair values with errors.
package xiter
