// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package xmaps complements the standard maps package.
//
// Map iteration order is random; request fields and log attributes built from
// maps go through [Sorted] so that they are stable across calls:
//
//	for name, value := range xmaps.Sorted(env) {
//		spec.Env = append(spec.Env, &aiplatformpb.EnvVar{Name: name, Value: value})
//	}
package xmaps
