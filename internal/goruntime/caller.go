// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package goruntime inspects the call stack to name the library function a call came through.
package goruntime

import (
	"runtime"
	"strings"
)

const maxDepth = 64

// TopCaller returns the outermost function of the innermost run of frames
// whose name starts with prefix, skipping skip frames above the caller of
// TopCaller.
//
// Given the stack user.main -> lib.(*Service).Create -> lib/internal.do -> TopCaller,
// it returns "lib.(*Service).Create". It reports false when no such frame exists.
func TopCaller(prefix string, skip int) (string, bool) {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return "", false
	}

	var top string
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		switch {
		case strings.HasPrefix(frame.Function, prefix):
			top = frame.Function
		case top != "":
			return top, true
		}
		if !more {
			break
		}
	}
	return top, top != ""
}
