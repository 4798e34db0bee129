// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging carries a [*slog.Logger] in a [context.Context].
//
// Every service of the SDK logs through the logger found in the context of the
// call, unless one was passed explicitly with a WithLogger option:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	ctx := logging.NewContext(ctx, logger)
//
//	monitor, err := svc.Create(ctx, req)
//
// # Default Behavior
//
// When no logger is stored in the context, [FromContext] returns a JSON logger
// that writes to stderr. Its level is read once from the AIPLATFORM_LOG_LEVEL
// environment variable (debug, info, warn or error) and defaults to info.
//
// # Level conventions
//
// Lifecycle events such as "Creating model monitor" and long-running operation
// status lines are logged at info. Partial success and transport fallbacks are
// logged at warn. Request details are logged at debug.
package logging
