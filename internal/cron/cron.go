// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package cron handles the cron strings of schedules.
//
// A cron string may start with "CRON_TZ=<zone>" or "TZ=<zone>" naming the IANA
// time zone its fields are evaluated in. The server owns validation; this
// package only splits the prefix and previews upcoming ticks.
package cron

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
)

// ErrEmpty is returned for an empty cron string.
var ErrEmpty = errors.New("cron: empty expression")

var prefixes = []string{"CRON_TZ=", "TZ="}

// Split separates the time-zone prefix from the cron fields.
// zone is "" when there is no prefix.
func Split(expr string) (zone, fields string) {
	expr = strings.TrimSpace(expr)
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(expr, p)
		if !ok {
			continue
		}
		zone, fields, _ = strings.Cut(rest, " ")
		return zone, strings.TrimSpace(fields)
	}
	return "", expr
}

// Validate rejects only empty expressions.
func Validate(expr string) error {
	if _, fields := Split(expr); fields == "" {
		return ErrEmpty
	}
	return nil
}

// Next returns the next n ticks of expr after from. Ticks are in the zone of
// the prefix, or UTC without one.
func Next(expr string, from time.Time, n int) ([]time.Time, error) {
	zone, fields := Split(expr)
	if fields == "" {
		return nil, ErrEmpty
	}
	loc := time.UTC
	if zone != "" {
		var err error
		if loc, err = time.LoadLocation(zone); err != nil {
			return nil, fmt.Errorf("cron: time zone %q: %w", zone, err)
		}
	}
	e, err := cronexpr.Parse(fields)
	if err != nil {
		return nil, fmt.Errorf("cron: %w", err)
	}
	return e.NextN(from.In(loc), uint(max(n, 0))), nil
}
