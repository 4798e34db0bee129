// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package clientfactory

import (
	"context"
	"slices"

	"github.com/googleapis/gax-go/v2/callctx"
)

type metadataKey struct{}

// WithMetadata returns a context carrying caller metadata pairs for the next RPCs.
// Pairs accumulate across calls; an odd trailing key is dropped.
func WithMetadata(ctx context.Context, kv ...string) context.Context {
	if len(kv)%2 != 0 {
		kv = kv[:len(kv)-1]
	}
	if len(kv) == 0 {
		return ctx
	}
	prev := CallerMetadata(ctx)
	return context.WithValue(ctx, metadataKey{}, append(slices.Clip(prev), kv...))
}

// CallerMetadata returns the pairs attached with [WithMetadata].
func CallerMetadata(ctx context.Context) []string {
	kv, _ := ctx.Value(metadataKey{}).([]string)
	return kv
}

// Metadata returns the configured default metadata followed by the caller metadata of ctx.
func (f *Factory) Metadata(ctx context.Context) []string {
	return append(f.cfg.RequestMetadata(), CallerMetadata(ctx)...)
}

// Decorate returns ctx with the merged metadata of [Factory.Metadata] set as
// call headers, which every generated client sends with its request. The
// clients themselves are never modified.
func (f *Factory) Decorate(ctx context.Context) context.Context {
	md := f.Metadata(ctx)
	if len(md) == 0 {
		return ctx
	}
	return callctx.SetHeaders(ctx, md...)
}
