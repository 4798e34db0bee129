// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package resource holds the pieces shared by every server-side resource type:
// the resource name and snapshot, paging over list calls, and partial-update
// field masks.
package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/go-a2a/aiplatform-go/future"
	"github.com/go-a2a/aiplatform-go/resourcename"
)

// Base is embedded by resource types. It holds the resource name, the last
// fetched snapshot T, the API version the resource was fetched under, and
// the pending future of the resource.
//
// Reading the snapshot waits for the pending future; the name is available
// without waiting once known.
type Base[T proto.Message] struct {
	future.Manager

	mu       sync.RWMutex
	name     string
	snapshot T
	version  string
}

// Init sets the name, snapshot and version. It is meant for constructors.
func (b *Base[T]) Init(name string, snapshot T, version string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
	b.snapshot = snapshot
	b.version = version
}

// ResourceName returns the full resource name, or "" while the resource is still being created.
func (b *Base[T]) ResourceName() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

// Version returns the API version the resource was fetched under.
func (b *Base[T]) Version() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Project returns the project segment of the resource name.
func (b *Base[T]) Project() string {
	p, _, _ := resourcename.ProjectAndLocation(b.ResourceName())
	return p
}

// Location returns the location segment of the resource name.
func (b *Base[T]) Location() string {
	_, l, _ := resourcename.ProjectAndLocation(b.ResourceName())
	return l
}

// Snapshot waits for the pending future and returns the snapshot.
func (b *Base[T]) Snapshot(ctx context.Context) (T, error) {
	if err := b.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return b.Peek(), nil
}

// Peek returns the snapshot without waiting.
func (b *Base[T]) Peek() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot
}

// SetSnapshot replaces the snapshot. A non-empty name field of s also becomes the resource name.
func (b *Base[T]) SetSnapshot(s T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshot = s
	if name := nameOf(s); name != "" {
		b.name = name
	}
}

// Refresh fetches the snapshot again with get.
func (b *Base[T]) Refresh(ctx context.Context, get func(ctx context.Context, name string) (T, error)) error {
	if err := b.Wait(ctx); err != nil {
		return err
	}
	s, err := get(ctx, b.ResourceName())
	if err != nil {
		return err
	}
	b.SetSnapshot(s)
	return nil
}

// ToDict returns the snapshot as a JSON object with proto field names.
func (b *Base[T]) ToDict(ctx context.Context) (map[string]any, error) {
	s, err := b.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ToDict(s)
}

// ToDict converts m into a JSON object with proto field names.
func ToDict(m proto.Message) (map[string]any, error) {
	out := map[string]any{}
	if m == nil || !m.ProtoReflect().IsValid() {
		return out, nil
	}
	data, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.ProtoReflect().Descriptor().FullName(), err)
	}
	if err := sonic.ConfigFastest.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.ProtoReflect().Descriptor().FullName(), err)
	}
	return out, nil
}

func nameOf(m proto.Message) string {
	if m == nil {
		return ""
	}
	r := m.ProtoReflect()
	if !r.IsValid() {
		return ""
	}
	fd := r.Descriptor().Fields().ByName("name")
	if fd == nil || fd.Kind() != protoreflect.StringKind || fd.IsList() {
		return ""
	}
	return r.Get(fd).String()
}
