// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"reflect"
	"slices"

	"google.golang.org/protobuf/types/known/fieldmaskpb"
)

// Field pairs a field-mask path with the value the caller supplied for it.
type Field struct {
	Path  string
	Value any
}

// Set returns a [Field]. A nil v, including a typed nil pointer, slice or map, means "not supplied".
func Set(path string, v any) Field {
	return Field{Path: path, Value: v}
}

// BuildMask returns a mask naming exactly the supplied fields, in sorted order.
func BuildMask(fields ...Field) *fieldmaskpb.FieldMask {
	paths := make([]string, 0, len(fields))
	for _, f := range fields {
		if isNil(f.Value) {
			continue
		}
		paths = append(paths, f.Path)
	}
	slices.Sort(paths)
	return &fieldmaskpb.FieldMask{Paths: slices.Compact(paths)}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
