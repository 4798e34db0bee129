// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var protoJSON = protojson.MarshalOptions{UseProtoNames: true}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	if err := json.MarshalWrite(w, v, jsontext.WithIndent("  ")); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// protoValue encodes m with its proto field names.
func protoValue(m proto.Message) (jsontext.Value, error) {
	b, err := protoJSON.Marshal(m)
	if err != nil {
		return nil, err
	}
	return jsontext.Value(b), nil
}

func protoValues[M proto.Message](ms []M) ([]jsontext.Value, error) {
	out := make([]jsontext.Value, 0, len(ms))
	for _, m := range ms {
		v, err := protoValue(m)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
