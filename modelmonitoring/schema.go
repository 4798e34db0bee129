// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelmonitoring

import (
	"slices"
	"strings"

	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"

	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// Data types of a monitored field.
const (
	DataTypeInteger     = "integer"
	DataTypeFloat       = "float"
	DataTypeString      = "string"
	DataTypeBoolean     = "boolean"
	DataTypeCategorical = "categorical"
)

// FieldSchema describes one monitored column.
type FieldSchema struct {
	Name     string
	DataType string
	Repeated bool
}

// Schema lists the feature, prediction and ground-truth columns of a monitored model.
type Schema struct {
	FeatureFields     []FieldSchema
	PredictionFields  []FieldSchema
	GroundTruthFields []FieldSchema
}

// Validate checks that every field has a known data type and a name unique
// across the feature, prediction and ground-truth fields.
func (s *Schema) Validate() error {
	const op = "ModelMonitor.Schema"
	groups := []struct {
		name   string
		fields []FieldSchema
	}{
		{"feature", s.FeatureFields},
		{"prediction", s.PredictionFields},
		{"ground truth", s.GroundTruthFields},
	}
	seen := make(map[string]string)
	for _, g := range groups {
		for _, f := range g.fields {
			if f.Name == "" {
				return vertexerr.InvalidArgument(op, "%s field without a name", g.name)
			}
			if prev, ok := seen[f.Name]; ok {
				if prev == g.name {
					return vertexerr.InvalidArgument(op, "duplicate %s field %q", g.name, f.Name)
				}
				return vertexerr.InvalidArgument(op, "%s field %q clashes with a %s field", g.name, f.Name, prev)
			}
			seen[f.Name] = g.name
			switch f.DataType {
			case DataTypeInteger, DataTypeFloat, DataTypeString, DataTypeBoolean, DataTypeCategorical:
			default:
				return vertexerr.InvalidArgument(op, "%s field %q has unknown data type %q", g.name, f.Name, f.DataType)
			}
		}
	}
	return nil
}

// Proto converts s into its wire form.
func (s *Schema) Proto() *aiplatformpb.ModelMonitoringSchema {
	if s == nil {
		return nil
	}
	return &aiplatformpb.ModelMonitoringSchema{
		FeatureFields:     fieldsProto(s.FeatureFields),
		PredictionFields:  fieldsProto(s.PredictionFields),
		GroundTruthFields: fieldsProto(s.GroundTruthFields),
	}
}

func fieldsProto(fields []FieldSchema) []*aiplatformpb.ModelMonitoringSchema_FieldSchema {
	if len(fields) == 0 {
		return nil
	}
	out := make([]*aiplatformpb.ModelMonitoringSchema_FieldSchema, len(fields))
	for i, f := range fields {
		out[i] = &aiplatformpb.ModelMonitoringSchema_FieldSchema{
			Name:     f.Name,
			DataType: f.DataType,
			Repeated: f.Repeated,
		}
	}
	return out
}

// SchemaFromProto converts a wire schema. A nil pb yields nil.
func SchemaFromProto(pb *aiplatformpb.ModelMonitoringSchema) *Schema {
	if pb == nil {
		return nil
	}
	conv := func(in []*aiplatformpb.ModelMonitoringSchema_FieldSchema) []FieldSchema {
		var out []FieldSchema
		for _, f := range in {
			out = append(out, FieldSchema{Name: f.GetName(), DataType: f.GetDataType(), Repeated: f.GetRepeated()})
		}
		return out
	}
	return &Schema{
		FeatureFields:     conv(pb.GetFeatureFields()),
		PredictionFields:  conv(pb.GetPredictionFields()),
		GroundTruthFields: conv(pb.GetGroundTruthFields()),
	}
}

// Column is a column of a tabular dataset and its semantic type, e.g. "INT64" or "float".
type Column struct {
	Name string
	Type string
}

// InferOptions assigns dataset columns to schema groups.
type InferOptions struct {
	// FeatureFields selects the features. When empty, every column not named
	// as a prediction or ground-truth field is a feature.
	FeatureFields     []string
	PredictionFields  []string
	GroundTruthFields []string

	// Repeated marks fields as repeated; fields default to not repeated.
	Repeated map[string]bool
}

// InferSchema builds a schema from the columns of a tabular dataset.
// Fields keep the column order of the dataset.
func InferSchema(columns []Column, opts InferOptions) (*Schema, error) {
	const op = "ModelMonitor.InferSchema"

	byName := make(map[string]Column, len(columns))
	for _, c := range columns {
		byName[c.Name] = c
	}
	for _, names := range [][]string{opts.FeatureFields, opts.PredictionFields, opts.GroundTruthFields} {
		for _, n := range names {
			if _, ok := byName[n]; !ok {
				return nil, vertexerr.InvalidArgument(op, "column %q is not in the dataset", n)
			}
		}
	}

	s := &Schema{}
	for _, c := range columns {
		var group *[]FieldSchema
		switch {
		case slices.Contains(opts.PredictionFields, c.Name):
			group = &s.PredictionFields
		case slices.Contains(opts.GroundTruthFields, c.Name):
			group = &s.GroundTruthFields
		case len(opts.FeatureFields) == 0 || slices.Contains(opts.FeatureFields, c.Name):
			group = &s.FeatureFields
		default:
			continue
		}
		dt, err := dataType(c.Type)
		if err != nil {
			return nil, &vertexerr.Error{
				Kind:   vertexerr.KindUnsupportedDataType,
				Op:     op,
				Detail: "column " + c.Name + ": " + err.Error(),
			}
		}
		*group = append(*group, FieldSchema{Name: c.Name, DataType: dt, Repeated: opts.Repeated[c.Name]})
	}
	return s, nil
}

type unsupportedType string

func (t unsupportedType) Error() string { return "unsupported type " + string(t) }

// dataType maps a semantic column type onto a schema data type.
func dataType(t string) (string, error) {
	switch k := strings.ToLower(strings.TrimSpace(t)); k {
	case "int", "int8", "int16", "int32", "int64", "integer",
		"uint8", "uint16", "uint32", "uint64", "smallint", "bigint", "tinyint":
		return DataTypeInteger, nil
	case "float", "float16", "float32", "float64", "double", "numeric", "bignumeric", "decimal", "real":
		return DataTypeFloat, nil
	case "string", "str", "bytes", "object", "date", "time", "datetime", "timestamp":
		return DataTypeString, nil
	case "bool", "boolean":
		return DataTypeBoolean, nil
	case "category", "categorical":
		return DataTypeCategorical, nil
	default:
		return "", unsupportedType(t)
	}
}
