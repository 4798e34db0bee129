// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package resourcename parses, formats and resolves hierarchical resource names of
// the form "projects/{project}/locations/{location}/{collection}/{id}".
package resourcename

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-a2a/aiplatform-go/internal/pool"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// bareID is the grammar of a leaf id that may be passed instead of a full name.
var bareID = regexp.MustCompile(`^(?:[a-z][a-zA-Z0-9._-]{0,127}|[0-9]{1,128})$`)

type segment struct {
	literal  string
	variable string
}

// Pattern is a compiled resource-name template such as
// "projects/{project}/locations/{location}/tensorboards/{tensorboard}".
//
// A Pattern is immutable and safe for concurrent use.
type Pattern struct {
	template string
	segments []segment
	vars     []string
}

// NewPattern compiles template.
func NewPattern(template string) (*Pattern, error) {
	if template == "" {
		return nil, fmt.Errorf("resourcename: empty template")
	}

	p := &Pattern{template: template}
	for part := range strings.SplitSeq(template, "/") {
		switch {
		case part == "":
			return nil, fmt.Errorf("resourcename: empty segment in %q", template)
		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
			name := part[1 : len(part)-1]
			if name == "" {
				return nil, fmt.Errorf("resourcename: empty variable in %q", template)
			}
			p.segments = append(p.segments, segment{variable: name})
			p.vars = append(p.vars, name)
		case strings.ContainsAny(part, "{}"):
			return nil, fmt.Errorf("resourcename: malformed segment %q in %q", part, template)
		default:
			p.segments = append(p.segments, segment{literal: part})
		}
	}
	if len(p.vars) == 0 {
		return nil, fmt.Errorf("resourcename: template %q has no variables", template)
	}
	return p, nil
}

// MustPattern is like [NewPattern] but panics on error.
func MustPattern(template string) *Pattern {
	p, err := NewPattern(template)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the template.
func (p *Pattern) String() string { return p.template }

// Variables returns the variable names in template order.
func (p *Pattern) Variables() []string {
	return append([]string(nil), p.vars...)
}

// Collection returns the literal segment preceding the leaf variable, e.g. "tensorboards".
func (p *Pattern) Collection() string {
	for i := len(p.segments) - 1; i >= 0; i-- {
		if p.segments[i].literal != "" {
			return p.segments[i].literal
		}
	}
	return ""
}

// Match reports whether name is a full match of the pattern.
func (p *Pattern) Match(name string) bool {
	return p.Parse(name) != nil
}

// Parse returns the variable values of name, or nil when name does not match.
func (p *Pattern) Parse(name string) map[string]string {
	parts := strings.Split(name, "/")
	if len(parts) != len(p.segments) {
		return nil
	}

	out := make(map[string]string, len(p.vars))
	for i, seg := range p.segments {
		switch {
		case seg.literal != "":
			if parts[i] != seg.literal {
				return nil
			}
		case parts[i] == "":
			return nil
		default:
			out[seg.variable] = parts[i]
		}
	}
	return out
}

// Format fills the variables in template order.
func (p *Pattern) Format(values ...string) string {
	sb := pool.Buffer.Get()
	defer pool.Buffer.Put(sb)
	vi := 0
	for i, seg := range p.segments {
		if i > 0 {
			sb.WriteByte('/')
		}
		if seg.literal != "" {
			sb.WriteString(seg.literal)
			continue
		}
		if vi < len(values) {
			sb.WriteString(values[vi])
		}
		vi++
	}
	return sb.String()
}

// Parse matches name against pattern and returns its fields.
// The result is an empty map when name does not match.
func Parse(name string, pattern *Pattern) map[string]string {
	if m := pattern.Parse(name); m != nil {
		return m
	}
	return map[string]string{}
}

// Ambient carries the project and location used to expand bare ids.
type Ambient struct {
	Project  string
	Location string
}

// IsBareID reports whether id may be used in place of a full resource name.
func IsBareID(id string) bool {
	return bareID.MatchString(id)
}

// FullName resolves input to a full resource name of pattern.
//
// A full match is returned unchanged. A bare id is composed with the ambient
// project and location; parents supply the ids of intermediate collections in
// template order. Anything else is an invalid argument.
func FullName(input string, pattern *Pattern, ambient Ambient, parents ...string) (string, error) {
	const op = "resourcename.FullName"

	if pattern.Match(input) {
		return input, nil
	}
	if !IsBareID(input) {
		return "", vertexerr.InvalidArgument(op, "%q is neither a %s resource name nor a valid id", input, pattern.Collection())
	}

	values := make([]string, 0, len(pattern.vars))
	rest := pattern.vars
	if len(rest) >= 3 && rest[0] == "project" && rest[1] == "location" {
		if ambient.Project == "" || ambient.Location == "" {
			return "", vertexerr.New(vertexerr.KindConfigIncomplete, op,
				fmt.Sprintf("project and location are required to expand id %q", input))
		}
		values = append(values, ambient.Project, ambient.Location)
		rest = rest[2:]
	}
	if want := len(rest) - 1; len(parents) != want {
		return "", vertexerr.InvalidArgument(op, "%s id %q needs %d parent id(s), got %d", pattern.Collection(), input, want, len(parents))
	}
	values = append(values, parents...)
	values = append(values, input)

	return pattern.Format(values...), nil
}

var locationPrefix = regexp.MustCompile(`^projects/([^/]+)/locations/([^/]+)(?:/|$)`)

// ProjectAndLocation extracts the project and location of a name that begins with
// "projects/{project}/locations/{location}".
func ProjectAndLocation(name string) (project, location string, ok bool) {
	m := locationPrefix.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
