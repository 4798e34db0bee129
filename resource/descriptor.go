// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"context"

	"github.com/go-a2a/aiplatform-go/initializer"
	"github.com/go-a2a/aiplatform-go/resourcename"
)

// Descriptor describes a resource type: its display noun and its name pattern.
type Descriptor struct {
	// Noun names the type in logs and errors, e.g. "ModelMonitor".
	Noun string

	Pattern *resourcename.Pattern
}

// Collection returns the URL path segment of the type, e.g. "modelMonitors".
func (d Descriptor) Collection() string { return d.Pattern.Collection() }

// Op returns the error label of verb on the type, e.g. "ModelMonitor.Create".
func (d Descriptor) Op(verb string) string { return d.Noun + "." + verb }

// FullName expands input into a full name using the project and location of cfg.
// The ambient values are only resolved when input is not already a full name.
func (d Descriptor) FullName(ctx context.Context, cfg *initializer.Config, input string, parents ...string) (string, error) {
	if d.Pattern.Match(input) {
		return input, nil
	}
	ambient, err := Ambient(ctx, cfg)
	if err != nil {
		return "", err
	}
	return resourcename.FullName(input, d.Pattern, ambient, parents...)
}

// Parent returns "projects/{project}/locations/{location}" from cfg, with
// optional overrides.
func Parent(ctx context.Context, cfg *initializer.Config, project, location string) (string, error) {
	if project == "" || location == "" {
		ambient, err := Ambient(ctx, cfg)
		if err != nil {
			return "", err
		}
		if project == "" {
			project = ambient.Project
		}
		if location == "" {
			location = ambient.Location
		}
	}
	return resourcename.Location.Format(project, location), nil
}

// Ambient returns the project and location of cfg.
func Ambient(ctx context.Context, cfg *initializer.Config) (resourcename.Ambient, error) {
	project, err := cfg.Project(ctx)
	if err != nil {
		return resourcename.Ambient{}, err
	}
	location, err := cfg.Location()
	if err != nil {
		return resourcename.Ambient{}, err
	}
	return resourcename.Ambient{Project: project, Location: location}, nil
}
