// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelgarden

import (
	"context"
	"strings"

	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"

	"github.com/go-a2a/aiplatform-go/resource"
	"github.com/go-a2a/aiplatform-go/resourcename"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// hfPrefix marks the publishers that mirror Hugging Face organizations.
const hfPrefix = "hf-"

var publisherModel = resourcename.PublisherModel

// OpenModel is a model of Model Garden that can be deployed to an endpoint of
// the configured project.
type OpenModel struct {
	svc *Service

	modelName  string
	thirdParty bool
	canonical  string

	project  string
	location string
}

// OpenModel resolves name against the catalog conventions. name is one of
//
//	publishers/{publisher}/models/{model}[@{version}]
//	{publisher}/{model}@{version}
//	{org}/{model}
//
// where the last form names a Hugging Face model.
func (s *Service) OpenModel(ctx context.Context, name string) (*OpenModel, error) {
	canonical, thirdParty, err := Reconcile(name)
	if err != nil {
		return nil, err
	}
	amb, err := resource.Ambient(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	m := &OpenModel{
		svc:        s,
		modelName:  name,
		thirdParty: thirdParty,
		canonical:  canonical,
		project:    amb.Project,
		location:   amb.Location,
	}
	if thirdParty {
		m.modelName = hfModelID(canonical)
	}
	return m, nil
}

// Reconcile returns the publisher model resource name of name and whether it
// names a third-party model. Full resource names are kept byte for byte;
// simplified names have their publisher (or org) and model lower-cased.
func Reconcile(name string) (canonical string, thirdParty bool, err error) {
	const op = "OpenModel.Reconcile"

	base, version, hasVersion := strings.Cut(name, "@")
	if hasVersion && (version == "" || strings.Contains(version, "@")) {
		return "", false, vertexerr.InvalidArgument(op, "malformed version in %q", name)
	}

	if v := publisherModel.Parse(base); v != nil {
		return name, strings.HasPrefix(v["publisher"], hfPrefix), nil
	}

	publisher, model, ok := strings.Cut(base, "/")
	if !ok || publisher == "" || model == "" || strings.Contains(model, "/") {
		return "", false, vertexerr.InvalidArgument(op, "%q is not a model name", name)
	}
	publisher, model = strings.ToLower(publisher), strings.ToLower(model)
	if hasVersion {
		return publisherModel.Format(publisher, model) + "@" + version, false, nil
	}
	return publisherModel.Format(hfPrefix+publisher, model), true, nil
}

// hfModelID turns publishers/hf-{org}/models/{model} into {org}/{model}.
func hfModelID(canonical string) string {
	v := publisherModel.Parse(strings.SplitN(canonical, "@", 2)[0])
	return strings.TrimPrefix(v["publisher"], hfPrefix) + "/" + v["model"]
}

// ModelName returns the name the model was opened with; third-party names
// are lower-cased.
func (m *OpenModel) ModelName() string { return m.modelName }

// IsThirdParty reports whether the model is hosted on Hugging Face.
func (m *OpenModel) IsThirdParty() bool { return m.thirdParty }

// CanonicalName returns the publisher model resource name, including the
// version when one was given.
func (m *OpenModel) CanonicalName() string { return m.canonical }

// Project returns the project the model deploys into.
func (m *OpenModel) Project() string { return m.project }

// Location returns the location the model deploys into.
func (m *OpenModel) Location() string { return m.location }

// unversioned drops the version suffix of the canonical name.
func (m *OpenModel) unversioned() string {
	base, _, _ := strings.Cut(m.canonical, "@")
	return base
}

// Get fetches the catalog entry of the model.
func (m *OpenModel) Get(ctx context.Context) (*aiplatformpb.PublisherModel, error) {
	const op = "PublisherModel.Get"
	pm, err := m.svc.api.GetPublisherModel(ctx, &aiplatformpb.GetPublisherModelRequest{
		Name:               m.canonical,
		IsHuggingFaceModel: m.thirdParty,
	})
	if err != nil {
		return nil, vertexerr.FromRPC(op, m.canonical, err)
	}
	return pm, nil
}
