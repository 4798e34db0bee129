// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelgarden

import (
	"context"
	"log/slog"

	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"

	"github.com/go-a2a/aiplatform-go/resourcename"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// CheckEULA reports whether the project has accepted the license of the model.
func (m *OpenModel) CheckEULA(ctx context.Context) (bool, error) {
	const op = "PublisherModel.CheckEULA"
	acc, err := m.svc.api.CheckPublisherModelEulaAcceptance(ctx, &aiplatformpb.CheckPublisherModelEulaAcceptanceRequest{
		Parent:         resourcename.Project.Format(m.project),
		PublisherModel: m.unversioned(),
	})
	if err != nil {
		return false, vertexerr.FromRPC(op, m.canonical, err)
	}
	return acc.GetPublisherModelEulaAcked(), nil
}

// AcceptEULA accepts the license of the model on behalf of the project.
func (m *OpenModel) AcceptEULA(ctx context.Context) (*aiplatformpb.PublisherModelEulaAcceptance, error) {
	const op = "PublisherModel.AcceptEULA"
	m.svc.logger.InfoContext(ctx, "Accepting model EULA",
		slog.String("project", m.project),
		slog.String("publisher_model", m.unversioned()),
	)
	acc, err := m.svc.api.AcceptPublisherModelEula(ctx, &aiplatformpb.AcceptPublisherModelEulaRequest{
		Parent:         resourcename.Project.Format(m.project),
		PublisherModel: m.unversioned(),
	})
	if err != nil {
		return nil, vertexerr.FromRPC(op, m.canonical, err)
	}
	return acc, nil
}
