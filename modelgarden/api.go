// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelgarden

import (
	"context"

	aiplatformv1 "cloud.google.com/go/aiplatform/apiv1"
	aiplatformpbv1 "cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	aiplatform "cloud.google.com/go/aiplatform/apiv1beta1"
	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/googleapis/gax-go/v2"

	"github.com/go-a2a/aiplatform-go/lro"
	"github.com/go-a2a/aiplatform-go/resource"
)

// API is the set of Model Garden and batch prediction calls used by [Service].
type API interface {
	lro.OperationsClient

	GetPublisherModel(ctx context.Context, req *aiplatformpb.GetPublisherModelRequest) (*aiplatformpb.PublisherModel, error)
	ListPublisherModels(ctx context.Context, req *aiplatformpb.ListPublisherModelsRequest) (*resource.Page[*aiplatformpb.PublisherModel], error)

	// Deploy starts a deployment and returns the operation name.
	Deploy(ctx context.Context, req *aiplatformpb.DeployRequest) (string, error)

	CheckPublisherModelEulaAcceptance(ctx context.Context, req *aiplatformpb.CheckPublisherModelEulaAcceptanceRequest) (*aiplatformpb.PublisherModelEulaAcceptance, error)
	AcceptPublisherModelEula(ctx context.Context, req *aiplatformpb.AcceptPublisherModelEulaRequest) (*aiplatformpb.PublisherModelEulaAcceptance, error)

	CreateBatchPredictionJob(ctx context.Context, req *aiplatformpbv1.CreateBatchPredictionJobRequest) (*aiplatformpbv1.BatchPredictionJob, error)
}

// gapicAPI implements [API] with the v1beta1 Model Garden client and the v1 job client.
type gapicAPI struct {
	garden *aiplatform.ModelGardenClient
	jobs   func(context.Context) (*aiplatformv1.JobClient, error)

	decorate func(context.Context) context.Context
}

var _ API = (*gapicAPI)(nil)

func (a *gapicAPI) GetOperation(ctx context.Context, req *longrunningpb.GetOperationRequest, opts ...gax.CallOption) (*longrunningpb.Operation, error) {
	return a.garden.GetOperation(a.decorate(ctx), req, opts...)
}

func (a *gapicAPI) CancelOperation(ctx context.Context, req *longrunningpb.CancelOperationRequest, opts ...gax.CallOption) error {
	return a.garden.CancelOperation(a.decorate(ctx), req, opts...)
}

func (a *gapicAPI) GetPublisherModel(ctx context.Context, req *aiplatformpb.GetPublisherModelRequest) (*aiplatformpb.PublisherModel, error) {
	return a.garden.GetPublisherModel(a.decorate(ctx), req)
}

func (a *gapicAPI) ListPublisherModels(ctx context.Context, req *aiplatformpb.ListPublisherModelsRequest) (*resource.Page[*aiplatformpb.PublisherModel], error) {
	it := a.garden.ListPublisherModels(a.decorate(ctx), req)
	return resource.FetchPage[*aiplatformpb.PublisherModel](it, int(req.GetPageSize()), req.GetPageToken())
}

func (a *gapicAPI) Deploy(ctx context.Context, req *aiplatformpb.DeployRequest) (string, error) {
	op, err := a.garden.Deploy(a.decorate(ctx), req)
	if err != nil {
		return "", err
	}
	return op.Name(), nil
}

func (a *gapicAPI) CheckPublisherModelEulaAcceptance(ctx context.Context, req *aiplatformpb.CheckPublisherModelEulaAcceptanceRequest) (*aiplatformpb.PublisherModelEulaAcceptance, error) {
	return a.garden.CheckPublisherModelEulaAcceptance(a.decorate(ctx), req)
}

func (a *gapicAPI) AcceptPublisherModelEula(ctx context.Context, req *aiplatformpb.AcceptPublisherModelEulaRequest) (*aiplatformpb.PublisherModelEulaAcceptance, error) {
	return a.garden.AcceptPublisherModelEula(a.decorate(ctx), req)
}

func (a *gapicAPI) CreateBatchPredictionJob(ctx context.Context, req *aiplatformpbv1.CreateBatchPredictionJobRequest) (*aiplatformpbv1.BatchPredictionJob, error) {
	jobs, err := a.jobs(ctx)
	if err != nil {
		return nil, err
	}
	return jobs.CreateBatchPredictionJob(a.decorate(ctx), req)
}
