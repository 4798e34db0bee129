// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelmonitoring

import (
	"context"

	aiplatform "cloud.google.com/go/aiplatform/apiv1beta1"
	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/googleapis/gax-go/v2"

	"github.com/go-a2a/aiplatform-go/lro"
	"github.com/go-a2a/aiplatform-go/resource"
)

// API is the set of model monitoring and schedule calls used by [Service].
// Calls starting a long-running operation return the operation name.
type API interface {
	lro.OperationsClient

	CreateModelMonitor(ctx context.Context, req *aiplatformpb.CreateModelMonitorRequest) (string, error)
	GetModelMonitor(ctx context.Context, req *aiplatformpb.GetModelMonitorRequest) (*aiplatformpb.ModelMonitor, error)
	ListModelMonitors(ctx context.Context, req *aiplatformpb.ListModelMonitorsRequest) (*resource.Page[*aiplatformpb.ModelMonitor], error)
	UpdateModelMonitor(ctx context.Context, req *aiplatformpb.UpdateModelMonitorRequest) (string, error)
	DeleteModelMonitor(ctx context.Context, req *aiplatformpb.DeleteModelMonitorRequest) (string, error)

	CreateModelMonitoringJob(ctx context.Context, req *aiplatformpb.CreateModelMonitoringJobRequest) (*aiplatformpb.ModelMonitoringJob, error)
	GetModelMonitoringJob(ctx context.Context, req *aiplatformpb.GetModelMonitoringJobRequest) (*aiplatformpb.ModelMonitoringJob, error)
	ListModelMonitoringJobs(ctx context.Context, req *aiplatformpb.ListModelMonitoringJobsRequest) (*resource.Page[*aiplatformpb.ModelMonitoringJob], error)
	DeleteModelMonitoringJob(ctx context.Context, req *aiplatformpb.DeleteModelMonitoringJobRequest) (string, error)

	SearchModelMonitoringStats(ctx context.Context, req *aiplatformpb.SearchModelMonitoringStatsRequest) (*aiplatformpb.SearchModelMonitoringStatsResponse, error)
	SearchModelMonitoringAlerts(ctx context.Context, req *aiplatformpb.SearchModelMonitoringAlertsRequest) (*aiplatformpb.SearchModelMonitoringAlertsResponse, error)

	CreateSchedule(ctx context.Context, req *aiplatformpb.CreateScheduleRequest) (*aiplatformpb.Schedule, error)
	GetSchedule(ctx context.Context, req *aiplatformpb.GetScheduleRequest) (*aiplatformpb.Schedule, error)
	ListSchedules(ctx context.Context, req *aiplatformpb.ListSchedulesRequest) (*resource.Page[*aiplatformpb.Schedule], error)
	UpdateSchedule(ctx context.Context, req *aiplatformpb.UpdateScheduleRequest) (*aiplatformpb.Schedule, error)
	DeleteSchedule(ctx context.Context, req *aiplatformpb.DeleteScheduleRequest) (string, error)
	PauseSchedule(ctx context.Context, req *aiplatformpb.PauseScheduleRequest) error
	ResumeSchedule(ctx context.Context, req *aiplatformpb.ResumeScheduleRequest) error
}

// gapicAPI implements [API] with the generated v1beta1 clients.
type gapicAPI struct {
	monitors  *aiplatform.ModelMonitoringClient
	schedules *aiplatform.ScheduleClient

	// decorate attaches the default and caller metadata to every call.
	decorate func(context.Context) context.Context
}

var _ API = (*gapicAPI)(nil)

func (a *gapicAPI) GetOperation(ctx context.Context, req *longrunningpb.GetOperationRequest, opts ...gax.CallOption) (*longrunningpb.Operation, error) {
	return a.monitors.GetOperation(a.decorate(ctx), req, opts...)
}

func (a *gapicAPI) CancelOperation(ctx context.Context, req *longrunningpb.CancelOperationRequest, opts ...gax.CallOption) error {
	return a.monitors.CancelOperation(a.decorate(ctx), req, opts...)
}

func (a *gapicAPI) CreateModelMonitor(ctx context.Context, req *aiplatformpb.CreateModelMonitorRequest) (string, error) {
	op, err := a.monitors.CreateModelMonitor(a.decorate(ctx), req)
	if err != nil {
		return "", err
	}
	return op.Name(), nil
}

func (a *gapicAPI) GetModelMonitor(ctx context.Context, req *aiplatformpb.GetModelMonitorRequest) (*aiplatformpb.ModelMonitor, error) {
	return a.monitors.GetModelMonitor(a.decorate(ctx), req)
}

func (a *gapicAPI) ListModelMonitors(ctx context.Context, req *aiplatformpb.ListModelMonitorsRequest) (*resource.Page[*aiplatformpb.ModelMonitor], error) {
	it := a.monitors.ListModelMonitors(a.decorate(ctx), req)
	return resource.FetchPage[*aiplatformpb.ModelMonitor](it, int(req.GetPageSize()), req.GetPageToken())
}

func (a *gapicAPI) UpdateModelMonitor(ctx context.Context, req *aiplatformpb.UpdateModelMonitorRequest) (string, error) {
	op, err := a.monitors.UpdateModelMonitor(a.decorate(ctx), req)
	if err != nil {
		return "", err
	}
	return op.Name(), nil
}

func (a *gapicAPI) DeleteModelMonitor(ctx context.Context, req *aiplatformpb.DeleteModelMonitorRequest) (string, error) {
	op, err := a.monitors.DeleteModelMonitor(a.decorate(ctx), req)
	if err != nil {
		return "", err
	}
	return op.Name(), nil
}

func (a *gapicAPI) CreateModelMonitoringJob(ctx context.Context, req *aiplatformpb.CreateModelMonitoringJobRequest) (*aiplatformpb.ModelMonitoringJob, error) {
	return a.monitors.CreateModelMonitoringJob(a.decorate(ctx), req)
}

func (a *gapicAPI) GetModelMonitoringJob(ctx context.Context, req *aiplatformpb.GetModelMonitoringJobRequest) (*aiplatformpb.ModelMonitoringJob, error) {
	return a.monitors.GetModelMonitoringJob(a.decorate(ctx), req)
}

func (a *gapicAPI) ListModelMonitoringJobs(ctx context.Context, req *aiplatformpb.ListModelMonitoringJobsRequest) (*resource.Page[*aiplatformpb.ModelMonitoringJob], error) {
	it := a.monitors.ListModelMonitoringJobs(a.decorate(ctx), req)
	return resource.FetchPage[*aiplatformpb.ModelMonitoringJob](it, int(req.GetPageSize()), req.GetPageToken())
}

func (a *gapicAPI) DeleteModelMonitoringJob(ctx context.Context, req *aiplatformpb.DeleteModelMonitoringJobRequest) (string, error) {
	op, err := a.monitors.DeleteModelMonitoringJob(a.decorate(ctx), req)
	if err != nil {
		return "", err
	}
	return op.Name(), nil
}

func (a *gapicAPI) SearchModelMonitoringStats(ctx context.Context, req *aiplatformpb.SearchModelMonitoringStatsRequest) (*aiplatformpb.SearchModelMonitoringStatsResponse, error) {
	it := a.monitors.SearchModelMonitoringStats(a.decorate(ctx), req)
	page, err := resource.FetchPage[*aiplatformpb.ModelMonitoringStats](it, int(req.GetPageSize()), req.GetPageToken())
	if err != nil {
		return nil, err
	}
	return &aiplatformpb.SearchModelMonitoringStatsResponse{
		MonitoringStats: page.Items,
		NextPageToken:   page.NextPageToken,
	}, nil
}

func (a *gapicAPI) SearchModelMonitoringAlerts(ctx context.Context, req *aiplatformpb.SearchModelMonitoringAlertsRequest) (*aiplatformpb.SearchModelMonitoringAlertsResponse, error) {
	it := a.monitors.SearchModelMonitoringAlerts(a.decorate(ctx), req)
	page, err := resource.FetchPage[*aiplatformpb.ModelMonitoringAlert](it, int(req.GetPageSize()), req.GetPageToken())
	if err != nil {
		return nil, err
	}
	resp := &aiplatformpb.SearchModelMonitoringAlertsResponse{
		ModelMonitoringAlerts: page.Items,
		NextPageToken:         page.NextPageToken,
	}
	if raw, ok := it.Response.(*aiplatformpb.SearchModelMonitoringAlertsResponse); ok {
		resp.TotalNumberAlerts = raw.GetTotalNumberAlerts()
	}
	return resp, nil
}

func (a *gapicAPI) CreateSchedule(ctx context.Context, req *aiplatformpb.CreateScheduleRequest) (*aiplatformpb.Schedule, error) {
	return a.schedules.CreateSchedule(a.decorate(ctx), req)
}

func (a *gapicAPI) GetSchedule(ctx context.Context, req *aiplatformpb.GetScheduleRequest) (*aiplatformpb.Schedule, error) {
	return a.schedules.GetSchedule(a.decorate(ctx), req)
}

func (a *gapicAPI) ListSchedules(ctx context.Context, req *aiplatformpb.ListSchedulesRequest) (*resource.Page[*aiplatformpb.Schedule], error) {
	it := a.schedules.ListSchedules(a.decorate(ctx), req)
	return resource.FetchPage[*aiplatformpb.Schedule](it, int(req.GetPageSize()), req.GetPageToken())
}

func (a *gapicAPI) UpdateSchedule(ctx context.Context, req *aiplatformpb.UpdateScheduleRequest) (*aiplatformpb.Schedule, error) {
	return a.schedules.UpdateSchedule(a.decorate(ctx), req)
}

func (a *gapicAPI) DeleteSchedule(ctx context.Context, req *aiplatformpb.DeleteScheduleRequest) (string, error) {
	op, err := a.schedules.DeleteSchedule(a.decorate(ctx), req)
	if err != nil {
		return "", err
	}
	return op.Name(), nil
}

func (a *gapicAPI) PauseSchedule(ctx context.Context, req *aiplatformpb.PauseScheduleRequest) error {
	return a.schedules.PauseSchedule(a.decorate(ctx), req)
}

func (a *gapicAPI) ResumeSchedule(ctx context.Context, req *aiplatformpb.ResumeScheduleRequest) error {
	return a.schedules.ResumeSchedule(a.decorate(ctx), req)
}
