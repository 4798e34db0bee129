// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelmonitoring_test

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/go-a2a/aiplatform-go/initializer"
	"github.com/go-a2a/aiplatform-go/lro"
	"github.com/go-a2a/aiplatform-go/modelmonitoring"
	"github.com/go-a2a/aiplatform-go/pkg/logging"
	"github.com/go-a2a/aiplatform-go/resource"
)

const (
	testProject  = "demo"
	testLocation = "us-central1"
	testParent   = "projects/demo/locations/us-central1"
)

// fakeAPI is an in-memory model monitoring and schedule backend. Every
// operation it starts is already done.
type fakeAPI struct {
	mu sync.Mutex

	monitors  map[string]*aiplatformpb.ModelMonitor
	schedules map[string]*aiplatformpb.Schedule
	ops       map[string]*longrunningpb.Operation

	// jobScript is served by GetModelMonitoringJob in order; the last
	// element repeats.
	jobScript []*aiplatformpb.ModelMonitoringJob
	jobs      []*aiplatformpb.CreateModelMonitoringJobRequest

	statsPages  [][]*aiplatformpb.ModelMonitoringStats
	statsReqs   []*aiplatformpb.SearchModelMonitoringStatsRequest
	alerts      []*aiplatformpb.ModelMonitoringAlert
	alertsReqs  []*aiplatformpb.SearchModelMonitoringAlertsRequest
	updates     []*aiplatformpb.UpdateModelMonitorRequest
	deletes     []*aiplatformpb.DeleteModelMonitorRequest
	createdSch  []*aiplatformpb.CreateScheduleRequest
	schUpdates  []*aiplatformpb.UpdateScheduleRequest
	pauses      int
	resumes     int
	nextMonitor int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		monitors:  make(map[string]*aiplatformpb.ModelMonitor),
		schedules: make(map[string]*aiplatformpb.Schedule),
		ops:       make(map[string]*longrunningpb.Operation),
	}
}

var _ modelmonitoring.API = (*fakeAPI)(nil)

func (f *fakeAPI) finish(resource string, resp proto.Message) string {
	name := fmt.Sprintf("%s/operations/%d", resource, len(f.ops)+1)
	op := &longrunningpb.Operation{Name: name, Done: true}
	if resp != nil {
		a, err := anypb.New(resp)
		if err != nil {
			panic(err)
		}
		op.Result = &longrunningpb.Operation_Response{Response: a}
	}
	f.ops[name] = op
	return name
}

func (f *fakeAPI) GetOperation(_ context.Context, req *longrunningpb.GetOperationRequest, _ ...gax.CallOption) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.ops[req.GetName()]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "operation %s", req.GetName())
	}
	return op, nil
}

func (f *fakeAPI) CancelOperation(context.Context, *longrunningpb.CancelOperationRequest, ...gax.CallOption) error {
	return nil
}

func (f *fakeAPI) CreateModelMonitor(_ context.Context, req *aiplatformpb.CreateModelMonitorRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMonitor++
	m := proto.Clone(req.GetModelMonitor()).(*aiplatformpb.ModelMonitor)
	m.Name = req.GetParent() + "/modelMonitors/" + cmp.Or(req.GetModelMonitorId(), fmt.Sprint(f.nextMonitor))
	f.monitors[m.Name] = m
	return f.finish(m.Name, m), nil
}

func (f *fakeAPI) GetModelMonitor(_ context.Context, req *aiplatformpb.GetModelMonitorRequest) (*aiplatformpb.ModelMonitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.monitors[req.GetName()]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "model monitor %s", req.GetName())
	}
	return proto.Clone(m).(*aiplatformpb.ModelMonitor), nil
}

func (f *fakeAPI) ListModelMonitors(_ context.Context, req *aiplatformpb.ListModelMonitorsRequest) (*resource.Page[*aiplatformpb.ModelMonitor], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &resource.Page[*aiplatformpb.ModelMonitor]{}
	for name, m := range f.monitors {
		if strings.HasPrefix(name, req.GetParent()+"/") {
			page.Items = append(page.Items, m)
		}
	}
	return page, nil
}

func (f *fakeAPI) UpdateModelMonitor(_ context.Context, req *aiplatformpb.UpdateModelMonitorRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, req)
	name := req.GetModelMonitor().GetName()
	m, ok := f.monitors[name]
	if !ok {
		return "", status.Errorf(codes.NotFound, "model monitor %s", name)
	}
	if req.GetModelMonitor().GetDisplayName() != "" {
		m.DisplayName = req.GetModelMonitor().GetDisplayName()
	}
	return f.finish(name, m), nil
}

func (f *fakeAPI) DeleteModelMonitor(_ context.Context, req *aiplatformpb.DeleteModelMonitorRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, req)
	delete(f.monitors, req.GetName())
	return f.finish(req.GetName(), nil), nil
}

func (f *fakeAPI) CreateModelMonitoringJob(_ context.Context, req *aiplatformpb.CreateModelMonitoringJobRequest) (*aiplatformpb.ModelMonitoringJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, req)
	j := proto.Clone(req.GetModelMonitoringJob()).(*aiplatformpb.ModelMonitoringJob)
	j.Name = req.GetParent() + "/modelMonitoringJobs/" + cmp.Or(req.GetModelMonitoringJobId(), "j1")
	j.State = aiplatformpb.JobState_JOB_STATE_PENDING
	return j, nil
}

func (f *fakeAPI) GetModelMonitoringJob(_ context.Context, req *aiplatformpb.GetModelMonitoringJobRequest) (*aiplatformpb.ModelMonitoringJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.jobScript) == 0 {
		return nil, status.Errorf(codes.NotFound, "job %s", req.GetName())
	}
	j := proto.Clone(f.jobScript[0]).(*aiplatformpb.ModelMonitoringJob)
	if len(f.jobScript) > 1 {
		f.jobScript = f.jobScript[1:]
	}
	j.Name = req.GetName()
	return j, nil
}

func (f *fakeAPI) ListModelMonitoringJobs(context.Context, *aiplatformpb.ListModelMonitoringJobsRequest) (*resource.Page[*aiplatformpb.ModelMonitoringJob], error) {
	return &resource.Page[*aiplatformpb.ModelMonitoringJob]{}, nil
}

func (f *fakeAPI) DeleteModelMonitoringJob(_ context.Context, req *aiplatformpb.DeleteModelMonitoringJobRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finish(req.GetName(), nil), nil
}

func (f *fakeAPI) SearchModelMonitoringStats(_ context.Context, req *aiplatformpb.SearchModelMonitoringStatsRequest) (*aiplatformpb.SearchModelMonitoringStatsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsReqs = append(f.statsReqs, req)
	page := 0
	if tok := req.GetPageToken(); tok != "" {
		if _, err := fmt.Sscanf(tok, "page-%d", &page); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "bad token %q", tok)
		}
	}
	resp := &aiplatformpb.SearchModelMonitoringStatsResponse{MonitoringStats: f.statsPages[page]}
	if page+1 < len(f.statsPages) {
		resp.NextPageToken = fmt.Sprintf("page-%d", page+1)
	}
	return resp, nil
}

func (f *fakeAPI) SearchModelMonitoringAlerts(_ context.Context, req *aiplatformpb.SearchModelMonitoringAlertsRequest) (*aiplatformpb.SearchModelMonitoringAlertsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alertsReqs = append(f.alertsReqs, req)
	n := min(int(cmp.Or(req.GetPageSize(), 100)), len(f.alerts))
	resp := &aiplatformpb.SearchModelMonitoringAlertsResponse{
		ModelMonitoringAlerts: f.alerts[:n],
		TotalNumberAlerts:     int64(len(f.alerts)),
	}
	if n < len(f.alerts) {
		resp.NextPageToken = "more"
	}
	return resp, nil
}

func (f *fakeAPI) CreateSchedule(_ context.Context, req *aiplatformpb.CreateScheduleRequest) (*aiplatformpb.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdSch = append(f.createdSch, req)
	s := proto.Clone(req.GetSchedule()).(*aiplatformpb.Schedule)
	s.Name = fmt.Sprintf("%s/schedules/%d", req.GetParent(), len(f.createdSch))
	s.State = aiplatformpb.Schedule_ACTIVE
	f.schedules[s.Name] = s
	return proto.Clone(s).(*aiplatformpb.Schedule), nil
}

func (f *fakeAPI) GetSchedule(_ context.Context, req *aiplatformpb.GetScheduleRequest) (*aiplatformpb.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[req.GetName()]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "schedule %s", req.GetName())
	}
	return proto.Clone(s).(*aiplatformpb.Schedule), nil
}

func (f *fakeAPI) ListSchedules(_ context.Context, req *aiplatformpb.ListSchedulesRequest) (*resource.Page[*aiplatformpb.Schedule], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &resource.Page[*aiplatformpb.Schedule]{}
	for name, s := range f.schedules {
		if strings.HasPrefix(name, req.GetParent()+"/") {
			page.Items = append(page.Items, proto.Clone(s).(*aiplatformpb.Schedule))
		}
	}
	return page, nil
}

func (f *fakeAPI) UpdateSchedule(_ context.Context, req *aiplatformpb.UpdateScheduleRequest) (*aiplatformpb.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schUpdates = append(f.schUpdates, req)
	s, ok := f.schedules[req.GetSchedule().GetName()]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "schedule %s", req.GetSchedule().GetName())
	}
	for _, p := range req.GetUpdateMask().GetPaths() {
		switch p {
		case "display_name":
			s.DisplayName = req.GetSchedule().GetDisplayName()
		case "cron":
			s.TimeSpecification = req.GetSchedule().GetTimeSpecification()
		case "max_run_count":
			s.MaxRunCount = req.GetSchedule().GetMaxRunCount()
		}
	}
	return proto.Clone(s).(*aiplatformpb.Schedule), nil
}

func (f *fakeAPI) DeleteSchedule(_ context.Context, req *aiplatformpb.DeleteScheduleRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.schedules, req.GetName())
	return f.finish(req.GetName(), nil), nil
}

func (f *fakeAPI) PauseSchedule(_ context.Context, req *aiplatformpb.PauseScheduleRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[req.GetName()]
	if !ok {
		return status.Errorf(codes.NotFound, "schedule %s", req.GetName())
	}
	f.pauses++
	s.State = aiplatformpb.Schedule_PAUSED
	return nil
}

func (f *fakeAPI) ResumeSchedule(_ context.Context, req *aiplatformpb.ResumeScheduleRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[req.GetName()]
	if !ok {
		return status.Errorf(codes.NotFound, "schedule %s", req.GetName())
	}
	f.resumes++
	s.State = aiplatformpb.Schedule_ACTIVE
	return nil
}

// newService returns a service over api whose operation driver never sleeps.
func newService(t *testing.T, api *fakeAPI, opts ...modelmonitoring.Option) *modelmonitoring.Service {
	t.Helper()

	cfg := initializer.New()
	if err := cfg.Init(initializer.WithProject(testProject), initializer.WithLocation(testLocation)); err != nil {
		t.Fatal(err)
	}
	opts = append([]modelmonitoring.Option{
		modelmonitoring.WithAPI(api),
		modelmonitoring.WithLogger(logging.Discard()),
		modelmonitoring.WithDriverOptions(lro.WithClock(time.Now, func(context.Context, time.Duration) error { return nil })),
	}, opts...)
	svc, err := modelmonitoring.NewService(t.Context(), cfg, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}
