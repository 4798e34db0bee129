// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelmonitoring

import (
	"context"
	"iter"
	"log/slog"

	aiplatform "cloud.google.com/go/aiplatform/apiv1beta1"
	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"

	"github.com/go-a2a/aiplatform-go/future"
	"github.com/go-a2a/aiplatform-go/initializer"
	"github.com/go-a2a/aiplatform-go/internal/clientfactory"
	"github.com/go-a2a/aiplatform-go/internal/xiter"
	"github.com/go-a2a/aiplatform-go/lro"
	"github.com/go-a2a/aiplatform-go/resource"
	"github.com/go-a2a/aiplatform-go/resourcename"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

var (
	monitorDescriptor  = resource.Descriptor{Noun: "ModelMonitor", Pattern: resourcename.ModelMonitor}
	jobDescriptor      = resource.Descriptor{Noun: "ModelMonitoringJob", Pattern: resourcename.ModelMonitoringJob}
	scheduleDescriptor = resource.Descriptor{Noun: "Schedule", Pattern: resourcename.Schedule}
	modelDescriptor    = resource.Descriptor{Noun: "Model", Pattern: resourcename.Model}
)

// Service manages model monitors, their jobs and their schedules.
type Service struct {
	cfg     *initializer.Config
	api     API
	factory *clientfactory.Factory
	driver  *lro.Driver
	logger  *slog.Logger
	pool    *future.Pool

	driverOpts []lro.DriverOption
}

// Option configures a [Service].
type Option func(*Service)

// WithAPI replaces the generated clients, e.g. with a fake in tests.
func WithAPI(api API) Option {
	return func(s *Service) { s.api = api }
}

// WithLogger sets the logger of the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithPool schedules asynchronous calls onto p instead of [future.DefaultPool].
func WithPool(p *future.Pool) Option {
	return func(s *Service) { s.pool = p }
}

// WithDriverOptions configures the operation driver.
func WithDriverOptions(opts ...lro.DriverOption) Option {
	return func(s *Service) { s.driverOpts = append(s.driverOpts, opts...) }
}

// NewService returns a service configured by cfg. A nil cfg means [initializer.Global].
//
// Unless [WithAPI] is given, the v1beta1 model monitoring and schedule clients
// are built through a client factory; building them performs no RPC.
func NewService(ctx context.Context, cfg *initializer.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = initializer.Global()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = cfg.Logger()
	}

	if s.api == nil {
		s.factory = clientfactory.New(cfg,
			clientfactory.WithVersion(clientfactory.V1Beta1),
			clientfactory.WithLogger(s.logger),
		)
		monitors, err := clientfactory.Client[*aiplatform.ModelMonitoringClient](ctx, s.factory, clientfactory.KindModelMonitoring,
			aiplatform.NewModelMonitoringClient, aiplatform.NewModelMonitoringRESTClient)
		if err != nil {
			return nil, err
		}
		schedules, err := clientfactory.Client[*aiplatform.ScheduleClient](ctx, s.factory, clientfactory.KindSchedule,
			aiplatform.NewScheduleClient, aiplatform.NewScheduleRESTClient)
		if err != nil {
			return nil, err
		}
		s.api = &gapicAPI{monitors: monitors, schedules: schedules, decorate: s.factory.Decorate}
	}

	s.driver = lro.NewDriver(s.api, append([]lro.DriverOption{lro.WithLogger(s.logger)}, s.driverOpts...)...)
	return s, nil
}

// Close releases the clients built by the service.
func (s *Service) Close() error {
	if s.factory == nil {
		return nil
	}
	return s.factory.Close()
}

func (s *Service) managed(m *future.Manager) *future.Manager {
	if s.pool != nil {
		m.SetPool(s.pool)
	}
	return m
}

// GetModelMonitor fetches a monitor by full name or id.
func (s *Service) GetModelMonitor(ctx context.Context, name string) (*ModelMonitor, error) {
	full, err := monitorDescriptor.FullName(ctx, s.cfg, name)
	if err != nil {
		return nil, err
	}
	pb, err := s.api.GetModelMonitor(ctx, &aiplatformpb.GetModelMonitorRequest{Name: full})
	if err != nil {
		return nil, vertexerr.FromRPC(monitorDescriptor.Op("Get"), full, err)
	}
	return s.newModelMonitor(pb), nil
}

// ListOptions narrows a list call.
type ListOptions struct {
	// Filter is passed to the server verbatim.
	Filter   string
	PageSize int32

	// Project and Location override the configured ones.
	Project  string
	Location string
}

// ListModelMonitors iterates the monitors of a location.
func (s *Service) ListModelMonitors(ctx context.Context, opts ListOptions) iter.Seq2[*ModelMonitor, error] {
	parent, err := resource.Parent(ctx, s.cfg, opts.Project, opts.Location)
	if err != nil {
		return xiter.Error[*ModelMonitor](err)
	}
	pager := resource.NewPager(func(ctx context.Context, token string) (*resource.Page[*aiplatformpb.ModelMonitor], error) {
		page, err := s.api.ListModelMonitors(ctx, &aiplatformpb.ListModelMonitorsRequest{
			Parent:    parent,
			Filter:    opts.Filter,
			PageSize:  opts.PageSize,
			PageToken: token,
		})
		return page, vertexerr.FromRPC(monitorDescriptor.Op("List"), parent, err)
	})
	return xiter.Map(pager.All(ctx), func(pb *aiplatformpb.ModelMonitor) (*ModelMonitor, error) {
		return s.newModelMonitor(pb), nil
	})
}

// GetJob fetches a monitoring job by full name, or by id when monitor is given.
func (s *Service) GetJob(ctx context.Context, name, monitor string) (*Job, error) {
	full, err := s.jobName(ctx, name, monitor)
	if err != nil {
		return nil, err
	}
	pb, err := s.api.GetModelMonitoringJob(ctx, &aiplatformpb.GetModelMonitoringJobRequest{Name: full})
	if err != nil {
		return nil, vertexerr.FromRPC(jobDescriptor.Op("Get"), full, err)
	}
	return s.newJob(pb), nil
}

func (s *Service) jobName(ctx context.Context, name, monitor string) (string, error) {
	if jobDescriptor.Pattern.Match(name) || monitor == "" {
		return jobDescriptor.FullName(ctx, s.cfg, name)
	}
	monitorName, err := monitorDescriptor.FullName(ctx, s.cfg, monitor)
	if err != nil {
		return "", err
	}
	v := monitorDescriptor.Pattern.Parse(monitorName)
	if !resourcename.IsBareID(name) {
		return "", vertexerr.InvalidArgument(jobDescriptor.Op("Get"), "%q is neither a job resource name nor a valid id", name)
	}
	return jobDescriptor.Pattern.Format(v["project"], v["location"], v["model_monitor"], name), nil
}

// GetSchedule fetches a schedule by full name or id.
func (s *Service) GetSchedule(ctx context.Context, name string) (*Schedule, error) {
	full, err := scheduleDescriptor.FullName(ctx, s.cfg, name)
	if err != nil {
		return nil, err
	}
	pb, err := s.api.GetSchedule(ctx, &aiplatformpb.GetScheduleRequest{Name: full})
	if err != nil {
		return nil, vertexerr.FromRPC(scheduleDescriptor.Op("Get"), full, err)
	}
	return s.newSchedule(pb), nil
}

// ListSchedules iterates the schedules of a location.
func (s *Service) ListSchedules(ctx context.Context, opts ListOptions) iter.Seq2[*Schedule, error] {
	parent, err := resource.Parent(ctx, s.cfg, opts.Project, opts.Location)
	if err != nil {
		return xiter.Error[*Schedule](err)
	}
	return xiter.Map(s.schedulePager(parent, opts).All(ctx), func(pb *aiplatformpb.Schedule) (*Schedule, error) {
		return s.newSchedule(pb), nil
	})
}

func (s *Service) schedulePager(parent string, opts ListOptions) *resource.Pager[*aiplatformpb.Schedule] {
	return resource.NewPager(func(ctx context.Context, token string) (*resource.Page[*aiplatformpb.Schedule], error) {
		page, err := s.api.ListSchedules(ctx, &aiplatformpb.ListSchedulesRequest{
			Parent:    parent,
			Filter:    opts.Filter,
			PageSize:  opts.PageSize,
			PageToken: token,
		})
		return page, vertexerr.FromRPC(scheduleDescriptor.Op("List"), parent, err)
	})
}

func (s *Service) newModelMonitor(pb *aiplatformpb.ModelMonitor) *ModelMonitor {
	m := &ModelMonitor{svc: s}
	s.managed(&m.Manager)
	m.Init(pb.GetName(), pb, string(clientfactory.V1Beta1))
	return m
}

func (s *Service) newJob(pb *aiplatformpb.ModelMonitoringJob) *Job {
	j := &Job{svc: s}
	s.managed(&j.Manager)
	j.Init(pb.GetName(), pb, string(clientfactory.V1Beta1))
	return j
}

func (s *Service) newSchedule(pb *aiplatformpb.Schedule) *Schedule {
	sc := &Schedule{svc: s}
	s.managed(&sc.Manager)
	sc.Init(pb.GetName(), pb, string(clientfactory.V1Beta1))
	return sc
}
