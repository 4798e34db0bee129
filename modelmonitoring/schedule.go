// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelmonitoring

import (
	"cmp"
	"context"
	"log/slog"
	"time"

	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/go-a2a/aiplatform-go/future"
	"github.com/go-a2a/aiplatform-go/internal/cron"
	"github.com/go-a2a/aiplatform-go/resource"
	"github.com/go-a2a/aiplatform-go/resourcename"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// ScheduleState is the state of a schedule.
type ScheduleState int

const (
	ScheduleStateUnspecified ScheduleState = iota
	ScheduleActive
	SchedulePaused
	ScheduleCompleted
)

// String returns a string representation of the ScheduleState.
func (s ScheduleState) String() string {
	switch s {
	case ScheduleActive:
		return "active"
	case SchedulePaused:
		return "paused"
	case ScheduleCompleted:
		return "completed"
	default:
		return "unspecified"
	}
}

func scheduleState(s aiplatformpb.Schedule_State) ScheduleState {
	switch s {
	case aiplatformpb.Schedule_ACTIVE:
		return ScheduleActive
	case aiplatformpb.Schedule_PAUSED:
		return SchedulePaused
	case aiplatformpb.Schedule_COMPLETED:
		return ScheduleCompleted
	default:
		return ScheduleStateUnspecified
	}
}

// Schedule enqueues a monitoring job on every cron tick.
type Schedule struct {
	resource.Base[*aiplatformpb.Schedule]

	svc *Service
}

// ScheduleOptions configures [ModelMonitor.CreateSchedule].
type ScheduleOptions struct {
	// Cron is a cron expression, optionally prefixed by "CRON_TZ=<zone>" or "TZ=<zone>".
	Cron string

	DisplayName string

	// Job describes the enqueued job. Unset fields inherit the monitor defaults.
	Job JobSpec

	StartTime time.Time
	EndTime   time.Time

	// MaxRunCount stops the schedule after that many runs. Zero is unbounded.
	MaxRunCount int64

	// MaxConcurrentRunCount defaults to 1.
	MaxConcurrentRunCount int64

	// AllowQueueing enqueues runs that would exceed MaxConcurrentRunCount
	// instead of skipping them.
	AllowQueueing bool

	Async bool
}

// CreateSchedule creates a schedule running jobs of the monitor.
func (m *ModelMonitor) CreateSchedule(ctx context.Context, opts ScheduleOptions) (*Schedule, error) {
	op := scheduleDescriptor.Op("Create")
	if err := cron.Validate(opts.Cron); err != nil {
		return nil, vertexerr.InvalidArgument(op, "%v", err)
	}
	if opts.MaxRunCount < 0 {
		return nil, vertexerr.InvalidArgument(op, "negative max run count %d", opts.MaxRunCount)
	}
	if opts.MaxConcurrentRunCount < 0 {
		return nil, vertexerr.InvalidArgument(op, "negative max concurrent run count %d", opts.MaxConcurrentRunCount)
	}
	if err := checkWindow(op, opts.StartTime, opts.EndTime); err != nil {
		return nil, err
	}

	sc := &Schedule{svc: m.svc}
	m.svc.managed(&sc.Manager)
	_, err := future.Construct(ctx, &sc.Manager, future.Options{Sync: !opts.Async, Deps: []future.Dependency{m}, Name: op}, func(ctx context.Context) error {
		monitor := m.ResourceName()
		parent := resourcename.Location.Format(m.Project(), m.Location())

		displayName := opts.DisplayName
		if displayName == "" {
			v := monitorDescriptor.Pattern.Parse(monitor)
			displayName = v["model_monitor"] + "-schedule-" + uuid.NewString()[:8]
		}
		pb := &aiplatformpb.Schedule{
			DisplayName:       displayName,
			TimeSpecification: &aiplatformpb.Schedule_Cron{Cron: opts.Cron},
			Request: &aiplatformpb.Schedule_CreateModelMonitoringJobRequest{
				CreateModelMonitoringJobRequest: &aiplatformpb.CreateModelMonitoringJobRequest{
					Parent:             monitor,
					ModelMonitoringJob: m.jobProto(opts.Job),
				},
			},
			MaxRunCount:           opts.MaxRunCount,
			MaxConcurrentRunCount: cmp.Or(opts.MaxConcurrentRunCount, 1),
			AllowQueueing:         opts.AllowQueueing,
			StartTime:             timestamp(opts.StartTime),
			EndTime:               timestamp(opts.EndTime),
		}

		m.svc.logger.InfoContext(ctx, "Creating schedule",
			slog.String("parent", parent),
			slog.String("model_monitor", monitor),
			slog.String("cron", opts.Cron),
		)
		out, err := m.svc.api.CreateSchedule(ctx, &aiplatformpb.CreateScheduleRequest{Parent: parent, Schedule: pb})
		if err != nil {
			return vertexerr.FromRPC(op, parent, err)
		}
		sc.SetSnapshot(out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// checkWindow rejects an end time that is not after the start time. A zero
// time is unbounded.
func checkWindow(op string, start, end time.Time) error {
	if start.IsZero() || end.IsZero() || end.After(start) {
		return nil
	}
	return vertexerr.InvalidArgument(op, "end time %s is not after start time %s",
		end.Format(time.RFC3339), start.Format(time.RFC3339))
}

func timestamp(t time.Time) *timestamppb.Timestamp {
	if t.IsZero() {
		return nil
	}
	return timestamppb.New(t)
}

// State returns the last observed state without waiting.
func (s *Schedule) State() ScheduleState { return scheduleState(s.Peek().GetState()) }

// Cron returns the cron expression of the schedule.
func (s *Schedule) Cron() string { return s.Peek().GetCron() }

// refresh fetches the current server state.
func (s *Schedule) refresh(ctx context.Context, op string) error {
	return s.Refresh(ctx, func(ctx context.Context, name string) (*aiplatformpb.Schedule, error) {
		pb, err := s.svc.api.GetSchedule(ctx, &aiplatformpb.GetScheduleRequest{Name: name})
		return pb, vertexerr.FromRPC(op, name, err)
	})
}

// Pause stops enqueuing runs. Pausing a paused schedule does nothing.
func (s *Schedule) Pause(ctx context.Context) error {
	op := scheduleDescriptor.Op("Pause")
	if err := s.refresh(ctx, op); err != nil {
		return err
	}
	if s.State() == SchedulePaused {
		return nil
	}
	name := s.ResourceName()
	s.svc.logger.InfoContext(ctx, "Pausing schedule", slog.String("resource_name", name))
	if err := s.svc.api.PauseSchedule(ctx, &aiplatformpb.PauseScheduleRequest{Name: name}); err != nil {
		return vertexerr.FromRPC(op, name, err)
	}
	return s.refresh(ctx, op)
}

// Resume restarts a paused schedule. With catchUp the runs missed while paused
// are enqueued. Resuming an active schedule does nothing; a deleted schedule
// yields a [vertexerr.ErrNotFound] error.
func (s *Schedule) Resume(ctx context.Context, catchUp bool) error {
	op := scheduleDescriptor.Op("Resume")
	if err := s.refresh(ctx, op); err != nil {
		return err
	}
	if s.State() == ScheduleActive {
		return nil
	}
	name := s.ResourceName()
	s.svc.logger.InfoContext(ctx, "Resuming schedule",
		slog.String("resource_name", name),
		slog.Bool("catch_up", catchUp),
	)
	if err := s.svc.api.ResumeSchedule(ctx, &aiplatformpb.ResumeScheduleRequest{Name: name, CatchUp: catchUp}); err != nil {
		return vertexerr.FromRPC(op, name, err)
	}
	return s.refresh(ctx, op)
}

// ScheduleUpdate lists the fields to change. Nil fields are left untouched.
type ScheduleUpdate struct {
	DisplayName           *string
	Cron                  *string
	MaxRunCount           *int64
	MaxConcurrentRunCount *int64
	AllowQueueing         *bool
	EndTime               *time.Time
}

// Update changes the supplied fields of the schedule.
func (s *Schedule) Update(ctx context.Context, u ScheduleUpdate) error {
	op := scheduleDescriptor.Op("Update")
	if u.Cron != nil {
		if err := cron.Validate(*u.Cron); err != nil {
			return vertexerr.InvalidArgument(op, "%v", err)
		}
	}
	if u.MaxRunCount != nil && *u.MaxRunCount < 0 {
		return vertexerr.InvalidArgument(op, "negative max run count %d", *u.MaxRunCount)
	}
	if u.MaxConcurrentRunCount != nil && *u.MaxConcurrentRunCount < 1 {
		return vertexerr.InvalidArgument(op, "max concurrent run count %d is below 1", *u.MaxConcurrentRunCount)
	}
	mask := resource.BuildMask(
		resource.Set("display_name", u.DisplayName),
		resource.Set("cron", u.Cron),
		resource.Set("max_run_count", u.MaxRunCount),
		resource.Set("max_concurrent_run_count", u.MaxConcurrentRunCount),
		resource.Set("allow_queueing", u.AllowQueueing),
		resource.Set("end_time", u.EndTime),
	)
	if len(mask.GetPaths()) == 0 {
		return nil
	}
	if err := s.Wait(ctx); err != nil {
		return err
	}
	if start := s.Peek().GetStartTime(); u.EndTime != nil && start != nil {
		if err := checkWindow(op, start.AsTime(), *u.EndTime); err != nil {
			return err
		}
	}

	name := s.ResourceName()
	pb := &aiplatformpb.Schedule{
		Name:                  name,
		DisplayName:           deref(u.DisplayName),
		MaxRunCount:           deref(u.MaxRunCount),
		MaxConcurrentRunCount: deref(u.MaxConcurrentRunCount),
		AllowQueueing:         deref(u.AllowQueueing),
	}
	if u.Cron != nil {
		pb.TimeSpecification = &aiplatformpb.Schedule_Cron{Cron: *u.Cron}
	}
	if u.EndTime != nil {
		pb.EndTime = timestamp(*u.EndTime)
	}
	out, err := s.svc.api.UpdateSchedule(ctx, &aiplatformpb.UpdateScheduleRequest{Schedule: pb, UpdateMask: mask})
	if err != nil {
		return vertexerr.FromRPC(op, name, err)
	}
	s.SetSnapshot(out)
	return nil
}

// Delete deletes the schedule.
func (s *Schedule) Delete(ctx context.Context) error {
	op := scheduleDescriptor.Op("Delete")
	if err := s.Wait(ctx); err != nil {
		return err
	}
	name := s.ResourceName()
	handle, err := s.svc.driver.Submit(ctx, op, name, func(ctx context.Context) (string, error) {
		return s.svc.api.DeleteSchedule(ctx, &aiplatformpb.DeleteScheduleRequest{Name: name})
	})
	if err != nil {
		return err
	}
	return s.svc.driver.Wait(ctx, handle)
}

// NextRunTime returns the next run reported by the server, or a preview
// computed from the cron expression after from when the server has not
// reported one yet.
func (s *Schedule) NextRunTime(from time.Time) (time.Time, error) {
	if t := s.Peek().GetNextRunTime(); t != nil {
		return t.AsTime(), nil
	}
	next, err := cron.Next(s.Cron(), from, 1)
	if err != nil {
		return time.Time{}, err
	}
	if len(next) == 0 {
		return time.Time{}, nil
	}
	return next[0], nil
}
