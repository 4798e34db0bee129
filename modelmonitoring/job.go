// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelmonitoring

import (
	"context"
	"log/slog"
	"time"

	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"

	"github.com/go-a2a/aiplatform-go/future"
	"github.com/go-a2a/aiplatform-go/internal/xmaps"
	"github.com/go-a2a/aiplatform-go/lro"
	"github.com/go-a2a/aiplatform-go/resource"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// JobState is the client view of a monitoring job state. Transitions are
// driven by the server.
type JobState int

const (
	JobPending JobState = iota
	JobRunning
	JobSucceeded
	JobFailed
	JobPartiallySucceeded
	JobCancelled
)

// String returns a string representation of the JobState.
func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobRunning:
		return "running"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	case JobPartiallySucceeded:
		return "partially_succeeded"
	case JobCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Done reports whether s is terminal.
func (s JobState) Done() bool {
	switch s {
	case JobSucceeded, JobFailed, JobPartiallySucceeded, JobCancelled:
		return true
	}
	return false
}

func jobState(s aiplatformpb.JobState) JobState {
	switch s {
	case aiplatformpb.JobState_JOB_STATE_RUNNING,
		aiplatformpb.JobState_JOB_STATE_CANCELLING,
		aiplatformpb.JobState_JOB_STATE_UPDATING,
		aiplatformpb.JobState_JOB_STATE_PAUSED:
		return JobRunning
	case aiplatformpb.JobState_JOB_STATE_SUCCEEDED:
		return JobSucceeded
	case aiplatformpb.JobState_JOB_STATE_FAILED,
		aiplatformpb.JobState_JOB_STATE_EXPIRED:
		return JobFailed
	case aiplatformpb.JobState_JOB_STATE_PARTIALLY_SUCCEEDED:
		return JobPartiallySucceeded
	case aiplatformpb.JobState_JOB_STATE_CANCELLED:
		return JobCancelled
	default:
		return JobPending
	}
}

// Job is a single monitoring run.
type Job struct {
	resource.Base[*aiplatformpb.ModelMonitoringJob]

	svc *Service
}

// State returns the last observed state without waiting.
func (j *Job) State() JobState { return jobState(j.Peek().GetState()) }

// Done reports whether the last observed state is terminal.
func (j *Job) Done() bool { return j.State().Done() }

// RunOptions configures [ModelMonitor.Run].
type RunOptions struct {
	JobSpec

	JobID string

	// Async returns as soon as the job is submitted; [Job.Wait] then waits
	// for the terminal state.
	Async bool

	// Timeout bounds the wait for the terminal state. Zero waits forever.
	Timeout time.Duration
}

// Run creates a monitoring job and waits for its terminal state.
//
// A failed job yields a [vertexerr.ErrOperationFailed] error and a cancelled
// one a [vertexerr.ErrOperationCancelled] error. A partially successful job is
// logged at warn level with the status of every objective and returned
// without error.
func (m *ModelMonitor) Run(ctx context.Context, opts RunOptions) (*Job, error) {
	op := jobDescriptor.Op("Run")

	j := &Job{svc: m.svc}
	m.svc.managed(&j.Manager)
	_, err := future.Construct(ctx, &j.Manager, future.Options{Sync: !opts.Async, Deps: []future.Dependency{m}, Name: op}, func(ctx context.Context) error {
		parent := m.ResourceName()
		req := &aiplatformpb.CreateModelMonitoringJobRequest{
			Parent:               parent,
			ModelMonitoringJob:   m.jobProto(opts.JobSpec),
			ModelMonitoringJobId: opts.JobID,
		}
		m.svc.logger.InfoContext(ctx, "Creating model monitoring job", slog.String("parent", parent))
		created, err := m.svc.api.CreateModelMonitoringJob(ctx, req)
		if err != nil {
			return vertexerr.FromRPC(op, parent, err)
		}
		j.SetSnapshot(created)
		return j.await(ctx, opts.Timeout)
	})
	return j, err
}

// Result waits for the terminal state of the job and returns its snapshot.
// Errors are those of [ModelMonitor.Run].
func (j *Job) Result(ctx context.Context, timeout time.Duration) (*aiplatformpb.ModelMonitoringJob, error) {
	if err := j.Wait(ctx); err != nil {
		return nil, err
	}
	if err := j.await(ctx, timeout); err != nil {
		return nil, err
	}
	return j.Peek(), nil
}

// await polls the job until it is terminal and surfaces the terminal state.
func (j *Job) await(ctx context.Context, timeout time.Duration) error {
	op := jobDescriptor.Op("Wait")
	name := j.ResourceName()

	pb := j.Peek()
	if !jobState(pb.GetState()).Done() {
		var err error
		pb, err = lro.PollUntil(ctx, j.svc.driver, op, name, timeout, func(ctx context.Context) (*aiplatformpb.ModelMonitoringJob, bool, error) {
			got, err := j.svc.api.GetModelMonitoringJob(ctx, &aiplatformpb.GetModelMonitoringJobRequest{Name: name})
			if err != nil {
				return nil, false, vertexerr.FromRPC(op, name, err)
			}
			j.SetSnapshot(got)
			return got, jobState(got.GetState()).Done(), nil
		})
		if err != nil {
			return err
		}
	}
	return j.svc.surface(ctx, pb)
}

func (s *Service) surface(ctx context.Context, pb *aiplatformpb.ModelMonitoringJob) error {
	op := jobDescriptor.Op("Run")
	detail := pb.GetJobExecutionDetail()

	switch jobState(pb.GetState()) {
	case JobFailed:
		return vertexerr.FromStatus(op, pb.GetName(), "", detail.GetError())
	case JobCancelled:
		e := vertexerr.FromStatus(op, pb.GetName(), "", detail.GetError())
		e.Kind = vertexerr.KindOperationCancelled
		return e
	case JobPartiallySucceeded:
		statuses := detail.GetObjectiveStatus()
		attrs := []any{slog.String("resource_name", pb.GetName())}
		for objective, st := range xmaps.Sorted(statuses) {
			attrs = append(attrs, slog.Group(objective,
				slog.Int("code", int(st.GetCode())),
				slog.String("message", st.GetMessage()),
			))
		}
		s.logger.WarnContext(ctx, "Model monitoring job partially succeeded", attrs...)
	case JobSucceeded:
		s.logger.InfoContext(ctx, "Model monitoring job succeeded", slog.String("resource_name", pb.GetName()))
	}
	return nil
}

// Delete deletes the job.
func (j *Job) Delete(ctx context.Context) error {
	op := jobDescriptor.Op("Delete")
	if err := j.Wait(ctx); err != nil {
		return err
	}
	name := j.ResourceName()
	handle, err := j.svc.driver.Submit(ctx, op, name, func(ctx context.Context) (string, error) {
		return j.svc.api.DeleteModelMonitoringJob(ctx, &aiplatformpb.DeleteModelMonitoringJobRequest{Name: name})
	})
	if err != nil {
		return err
	}
	return j.svc.driver.Wait(ctx, handle)
}
