// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelmonitoring

import (
	"cmp"
	"context"
	"iter"
	"log/slog"
	"strings"

	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"

	"github.com/go-a2a/aiplatform-go/future"
	"github.com/go-a2a/aiplatform-go/internal/clientfactory"
	"github.com/go-a2a/aiplatform-go/resource"
	"github.com/go-a2a/aiplatform-go/resourcename"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// ModelMonitor monitors one version of a model.
type ModelMonitor struct {
	resource.Base[*aiplatformpb.ModelMonitor]

	svc *Service
}

// Defaults are the objective and destinations a monitor applies to the jobs
// and schedules created from it.
type Defaults struct {
	TabularObjective *aiplatformpb.ModelMonitoringObjectiveSpec_TabularObjective
	OutputSpec       *aiplatformpb.ModelMonitoringOutputSpec
	NotificationSpec *aiplatformpb.ModelMonitoringNotificationSpec
	ExplanationSpec  *aiplatformpb.ExplanationSpec
}

// CreateOptions configures [Service.CreateModelMonitor].
type CreateOptions struct {
	// ModelName is the monitored model, as a full name or an id, optionally
	// followed by "@{version}".
	ModelName      string
	ModelVersionID string

	DisplayName string
	MonitorID   string

	// TrainingDataset is the default baseline of jobs and schedules.
	TrainingDataset *aiplatformpb.ModelMonitoringInput

	// Schema may be omitted when the model can provide one to the server.
	Schema *Schema

	Defaults

	EncryptionKey string

	// Project and Location override the configured ones.
	Project  string
	Location string

	// Async returns immediately; the creation completes in the background.
	Async bool
}

// CreateModelMonitor creates a monitor and waits for the operation, unless
// opts.Async is set.
func (s *Service) CreateModelMonitor(ctx context.Context, opts CreateOptions) (*ModelMonitor, error) {
	op := monitorDescriptor.Op("Create")

	if opts.ModelName == "" {
		return nil, vertexerr.InvalidArgument(op, "a model name is required")
	}
	if opts.Schema != nil {
		if err := opts.Schema.Validate(); err != nil {
			return nil, err
		}
	}
	parent, err := resource.Parent(ctx, s.cfg, opts.Project, opts.Location)
	if err != nil {
		return nil, err
	}
	model, version, err := s.modelName(parent, opts.ModelName, opts.ModelVersionID)
	if err != nil {
		return nil, err
	}

	pb := &aiplatformpb.ModelMonitor{
		DisplayName: opts.DisplayName,
		ModelMonitoringTarget: &aiplatformpb.ModelMonitor_ModelMonitoringTarget{
			Source: &aiplatformpb.ModelMonitor_ModelMonitoringTarget_VertexModel{
				VertexModel: &aiplatformpb.ModelMonitor_ModelMonitoringTarget_VertexModelSource{
					Model:          model,
					ModelVersionId: version,
				},
			},
		},
		TrainingDataset:       opts.TrainingDataset,
		ModelMonitoringSchema: opts.Schema.Proto(),
		NotificationSpec:      opts.NotificationSpec,
		OutputSpec:            opts.OutputSpec,
		ExplanationSpec:       opts.ExplanationSpec,
		EncryptionSpec:        s.cfg.EncryptionSpec(opts.EncryptionKey),
	}
	if opts.TabularObjective != nil {
		pb.DefaultObjective = &aiplatformpb.ModelMonitor_TabularObjective{TabularObjective: opts.TabularObjective}
	}
	req := &aiplatformpb.CreateModelMonitorRequest{
		Parent:         parent,
		ModelMonitor:   pb,
		ModelMonitorId: opts.MonitorID,
	}

	m := &ModelMonitor{svc: s}
	s.managed(&m.Manager)
	_, err = future.Construct(ctx, &m.Manager, future.Options{Sync: !opts.Async, Name: op}, func(ctx context.Context) error {
		s.logger.InfoContext(ctx, "Creating model monitor",
			slog.String("parent", parent),
			slog.String("model", model),
		)
		handle, err := s.driver.Submit(ctx, op, parent, func(ctx context.Context) (string, error) {
			return s.api.CreateModelMonitor(ctx, req)
		})
		if err != nil {
			return err
		}
		out := new(aiplatformpb.ModelMonitor)
		if err := s.driver.Result(ctx, handle, out); err != nil {
			return err
		}
		m.Init(out.GetName(), out, string(clientfactory.V1Beta1))
		s.logger.InfoContext(ctx, "Model monitor created", slog.String("resource_name", out.GetName()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// modelName resolves a model reference against parent. A version given after
// "@" wins over version.
func (s *Service) modelName(parent, name, version string) (string, string, error) {
	if base, v, ok := strings.Cut(name, "@"); ok {
		name, version = base, v
	}
	project, location, _ := resourcename.ProjectAndLocation(parent)
	full, err := resourcename.FullName(name, resourcename.Model, resourcename.Ambient{Project: project, Location: location})
	if err != nil {
		return "", "", err
	}
	return full, version, nil
}

// Schema returns the schema of the monitor.
func (m *ModelMonitor) Schema(ctx context.Context) (*Schema, error) {
	pb, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return SchemaFromProto(pb.GetModelMonitoringSchema()), nil
}

// Defaults returns the defaults applied to jobs and schedules of the monitor.
func (m *ModelMonitor) Defaults(ctx context.Context) (Defaults, error) {
	pb, err := m.Snapshot(ctx)
	if err != nil {
		return Defaults{}, err
	}
	return Defaults{
		TabularObjective: pb.GetTabularObjective(),
		OutputSpec:       pb.GetOutputSpec(),
		NotificationSpec: pb.GetNotificationSpec(),
		ExplanationSpec:  pb.GetExplanationSpec(),
	}, nil
}

// UpdateOptions lists the fields to change. Nil fields are left untouched on the server.
type UpdateOptions struct {
	DisplayName *string

	// Schema replaces the whole schema.
	Schema          *Schema
	TrainingDataset *aiplatformpb.ModelMonitoringInput

	TabularObjective *aiplatformpb.ModelMonitoringObjectiveSpec_TabularObjective
	OutputSpec       *aiplatformpb.ModelMonitoringOutputSpec
	NotificationSpec *aiplatformpb.ModelMonitoringNotificationSpec
	ExplanationSpec  *aiplatformpb.ExplanationSpec

	Async bool
}

// Update changes the supplied fields of the monitor.
func (m *ModelMonitor) Update(ctx context.Context, opts UpdateOptions) error {
	op := monitorDescriptor.Op("Update")
	if opts.Schema != nil {
		if err := opts.Schema.Validate(); err != nil {
			return err
		}
	}

	mask := resource.BuildMask(
		resource.Set("display_name", opts.DisplayName),
		resource.Set("model_monitoring_schema", opts.Schema),
		resource.Set("training_dataset", opts.TrainingDataset),
		resource.Set("tabular_objective", opts.TabularObjective),
		resource.Set("output_spec", opts.OutputSpec),
		resource.Set("notification_spec", opts.NotificationSpec),
		resource.Set("explanation_spec", opts.ExplanationSpec),
	)
	if len(mask.GetPaths()) == 0 {
		return nil
	}

	_, err := future.Run(ctx, &m.Manager, future.Options{Sync: !opts.Async, Name: op}, func(ctx context.Context) error {
		name := m.ResourceName()
		pb := &aiplatformpb.ModelMonitor{
			Name:                  name,
			DisplayName:           deref(opts.DisplayName),
			ModelMonitoringSchema: opts.Schema.Proto(),
			TrainingDataset:       opts.TrainingDataset,
			OutputSpec:            opts.OutputSpec,
			NotificationSpec:      opts.NotificationSpec,
			ExplanationSpec:       opts.ExplanationSpec,
		}
		if opts.TabularObjective != nil {
			pb.DefaultObjective = &aiplatformpb.ModelMonitor_TabularObjective{TabularObjective: opts.TabularObjective}
		}
		req := &aiplatformpb.UpdateModelMonitorRequest{ModelMonitor: pb, UpdateMask: mask}

		m.svc.logger.InfoContext(ctx, "Updating model monitor",
			slog.String("resource_name", name),
			slog.Any("update_mask", mask.GetPaths()),
		)
		handle, err := m.svc.driver.Submit(ctx, op, name, func(ctx context.Context) (string, error) {
			return m.svc.api.UpdateModelMonitor(ctx, req)
		})
		if err != nil {
			return err
		}
		out := new(aiplatformpb.ModelMonitor)
		if err := m.svc.driver.Result(ctx, handle, out); err != nil {
			return err
		}
		m.SetSnapshot(out)
		return nil
	})
	return err
}

// Delete deletes the monitor. Without force the server rejects the deletion of
// a monitor that still has schedules; with force it deletes them first.
func (m *ModelMonitor) Delete(ctx context.Context, force bool) error {
	op := monitorDescriptor.Op("Delete")
	if err := m.Wait(ctx); err != nil {
		return err
	}
	name := m.ResourceName()
	m.svc.logger.InfoContext(ctx, "Deleting model monitor",
		slog.String("resource_name", name),
		slog.Bool("force", force),
	)
	handle, err := m.svc.driver.Submit(ctx, op, name, func(ctx context.Context) (string, error) {
		return m.svc.api.DeleteModelMonitor(ctx, &aiplatformpb.DeleteModelMonitorRequest{Name: name, Force: force})
	})
	if err != nil {
		return err
	}
	return m.svc.driver.Wait(ctx, handle)
}

// ListJobs iterates the jobs of the monitor.
func (m *ModelMonitor) ListJobs(ctx context.Context, opts ListOptions) iter.Seq2[*Job, error] {
	return func(yield func(*Job, error) bool) {
		if err := m.Wait(ctx); err != nil {
			yield(nil, err)
			return
		}
		parent := m.ResourceName()
		pager := resource.NewPager(func(ctx context.Context, token string) (*resource.Page[*aiplatformpb.ModelMonitoringJob], error) {
			page, err := m.svc.api.ListModelMonitoringJobs(ctx, &aiplatformpb.ListModelMonitoringJobsRequest{
				Parent:    parent,
				Filter:    opts.Filter,
				PageSize:  opts.PageSize,
				PageToken: token,
			})
			return page, vertexerr.FromRPC(jobDescriptor.Op("List"), parent, err)
		})
		for pb, err := range pager.All(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(m.svc.newJob(pb), nil) {
				return
			}
		}
	}
}

// ListSchedules iterates the schedules whose job requests target the monitor.
func (m *ModelMonitor) ListSchedules(ctx context.Context, opts ListOptions) iter.Seq2[*Schedule, error] {
	return func(yield func(*Schedule, error) bool) {
		if err := m.Wait(ctx); err != nil {
			yield(nil, err)
			return
		}
		name := m.ResourceName()
		parent := resourcename.Location.Format(m.Project(), m.Location())
		for pb, err := range m.svc.schedulePager(parent, opts).All(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			if pb.GetCreateModelMonitoringJobRequest().GetParent() != name {
				continue
			}
			if !yield(m.svc.newSchedule(pb), nil) {
				return
			}
		}
	}
}

// JobSpec describes a monitoring run. Unset fields inherit the monitor
// defaults; the baseline dataset inherits the training dataset.
type JobSpec struct {
	DisplayName string

	BaselineDataset *aiplatformpb.ModelMonitoringInput
	TargetDataset   *aiplatformpb.ModelMonitoringInput

	Defaults
}

// jobProto merges spec with the defaults of the monitor.
func (m *ModelMonitor) jobProto(spec JobSpec) *aiplatformpb.ModelMonitoringJob {
	snap := m.Peek()
	objective := &aiplatformpb.ModelMonitoringObjectiveSpec{
		ExplanationSpec: cmp.Or(spec.ExplanationSpec, snap.GetExplanationSpec()),
		BaselineDataset: cmp.Or(spec.BaselineDataset, snap.GetTrainingDataset()),
		TargetDataset:   spec.TargetDataset,
	}
	if tab := cmp.Or(spec.TabularObjective, snap.GetTabularObjective()); tab != nil {
		objective.Objective = &aiplatformpb.ModelMonitoringObjectiveSpec_TabularObjective_{TabularObjective: tab}
	}
	return &aiplatformpb.ModelMonitoringJob{
		DisplayName: spec.DisplayName,
		ModelMonitoringSpec: &aiplatformpb.ModelMonitoringSpec{
			ObjectiveSpec:    objective,
			NotificationSpec: cmp.Or(spec.NotificationSpec, snap.GetNotificationSpec()),
			OutputSpec:       cmp.Or(spec.OutputSpec, snap.GetOutputSpec()),
		},
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
