// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelmonitoring

import (
	"context"
	"iter"
	"time"

	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"google.golang.org/genproto/googleapis/type/interval"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/go-a2a/aiplatform-go/resource"
	"github.com/go-a2a/aiplatform-go/resourcename"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// Interval returns the time interval [start, end). A zero bound is open.
func Interval(start, end time.Time) *interval.Interval {
	iv := &interval.Interval{}
	if !start.IsZero() {
		iv.StartTime = timestamppb.New(start)
	}
	if !end.IsZero() {
		iv.EndTime = timestamppb.New(end)
	}
	return iv
}

// MetricsQuery selects monitoring statistics. Filters combine conjunctively.
type MetricsQuery struct {
	StatsName     string
	ObjectiveType string

	// Job and Schedule accept a full resource name or an id.
	Job      string
	Schedule string

	Algorithm    string
	TimeInterval *interval.Interval

	PageSize  int32
	PageToken string
}

// SearchMetrics returns one page of the statistics produced for the monitor.
func (m *ModelMonitor) SearchMetrics(ctx context.Context, q MetricsQuery) (*resource.Page[*aiplatformpb.ModelMonitoringStats], error) {
	if err := m.Wait(ctx); err != nil {
		return nil, err
	}
	return m.metricsPager(q).NextPage(ctx, q.PageToken)
}

// AllMetrics iterates every statistic matching q, starting at q.PageToken.
func (m *ModelMonitor) AllMetrics(ctx context.Context, q MetricsQuery) iter.Seq2[*aiplatformpb.ModelMonitoringStats, error] {
	return func(yield func(*aiplatformpb.ModelMonitoringStats, error) bool) {
		if err := m.Wait(ctx); err != nil {
			yield(nil, err)
			return
		}
		for st, err := range m.metricsPager(q).StartAt(q.PageToken).All(ctx) {
			if !yield(st, err) || err != nil {
				return
			}
		}
	}
}

func (m *ModelMonitor) metricsPager(q MetricsQuery) *resource.Pager[*aiplatformpb.ModelMonitoringStats] {
	op := monitorDescriptor.Op("SearchMetrics")
	name := m.ResourceName()
	return resource.NewPager(func(ctx context.Context, token string) (*resource.Page[*aiplatformpb.ModelMonitoringStats], error) {
		job, err := m.jobRef(op, q.Job)
		if err != nil {
			return nil, err
		}
		schedule, err := m.scheduleRef(op, q.Schedule)
		if err != nil {
			return nil, err
		}
		resp, err := m.svc.api.SearchModelMonitoringStats(ctx, &aiplatformpb.SearchModelMonitoringStatsRequest{
			ModelMonitor: name,
			StatsFilter: &aiplatformpb.SearchModelMonitoringStatsFilter{
				Filter: &aiplatformpb.SearchModelMonitoringStatsFilter_TabularStatsFilter_{
					TabularStatsFilter: &aiplatformpb.SearchModelMonitoringStatsFilter_TabularStatsFilter{
						StatsName:               q.StatsName,
						ObjectiveType:           q.ObjectiveType,
						ModelMonitoringJob:      job,
						ModelMonitoringSchedule: schedule,
						Algorithm:               q.Algorithm,
					},
				},
			},
			TimeInterval: q.TimeInterval,
			PageSize:     q.PageSize,
			PageToken:    token,
		})
		if err != nil {
			return nil, vertexerr.FromRPC(op, name, err)
		}
		return &resource.Page[*aiplatformpb.ModelMonitoringStats]{
			Items:         resp.GetMonitoringStats(),
			NextPageToken: resp.GetNextPageToken(),
		}, nil
	})
}

// AlertsQuery selects alerts. Filters combine conjunctively.
type AlertsQuery struct {
	// Job accepts a full resource name or an id.
	Job string

	StatsName     string
	ObjectiveType string
	TimeInterval  *interval.Interval

	PageSize  int32
	PageToken string
}

// AlertsPage is one page of alerts.
type AlertsPage struct {
	// TotalCount counts every matching alert, not only those of this page.
	TotalCount    int64
	Alerts        []*aiplatformpb.ModelMonitoringAlert
	NextPageToken string
}

// SearchAlerts returns one page of the alerts raised for the monitor.
func (m *ModelMonitor) SearchAlerts(ctx context.Context, q AlertsQuery) (*AlertsPage, error) {
	op := monitorDescriptor.Op("SearchAlerts")
	if err := m.Wait(ctx); err != nil {
		return nil, err
	}
	name := m.ResourceName()
	job, err := m.jobRef(op, q.Job)
	if err != nil {
		return nil, err
	}
	resp, err := m.svc.api.SearchModelMonitoringAlerts(ctx, &aiplatformpb.SearchModelMonitoringAlertsRequest{
		ModelMonitor:       name,
		ModelMonitoringJob: job,
		AlertTimeInterval:  q.TimeInterval,
		StatsName:          q.StatsName,
		ObjectiveType:      q.ObjectiveType,
		PageSize:           q.PageSize,
		PageToken:          q.PageToken,
	})
	if err != nil {
		return nil, vertexerr.FromRPC(op, name, err)
	}
	return &AlertsPage{
		TotalCount:    resp.GetTotalNumberAlerts(),
		Alerts:        resp.GetModelMonitoringAlerts(),
		NextPageToken: resp.GetNextPageToken(),
	}, nil
}

// jobRef expands a job id into a job of the monitor.
func (m *ModelMonitor) jobRef(op, ref string) (string, error) {
	if ref == "" || jobDescriptor.Pattern.Match(ref) {
		return ref, nil
	}
	if !resourcename.IsBareID(ref) {
		return "", vertexerr.InvalidArgument(op, "%q is neither a job resource name nor a valid id", ref)
	}
	v := monitorDescriptor.Pattern.Parse(m.ResourceName())
	return jobDescriptor.Pattern.Format(v["project"], v["location"], v["model_monitor"], ref), nil
}

// scheduleRef expands a schedule id into a schedule of the monitor location.
func (m *ModelMonitor) scheduleRef(op, ref string) (string, error) {
	if ref == "" || scheduleDescriptor.Pattern.Match(ref) {
		return ref, nil
	}
	if !resourcename.IsBareID(ref) {
		return "", vertexerr.InvalidArgument(op, "%q is neither a schedule resource name nor a valid id", ref)
	}
	return scheduleDescriptor.Pattern.Format(m.Project(), m.Location(), ref), nil
}
