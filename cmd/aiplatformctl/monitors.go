// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"

	"github.com/go-a2a/aiplatform-go/internal/xiter"
	"github.com/go-a2a/aiplatform-go/modelmonitoring"
)

func newMonitorsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "monitors",
		Aliases: []string{"monitor"},
		Short:   "Inspect model monitors",
	}

	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Print a model monitor",
		Long: heredoc.Doc(`
			Print a model monitor as JSON.

			NAME is a full model monitor name or an id in the configured
			project and location.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.monitoringService(ctx, cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			m, err := svc.GetModelMonitor(ctx, args[0])
			if err != nil {
				return err
			}
			v, err := protoValue(m.Peek())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), v)
		},
	}

	var (
		listOpts modelmonitoring.ListOptions
		limit    int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List the model monitors of the location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.monitoringService(ctx, cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			monitors := xiter.Map(svc.ListModelMonitors(ctx, listOpts), func(m *modelmonitoring.ModelMonitor) (jsontext.Value, error) {
				return protoValue(m.Peek())
			})
			out, err := xiter.Collect(xiter.Take(monitors, limit))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	list.Flags().StringVar(&listOpts.Filter, "filter", "", "server-side list filter")
	list.Flags().Int32Var(&listOpts.PageSize, "page-size", 0, "monitors fetched per request")
	list.Flags().IntVar(&limit, "limit", 0, "stop after this many monitors; 0 lists all")

	cmd.AddCommand(get, list)
	return cmd
}

func newSchedulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedules",
		Aliases: []string{"schedule"},
		Short:   "Pause and resume monitoring schedules",
	}

	// run fetches the schedule named by args[0], applies fn and prints the result.
	run := func(fn func(*cobra.Command, *modelmonitoring.Schedule) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.monitoringService(ctx, cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			s, err := svc.GetSchedule(ctx, args[0])
			if err != nil {
				return err
			}
			if err := fn(cmd, s); err != nil {
				return err
			}
			v, err := protoValue(s.Peek())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), v)
		}
	}

	pause := &cobra.Command{
		Use:   "pause NAME",
		Short: "Pause a schedule; pausing a paused schedule does nothing",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, s *modelmonitoring.Schedule) error {
			return s.Pause(cmd.Context())
		}),
	}

	var catchUp bool
	resume := &cobra.Command{
		Use:   "resume NAME",
		Short: "Resume a paused schedule",
		Example: heredoc.Doc(`
			$ aiplatformctl schedules resume 1234567890 --catch-up
		`),
		Args: cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, s *modelmonitoring.Schedule) error {
			return s.Resume(cmd.Context(), catchUp)
		}),
	}
	resume.Flags().BoolVar(&catchUp, "catch-up", false, "enqueue the runs missed while paused")

	cmd.AddCommand(pause, resume)
	return cmd
}

// alertsView is the JSON form of a [modelmonitoring.AlertsPage].
type alertsView struct {
	TotalCount    int64            `json:"total_count"`
	Alerts        []jsontext.Value `json:"alerts"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

func newAlertsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Search the alerts raised by model monitors",
	}

	var q modelmonitoring.AlertsQuery
	search := &cobra.Command{
		Use:   "search MONITOR",
		Short: "Print one page of the alerts of a monitor",
		Example: heredoc.Doc(`
			$ aiplatformctl alerts search churn-monitor --page-size 20
			$ aiplatformctl alerts search churn-monitor --job 42 --stats-name l_infinity
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.monitoringService(ctx, cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			m, err := svc.GetModelMonitor(ctx, args[0])
			if err != nil {
				return err
			}
			page, err := m.SearchAlerts(ctx, q)
			if err != nil {
				return err
			}
			alerts, err := protoValues(page.Alerts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), alertsView{
				TotalCount:    page.TotalCount,
				Alerts:        alerts,
				NextPageToken: page.NextPageToken,
			})
		},
	}
	flags := search.Flags()
	flags.StringVar(&q.Job, "job", "", "only alerts of this monitoring job, by name or id")
	flags.StringVar(&q.StatsName, "stats-name", "", "only alerts of this statistic")
	flags.StringVar(&q.ObjectiveType, "objective-type", "", "only alerts of this objective")
	flags.Int32Var(&q.PageSize, "page-size", 0, "alerts per page")
	flags.StringVar(&q.PageToken, "page-token", "", "token of the page to fetch")

	cmd.AddCommand(search)
	return cmd
}
