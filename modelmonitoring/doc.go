// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package modelmonitoring manages model monitors, the monitoring jobs they run
// and the schedules that run them periodically.
//
// A [ModelMonitor] holds the schema, baseline dataset and default objective of
// one model version. Jobs and schedules created from it inherit those defaults
// unless the [JobSpec] overrides them:
//
//	svc, err := modelmonitoring.NewService(ctx, nil)
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	m, err := svc.GetModelMonitor(ctx, "churn-monitor")
//	if err != nil {
//		return err
//	}
//	sched, err := m.CreateSchedule(ctx, modelmonitoring.ScheduleOptions{
//		Cron: "TZ=America/New_York 0 6 * * *",
//		Job:  modelmonitoring.JobSpec{TargetDataset: target},
//	})
//
// Creating a monitor and running a job return immediately when their options
// ask for it; methods of the returned value then wait for the creation first.
// A job that succeeds with failed objectives is logged at warn and is not an
// error.
package modelmonitoring
