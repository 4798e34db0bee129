// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package resourcename

// Patterns of the resource types this module addresses.
var (
	Project   = MustPattern("projects/{project}")
	Location  = MustPattern("projects/{project}/locations/{location}")
	Operation = MustPattern("projects/{project}/locations/{location}/operations/{operation}")

	Tensorboard        = MustPattern("projects/{project}/locations/{location}/tensorboards/{tensorboard}")
	Endpoint           = MustPattern("projects/{project}/locations/{location}/endpoints/{endpoint}")
	Model              = MustPattern("projects/{project}/locations/{location}/models/{model}")
	ModelMonitor       = MustPattern("projects/{project}/locations/{location}/modelMonitors/{model_monitor}")
	ModelMonitoringJob = MustPattern("projects/{project}/locations/{location}/modelMonitors/{model_monitor}/modelMonitoringJobs/{model_monitoring_job}")
	Schedule           = MustPattern("projects/{project}/locations/{location}/schedules/{schedule}")
	BatchPredictionJob = MustPattern("projects/{project}/locations/{location}/batchPredictionJobs/{batch_prediction_job}")

	// PublisherModel names a catalog model; the model segment may carry "@{version}".
	PublisherModel = MustPattern("publishers/{publisher}/models/{model}")
)
