// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelgarden

import (
	"context"
	"log/slog"
	"strings"

	aiplatformpbv1 "cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/google/uuid"

	"github.com/go-a2a/aiplatform-go/internal/clientfactory"
	"github.com/go-a2a/aiplatform-go/resource"
	"github.com/go-a2a/aiplatform-go/resourcename"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

const (
	gcsScheme = "gs://"
	bqScheme  = "bq://"
)

// BatchPredictOptions configures [OpenModel.BatchPredict].
type BatchPredictOptions struct {
	// Input is a JSONL file on Cloud Storage ("gs://...") or a BigQuery
	// table ("bq://project.dataset.table").
	Input string

	// Output is a Cloud Storage prefix or a BigQuery dataset. It defaults to
	// a timestamped prefix in the staging bucket.
	Output string

	DisplayName string

	MachineType          string
	AcceleratorType      string
	AcceleratorCount     int32
	StartingReplicaCount int32
	MaxReplicaCount      int32

	Labels        map[string]string
	EncryptionKey string
}

// BatchPredictionJob is a submitted batch prediction job.
type BatchPredictionJob struct {
	resource.Base[*aiplatformpbv1.BatchPredictionJob]
}

// BatchPredict submits a batch prediction job running the model over Input.
// It returns once the job is created.
func (m *OpenModel) BatchPredict(ctx context.Context, opts BatchPredictOptions) (*BatchPredictionJob, error) {
	const op = "BatchPredictionJob.Create"

	input, err := batchInput(op, opts.Input)
	if err != nil {
		return nil, err
	}
	outputURI := opts.Output
	if outputURI == "" {
		stager, err := m.svc.staging(ctx)
		if err != nil {
			return nil, err
		}
		base, err := stager.Resolve(ctx, m.svc.cfg.StagingBucket(), m.project, m.location)
		if err != nil {
			return nil, err
		}
		outputURI = stager.TimestampedPrefix(base, "batch-predict")
	}
	output, err := batchOutput(op, outputURI)
	if err != nil {
		return nil, err
	}

	displayName := opts.DisplayName
	if displayName == "" {
		v := publisherModel.Parse(m.unversioned())
		displayName = v["model"] + "-batch-predict-" + uuid.NewString()
	}
	job := &aiplatformpbv1.BatchPredictionJob{
		DisplayName:    displayName,
		Model:          m.canonical,
		InputConfig:    input,
		OutputConfig:   output,
		Labels:         opts.Labels,
		EncryptionSpec: m.svc.cfg.EncryptionSpecV1(opts.EncryptionKey),
	}
	if opts.MachineType != "" {
		spec := &aiplatformpbv1.MachineSpec{
			MachineType:      opts.MachineType,
			AcceleratorCount: opts.AcceleratorCount,
		}
		if opts.AcceleratorType != "" {
			v, ok := aiplatformpbv1.AcceleratorType_value[strings.ToUpper(opts.AcceleratorType)]
			if !ok {
				return nil, vertexerr.InvalidArgument(op, "unknown accelerator type %q", opts.AcceleratorType)
			}
			spec.AcceleratorType = aiplatformpbv1.AcceleratorType(v)
		}
		starting := max(opts.StartingReplicaCount, 1)
		job.DedicatedResources = &aiplatformpbv1.BatchDedicatedResources{
			MachineSpec:          spec,
			StartingReplicaCount: starting,
			MaxReplicaCount:      max(opts.MaxReplicaCount, starting),
		}
	}

	parent := resourcename.Location.Format(m.project, m.location)
	m.svc.logger.InfoContext(ctx, "Creating batch prediction job",
		slog.String("parent", parent),
		slog.String("model", m.canonical),
		slog.String("input", opts.Input),
		slog.String("output", outputURI),
	)
	created, err := m.svc.api.CreateBatchPredictionJob(ctx, &aiplatformpbv1.CreateBatchPredictionJobRequest{
		Parent:             parent,
		BatchPredictionJob: job,
	})
	if err != nil {
		return nil, vertexerr.FromRPC(op, parent, err)
	}

	j := &BatchPredictionJob{}
	j.Init(created.GetName(), created, string(clientfactory.V1))
	return j, nil
}

func batchInput(op, uri string) (*aiplatformpbv1.BatchPredictionJob_InputConfig, error) {
	switch {
	case strings.HasPrefix(uri, gcsScheme):
		return &aiplatformpbv1.BatchPredictionJob_InputConfig{
			InstancesFormat: "jsonl",
			Source: &aiplatformpbv1.BatchPredictionJob_InputConfig_GcsSource{
				GcsSource: &aiplatformpbv1.GcsSource{Uris: []string{uri}},
			},
		}, nil
	case strings.HasPrefix(uri, bqScheme):
		return &aiplatformpbv1.BatchPredictionJob_InputConfig{
			InstancesFormat: "bigquery",
			Source: &aiplatformpbv1.BatchPredictionJob_InputConfig_BigquerySource{
				BigquerySource: &aiplatformpbv1.BigQuerySource{InputUri: uri},
			},
		}, nil
	default:
		return nil, vertexerr.InvalidArgument(op, "input %q is neither a gs:// nor a bq:// URI", uri)
	}
}

func batchOutput(op, uri string) (*aiplatformpbv1.BatchPredictionJob_OutputConfig, error) {
	switch {
	case strings.HasPrefix(uri, gcsScheme):
		return &aiplatformpbv1.BatchPredictionJob_OutputConfig{
			PredictionsFormat: "jsonl",
			Destination: &aiplatformpbv1.BatchPredictionJob_OutputConfig_GcsDestination{
				GcsDestination: &aiplatformpbv1.GcsDestination{OutputUriPrefix: uri},
			},
		}, nil
	case strings.HasPrefix(uri, bqScheme):
		return &aiplatformpbv1.BatchPredictionJob_OutputConfig{
			PredictionsFormat: "bigquery",
			Destination: &aiplatformpbv1.BatchPredictionJob_OutputConfig_BigqueryDestination{
				BigqueryDestination: &aiplatformpbv1.BigQueryDestination{OutputUri: uri},
			},
		}, nil
	default:
		return nil, vertexerr.InvalidArgument(op, "output %q is neither a gs:// nor a bq:// URI", uri)
	}
}
