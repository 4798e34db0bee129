// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package modelgarden

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"google.golang.org/grpc/codes"

	"github.com/go-a2a/aiplatform-go/internal/pool"
	"github.com/go-a2a/aiplatform-go/internal/xmaps"
	"github.com/go-a2a/aiplatform-go/lro"
	"github.com/go-a2a/aiplatform-go/resourcename"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// ReservationAffinity selects the Compute Engine reservations a deployment may consume.
type ReservationAffinity struct {
	// Type is NO_RESERVATION, ANY_RESERVATION or SPECIFIC_RESERVATION.
	Type   string
	Key    string
	Values []string
}

// DeployOptions configures [OpenModel.Deploy]. Zero fields use the verified
// configuration of the model.
type DeployOptions struct {
	AcceptEULA             bool
	HuggingFaceAccessToken string

	MachineType      string
	AcceleratorType  string
	AcceleratorCount int32
	MinReplicaCount  int32
	MaxReplicaCount  int32
	Spot             bool
	Reservation      *ReservationAffinity

	EndpointDisplayName string
	ModelDisplayName    string
	DedicatedEndpoint   bool
	FastTryout          bool

	// ContainerSpec replaces the serving container. It cannot be combined
	// with the individual container fields below.
	ContainerSpec *aiplatformpb.ModelContainerSpec

	ServingContainerImageURI string
	ContainerCommand         []string
	ContainerArgs            []string
	ContainerEnv             map[string]string
	ContainerPorts           []int32
	PredictRoute             string
	HealthRoute              string

	// Timeout bounds the wait for the deployment, [lro.DefaultHeavyTimeout] by default.
	Timeout time.Duration
}

func (o *DeployOptions) hasContainerOverride() bool {
	return o.ServingContainerImageURI != "" ||
		len(o.ContainerCommand) > 0 ||
		len(o.ContainerArgs) > 0 ||
		len(o.ContainerEnv) > 0 ||
		len(o.ContainerPorts) > 0 ||
		o.PredictRoute != "" ||
		o.HealthRoute != ""
}

// containerSpec returns the serving container of o, or nil to keep the default.
func (o *DeployOptions) containerSpec(op string) (*aiplatformpb.ModelContainerSpec, error) {
	if o.ContainerSpec != nil {
		if o.hasContainerOverride() {
			return nil, vertexerr.InvalidArgument(op, "a container spec cannot be combined with individual container overrides")
		}
		return o.ContainerSpec, nil
	}
	if !o.hasContainerOverride() {
		return nil, nil
	}
	if o.ServingContainerImageURI == "" {
		return nil, vertexerr.InvalidArgument(op, "container overrides require a serving container image")
	}
	spec := &aiplatformpb.ModelContainerSpec{
		ImageUri:     o.ServingContainerImageURI,
		Command:      o.ContainerCommand,
		Args:         o.ContainerArgs,
		PredictRoute: o.PredictRoute,
		HealthRoute:  o.HealthRoute,
	}
	for name, value := range xmaps.Sorted(o.ContainerEnv) {
		spec.Env = append(spec.Env, &aiplatformpb.EnvVar{Name: name, Value: value})
	}
	for _, p := range o.ContainerPorts {
		spec.Ports = append(spec.Ports, &aiplatformpb.Port{ContainerPort: p})
	}
	return spec, nil
}

// resources returns the dedicated resources of o, or nil to keep the default.
func (o *DeployOptions) resources(op string) (*aiplatformpb.DedicatedResources, error) {
	if o.MachineType == "" && o.AcceleratorType == "" && o.AcceleratorCount == 0 &&
		o.MinReplicaCount == 0 && o.MaxReplicaCount == 0 && !o.Spot && o.Reservation == nil {
		return nil, nil
	}
	spec := &aiplatformpb.MachineSpec{
		MachineType:      o.MachineType,
		AcceleratorCount: o.AcceleratorCount,
	}
	if o.AcceleratorType != "" {
		v, ok := aiplatformpb.AcceleratorType_value[strings.ToUpper(o.AcceleratorType)]
		if !ok {
			return nil, vertexerr.InvalidArgument(op, "unknown accelerator type %q", o.AcceleratorType)
		}
		spec.AcceleratorType = aiplatformpb.AcceleratorType(v)
	}
	if r := o.Reservation; r != nil {
		v, ok := aiplatformpb.ReservationAffinity_Type_value[strings.ToUpper(r.Type)]
		if !ok {
			return nil, vertexerr.InvalidArgument(op, "unknown reservation affinity type %q", r.Type)
		}
		spec.ReservationAffinity = &aiplatformpb.ReservationAffinity{
			ReservationAffinityType: aiplatformpb.ReservationAffinity_Type(v),
			Key:                     r.Key,
			Values:                  r.Values,
		}
	}
	minReplicas := cmp.Or(o.MinReplicaCount, 1)
	return &aiplatformpb.DedicatedResources{
		MachineSpec:     spec,
		MinReplicaCount: minReplicas,
		MaxReplicaCount: max(o.MaxReplicaCount, minReplicas),
		Spot:            o.Spot,
	}, nil
}

// Deployment is the result of [OpenModel.Deploy].
type Deployment struct {
	Endpoint       string
	Model          string
	PublisherModel string
}

// Deploy deploys the model to a new endpoint and waits for the operation.
//
// A gated model whose license the project has not accepted yields a
// [vertexerr.ErrEulaNotAccepted] error.
func (m *OpenModel) Deploy(ctx context.Context, opts DeployOptions) (*Deployment, error) {
	const op = "PublisherModel.Deploy"

	container, err := opts.containerSpec(op)
	if err != nil {
		return nil, err
	}
	resources, err := opts.resources(op)
	if err != nil {
		return nil, err
	}

	destination := resourcename.Location.Format(m.project, m.location)
	req := &aiplatformpb.DeployRequest{
		Destination: destination,
		ModelConfig: &aiplatformpb.DeployRequest_ModelConfig{
			AcceptEula:             opts.AcceptEULA,
			HuggingFaceAccessToken: opts.HuggingFaceAccessToken,
			ModelDisplayName:       opts.ModelDisplayName,
			ContainerSpec:          container,
		},
		EndpointConfig: &aiplatformpb.DeployRequest_EndpointConfig{
			EndpointDisplayName:      opts.EndpointDisplayName,
			DedicatedEndpointEnabled: opts.DedicatedEndpoint,
		},
		DeployConfig: &aiplatformpb.DeployRequest_DeployConfig{
			DedicatedResources: resources,
			FastTryoutEnabled:  opts.FastTryout,
		},
	}
	if m.thirdParty {
		req.Artifacts = &aiplatformpb.DeployRequest_HuggingFaceModelId{HuggingFaceModelId: m.modelName}
	} else {
		req.Artifacts = &aiplatformpb.DeployRequest_PublisherModelName{PublisherModelName: m.canonical}
	}

	m.svc.logger.InfoContext(ctx, "Deploying model",
		slog.String("model", m.canonical),
		slog.String("destination", destination),
		slog.Bool("third_party", m.thirdParty),
	)
	handle, err := m.svc.driver.Submit(ctx, op, m.canonical, func(ctx context.Context) (string, error) {
		return m.svc.api.Deploy(ctx, req)
	})
	if err != nil {
		return nil, eulaError(err)
	}
	resp := new(aiplatformpb.DeployResponse)
	if err := m.svc.driver.Result(ctx, handle, resp, lro.WithTimeout(cmp.Or(opts.Timeout, lro.DefaultHeavyTimeout))); err != nil {
		return nil, eulaError(err)
	}
	m.svc.logger.InfoContext(ctx, "Model deployed",
		slog.String("endpoint", resp.GetEndpoint()),
		slog.String("model", resp.GetModel()),
	)
	return &Deployment{
		Endpoint:       resp.GetEndpoint(),
		Model:          resp.GetModel(),
		PublisherModel: resp.GetPublisherModel(),
	}, nil
}

// eulaError narrows a permission error about the model license.
func eulaError(err error) error {
	var e *vertexerr.Error
	if !errors.As(err, &e) {
		return err
	}
	denied := e.Kind == vertexerr.KindPermissionDenied || (e.Kind == vertexerr.KindOperationFailed && e.Code == codes.PermissionDenied)
	if denied && strings.Contains(strings.ToLower(e.Detail), "eula") {
		e.Kind = vertexerr.KindEulaNotAccepted
	}
	return err
}

// DeployOption is a verified (container, machine) combination of a model.
type DeployOption struct {
	Title            string
	ContainerImage   string
	MachineType      string
	AcceleratorType  string
	AcceleratorCount int32
	Raw              *aiplatformpb.PublisherModel_CallToAction_Deploy
}

// DeployOptionList lists the verified configurations of a model.
type DeployOptionList []DeployOption

// Concise renders the options as a short numbered listing.
func (l DeployOptionList) Concise() string {
	sb := pool.Buffer.Get()
	defer pool.Buffer.Put(sb)
	for i, o := range l {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(sb, "[Option %d", i+1)
		if o.Title != "" {
			fmt.Fprintf(sb, ": %s", o.Title)
		}
		sb.WriteString("]\n")
		fmt.Fprintf(sb, "  serving_container_image_uri=%q,\n", o.ContainerImage)
		fmt.Fprintf(sb, "  machine_type=%q,\n", o.MachineType)
		if o.AcceleratorType != "" {
			fmt.Fprintf(sb, "  accelerator_type=%q,\n", o.AcceleratorType)
			fmt.Fprintf(sb, "  accelerator_count=%d,\n", o.AcceleratorCount)
		}
	}
	return sb.String()
}

// ListDeployOptions returns the verified deployment configurations of the model.
func (m *OpenModel) ListDeployOptions(ctx context.Context) (DeployOptionList, error) {
	const op = "PublisherModel.ListDeployOptions"
	pm, err := m.Get(ctx)
	if err != nil {
		return nil, err
	}
	deploys := pm.GetSupportedActions().GetMultiDeployVertex().GetMultiDeployVertex()
	if len(deploys) == 0 {
		return nil, vertexerr.WithResource(vertexerr.New(vertexerr.KindNotFound, op, "model has no verified deployment configuration"), m.canonical)
	}

	out := make(DeployOptionList, 0, len(deploys))
	for _, d := range deploys {
		ms := d.GetDedicatedResources().GetMachineSpec()
		o := DeployOption{
			Title:            d.GetTitle(),
			ContainerImage:   d.GetContainerSpec().GetImageUri(),
			MachineType:      ms.GetMachineType(),
			AcceleratorCount: ms.GetAcceleratorCount(),
			Raw:              d,
		}
		if t := ms.GetAcceleratorType(); t != aiplatformpb.AcceleratorType_ACCELERATOR_TYPE_UNSPECIFIED {
			o.AcceleratorType = t.String()
		}
		out = append(out, o)
	}
	return out, nil
}
