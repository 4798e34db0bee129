// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/go-a2a/aiplatform-go/initializer"
	"github.com/go-a2a/aiplatform-go/modelgarden"
	"github.com/go-a2a/aiplatform-go/modelmonitoring"
	"github.com/go-a2a/aiplatform-go/pkg/logging"
)

// app holds the global flags and the service options shared by every command.
type app struct {
	project   string
	location  string
	transport string
	logLevel  string

	// Extra service options, set by tests to swap in fakes.
	gardenOpts     []modelgarden.Option
	monitoringOpts []modelmonitoring.Option
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "aiplatformctl",
		Short: "Inspect Vertex AI Model Garden models and model monitors",
		Long: heredoc.Doc(`
			aiplatformctl lists the open models of Model Garden, shows their
			verified deployment configurations and inspects model monitors,
			their schedules and the alerts they raised.

			The project and location default to the environment, as resolved by
			Application Default Credentials and GOOGLE_CLOUD_REGION.
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.project, "project", "", "Google Cloud project id or number")
	flags.StringVar(&a.location, "location", "", "Vertex AI location, e.g. us-central1")
	flags.StringVar(&a.transport, "transport", "", "wire transport: grpc or rest")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(
		newModelsCmd(a),
		newMonitorsCmd(a),
		newSchedulesCmd(a),
		newAlertsCmd(a),
	)
	return root
}

// config builds the SDK configuration from the global flags.
func (a *app) config(cmd *cobra.Command) (*initializer.Config, error) {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logging.ParseLevel(a.logLevel),
	}))
	opts := []initializer.Option{initializer.WithLogger(logger)}
	if a.project != "" {
		opts = append(opts, initializer.WithProject(a.project))
	}
	if a.location != "" {
		opts = append(opts, initializer.WithLocation(a.location))
	}
	if a.transport != "" {
		opts = append(opts, initializer.WithTransport(initializer.Transport(a.transport)))
	}

	cfg := initializer.New()
	if err := cfg.Init(opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) gardenService(ctx context.Context, cmd *cobra.Command) (*modelgarden.Service, error) {
	cfg, err := a.config(cmd)
	if err != nil {
		return nil, err
	}
	return modelgarden.NewService(ctx, cfg, a.gardenOpts...)
}

func (a *app) monitoringService(ctx context.Context, cmd *cobra.Command) (*modelmonitoring.Service, error) {
	cfg, err := a.config(cmd)
	if err != nil {
		return nil, err
	}
	return modelmonitoring.NewService(ctx, cfg, a.monitoringOpts...)
}
