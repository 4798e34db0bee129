// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/go-a2a/aiplatform-go/internal/xiter"
	"github.com/go-a2a/aiplatform-go/modelgarden"
)

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Browse the open models of Model Garden",
	}
	cmd.AddCommand(newModelsListCmd(a), newModelsDeployOptionsCmd(a))
	return cmd
}

func newModelsListCmd(a *app) *cobra.Command {
	var (
		opts  modelgarden.ListDeployableOptions
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the models with a verified deployment configuration",
		Example: heredoc.Doc(`
			$ aiplatformctl models list --filter gemma
			$ aiplatformctl models list --third-party --filter llama
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.gardenService(ctx, cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			names, err := xiter.Collect(xiter.Take(svc.ListDeployable(ctx, opts), limit))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), names)
		},
	}
	cmd.Flags().BoolVar(&opts.ThirdParty, "third-party", false, "list Hugging Face models instead of native ones")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "case-insensitive substring of the model id or display name")
	cmd.Flags().Int32Var(&opts.PageSize, "page-size", 0, "models fetched per request")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many models; 0 lists all")
	return cmd
}

// deployOptionView is the JSON form of a [modelgarden.DeployOption].
type deployOptionView struct {
	Title            string `json:"title,omitempty"`
	ContainerImage   string `json:"serving_container_image_uri"`
	MachineType      string `json:"machine_type"`
	AcceleratorType  string `json:"accelerator_type,omitempty"`
	AcceleratorCount int32  `json:"accelerator_count,omitempty"`
}

func newModelsDeployOptionsCmd(a *app) *cobra.Command {
	var concise bool
	cmd := &cobra.Command{
		Use:   "deploy-options NAME",
		Short: "Show the verified deployment configurations of a model",
		Long: heredoc.Doc(`
			Show the verified deployment configurations of a model.

			NAME is a full publisher model name, a "{publisher}/{model}@{version}"
			name or a Hugging Face "{org}/{model}" id.
		`),
		Example: heredoc.Doc(`
			$ aiplatformctl models deploy-options google/gemma2@gemma-2-2b-it --concise
			$ aiplatformctl models deploy-options meta-llama/Llama-3.1-8B
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.gardenService(ctx, cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			m, err := svc.OpenModel(ctx, args[0])
			if err != nil {
				return err
			}
			list, err := m.ListDeployOptions(ctx)
			if err != nil {
				return err
			}
			if concise {
				_, err := io.WriteString(cmd.OutOrStdout(), list.Concise())
				return err
			}
			views := make([]deployOptionView, 0, len(list))
			for _, o := range list {
				views = append(views, deployOptionView{
					Title:            o.Title,
					ContainerImage:   o.ContainerImage,
					MachineType:      o.MachineType,
					AcceleratorType:  o.AcceleratorType,
					AcceleratorCount: o.AcceleratorCount,
				})
			}
			return writeJSON(cmd.OutOrStdout(), views)
		},
	}
	cmd.Flags().BoolVar(&concise, "concise", false, "print a short numbered listing instead of JSON")
	return cmd
}
