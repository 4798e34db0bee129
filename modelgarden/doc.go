// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package modelgarden provides access to the open models of Vertex AI Model Garden.
//
// Model Garden catalogs native publisher models, such as Gemma or Llama, and
// Hugging Face models with a verified deployment configuration. This package
// resolves catalog names, lists deployable models and their verified
// configurations, manages license acceptance, deploys models to endpoints and
// submits batch prediction jobs.
//
// # Model names
//
// [Service.OpenModel] accepts three forms:
//
//	publishers/google/models/gemma2@001   full resource name, kept verbatim
//	google/gemma2@001                     simplified native name, lower-cased
//	meta-llama/Llama-3.1-8B               Hugging Face model, lower-cased
//
// A native model without a version must be given by its full resource name;
// its version is then chosen by the server at deploy time.
//
// # Usage
//
//	svc, err := modelgarden.NewService(ctx, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer svc.Close()
//
//	m, err := svc.OpenModel(ctx, "google/gemma2@gemma-2-2b-it")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if ok, _ := m.CheckEULA(ctx); !ok {
//		if _, err := m.AcceptEULA(ctx); err != nil {
//			log.Fatal(err)
//		}
//	}
//	dep, err := m.Deploy(ctx, modelgarden.DeployOptions{
//		MachineType:      "g2-standard-12",
//		AcceleratorType:  "NVIDIA_L4",
//		AcceleratorCount: 1,
//	})
//
// Deployments run as long-running operations and wait up to
// [lro.DefaultHeavyTimeout] unless [DeployOptions.Timeout] says otherwise.
package modelgarden
