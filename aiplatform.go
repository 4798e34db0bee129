// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package aiplatform is a Go client SDK for the Vertex AI platform.
//
// The SDK is organised around resource wrappers (model monitors, schedules,
// open models) that sit on a shared runtime: global configuration, a
// versioned client factory, long-running operation polling and optional
// asynchronous execution of resource methods.
package aiplatform

// Product is the product token sent in the user agent.
const Product = "aiplatform-go"

// Version is the version of the SDK.
var Version = "v0.1.0"
