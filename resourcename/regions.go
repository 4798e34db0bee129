// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package resourcename

import (
	"slices"
	"strings"

	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// Global is the location-invariant location.
const Global = "global"

// DefaultLocation is used when no location is configured or discovered.
const DefaultLocation = "us-central1"

// SupportedRegions is the set of regions the platform serves, sorted.
var SupportedRegions = []string{
	"africa-south1",
	"asia-east1",
	"asia-east2",
	"asia-northeast1",
	"asia-northeast2",
	"asia-northeast3",
	"asia-south1",
	"asia-south2",
	"asia-southeast1",
	"asia-southeast2",
	"australia-southeast1",
	"australia-southeast2",
	"europe-central2",
	"europe-north1",
	"europe-southwest1",
	"europe-west1",
	"europe-west12",
	"europe-west2",
	"europe-west3",
	"europe-west4",
	"europe-west6",
	"europe-west8",
	"europe-west9",
	"me-central1",
	"me-central2",
	"me-west1",
	"northamerica-northeast1",
	"northamerica-northeast2",
	"southamerica-east1",
	"southamerica-west1",
	"us-central1",
	"us-east1",
	"us-east4",
	"us-east5",
	"us-south1",
	"us-west1",
	"us-west2",
	"us-west3",
	"us-west4",
}

// IsSupportedRegion reports whether region is served, ignoring case.
func IsSupportedRegion(region string) bool {
	_, found := slices.BinarySearch(SupportedRegions, strings.ToLower(region))
	return found
}

// ValidateRegion returns an invalid-argument error unless region is supported.
// [Global] is not a region; callers that allow it check for it first.
func ValidateRegion(region string) error {
	if IsSupportedRegion(region) {
		return nil
	}
	return vertexerr.InvalidArgument("resourcename.ValidateRegion",
		"unsupported region %q, supported regions are %s", region, strings.Join(SupportedRegions, ", "))
}
