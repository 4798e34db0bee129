// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package resource_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/testing/protocmp"

	"github.com/go-a2a/aiplatform-go/future"
	"github.com/go-a2a/aiplatform-go/initializer"
	"github.com/go-a2a/aiplatform-go/internal/xiter"
	"github.com/go-a2a/aiplatform-go/resource"
	"github.com/go-a2a/aiplatform-go/resourcename"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// pagedServer serves items in pages of the given sizes.
type pagedServer struct {
	sizes []int
	calls int
}

func (s *pagedServer) fetch(_ context.Context, token string) (*resource.Page[string], error) {
	s.calls++
	page := 0
	if token != "" {
		if _, err := fmt.Sscanf(token, "page-%d", &page); err != nil {
			return nil, err
		}
	}
	offset := 0
	for _, n := range s.sizes[:page] {
		offset += n
	}
	out := &resource.Page[string]{}
	for i := range s.sizes[page] {
		out.Items = append(out.Items, fmt.Sprintf("item-%d", offset+i))
	}
	if page+1 < len(s.sizes) {
		out.NextPageToken = fmt.Sprintf("page-%d", page+1)
	}
	return out, nil
}

func TestPagerAll(t *testing.T) {
	srv := &pagedServer{sizes: []int{3, 3, 2}}
	pager := resource.NewPager(srv.fetch)

	got, err := xiter.Collect(pager.All(t.Context()))
	if err != nil {
		t.Fatal(err)
	}
	var want []string
	for i := range 8 {
		want = append(want, fmt.Sprintf("item-%d", i))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
	if srv.calls != 3 {
		t.Errorf("page calls = %d, want 3", srv.calls)
	}

	// Each call restarts from the first page.
	again, err := xiter.Collect(pager.All(t.Context()))
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 8 || srv.calls != 6 {
		t.Errorf("second iteration: %d items, %d calls", len(again), srv.calls)
	}
}

func TestPagerEarlyStop(t *testing.T) {
	srv := &pagedServer{sizes: []int{3, 3, 2}}
	n := 0
	for _, err := range resource.NewPager(srv.fetch).All(t.Context()) {
		if err != nil {
			t.Fatal(err)
		}
		n++
		if n == 2 {
			break
		}
	}
	if srv.calls != 1 {
		t.Errorf("page calls = %d, want 1", srv.calls)
	}
}

func TestPagerNextPage(t *testing.T) {
	srv := &pagedServer{sizes: []int{3, 3, 2}}
	pager := resource.NewPager(srv.fetch)

	page, err := pager.NextPage(t.Context(), "page-2")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&resource.Page[string]{Items: []string{"item-6", "item-7"}}, page); diff != "" {
		t.Errorf("NextPage() mismatch (-want +got):\n%s", diff)
	}

	got, err := xiter.Collect(pager.StartAt("page-1").All(t.Context()))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 || got[0] != "item-3" {
		t.Errorf("StartAt() yielded %v", got)
	}
}

func TestPagerError(t *testing.T) {
	boom := errors.New("unavailable")
	pager := resource.NewPager(func(context.Context, string) (*resource.Page[int], error) {
		return nil, boom
	})
	_, err := xiter.Collect(pager.All(t.Context()))
	if !errors.Is(err, boom) {
		t.Errorf("All() error = %v", err)
	}
}

func TestBuildMask(t *testing.T) {
	var (
		displayName       = "monitor"
		noSpec            *aiplatformpb.ModelMonitoringNotificationSpec
		noLabels          map[string]string
		zeroPageSize      = int32(0)
		notificationSpec  = &aiplatformpb.ModelMonitoringNotificationSpec{}
		explanationFields []string
	)
	tests := map[string]struct {
		fields []resource.Field
		want   []string
	}{
		"only supplied fields": {
			fields: []resource.Field{
				resource.Set("display_name", &displayName),
				resource.Set("notification_spec", noSpec),
				resource.Set("labels", noLabels),
				resource.Set("output_spec", nil),
			},
			want: []string{"display_name"},
		},
		"sorted and deduplicated": {
			fields: []resource.Field{
				resource.Set("notification_spec", notificationSpec),
				resource.Set("display_name", "x"),
				resource.Set("display_name", "y"),
			},
			want: []string{"display_name", "notification_spec"},
		},
		"zero values are supplied values": {
			fields: []resource.Field{
				resource.Set("page_size", zeroPageSize),
				resource.Set("explanation_spec", explanationFields),
			},
			want: []string{"page_size"},
		},
		"nothing supplied": {
			want: []string{},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := resource.BuildMask(tt.fields...)
			if diff := cmp.Diff(tt.want, got.GetPaths()); diff != "" {
				t.Errorf("BuildMask() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type monitor struct {
	resource.Base[*aiplatformpb.ModelMonitor]
}

func TestBase(t *testing.T) {
	const name = "projects/demo/locations/us-central1/modelMonitors/7"
	m := &monitor{}

	release := make(chan struct{})
	if _, err := future.Construct(t.Context(), &m.Manager, future.Options{}, func(context.Context) error {
		<-release
		m.SetSnapshot(&aiplatformpb.ModelMonitor{Name: name, DisplayName: "churn"})
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if m.ResourceName() != "" {
		t.Errorf("ResourceName() before creation = %q", m.ResourceName())
	}
	close(release)

	snap, err := m.Snapshot(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if snap.GetDisplayName() != "churn" {
		t.Errorf("Snapshot() = %v", snap)
	}
	if m.ResourceName() != name || m.Project() != "demo" || m.Location() != "us-central1" {
		t.Errorf("name = %q project = %q location = %q", m.ResourceName(), m.Project(), m.Location())
	}

	dict, err := m.ToDict(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"name": name, "display_name": "churn"}
	if diff := cmp.Diff(want, dict); diff != "" {
		t.Errorf("ToDict() mismatch (-want +got):\n%s", diff)
	}

	err = m.Refresh(t.Context(), func(_ context.Context, got string) (*aiplatformpb.ModelMonitor, error) {
		if got != name {
			t.Errorf("Refresh() fetched %q", got)
		}
		return &aiplatformpb.ModelMonitor{Name: name, DisplayName: "renamed"}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&aiplatformpb.ModelMonitor{Name: name, DisplayName: "renamed"}, m.Peek(), protocmp.Transform()); diff != "" {
		t.Errorf("Peek() after Refresh mismatch (-want +got):\n%s", diff)
	}
}

func TestDescriptorFullName(t *testing.T) {
	cfg := initializer.New()
	if err := cfg.Init(initializer.WithProject("demo"), initializer.WithLocation("us-central1")); err != nil {
		t.Fatal(err)
	}
	d := resource.Descriptor{Noun: "Tensorboard", Pattern: resourcename.Tensorboard}

	got, err := d.FullName(t.Context(), cfg, "456")
	if err != nil {
		t.Fatal(err)
	}
	if want := "projects/demo/locations/us-central1/tensorboards/456"; got != want {
		t.Errorf("FullName() = %q, want %q", got, want)
	}
	if _, err := d.FullName(t.Context(), cfg, "Not/A/Name"); !errors.Is(err, vertexerr.ErrInvalidArgument) {
		t.Errorf("FullName() error = %v", err)
	}
	if d.Op("Get") != "Tensorboard.Get" || d.Collection() != "tensorboards" {
		t.Errorf("Op() = %q, Collection() = %q", d.Op("Get"), d.Collection())
	}

	parent, err := resource.Parent(t.Context(), cfg, "", "europe-west4")
	if err != nil {
		t.Fatal(err)
	}
	if parent != "projects/demo/locations/europe-west4" {
		t.Errorf("Parent() = %q", parent)
	}
}
