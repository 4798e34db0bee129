// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package lro_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	aiplatformpb "cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/google/go-cmp/cmp"
	"github.com/googleapis/gax-go/v2"
	rpcstatus "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/go-a2a/aiplatform-go/lro"
	"github.com/go-a2a/aiplatform-go/pkg/logging"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// fakeOps serves a scripted sequence of operation snapshots.
type fakeOps struct {
	mu sync.Mutex

	// script is served in order; the last element repeats.
	script []*longrunningpb.Operation
	errs   []error
	gets   int

	cancelled bool
	onCancel  *longrunningpb.Operation
}

func (f *fakeOps) GetOperation(_ context.Context, req *longrunningpb.GetOperationRequest, _ ...gax.CallOption) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.cancelled && f.onCancel != nil {
		return f.onCancel, nil
	}
	op := f.script[0]
	if len(f.script) > 1 {
		f.script = f.script[1:]
	}
	return op, nil
}

func (f *fakeOps) CancelOperation(_ context.Context, req *longrunningpb.CancelOperationRequest, _ ...gax.CallOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = true
	return nil
}

// fakeClock advances only when the driver sleeps.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newDriver(ops lro.OperationsClient, clock *fakeClock) *lro.Driver {
	return lro.NewDriver(ops,
		lro.WithClock(clock.Now, clock.Sleep),
		lro.WithLogger(logging.Discard()),
		lro.WithRetry(3, 0),
	)
}

const opName = "projects/demo/locations/us-central1/operations/42"

func running() *longrunningpb.Operation {
	return &longrunningpb.Operation{Name: opName}
}

func succeeded(t *testing.T, resp *aiplatformpb.ModelMonitor, md *aiplatformpb.GenericOperationMetadata) *longrunningpb.Operation {
	t.Helper()
	op := &longrunningpb.Operation{Name: opName, Done: true}
	r, err := anypb.New(resp)
	if err != nil {
		t.Fatal(err)
	}
	op.Result = &longrunningpb.Operation_Response{Response: r}
	if md != nil {
		m, err := anypb.New(&aiplatformpb.DeleteOperationMetadata{GenericMetadata: md})
		if err != nil {
			t.Fatal(err)
		}
		op.Metadata = m
	}
	return op
}

func failed(code codes.Code, msg string) *longrunningpb.Operation {
	return &longrunningpb.Operation{
		Name:   opName,
		Done:   true,
		Result: &longrunningpb.Operation_Error{Error: &rpcstatus.Status{Code: int32(code), Message: msg}},
	}
}

func TestBackoffSchedule(t *testing.T) {
	got := lro.DefaultBackoff.Schedule(9)
	want := []time.Duration{
		5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second,
		80 * time.Second, 160 * time.Second, 300 * time.Second, 300 * time.Second, 300 * time.Second,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Schedule() mismatch (-want +got):\n%s", diff)
	}
}

func TestResult(t *testing.T) {
	monitor := &aiplatformpb.ModelMonitor{Name: "projects/demo/locations/us-central1/modelMonitors/7", DisplayName: "m"}
	ops := &fakeOps{script: []*longrunningpb.Operation{running(), running(), succeeded(t, monitor, nil)}}
	clock := &fakeClock{now: time.Unix(0, 0)}
	d := newDriver(ops, clock)

	op := lro.NewOperation(opName, "ModelMonitor.Create", "")
	got := new(aiplatformpb.ModelMonitor)
	if err := d.Result(t.Context(), op, got); err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if diff := cmp.Diff(monitor, got, protocmp.Transform()); diff != "" {
		t.Errorf("Result() mismatch (-want +got):\n%s", diff)
	}
	if op.State() != lro.StateSucceeded {
		t.Errorf("State() = %v", op.State())
	}
	// Detection happens on the poll that follows the terminal transition.
	wantSleeps := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}
	if diff := cmp.Diff(wantSleeps, clock.sleeps); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
	if ops.gets != 3 {
		t.Errorf("gets = %d, want 3", ops.gets)
	}
}

func TestResultTerminalStates(t *testing.T) {
	tests := map[string]struct {
		final    *longrunningpb.Operation
		wantKind vertexerr.Kind
		wantCode codes.Code
	}{
		"failed": {
			final:    failed(codes.InvalidArgument, "bad schema"),
			wantKind: vertexerr.KindOperationFailed,
			wantCode: codes.InvalidArgument,
		},
		"cancelled": {
			final:    failed(codes.Canceled, "cancelled by user"),
			wantKind: vertexerr.KindOperationCancelled,
			wantCode: codes.Canceled,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ops := &fakeOps{script: []*longrunningpb.Operation{tt.final}}
			d := newDriver(ops, &fakeClock{now: time.Unix(0, 0)})
			op := lro.NewOperation(opName, "ModelMonitor.Create", "projects/demo/locations/us-central1/modelMonitors/7")

			err := d.Wait(t.Context(), op)
			var ve *vertexerr.Error
			if !errors.As(err, &ve) {
				t.Fatalf("Wait() error = %v, want *vertexerr.Error", err)
			}
			if ve.Kind != tt.wantKind || ve.Code != tt.wantCode || ve.OperationID != opName {
				t.Errorf("Wait() error = %+v", ve)
			}
		})
	}
}

func TestResultPartialSuccess(t *testing.T) {
	partial := succeeded(t, &aiplatformpb.ModelMonitor{Name: "m"}, &aiplatformpb.GenericOperationMetadata{
		PartialFailures: []*rpcstatus.Status{
			{Code: int32(codes.Internal), Message: "feature drift objective failed"},
		},
	})
	ops := &fakeOps{script: []*longrunningpb.Operation{partial}}
	d := newDriver(ops, &fakeClock{now: time.Unix(0, 0)})
	op := lro.NewOperation(opName, "ModelMonitor.Create", "")

	got := new(aiplatformpb.ModelMonitor)
	if err := d.Result(t.Context(), op, got); err != nil {
		t.Fatalf("Result() error = %v, want nil", err)
	}
	if got.GetName() != "m" {
		t.Errorf("Result() = %v", got)
	}
	if op.State() != lro.StatePartiallySucceeded {
		t.Errorf("State() = %v, want %v", op.State(), lro.StatePartiallySucceeded)
	}
	if n := len(op.PartialFailures()); n != 1 {
		t.Errorf("PartialFailures() has %d entries, want 1", n)
	}
}

func TestResultTimeout(t *testing.T) {
	ops := &fakeOps{script: []*longrunningpb.Operation{running()}}
	clock := &fakeClock{now: time.Unix(0, 0)}
	d := newDriver(ops, clock)
	op := lro.NewOperation(opName, "Endpoint.Deploy", "")

	err := d.Wait(t.Context(), op, lro.WithTimeout(12*time.Second))
	if !errors.Is(err, vertexerr.ErrOperationTimeout) {
		t.Fatalf("Wait() error = %v, want timeout", err)
	}
	want := []time.Duration{5 * time.Second, 7 * time.Second}
	if diff := cmp.Diff(want, clock.sleeps); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
	if ops.cancelled {
		t.Error("timeout cancelled the operation")
	}
}

func TestPollRetriesTransientErrors(t *testing.T) {
	ops := &fakeOps{
		script: []*longrunningpb.Operation{succeeded(t, &aiplatformpb.ModelMonitor{}, nil)},
		errs:   []error{status.Error(codes.Unavailable, "try again"), status.Error(codes.Unavailable, "try again")},
	}
	d := newDriver(ops, &fakeClock{now: time.Unix(0, 0)})
	op := lro.NewOperation(opName, "", "")

	if err := d.Poll(t.Context(), op); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if !op.Done() || ops.gets != 3 {
		t.Errorf("Done() = %v, gets = %d", op.Done(), ops.gets)
	}
}

func TestPollPermanentError(t *testing.T) {
	ops := &fakeOps{
		script: []*longrunningpb.Operation{running()},
		errs:   []error{status.Error(codes.NotFound, "no such operation")},
	}
	d := newDriver(ops, &fakeClock{now: time.Unix(0, 0)})
	op := lro.NewOperation(opName, "", "")

	err := d.Poll(t.Context(), op)
	if !errors.Is(err, vertexerr.ErrNotFound) {
		t.Fatalf("Poll() error = %v, want not found", err)
	}
	if ops.gets != 1 {
		t.Errorf("gets = %d, want 1", ops.gets)
	}
}

func TestCancelThenResult(t *testing.T) {
	ops := &fakeOps{
		script:   []*longrunningpb.Operation{running()},
		onCancel: failed(codes.Canceled, "operation cancelled"),
	}
	d := newDriver(ops, &fakeClock{now: time.Unix(0, 0)})
	op := lro.NewOperation(opName, "ModelMonitoringJob.Run", "")

	if err := d.Poll(t.Context(), op); err != nil {
		t.Fatal(err)
	}
	if err := d.Cancel(t.Context(), op); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if op.State() != lro.StateCancelled {
		t.Errorf("State() = %v, want cancelled", op.State())
	}
	if err := d.Wait(t.Context(), op); !errors.Is(err, vertexerr.ErrOperationCancelled) {
		t.Errorf("Wait() error = %v, want cancelled", err)
	}
}

func TestSubmit(t *testing.T) {
	d := newDriver(&fakeOps{}, &fakeClock{})
	op, err := d.Submit(t.Context(), "ModelMonitor.Delete", "mm", func(context.Context) (string, error) {
		return opName, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if op.Name() != opName || op.Done() || op.State() != lro.StateRunning {
		t.Errorf("Submit() = %s done=%v state=%v", op.Name(), op.Done(), op.State())
	}

	_, err = d.Submit(t.Context(), "ModelMonitor.Delete", "mm", func(context.Context) (string, error) {
		return "", status.Error(codes.FailedPrecondition, "monitor has schedules")
	})
	if !errors.Is(err, vertexerr.ErrInvalidArgument) {
		t.Errorf("Submit() error = %v", err)
	}
}

func TestPollUntil(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	d := newDriver(nil, clock)

	states := []string{"pending", "running", "running", "succeeded"}
	calls := 0
	got, err := lro.PollUntil(t.Context(), d, "Job.Wait", "jobs/1", 0, func(context.Context) (string, bool, error) {
		s := states[calls]
		calls++
		return s, s == "succeeded", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "succeeded" || calls != 4 {
		t.Errorf("PollUntil() = %q after %d calls", got, calls)
	}
	want := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}
	if diff := cmp.Diff(want, clock.sleeps); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
}
