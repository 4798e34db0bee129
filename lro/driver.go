// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package lro drives server-side long-running operations to completion.
//
// A [Driver] submits the call that starts an operation, polls it with an
// exponential [Backoff], and maps its terminal state onto the error kinds of
// [vertexerr]. Partially successful operations are logged at warn level and
// their result is returned.
package lro

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/avast/retry-go/v4"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/protobuf/proto"

	"github.com/go-a2a/aiplatform-go/pkg/logging"
	"github.com/go-a2a/aiplatform-go/vertexerr"
)

// DefaultHeavyTimeout bounds the wait of heavyweight operations such as deploy and export.
const DefaultHeavyTimeout = 2 * time.Hour

// OperationsClient is the subset of a service client used to poll operations.
// Every generated service client implements it.
type OperationsClient interface {
	GetOperation(ctx context.Context, req *longrunningpb.GetOperationRequest, opts ...gax.CallOption) (*longrunningpb.Operation, error)
	CancelOperation(ctx context.Context, req *longrunningpb.CancelOperationRequest, opts ...gax.CallOption) error
}

// Driver polls operations through an [OperationsClient].
type Driver struct {
	ops     OperationsClient
	backoff Backoff
	logger  *slog.Logger

	attempts   uint
	retryDelay time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// DriverOption configures a [Driver].
type DriverOption func(*Driver)

// WithBackoff replaces [DefaultBackoff].
func WithBackoff(b Backoff) DriverOption {
	return func(d *Driver) { d.backoff = b.normalize() }
}

// WithLogger sets the logger of status lines and partial-success warnings.
func WithLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) { d.logger = logger }
}

// WithRetry sets how often a transient poll failure is attempted and the delay between attempts.
func WithRetry(attempts uint, delay time.Duration) DriverOption {
	return func(d *Driver) {
		d.attempts = max(attempts, 1)
		d.retryDelay = delay
	}
}

// WithClock replaces the wall clock and the sleep between polls.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) DriverOption {
	return func(d *Driver) {
		d.now = now
		d.sleep = sleep
	}
}

// NewDriver returns a driver polling through ops. ops may be nil for drivers
// only used with [PollUntil].
func NewDriver(ops OperationsClient, opts ...DriverOption) *Driver {
	d := &Driver{
		ops:        ops,
		backoff:    DefaultBackoff,
		attempts:   3,
		retryDelay: time.Second,
		now:        time.Now,
		sleep:      sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.Default()
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit performs the unary call that starts an operation and returns its handle
// without waiting. start returns the operation name.
func (d *Driver) Submit(ctx context.Context, verb, resource string, start func(context.Context) (string, error)) (*Operation, error) {
	name, err := start(ctx)
	if err != nil {
		return nil, vertexerr.FromRPC(verb, resource, err)
	}
	d.logger.InfoContext(ctx, "operation started",
		slog.String("operation", name),
		slog.String("verb", verb),
		slog.String("resource_name", resource),
	)
	return NewOperation(name, verb, resource), nil
}

// Poll fetches the operation once and updates op. Transient failures are retried.
func (d *Driver) Poll(ctx context.Context, op *Operation) error {
	raw, err := retry.DoWithData(
		func() (*longrunningpb.Operation, error) {
			return d.ops.GetOperation(ctx, &longrunningpb.GetOperationRequest{Name: op.Name()})
		},
		retry.Context(ctx),
		retry.Attempts(d.attempts),
		retry.Delay(d.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(vertexerr.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			d.logger.DebugContext(ctx, "retrying operation poll",
				slog.String("operation", op.Name()),
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err),
			)
		}),
	)
	if err != nil {
		e := vertexerr.FromRPC(op.Verb(), op.Resource(), err)
		if ve, ok := e.(*vertexerr.Error); ok && ve.OperationID == "" {
			ve.OperationID = op.Name()
		}
		return e
	}
	op.set(raw)
	return nil
}

type waitOptions struct {
	timeout time.Duration
}

// WaitOption configures [Driver.Result].
type WaitOption func(*waitOptions)

// WithTimeout bounds the wall-clock time of the wait. Expiry does not affect the server.
func WithTimeout(d time.Duration) WaitOption {
	return func(o *waitOptions) { o.timeout = d }
}

// Result blocks until op is terminal and decodes its response into out, which may be nil.
//
// A failed operation yields a [vertexerr.ErrOperationFailed] error and a
// cancelled one a [vertexerr.ErrOperationCancelled] error. When the timeout
// expires first a [vertexerr.ErrOperationTimeout] error is returned.
func (d *Driver) Result(ctx context.Context, op *Operation, out proto.Message, opts ...WaitOption) error {
	var o waitOptions
	for _, opt := range opts {
		opt(&o)
	}
	err := d.wait(ctx, op.Name(), op.Verb(), op.Resource(), o.timeout, op.Done, func(ctx context.Context) error {
		return d.Poll(ctx, op)
	})
	if err != nil {
		return err
	}
	return d.finish(ctx, op, out)
}

// Wait is [Driver.Result] without a response.
func (d *Driver) Wait(ctx context.Context, op *Operation, opts ...WaitOption) error {
	return d.Result(ctx, op, nil, opts...)
}

func (d *Driver) finish(ctx context.Context, op *Operation, out proto.Message) error {
	switch state := op.State(); state {
	case StateFailed, StateCancelled:
		return vertexerr.FromStatus(op.Verb(), op.Resource(), op.Name(), op.Error())
	case StatePartiallySucceeded:
		failures := op.PartialFailures()
		attrs := make([]any, 0, len(failures)+2)
		attrs = append(attrs, slog.String("operation", op.Name()), slog.String("resource_name", op.Resource()))
		for i, st := range failures {
			attrs = append(attrs, slog.Group(fmt.Sprintf("failure_%d", i),
				slog.Int("code", int(st.GetCode())),
				slog.String("message", st.GetMessage()),
			))
		}
		d.logger.WarnContext(ctx, "operation partially succeeded", attrs...)
	}

	resp := op.Proto().GetResponse()
	if out == nil || resp == nil {
		return nil
	}
	if err := resp.UnmarshalTo(out); err != nil {
		return fmt.Errorf("decode result of %s: %w", op.Name(), err)
	}
	return nil
}

// Cancel asks the server to cancel op and polls until the server reports it
// terminal. The handle only changes state once the server acknowledges.
func (d *Driver) Cancel(ctx context.Context, op *Operation) error {
	if op.Done() {
		return nil
	}
	err := d.ops.CancelOperation(ctx, &longrunningpb.CancelOperationRequest{Name: op.Name()})
	if err != nil {
		return vertexerr.FromRPC(op.Verb(), op.Resource(), err)
	}
	d.logger.InfoContext(ctx, "operation cancellation requested", slog.String("operation", op.Name()))

	if err := d.Poll(ctx, op); err != nil {
		return err
	}
	return d.wait(ctx, op.Name(), op.Verb(), op.Resource(), 0, op.Done, func(ctx context.Context) error {
		return d.Poll(ctx, op)
	})
}

// wait sleeps on the backoff schedule and calls refresh until done reports
// true. A status line is logged each time the log interval elapses; the
// interval grows on the same schedule as the delay.
func (d *Driver) wait(ctx context.Context, name, verb, resource string, timeout time.Duration, done func() bool, refresh func(context.Context) error) error {
	start := d.now()
	var deadline time.Time
	if timeout > 0 {
		deadline = start.Add(timeout)
	}

	delay := d.backoff.Initial
	logWait := d.backoff.Initial
	lastLog := start
	for !done() {
		now := d.now()
		if !deadline.IsZero() && !now.Before(deadline) {
			return &vertexerr.Error{
				Kind:        vertexerr.KindOperationTimeout,
				Op:          verb,
				Resource:    resource,
				OperationID: name,
				Detail:      fmt.Sprintf("not done after %s", timeout),
			}
		}
		if now.Sub(lastLog) >= logWait {
			d.logger.InfoContext(ctx, "operation still running",
				slog.String("operation", name),
				slog.String("resource_name", resource),
				slog.Duration("elapsed", now.Sub(start)),
			)
			lastLog = now
			logWait = d.backoff.Next(logWait)
		}

		wait := delay
		if !deadline.IsZero() {
			wait = min(wait, deadline.Sub(now))
		}
		if err := d.sleep(ctx, wait); err != nil {
			return err
		}
		if err := refresh(ctx); err != nil {
			return err
		}
		delay = d.backoff.Next(delay)
	}
	return nil
}

// PollUntil fetches a resource on the backoff schedule of d until fetch
// reports it terminal, and returns the last fetched value.
//
// It serves resources whose lifecycle is tracked by a state field instead of
// an operation, such as monitoring jobs.
func PollUntil[T any](ctx context.Context, d *Driver, verb, resource string, timeout time.Duration, fetch func(context.Context) (T, bool, error)) (T, error) {
	v, terminal, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	err = d.wait(ctx, resource, verb, resource, timeout, func() bool { return terminal }, func(ctx context.Context) error {
		next, t, err := fetch(ctx)
		if err != nil {
			return err
		}
		v, terminal = next, t
		return nil
	})
	return v, err
}
