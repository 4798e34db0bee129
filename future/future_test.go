// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package future_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-a2a/aiplatform-go/future"
)

// counter is a minimal resource: a value behind a pending-future slot.
type counter struct {
	future.Manager

	mu    sync.Mutex
	value int
}

func (c *counter) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func newCounter(ctx context.Context, value int, sync bool) (*counter, error) {
	c := &counter{}
	_, err := future.Construct(ctx, &c.Manager, future.Options{Sync: sync, Name: "create"}, func(context.Context) error {
		time.Sleep(time.Millisecond)
		c.mu.Lock()
		c.value = value
		c.mu.Unlock()
		return nil
	})
	return c, err
}

func (c *counter) add(ctx context.Context, other *counter, sync bool) (*future.Future, error) {
	return future.Run(ctx, &c.Manager, future.Options{Sync: sync, Deps: []future.Dependency{other}, Name: "add"}, func(context.Context) error {
		v := other.get()
		c.mu.Lock()
		c.value += v
		c.mu.Unlock()
		return nil
	})
}

func TestOptionalAsyncChain(t *testing.T) {
	ctx := t.Context()

	a, err := newCounter(ctx, 10, false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newCounter(ctx, 7, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.add(ctx, a, false); err != nil {
		t.Fatal(err)
	}

	if err := b.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got := b.get(); got != 17 {
		t.Errorf("b.value = %d, want 17", got)
	}
	if got := a.get(); got != 10 {
		t.Errorf("a.value = %d, want 10", got)
	}
	for name, c := range map[string]*counter{"a": a, "b": b} {
		if f := c.PendingFuture(); f == nil || !f.IsDone() {
			t.Errorf("%s future not resolved", name)
		}
	}
}

func TestLastFutureObservesEveryCall(t *testing.T) {
	ctx := t.Context()
	r := &counter{}

	var (
		mu  sync.Mutex
		got []int
	)
	const n = 50
	var last *future.Future
	for i := range n {
		f, err := future.Run(ctx, &r.Manager, future.Options{}, func(context.Context) error {
			time.Sleep(time.Duration(rand.IntN(200)) * time.Microsecond)
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		last = f
	}

	if err := last.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("calls out of order (-want +got):\n%s", diff)
	}
}

func TestSyncWaitsForPending(t *testing.T) {
	ctx := t.Context()
	a, err := newCounter(ctx, 3, false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newCounter(ctx, 4, true)
	if err != nil {
		t.Fatal(err)
	}
	if got := b.get(); got != 4 {
		t.Fatalf("sync create left value %d", got)
	}

	f, err := b.add(ctx, a, true)
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsDone() {
		t.Error("sync call returned an unfinished future")
	}
	if got := b.get(); got != 7 {
		t.Errorf("b.value = %d, want 7", got)
	}
}

func TestAsyncQueuesBehindRunningSync(t *testing.T) {
	ctx := t.Context()
	var m future.Manager

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	started, release := make(chan struct{}), make(chan struct{})
	syncDone := make(chan error, 1)
	go func() {
		_, err := future.Run(ctx, &m, future.Options{Sync: true, Name: "sync"}, func(context.Context) error {
			close(started)
			<-release
			record("sync")
			return nil
		})
		syncDone <- err
	}()
	<-started

	running := m.PendingFuture()
	if running == nil || running.IsDone() || running.Name() != "sync" {
		t.Fatalf("PendingFuture() during a sync task = %v, want the running sync task", running)
	}

	f, err := future.Run(ctx, &m, future.Options{Name: "async"}, func(context.Context) error {
		record("async")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-f.Done():
		t.Fatal("async task finished before the sync task it was queued behind")
	case <-time.After(10 * time.Millisecond):
	}

	close(release)
	if err := <-syncDone; err != nil {
		t.Fatal(err)
	}
	if err := m.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"sync", "async"}, order); diff != "" {
		t.Errorf("task order (-want +got):\n%s", diff)
	}
	if m.PendingFuture() != f {
		t.Error("sync task took the slot back from the later async task")
	}
}

func TestSyncFailureStaysWithCaller(t *testing.T) {
	ctx := t.Context()
	var m future.Manager
	boom := errors.New("update failed")

	f, err := future.Run(ctx, &m, future.Options{Sync: true, Name: "update"}, func(context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) || !errors.Is(f.Err(), boom) {
		t.Fatalf("Run() = %v (future %v), want %v", err, f.Err(), boom)
	}
	if p := m.PendingFuture(); p != nil {
		t.Errorf("PendingFuture() after a failed sync task = %v, want nil", p)
	}
	if err := m.Wait(ctx); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
}

func TestDependencyFailure(t *testing.T) {
	ctx := t.Context()
	boom := errors.New("create failed")

	a := &counter{}
	if _, err := future.Construct(ctx, &a.Manager, future.Options{Name: "create a"}, func(context.Context) error {
		return boom
	}); err != nil {
		t.Fatal(err)
	}

	b, err := newCounter(ctx, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	ran := false
	if _, err := future.Run(ctx, &b.Manager, future.Options{Deps: []future.Dependency{a}, Name: "add"}, func(context.Context) error {
		ran = true
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	err = b.Wait(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("Wait() error = %v, want %v", err, boom)
	}
	var depErr *future.DependencyError
	if !errors.As(err, &depErr) || depErr.Dependency != "create a" || depErr.Task != "add" {
		t.Errorf("Wait() error = %#v", err)
	}
	if ran {
		t.Error("dependent task ran after its dependency failed")
	}
	if err := a.Wait(ctx); !errors.Is(err, boom) {
		t.Errorf("a.Wait() = %v", err)
	}
}

func TestBind(t *testing.T) {
	ctx := t.Context()
	receiver, err := newCounter(ctx, 5, false)
	if err != nil {
		t.Fatal(err)
	}
	arg := &counter{}
	receiverFuture := receiver.PendingFuture()

	f, err := future.Bind(ctx, &receiver.Manager, &arg.Manager, future.Options{}, func(context.Context) error {
		arg.mu.Lock()
		arg.value = receiver.get() * 2
		arg.mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if arg.PendingFuture() != f {
		t.Error("argument did not receive the future")
	}
	if receiver.PendingFuture() != receiverFuture {
		t.Error("receiver slot changed")
	}
	if err := arg.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if got := arg.get(); got != 10 {
		t.Errorf("arg.value = %d, want 10", got)
	}
}

func TestPanicBecomesError(t *testing.T) {
	var m future.Manager
	f, err := future.Run(t.Context(), &m, future.Options{}, func(context.Context) error {
		panic("kaboom")
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Wait(t.Context()); err == nil {
		t.Error("Wait() = nil, want panic error")
	}
}

func TestAsyncIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	var m future.Manager

	release := make(chan struct{})
	f, err := future.Run(ctx, &m, future.Options{}, func(ctx context.Context) error {
		<-release
		return ctx.Err()
	})
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	close(release)

	if err := f.Wait(t.Context()); err != nil {
		t.Errorf("task observed caller cancellation: %v", err)
	}
}

func TestPoolBound(t *testing.T) {
	pool := future.NewPool(2)
	var running, peak atomic.Int32

	var futures []*future.Future
	for range 8 {
		m := &future.Manager{}
		m.SetPool(pool)
		f, err := future.Run(t.Context(), m, future.Options{}, func(context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		futures = append(futures, f)
	}
	for _, f := range futures {
		if err := f.Wait(t.Context()); err != nil {
			t.Fatal(err)
		}
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestDefaultPoolSize(t *testing.T) {
	want := min(32, max(4, 5*runtime.NumCPU()))
	if got := future.DefaultPoolSize(); got != want {
		t.Errorf("DefaultPoolSize() = %d, want %d", got, want)
	}
	if got := future.DefaultPool().Size(); got != want {
		t.Errorf("DefaultPool().Size() = %d, want %d", got, want)
	}
}

func TestFuture(t *testing.T) {
	f := future.Completed(nil)
	if !f.IsDone() || f.State() != future.Done || f.State().String() != "done" {
		t.Errorf("Completed() state = %v", f.State())
	}

	called := false
	f.AddCallback(func(*future.Future) { called = true })
	if !called {
		t.Error("callback on a finished future did not run")
	}

	var m future.Manager
	if err := m.Wait(t.Context()); err != nil {
		t.Errorf("Wait() with nothing pending = %v", err)
	}

	block := make(chan struct{})
	pending, err := future.Run(t.Context(), &m, future.Options{}, func(context.Context) error {
		<-block
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(t.Context(), time.Millisecond)
	defer cancel()
	if err := pending.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want deadline exceeded", err)
	}
	if pending.Err() != nil {
		t.Error("Err() of a running task should be nil")
	}
	close(block)
	if err := pending.Wait(t.Context()); err != nil {
		t.Fatal(err)
	}
}
