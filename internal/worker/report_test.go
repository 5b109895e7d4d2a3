package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mtlprog/wealth/internal/snapshot"
)

type mockSnapshotGenerator struct {
	callCount atomic.Int32
	owner     atomic.Value
}

func (m *mockSnapshotGenerator) Generate(_ context.Context, owner string, date time.Time) (snapshot.Summary, error) {
	m.callCount.Add(1)
	m.owner.Store(owner)
	return snapshot.Summary{Date: date.Format("2006-01-02")}, nil
}

type staticOwner struct {
	name string
	err  error
}

func (o staticOwner) Owner(context.Context) (string, error) { return o.name, o.err }

type mockHook struct {
	calls atomic.Int32
}

func (m *mockHook) Export(context.Context, snapshot.Summary) error {
	m.calls.Add(1)
	return nil
}

func TestReportWorkerRunsAndShutdown(t *testing.T) {
	gen := &mockSnapshotGenerator{}
	hook := &mockHook{}
	w := NewReportWorker(gen, staticOwner{name: "ann@example.com"}, 50*time.Millisecond, hook)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := gen.callCount.Load(); got < 1 {
		t.Errorf("call count = %d, want >= 1", got)
	}
	if got := gen.owner.Load(); got != "ann@example.com" {
		t.Errorf("owner = %v", got)
	}
	if hook.calls.Load() != gen.callCount.Load() {
		t.Errorf("hook calls = %d, generations = %d", hook.calls.Load(), gen.callCount.Load())
	}
}

func TestReportWorkerSkipsWithoutOwner(t *testing.T) {
	gen := &mockSnapshotGenerator{}
	w := NewReportWorker(gen, staticOwner{err: errors.New("not logged in")}, time.Hour, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := gen.callCount.Load(); got != 0 {
		t.Errorf("call count = %d, want 0", got)
	}
}
