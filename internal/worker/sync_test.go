package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type mockSyncer struct {
	callCount atomic.Int32
	err       error
}

func (m *mockSyncer) Sync(context.Context) error {
	m.callCount.Add(1)
	return m.err
}

type loginFlag struct{ v atomic.Bool }

func (l *loginFlag) IsLoggedIn() bool { return l.v.Load() }

func TestSyncWorkerRunsAndShutdown(t *testing.T) {
	syncer := &mockSyncer{}
	w := NewSyncWorker(syncer, nil, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := syncer.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want >= 2 (initial + ticks)", got)
	}
}

func TestSyncWorkerContinuesAfterError(t *testing.T) {
	syncer := &mockSyncer{err: errors.New("backend down")}
	w := NewSyncWorker(syncer, nil, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := syncer.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want retries after failure", got)
	}
}

func TestSyncWorkerSkipsWhenLoggedOut(t *testing.T) {
	syncer := &mockSyncer{}
	login := &loginFlag{}
	w := NewSyncWorker(syncer, login, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := syncer.callCount.Load(); got != 0 {
		t.Errorf("call count = %d, want 0 while logged out", got)
	}
}
