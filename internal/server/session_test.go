package server

import (
	"context"
	"reflect"
	"sync"
	"testing"
)

type fakeSessionMetrics struct {
	mu     sync.Mutex
	active int
}

func (m *fakeSessionMetrics) IncrementActiveSessions(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active++
}

func (m *fakeSessionMetrics) DecrementActiveSessions(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active--
}

func TestSessionTracker(t *testing.T) {
	ctx := context.Background()
	metrics := &fakeSessionMetrics{}
	tracker := NewSessionTracker(metrics, nil)

	tracker.Register(ctx, "b")
	tracker.Register(ctx, "a")
	tracker.Register(ctx, "a") // duplicate

	if got := tracker.Active(); got != 2 {
		t.Errorf("Active() = %d, want 2", got)
	}
	if metrics.active != 2 {
		t.Errorf("metrics active = %d, want 2", metrics.active)
	}
	if got := tracker.ListSessions(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("ListSessions() = %v, want [a b]", got)
	}

	tracker.Unregister(ctx, "a")
	tracker.Unregister(ctx, "unknown")

	if got := tracker.Active(); got != 1 {
		t.Errorf("Active() = %d, want 1", got)
	}
	if metrics.active != 1 {
		t.Errorf("metrics active = %d, want 1", metrics.active)
	}
}

func TestSessionTracker_Concurrent(t *testing.T) {
	ctx := context.Background()
	tracker := NewSessionTracker(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sid := string(rune('A' + id%26))
			tracker.Register(ctx, sid)
			tracker.Unregister(ctx, sid)
		}(i)
	}
	wg.Wait()

	if got := tracker.Active(); got != 0 {
		t.Errorf("Active() = %d, want 0", got)
	}
}

func TestSessionTracker_Hooks(t *testing.T) {
	hooks := NewSessionTracker(nil, nil).Hooks()
	if hooks == nil {
		t.Fatal("Hooks() returned nil")
	}
	if len(hooks.OnRegisterSession) != 1 || len(hooks.OnUnregisterSession) != 1 {
		t.Errorf("expected one register and one unregister hook, got %d and %d",
			len(hooks.OnRegisterSession), len(hooks.OnUnregisterSession))
	}
}
