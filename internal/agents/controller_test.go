package agents_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/internal/agents"
)

func testAgent(framework string) *agents.Agent {
	return &agents.Agent{
		ID:        uuid.New(),
		Name:      "alpha",
		Framework: framework,
		Model:     "test-model",
	}
}

func TestController_StartIdempotent(t *testing.T) {
	c := agents.NewController(time.Second, testLogger())
	adapter := &fakeAdapter{name: "x"}
	a := testAgent("x")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := c.Start(ctx, a, adapter); err != nil {
			t.Fatalf("Start() call %d error = %v", i+1, err)
		}
	}

	created, started, _, _ := adapter.counts()
	if created != 1 {
		t.Errorf("instances created = %d, want 1", created)
	}
	if started != 1 {
		t.Errorf("adapter starts = %d, want 1", started)
	}
	if !c.Running(a.ID) {
		t.Error("Running() = false after start")
	}
}

func TestController_ConcurrentStart(t *testing.T) {
	c := agents.NewController(time.Second, testLogger())
	adapter := &fakeAdapter{name: "x"}
	a := testAgent("x")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Start(context.Background(), a, adapter); err != nil {
				t.Errorf("Start() error = %v", err)
			}
		}()
	}
	wg.Wait()

	created, _, _, _ := adapter.counts()
	if created != 1 {
		t.Errorf("instances created = %d, want 1", created)
	}
}

func TestController_StopIdempotent(t *testing.T) {
	c := agents.NewController(time.Second, testLogger())
	adapter := &fakeAdapter{name: "x"}
	a := testAgent("x")
	ctx := context.Background()

	if err := c.Stop(ctx, a.ID); err != nil {
		t.Fatalf("Stop() on never-started agent error = %v", err)
	}

	if err := c.Start(ctx, a, adapter); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := c.Stop(ctx, a.ID); err != nil {
			t.Fatalf("Stop() call %d error = %v", i+1, err)
		}
	}

	_, _, stopped, _ := adapter.counts()
	if stopped != 1 {
		t.Errorf("adapter stops = %d, want 1", stopped)
	}
	if c.Running(a.ID) {
		t.Error("Running() = true after stop")
	}
}

func TestController_StopDiscardsHandleOnFailure(t *testing.T) {
	c := agents.NewController(time.Second, testLogger())
	adapter := &fakeAdapter{name: "x"}
	a := testAgent("x")
	ctx := context.Background()

	if err := c.Start(ctx, a, adapter); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	adapter.set(func(fa *fakeAdapter) { fa.stopErr = errors.New("teardown failed") })

	if err := c.Stop(ctx, a.ID); !errors.Is(err, agents.ErrStopFailed) {
		t.Fatalf("Stop() error = %v, want ErrStopFailed", err)
	}

	if c.Running(a.ID) {
		t.Error("handle retained after failed stop")
	}

	// a fresh start works because the old handle is gone
	adapter.set(func(fa *fakeAdapter) { fa.stopErr = nil })
	if err := c.Start(ctx, a, adapter); err != nil {
		t.Errorf("Start() after failed stop error = %v", err)
	}
}

func TestController_QueryNotRunning(t *testing.T) {
	c := agents.NewController(time.Second, testLogger())

	_, err := c.Query(context.Background(), uuid.New(), "ping", 0)
	if !errors.Is(err, agents.ErrInvalidState) {
		t.Errorf("Query() error = %v, want ErrInvalidState", err)
	}
}

func TestController_QueryTimeout(t *testing.T) {
	c := agents.NewController(50*time.Millisecond, testLogger())
	adapter := &fakeAdapter{name: "x", queryDelay: 200 * time.Millisecond}
	a := testAgent("x")
	ctx := context.Background()

	if err := c.Start(ctx, a, adapter); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	_, err := c.Query(ctx, a.ID, "slow", 0)
	if !errors.Is(err, agents.ErrQueryTimeout) {
		t.Fatalf("Query() error = %v, want ErrQueryTimeout", err)
	}

	// instance survives the timeout
	if !c.Running(a.ID) {
		t.Error("instance discarded after timeout")
	}

	adapter.set(func(fa *fakeAdapter) { fa.queryDelay = 0 })
	if _, err := c.Query(ctx, a.ID, "fast", 0); err != nil {
		t.Errorf("Query() after timeout error = %v", err)
	}
}

func TestController_QueryFailureRecorded(t *testing.T) {
	c := agents.NewController(time.Second, testLogger())
	adapter := &fakeAdapter{name: "x", queryErr: errors.New("provider unavailable")}
	a := testAgent("x")
	ctx := context.Background()

	if err := c.Start(ctx, a, adapter); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	_, err := c.Query(ctx, a.ID, "ping", 0)
	if !errors.Is(err, agents.ErrQueryFailed) {
		t.Fatalf("Query() error = %v, want ErrQueryFailed", err)
	}

	if c.LastError(a.ID) == nil {
		t.Error("LastError() = nil, want recorded failure")
	}
	if !c.Running(a.ID) {
		t.Error("instance discarded after query failure")
	}
}

func TestController_StartClearsLastError(t *testing.T) {
	c := agents.NewController(time.Second, testLogger())
	adapter := &fakeAdapter{name: "x", queryErr: errors.New("provider unavailable")}
	a := testAgent("x")
	ctx := context.Background()

	if err := c.Start(ctx, a, adapter); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := c.Query(ctx, a.ID, "ping", 0); err == nil {
		t.Fatal("Query() should fail")
	}
	if err := c.Stop(ctx, a.ID); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	adapter.set(func(fa *fakeAdapter) { fa.queryErr = nil })
	if err := c.Start(ctx, a, adapter); err != nil {
		t.Fatalf("restart error = %v", err)
	}

	if got := c.LastError(a.ID); got != nil {
		t.Errorf("LastError() = %q after restart, want nil", *got)
	}
}

func TestController_QueryTimeoutOverride(t *testing.T) {
	c := agents.NewController(time.Second, testLogger())
	adapter := &fakeAdapter{name: "x", queryDelay: 200 * time.Millisecond}
	a := testAgent("x")
	ctx := context.Background()

	if err := c.Start(ctx, a, adapter); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	_, err := c.Query(ctx, a.ID, "slow", 50*time.Millisecond)
	if !errors.Is(err, agents.ErrQueryTimeout) {
		t.Errorf("Query() error = %v, want ErrQueryTimeout under the shortened bound", err)
	}
}

func TestController_QueryTimeoutClamped(t *testing.T) {
	c := agents.NewController(50*time.Millisecond, testLogger())
	adapter := &fakeAdapter{name: "x", queryDelay: 200 * time.Millisecond}
	a := testAgent("x")
	ctx := context.Background()

	if err := c.Start(ctx, a, adapter); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// an override cannot extend the configured bound
	start := time.Now()
	_, err := c.Query(ctx, a.ID, "slow", 10*time.Second)
	if !errors.Is(err, agents.ErrQueryTimeout) {
		t.Fatalf("Query() error = %v, want ErrQueryTimeout", err)
	}
	if elapsed := time.Since(start); elapsed >= 200*time.Millisecond {
		t.Errorf("query ran %v, want the configured 50ms bound", elapsed)
	}
}

func TestController_Remove(t *testing.T) {
	c := agents.NewController(time.Second, testLogger())
	adapter := &fakeAdapter{name: "x", queryErr: errors.New("provider unavailable")}
	a := testAgent("x")
	ctx := context.Background()

	if err := c.Start(ctx, a, adapter); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := c.Query(ctx, a.ID, "ping", 0); err == nil {
		t.Fatal("Query() should fail")
	}
	if err := c.Stop(ctx, a.ID); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	c.Remove(a.ID)

	if c.Running(a.ID) {
		t.Error("Running() = true after remove")
	}
	if c.LastError(a.ID) != nil {
		t.Error("LastError() retained after remove")
	}
}

func TestController_ShutdownDrainsAll(t *testing.T) {
	c := agents.NewController(time.Second, testLogger())
	adapter := &fakeAdapter{name: "x"}
	ctx := context.Background()

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		a := testAgent("x")
		ids[i] = a.ID
		if err := c.Start(ctx, a, adapter); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	}

	c.Shutdown(ctx)

	_, _, stopped, _ := adapter.counts()
	if stopped != 3 {
		t.Errorf("adapter stops = %d, want 3", stopped)
	}
	for _, id := range ids {
		if c.Running(id) {
			t.Errorf("agent %s still running after shutdown", id)
		}
	}
}
