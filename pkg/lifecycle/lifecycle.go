// Package lifecycle coordinates application startup and shutdown.
// A Coordinator owns the root context for the process and runs
// registered hooks in a controlled order.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Coordinator manages startup and shutdown hooks around a root context.
// Startup hooks run when WaitForStartup is called. Shutdown hooks are
// started immediately in their own goroutines and are expected to block
// on Context().Done() before performing teardown.
type Coordinator struct {
	ctx      context.Context
	cancel   context.CancelFunc
	ready    atomic.Bool
	mu       sync.Mutex
	startups []func()
	shutdown sync.WaitGroup
}

// New creates a Coordinator with a fresh root context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the root context, cancelled when Shutdown is called.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// Ready reports whether startup has completed.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// OnStartup registers a function to run during WaitForStartup.
func (c *Coordinator) OnStartup(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startups = append(c.startups, fn)
}

// WaitForStartup runs all registered startup functions and marks the
// coordinator ready.
func (c *Coordinator) WaitForStartup() {
	c.mu.Lock()
	fns := c.startups
	c.startups = nil
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}

	c.ready.Store(true)
}

// OnShutdown registers a teardown function. The function is started in
// its own goroutine and should block on Context().Done() until shutdown
// begins.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdown.Add(1)
	go func() {
		defer c.shutdown.Done()
		fn()
	}()
}

// Shutdown cancels the root context and waits up to timeout for all
// shutdown functions to complete.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdown.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timed out after %s", timeout)
	}
}
