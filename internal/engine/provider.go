package engine

import (
	"context"
	"fmt"
	"sync"
)

// State is the acquisition state of the shared engine.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Provider guards a process-wide engine behind lazy, single-flight
// initialization. The first acquirer runs Initialize; concurrent acquirers
// join an explicit waiter list and observe the same outcome. A failed
// initialization latches: later acquisitions fail fast with the recorded
// error until Reset.
type Provider struct {
	mu      sync.Mutex
	engine  Engine
	state   State
	initErr error
	waiters []chan error
}

// NewProvider wraps an engine. Initialization does not start until the
// first Acquire.
func NewProvider(e Engine) *Provider {
	return &Provider{engine: e}
}

// Acquire returns the ready engine, initializing it at most once across all
// concurrent callers. The context only bounds this caller's wait; the
// initialization itself runs detached, so one run's cancellation cannot fail
// the shared engine for later runs.
func (p *Provider) Acquire(ctx context.Context) (Engine, error) {
	p.mu.Lock()
	switch p.state {
	case StateReady:
		p.mu.Unlock()
		return p.engine, nil

	case StateFailed:
		err := p.initErr
		p.mu.Unlock()
		return nil, err

	case StateUninitialized:
		// This caller starts the initialization, then waits like everyone
		// else.
		p.state = StateInitializing
		go p.initialize(context.WithoutCancel(ctx))
	}

	ch := make(chan error, 1)
	p.waiters = append(p.waiters, ch)
	p.mu.Unlock()

	select {
	case err := <-ch:
		if err != nil {
			return nil, err
		}
		return p.engine, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// initialize runs the single real initialization and delivers its outcome to
// every waiter.
func (p *Provider) initialize(ctx context.Context) {
	err := p.engine.Initialize(ctx)

	p.mu.Lock()
	if err != nil {
		p.state = StateFailed
		p.initErr = err
	} else {
		p.state = StateReady
	}
	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	for _, ch := range waiters {
		ch <- err
	}
}

// State reports the current acquisition state.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Reset returns a failed provider to uninitialized so the next Acquire
// retries. Resetting while an initialization is in flight is rejected.
func (p *Provider) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateInitializing {
		return fmt.Errorf("cannot reset while %s", p.state)
	}
	p.state = StateUninitialized
	p.initErr = nil
	return nil
}
