package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeEngine counts initializations and can block or fail them.
type fakeEngine struct {
	mu        sync.Mutex
	initCalls int
	initErr   error
	block     chan struct{}
}

func (f *fakeEngine) Initialize(ctx context.Context) error {
	f.mu.Lock()
	f.initCalls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.initErr
}

func (f *fakeEngine) WriteInput(string, []byte) error     { return nil }
func (f *fakeEngine) Run(context.Context, []string) error { return nil }
func (f *fakeEngine) ReadOutput(string) ([]byte, error)   { return nil, nil }
func (f *fakeEngine) DeleteFile(string) error             { return nil }

func (f *fakeEngine) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initCalls
}

func TestProvider_LazyAndIdempotent(t *testing.T) {
	fake := &fakeEngine{}
	p := NewProvider(fake)

	if got := p.State(); got != StateUninitialized {
		t.Fatalf("state = %v before first Acquire, want uninitialized", got)
	}

	for i := 0; i < 3; i++ {
		eng, err := p.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
		if eng != fake {
			t.Fatal("Acquire returned a different engine")
		}
	}

	if got := fake.calls(); got != 1 {
		t.Errorf("Initialize called %d times, want 1", got)
	}
	if got := p.State(); got != StateReady {
		t.Errorf("state = %v, want ready", got)
	}
}

func TestProvider_SingleFlightAcrossConcurrentAcquires(t *testing.T) {
	fake := &fakeEngine{block: make(chan struct{})}
	p := NewProvider(fake)

	const callers = 8
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := p.Acquire(context.Background())
			results <- err
		}()
	}

	// Wait for the owning caller to reach Initialize, then release everyone.
	deadline := time.After(2 * time.Second)
	for fake.calls() == 0 {
		select {
		case <-deadline:
			t.Fatal("initialization never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(fake.block)

	for i := 0; i < callers; i++ {
		if err := <-results; err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if got := fake.calls(); got != 1 {
		t.Errorf("Initialize called %d times, want 1", got)
	}
}

func TestProvider_FailureLatchesAndFailsFast(t *testing.T) {
	boom := errors.New("capability missing")
	fake := &fakeEngine{initErr: boom}
	p := NewProvider(fake)

	if _, err := p.Acquire(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("first Acquire err = %v, want %v", err, boom)
	}
	if got := p.State(); got != StateFailed {
		t.Fatalf("state = %v, want failed", got)
	}

	// The second acquisition observes the recorded outcome without a retry.
	if _, err := p.Acquire(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("second Acquire err = %v, want %v", err, boom)
	}
	if got := fake.calls(); got != 1 {
		t.Errorf("Initialize called %d times, want 1", got)
	}
}

func TestProvider_ResetAllowsRetry(t *testing.T) {
	fake := &fakeEngine{initErr: errors.New("transient")}
	p := NewProvider(fake)

	if _, err := p.Acquire(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	if err := p.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	fake.initErr = nil
	if _, err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire after Reset: %v", err)
	}
	if got := fake.calls(); got != 2 {
		t.Errorf("Initialize called %d times, want 2", got)
	}
}

func TestProvider_OwnerCancellationDoesNotFailSharedInit(t *testing.T) {
	fake := &fakeEngine{block: make(chan struct{})}
	p := NewProvider(fake)

	ctx, cancel := context.WithCancel(context.Background())
	ownerErr := make(chan error, 1)
	go func() {
		_, err := p.Acquire(ctx)
		ownerErr <- err
	}()

	deadline := time.After(2 * time.Second)
	for fake.calls() == 0 {
		select {
		case <-deadline:
			t.Fatal("initialization never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// The first caller abandons its run mid-initialization.
	cancel()
	if err := <-ownerErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("owner err = %v, want context.Canceled", err)
	}

	// The shared initialization still completes and later runs reuse it.
	close(fake.block)
	deadline = time.After(2 * time.Second)
	for p.State() != StateReady {
		select {
		case <-deadline:
			t.Fatalf("state = %v, want ready after detached init", p.State())
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire after abandoned owner: %v", err)
	}
	if got := fake.calls(); got != 1 {
		t.Errorf("Initialize called %d times, want 1", got)
	}
}

func TestProvider_WaiterHonorsContext(t *testing.T) {
	fake := &fakeEngine{block: make(chan struct{})}
	p := NewProvider(fake)

	go p.Acquire(context.Background())
	deadline := time.After(2 * time.Second)
	for fake.calls() == 0 {
		select {
		case <-deadline:
			t.Fatal("initialization never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("waiter err = %v, want context.Canceled", err)
	}

	close(fake.block)
}
