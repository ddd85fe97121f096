package pipeline

import "sync"

// Broadcaster fans one run's state snapshots out to multiple subscribers.
// It is scoped to a single run; the subscribing side owns the channels and
// a slow subscriber drops snapshots rather than blocking the run.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan State]bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan State]bool)}
}

// Subscribe registers and returns a buffered snapshot channel.
func (b *Broadcaster) Subscribe() chan State {
	ch := make(chan State, 16)
	b.mu.Lock()
	b.subs[ch] = true
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel. The channel is not closed; Close does that.
func (b *Broadcaster) Unsubscribe(ch chan State) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Close closes every subscribed channel and empties the broadcaster.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	for ch := range b.subs {
		close(ch)
	}
	b.subs = make(map[chan State]bool)
	b.mu.Unlock()
}

// Observer adapts the broadcaster to the run's observer hook.
func (b *Broadcaster) Observer() Observer {
	return func(s State) {
		b.mu.Lock()
		for ch := range b.subs {
			select {
			case ch <- s:
			default:
				// drop if the subscriber is not reading
			}
		}
		b.mu.Unlock()
	}
}
