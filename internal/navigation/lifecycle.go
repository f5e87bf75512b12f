package navigation

import "sync"

// Visit identifies one navigation.
type Visit struct {
	ID     uint64
	Method string
	URL    string
}

// Lifecycle fans navigation start/finish out to registered listeners.
// Listeners are registered once, at setup, and run synchronously in
// registration order.
type Lifecycle struct {
	mu       sync.RWMutex
	onStart  []func(Visit)
	onFinish []func(Visit, error)
}

// OnStart registers fn to run before a visit's request is sent.
func (l *Lifecycle) OnStart(fn func(Visit)) {
	l.mu.Lock()
	l.onStart = append(l.onStart, fn)
	l.mu.Unlock()
}

// OnFinish registers fn to run after a visit is committed or has failed.
func (l *Lifecycle) OnFinish(fn func(Visit, error)) {
	l.mu.Lock()
	l.onFinish = append(l.onFinish, fn)
	l.mu.Unlock()
}

func (l *Lifecycle) start(v Visit) {
	l.mu.RLock()
	fns := append(([]func(Visit))(nil), l.onStart...)
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(v)
	}
}

func (l *Lifecycle) finish(v Visit, err error) {
	l.mu.RLock()
	fns := append(([]func(Visit, error))(nil), l.onFinish...)
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(v, err)
	}
}
