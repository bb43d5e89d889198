package realtime

import "sync"

// observerList is a registry of detachable callbacks for one event category.
// Dispatch iterates over a snapshot of the handlers, so a handler that
// unsubscribes itself (or another handler) mid-dispatch is safe.
type observerList[T any] struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(T)
}

func newObserverList[T any]() *observerList[T] {
	return &observerList[T]{handlers: make(map[int]func(T))}
}

// add registers a handler and returns its detach function. Detaching twice
// is harmless.
func (l *observerList[T]) add(h func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.handlers[id] = h
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.handlers, id)
	}
}

// dispatch calls every registered handler with v, outside the lock.
func (l *observerList[T]) dispatch(v T) {
	l.mu.Lock()
	snapshot := make([]func(T), 0, len(l.handlers))
	for _, h := range l.handlers {
		snapshot = append(snapshot, h)
	}
	l.mu.Unlock()

	for _, h := range snapshot {
		h(v)
	}
}
