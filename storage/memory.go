package storage

import (
	"sync"
)

// watcher delivers the change notifications of one Watch call, in write
// order, from its own goroutine.
type watcher struct {
	keys     map[string]struct{}
	onChange func(key string)

	mu      sync.Mutex
	pending []string
	wake    chan struct{}
	done    chan struct{}
}

func (w *watcher) notify(key string) {
	w.mu.Lock()
	w.pending = append(w.pending, key)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *watcher) next() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return "", false
	}
	key := w.pending[0]
	w.pending = w.pending[1:]
	return key, true
}

func (w *watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case <-w.wake:
		}
		for key, ok := w.next(); ok; key, ok = w.next() {
			select {
			case <-w.done:
				return
			default:
			}
			w.onChange(key)
		}
	}
}

// Memory is an in-process KeyValueStore.
// Several repositories or hubs sharing one Memory behave like several open
// windows on the same local storage: each write is seen by every watcher.
// Like Badger subscriptions, watchers are called on their own goroutine once
// the write is visible, never under the writer's locks, so a watcher may read
// or write the store back.
type Memory struct {
	mu       sync.RWMutex
	values   map[string][]byte
	watchMu  sync.Mutex
	watchers map[uint64]*watcher
	nextID   uint64
}

func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string][]byte),
		watchers: make(map[uint64]*watcher),
	}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *Memory) Set(key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.values[key] = stored
	m.mu.Unlock()

	for _, w := range m.watchersOf(key) {
		w.notify(key)
	}
	return nil
}

// Watch calls onChange with the key of every later write to one of keys,
// until the returned stop function is called.
func (m *Memory) Watch(onChange func(key string), keys ...string) (func(), error) {
	if onChange == nil || len(keys) == 0 {
		return nil, ErrInvalidWatch
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	w := &watcher{
		keys:     set,
		onChange: onChange,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	m.watchMu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = w
	m.watchMu.Unlock()

	go w.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.watchMu.Lock()
			delete(m.watchers, id)
			m.watchMu.Unlock()
			close(w.done)
		})
	}, nil
}

func (m *Memory) watchersOf(key string) []*watcher {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	var matching []*watcher
	for _, w := range m.watchers {
		if _, ok := w.keys[key]; ok {
			matching = append(matching, w)
		}
	}
	return matching
}
