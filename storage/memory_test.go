package storage

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_GetAbsentKey(t *testing.T) {
	req := require.New(t)
	mem := NewMemory()

	value, err := mem.Get("messages")
	req.NoError(err)
	req.Nil(value)
}

// keyLog collects the keys a watcher is notified of.
type keyLog struct {
	mu   sync.Mutex
	keys []string
}

func (l *keyLog) add(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
}

func (l *keyLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.keys...)
}

func TestMemory_SetNotifiesEveryWatcherOfTheKey(t *testing.T) {
	req := require.New(t)
	mem := NewMemory()

	first, second, other := &keyLog{}, &keyLog{}, &keyLog{}
	stop1, err := mem.Watch(first.add, "messages", "blockedUsers")
	req.NoError(err)
	defer stop1()
	stop2, err := mem.Watch(second.add, "messages")
	req.NoError(err)
	defer stop2()
	stop3, err := mem.Watch(other.add, "user:admin")
	req.NoError(err)
	defer stop3()

	// When both keys are written
	req.NoError(mem.Set("messages", []byte("[]")))
	req.NoError(mem.Set("blockedUsers", []byte(`["3"]`)))

	// Then watchers only hear about their keys, in write order
	req.Eventually(func() bool { return len(first.all()) == 2 && len(second.all()) == 1 }, time.Second, time.Millisecond)
	req.Equal([]string{"messages", "blockedUsers"}, first.all())
	req.Equal([]string{"messages"}, second.all())
	req.Never(func() bool { return len(other.all()) > 0 }, 20*time.Millisecond, time.Millisecond)
}

func TestMemory_WatcherCanReadBackTheWrite(t *testing.T) {
	req := require.New(t)
	mem := NewMemory()

	seen := make(chan string, 1)
	stop, err := mem.Watch(func(key string) {
		value, _ := mem.Get(key)
		seen <- string(value)
	}, "messages")
	req.NoError(err)
	defer stop()

	req.NoError(mem.Set("messages", []byte("hello")))
	select {
	case value := <-seen:
		req.Equal("hello", value)
	case <-time.After(time.Second):
		req.Fail("watcher was not notified")
	}
}

func TestMemory_WatcherCanWriteBack(t *testing.T) {
	req := require.New(t)
	mem := NewMemory()

	// A watcher writing the store from its callback does not block the writer
	var writerMu sync.Mutex
	stop, err := mem.Watch(func(key string) {
		if key != "messages" {
			return
		}
		writerMu.Lock()
		defer writerMu.Unlock()
		_ = mem.Set("echo", []byte("seen"))
	}, "messages")
	req.NoError(err)
	defer stop()

	writerMu.Lock()
	req.NoError(mem.Set("messages", []byte("hello")))
	writerMu.Unlock()

	req.Eventually(func() bool {
		value, _ := mem.Get("echo")
		return string(value) == "seen"
	}, time.Second, time.Millisecond)
}

func TestMemory_StopWatching(t *testing.T) {
	req := require.New(t)
	mem := NewMemory()

	var calls atomic.Int32
	stop, err := mem.Watch(func(string) { calls.Add(1) }, "messages")
	req.NoError(err)

	req.NoError(mem.Set("messages", nil))
	req.Eventually(func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	stop()
	stop()
	req.NoError(mem.Set("messages", nil))

	req.Never(func() bool { return calls.Load() != 1 }, 20*time.Millisecond, time.Millisecond)
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	req := require.New(t)
	mem := NewMemory()

	value := []byte("abc")
	req.NoError(mem.Set("k", value))
	value[0] = 'z'

	stored, err := mem.Get("k")
	req.NoError(err)
	req.Equal("abc", string(stored))

	stored[1] = 'z'
	again, err := mem.Get("k")
	req.NoError(err)
	req.Equal("abc", string(again))
}

func TestMemory_InvalidWatch(t *testing.T) {
	req := require.New(t)
	mem := NewMemory()

	_, err := mem.Watch(nil, "messages")
	req.ErrorIs(err, ErrInvalidWatch)
	_, err = mem.Watch(func(string) {})
	req.ErrorIs(err, ErrInvalidWatch)
}
