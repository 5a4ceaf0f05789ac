package storage

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func openBadger(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBadger_GetAndSet(t *testing.T) {
	req := require.New(t)
	kv := NewBadger(openBadger(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given an empty database the key is absent
	value, err := kv.Get("messages")
	req.NoError(err)
	req.Nil(value)

	// When the key is written twice
	req.NoError(kv.Set("messages", []byte("first")))
	req.NoError(kv.Set("messages", []byte("second")))

	// Then the last write wins
	value, err = kv.Get("messages")
	req.NoError(err)
	req.Equal("second", string(value))
}

func TestBadger_WatchSeesWritesFromAnotherHandle(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db := openBadger(t)
	watching := NewBadger(db, log)
	writing := NewBadger(db, log)

	var mu sync.Mutex
	var keys []string
	stop, err := watching.Watch(func(key string) {
		mu.Lock()
		defer mu.Unlock()
		keys = append(keys, key)
	}, "messages")
	req.NoError(err)
	defer stop()

	// Watch returns once the subscription is live, the first write is not lost
	req.NoError(writing.Set("messagesArchive", []byte("ignored")))
	req.NoError(writing.Set("messages", []byte("[]")))

	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(keys) == 1
	}, 3*time.Second, 10*time.Millisecond)

	// The probe key used to detect the subscription is gone
	mu.Lock()
	defer mu.Unlock()
	req.Equal([]string{"messages"}, keys)
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(watchProbePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			return fmt.Errorf("probe key left behind: %q", it.Item().Key())
		}
		return nil
	})
	req.NoError(err)
}

func TestBadger_StopIsIdempotent(t *testing.T) {
	req := require.New(t)
	kv := NewBadger(openBadger(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	stop, err := kv.Watch(func(string) {}, "messages")
	req.NoError(err)
	stop()
	stop()

	_, err = kv.Watch(func(string) {})
	req.ErrorIs(err, ErrInvalidWatch)
}
