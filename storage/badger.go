package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	watchProbePrefix = "\x00watch:"
	probeInterval    = 5 * time.Millisecond
)

// Badger is the on-disk KeyValueStore.
// Change notifications come from badger's own subscription mechanism, so a
// write made through any handle on the same DB reaches every watcher.
// They are delivered on a dedicated goroutine per watch.
type Badger struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadger(db *badger.DB, log *slog.Logger) *Badger {
	return &Badger{db: db, log: log}
}

func (b *Badger) Get(key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

func (b *Badger) Set(key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Watch subscribes to the given keys and returns once the subscription is
// live. Badger matches on prefixes, so updates to longer keys sharing a
// prefix are filtered out here.
func (b *Badger) Watch(onChange func(key string), keys ...string) (func(), error) {
	if onChange == nil || len(keys) == 0 {
		return nil, ErrInvalidWatch
	}
	probe := watchProbePrefix + uuid.NewString()
	matches := lo.Map(append([]string{probe}, keys...), func(key string, _ int) pb.Match {
		return pb.Match{Prefix: []byte(key)}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	ready := make(chan struct{})
	var readyOnce sync.Once
	go func() {
		defer close(done)
		err := b.db.Subscribe(ctx, func(list *badger.KVList) error {
			for _, kv := range list.Kv {
				key := string(kv.Key)
				if key == probe {
					readyOnce.Do(func() { close(ready) })
					continue
				}
				if lo.Contains(keys, key) {
					onChange(key)
				}
			}
			return nil
		}, matches)
		if err != nil && !errors.Is(err, context.Canceled) {
			b.log.Warn("Badger subscription ended", "keys", keys, "error", err)
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}

	if err := b.awaitSubscription(probe, ready, done); err != nil {
		stop()
		return nil, err
	}
	return stop, nil
}

// awaitSubscription writes the probe key until the subscriber sees it,
// then removes it.
func (b *Badger) awaitSubscription(probe string, ready, done <-chan struct{}) error {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()
	for {
		if err := b.Set(probe, nil); err != nil {
			return err
		}
		select {
		case <-ready:
			return b.db.Update(func(txn *badger.Txn) error {
				return txn.Delete([]byte(probe))
			})
		case <-done:
			return ErrInvalidWatch
		case <-ticker.C:
		}
	}
}
