//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-guard/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// KeyValueStore is the persistence backend behind the repositories.
// Get returns nil and no error for an absent key.
// Watch calls onChange for every write to one of the keys, whichever handle
// performed it, until the returned stop function is called.
type KeyValueStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Watch(onChange func(key string), keys ...string) (stop func(), err error)
}

// SnapshotSink receives every snapshot published by the hub.
type SnapshotSink interface {
	Consume(ctx context.Context, snapshot domain.Snapshot) error
}

// SinkFunc adapts a plain callback to a SnapshotSink.
type SinkFunc func(ctx context.Context, snapshot domain.Snapshot) error

func (f SinkFunc) Consume(ctx context.Context, snapshot domain.Snapshot) error {
	return f(ctx, snapshot)
}

type IHub interface {
	Subscribe(ctx context.Context, sink SnapshotSink) (unsubscribe func(), err error)
	Publish(ctx context.Context) error
	Current() domain.Snapshot
}
