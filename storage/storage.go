// Package storage holds the key/value backends the repositories persist to:
// Memory for tests and throwaway runs, Badger for an on-disk store.
package storage

import "fmt"

var ErrInvalidWatch = fmt.Errorf("watch needs a callback and at least one key")
