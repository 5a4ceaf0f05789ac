//go:generate go run go.uber.org/mock/mockgen -source=blocked.go -destination=../mocks/mock_blocked_repository.go -package=mocks
package repositories

import (
	"chat-guard/contract"
	"chat-guard/errors"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

const BlockedUsersKey = "blockedUsers"

type IBlockedRepository interface {
	Read(ctx context.Context) ([]string, error)
	Write(ctx context.Context, userIDs []string) error
}

// BlockedRepository persists the blocked user ids under their own key,
// independently of the messages.
type BlockedRepository struct {
	kv  contract.KeyValueStore
	log *slog.Logger
}

func NewBlockedRepository(kv contract.KeyValueStore, log *slog.Logger) BlockedRepository {
	return BlockedRepository{kv: kv, log: log}
}

func (b BlockedRepository) Read(ctx context.Context) ([]string, error) {
	raw, err := b.kv.Get(BlockedUsersKey)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", errors.ErrStorage, BlockedUsersKey, err)
	}
	ids := []string{}
	if len(raw) == 0 {
		return ids, nil
	}
	if err = json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", errors.ErrStorage, BlockedUsersKey, err)
	}
	return ids, nil
}

// Write stores the ids once each, keeping their first position.
func (b BlockedRepository) Write(ctx context.Context, userIDs []string) error {
	raw, err := json.Marshal(lo.Uniq(append([]string{}, userIDs...)))
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", errors.ErrStorage, BlockedUsersKey, err)
	}
	if err = b.kv.Set(BlockedUsersKey, raw); err != nil {
		return fmt.Errorf("%w: write %s: %v", errors.ErrStorage, BlockedUsersKey, err)
	}
	b.log.Debug("Blocked users written", "count", len(userIDs))
	return nil
}
