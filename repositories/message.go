//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-guard/contract"
	"chat-guard/domain"
	"chat-guard/errors"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

const MessagesKey = "messages"

type IMessageRepository interface {
	Read(ctx context.Context) ([]domain.Message, error)
	Write(ctx context.Context, messages []domain.Message) error
}

// MessageRepository keeps the whole ordered message collection as one JSON
// array under MessagesKey. Every Write replaces the array in a single Set.
type MessageRepository struct {
	kv  contract.KeyValueStore
	log *slog.Logger
}

func NewMessageRepository(kv contract.KeyValueStore, log *slog.Logger) MessageRepository {
	return MessageRepository{kv: kv, log: log}
}

// Read returns the stored messages, or an empty slice when nothing was ever written.
func (m MessageRepository) Read(ctx context.Context) ([]domain.Message, error) {
	raw, err := m.kv.Get(MessagesKey)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", errors.ErrStorage, MessagesKey, err)
	}
	messages := []domain.Message{}
	if len(raw) == 0 {
		return messages, nil
	}
	if err = json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", errors.ErrStorage, MessagesKey, err)
	}
	return messages, nil
}

func (m MessageRepository) Write(ctx context.Context, messages []domain.Message) error {
	if messages == nil {
		messages = []domain.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", errors.ErrStorage, MessagesKey, err)
	}
	if err = m.kv.Set(MessagesKey, raw); err != nil {
		return fmt.Errorf("%w: write %s: %v", errors.ErrStorage, MessagesKey, err)
	}
	m.log.Debug("Messages written", "count", len(messages))
	return nil
}
