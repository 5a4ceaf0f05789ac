package services

import (
	"chat-guard/domain"
	"chat-guard/domain/search"
	"chat-guard/errors"
	"chat-guard/moderation"
	"chat-guard/repositories"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type IMessageService interface {
	Send(ctx context.Context, user *domain.User, text string) (domain.Message, error)
	Edit(ctx context.Context, user *domain.User, messageID, text string) (domain.Message, error)
	DeleteOwn(ctx context.Context, user *domain.User, messageID string) error
	DeleteAny(ctx context.Context, user *domain.User, messageID string) error
	DeleteAll(ctx context.Context, user *domain.User) error
	SetBlocked(ctx context.Context, user *domain.User, userID string, blocked bool) error

	Messages(ctx context.Context) ([]domain.Message, error)
	IsBlocked(ctx context.Context, userID string) (bool, error)
	BlockedUsers(ctx context.Context) ([]string, error)
	SpamStats() map[string]moderation.SpamStat
	Filter(ctx context.Context, query search.Query) ([]domain.Message, error)
	CountByUser(ctx context.Context) (map[string]int, error)
}

// BlockRequest is the admin input of SetBlocked.
type BlockRequest struct {
	UserID string `validate:"required,max=64,printascii"`
}

// MessageService applies authorization and moderation in front of the store.
// Every rejection happens before the first write, a rejected call leaves the
// store untouched.
type MessageService struct {
	mu            sync.Mutex // serializes read-modify-write cycles
	log           *slog.Logger
	messages      repositories.IMessageRepository
	blocked       repositories.IBlockedRepository
	engine        *moderation.Engine
	moderator     moderation.Moderator
	ids           domain.IDGenerator
	validate      *validator.Validate
	maxTextLength int
	now           func() time.Time
}

type MessageServiceOption func(*MessageService)

// WithServiceClock replaces the clock used for timestamps.
func WithServiceClock(now func() time.Time) MessageServiceOption {
	return func(s *MessageService) { s.now = now }
}

func NewMessageService(
	log *slog.Logger,
	messages repositories.IMessageRepository,
	blocked repositories.IBlockedRepository,
	engine *moderation.Engine,
	moderator moderation.Moderator,
	maxTextLength int,
	opts ...MessageServiceOption,
) (*MessageService, error) {
	ids, err := domain.NewIDGenerator()
	if err != nil {
		return nil, err
	}
	if maxTextLength <= 0 {
		maxTextLength = domain.MaxTextLength
	}
	s := &MessageService{
		log:           log,
		messages:      messages,
		blocked:       blocked,
		engine:        engine,
		moderator:     moderator,
		ids:           ids,
		validate:      validator.New(),
		maxTextLength: maxTextLength,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *MessageService) Send(ctx context.Context, user *domain.User, text string) (domain.Message, error) {
	if user == nil {
		return domain.Message{}, errors.ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	blocked, err := s.readBlocked(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	if err = s.engine.Check(*user, blocked); err != nil {
		return domain.Message{}, err
	}

	content, err := s.prepareText(text)
	if err != nil {
		return domain.Message{}, err
	}

	messages, err := s.readMessages(ctx)
	if err != nil {
		return domain.Message{}, err
	}

	now := s.now().UTC()
	message := domain.Message{
		ID:        s.ids.Next(now),
		UserID:    user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Role:      user.Role,
		Text:      content,
		Timestamp: now,
	}
	if err = s.writeMessages(ctx, append(messages, message)); err != nil {
		return domain.Message{}, err
	}
	s.engine.Record(*user)

	s.log.Debug("Message sent",
		"message_id", message.ID,
		"user_id", user.ID,
		"lang", whatlanggo.Detect(content).Lang.Iso6391())
	return message, nil
}

func (s *MessageService) Edit(ctx context.Context, user *domain.User, messageID, text string) (domain.Message, error) {
	if user == nil {
		return domain.Message{}, errors.ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.readMessages(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	_, index, found := lo.FindIndexOf(messages, func(m domain.Message) bool { return m.ID == messageID })
	if !found {
		return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrNotFound, messageID)
	}
	if !messages[index].IsOwnedBy(*user) {
		return domain.Message{}, fmt.Errorf("%w: only the author can edit a message", errors.ErrUnauthorized)
	}

	content, err := s.prepareText(text)
	if err != nil {
		return domain.Message{}, err
	}

	editedAt := s.now().UTC()
	messages[index].Text = content
	messages[index].EditedAt = &editedAt
	if err = s.writeMessages(ctx, messages); err != nil {
		return domain.Message{}, err
	}

	s.log.Debug("Message edited", "message_id", messageID, "user_id", user.ID)
	return messages[index], nil
}

func (s *MessageService) DeleteOwn(ctx context.Context, user *domain.User, messageID string) error {
	if user == nil {
		return errors.ErrUnauthenticated
	}
	return s.remove(ctx, user, messageID, func(m domain.Message) error {
		if !m.IsOwnedBy(*user) {
			return fmt.Errorf("%w: only the author can delete a message", errors.ErrUnauthorized)
		}
		return nil
	})
}

func (s *MessageService) DeleteAny(ctx context.Context, user *domain.User, messageID string) error {
	if err := requireAdmin(user); err != nil {
		return err
	}
	return s.remove(ctx, user, messageID, func(domain.Message) error { return nil })
}

func (s *MessageService) DeleteAll(ctx context.Context, user *domain.User) error {
	if err := requireAdmin(user); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeMessages(ctx, []domain.Message{}); err != nil {
		return err
	}
	s.log.Info("All messages deleted", "user_id", user.ID)
	return nil
}

// SetBlocked adds or removes a user from the block list. Repeating the same
// call is a no-op that still succeeds.
func (s *MessageService) SetBlocked(ctx context.Context, user *domain.User, userID string, blocked bool) error {
	if err := requireAdmin(user); err != nil {
		return err
	}
	if err := s.validate.Struct(BlockRequest{UserID: userID}); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.readBlocked(ctx)
	if err != nil {
		return err
	}

	var updated []string
	if blocked {
		if lo.Contains(current, userID) {
			return nil
		}
		updated = append(current, userID)
	} else {
		if !lo.Contains(current, userID) {
			return nil
		}
		updated = lo.Without(current, userID)
	}

	if err = s.blocked.Write(ctx, updated); err != nil {
		s.log.Error("Unable to write blocked users", "user_id", userID, "error", err)
		return err
	}
	s.log.Info("Block list updated", "user_id", userID, "blocked", blocked, "admin_id", user.ID)
	return nil
}

func (s *MessageService) Messages(ctx context.Context) ([]domain.Message, error) {
	return s.readMessages(ctx)
}

func (s *MessageService) IsBlocked(ctx context.Context, userID string) (bool, error) {
	blocked, err := s.readBlocked(ctx)
	if err != nil {
		return false, err
	}
	return lo.Contains(blocked, userID), nil
}

func (s *MessageService) BlockedUsers(ctx context.Context) ([]string, error) {
	return s.readBlocked(ctx)
}

func (s *MessageService) SpamStats() map[string]moderation.SpamStat {
	return s.engine.Stats()
}

// Filter returns the messages matching the query, in store order.
func (s *MessageService) Filter(ctx context.Context, query search.Query) ([]domain.Message, error) {
	messages, err := s.readMessages(ctx)
	if err != nil {
		return nil, err
	}
	if query.Empty() {
		return messages, nil
	}
	return lo.Filter(messages, func(m domain.Message, _ int) bool {
		return query.Matches(m.Username, m.Name, m.Text)
	}), nil
}

// CountByUser returns the number of stored messages per author id.
func (s *MessageService) CountByUser(ctx context.Context) (map[string]int, error) {
	messages, err := s.readMessages(ctx)
	if err != nil {
		return nil, err
	}
	return lo.CountValuesBy(messages, func(m domain.Message) string { return m.UserID }), nil
}

func (s *MessageService) remove(ctx context.Context, user *domain.User, messageID string, allowed func(domain.Message) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.readMessages(ctx)
	if err != nil {
		return err
	}
	target, found := lo.Find(messages, func(m domain.Message) bool { return m.ID == messageID })
	if !found {
		return fmt.Errorf("%w: %s", errors.ErrNotFound, messageID)
	}
	if err = allowed(target); err != nil {
		return err
	}

	remaining := lo.Reject(messages, func(m domain.Message, _ int) bool { return m.ID == messageID })
	if err = s.writeMessages(ctx, remaining); err != nil {
		return err
	}
	s.log.Debug("Message deleted", "message_id", messageID, "user_id", user.ID)
	return nil
}

// prepareText trims and masks forbidden words. The text is stored as typed,
// markup included: escaping belongs to whoever renders it.
func (s *MessageService) prepareText(text string) (string, error) {
	trimmed, ok := domain.NormalizeText(text, s.maxTextLength)
	if !ok {
		return "", fmt.Errorf("%w: text must hold between 1 and %d characters", errors.ErrInvalidInput, s.maxTextLength)
	}
	censored, words := s.moderator.Censor(trimmed)
	if len(words) > 0 {
		s.log.Debug("Censored words found", "words", words)
	}
	return censored, nil
}

func (s *MessageService) readMessages(ctx context.Context) ([]domain.Message, error) {
	messages, err := s.messages.Read(ctx)
	if err != nil {
		s.log.Error("Unable to read messages", "error", err)
		return nil, err
	}
	return messages, nil
}

func (s *MessageService) writeMessages(ctx context.Context, messages []domain.Message) error {
	if err := s.messages.Write(ctx, messages); err != nil {
		s.log.Error("Unable to write messages", "error", err)
		return err
	}
	return nil
}

func (s *MessageService) readBlocked(ctx context.Context) ([]string, error) {
	blocked, err := s.blocked.Read(ctx)
	if err != nil {
		s.log.Error("Unable to read blocked users", "error", err)
		return nil, err
	}
	return blocked, nil
}

func requireAdmin(user *domain.User) error {
	if user == nil {
		return errors.ErrUnauthenticated
	}
	if !user.IsAdmin() {
		return fmt.Errorf("%w: admin role required", errors.ErrUnauthorized)
	}
	return nil
}
