//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-guard/contract"
	"chat-guard/domain"
	"chat-guard/errors"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const userKeyPrefix = "user:"

type IUserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUserByUsername(ctx context.Context, username string) (User, error)
}

type UserRepository struct {
	kv contract.KeyValueStore
}

func NewUserRepository(kv contract.KeyValueStore) IUserRepository {
	return &UserRepository{kv: kv}
}

// User is the directory record of an account, password hash included.
type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Name         string      `json:"name"`
	Role         domain.Role `json:"role"`
	PasswordHash string      `json:"passwordHash"`
	CreatedAt    time.Time   `json:"createdAt"`
}

func (u User) Identity() domain.User {
	return domain.User{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role}
}

// CreateUser persists the account under "user:{username}".
// It refuses to overwrite an existing username.
func (u UserRepository) CreateUser(ctx context.Context, user User) error {
	key := userKeyPrefix + user.Username
	existing, err := u.kv.Get(key)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", errors.ErrStorage, key, err)
	}
	if existing != nil {
		return errors.ErrUserAlreadyExists
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	if err = u.kv.Set(key, data); err != nil {
		return fmt.Errorf("%w: write %s: %v", errors.ErrStorage, key, err)
	}
	return nil
}

func (u UserRepository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	key := userKeyPrefix + username
	data, err := u.kv.Get(key)
	if err != nil {
		return User{}, fmt.Errorf("%w: read %s: %v", errors.ErrStorage, key, err)
	}
	if data == nil {
		return User{}, errors.ErrUnknownUser
	}

	var user User
	if err = json.Unmarshal(data, &user); err != nil {
		return User{}, fmt.Errorf("%w: decode %s: %v", errors.ErrStorage, key, err)
	}
	return user, nil
}
