package services

import (
	"chat-guard/auth"
	"chat-guard/domain"
	"chat-guard/errors"
	"chat-guard/mocks"
	"chat-guard/repositories"
	"chat-guard/storage"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(log, mockRepo, auth.NewTokens("test-secret", time.Hour))
	ctx := context.Background()

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		account := auth.AccountRequest{ID: "9", Username: "carol", Name: "Carol", Role: domain.RoleUser, Password: "carol123"}

		// Expect CreateUser to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			CreateUser(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, user repositories.User) error {
				req.NotEqual(account.Password, user.PasswordHash)
				ok, err := auth.ComparePassword(account.Password, user.PasswordHash)
				req.NoError(err)
				req.True(ok)
				return nil
			}).
			Times(1)

		user, err := svc.Register(ctx, account)

		req.NoError(err)
		req.Equal(domain.User{ID: "9", Username: "carol", Name: "Carol", Role: domain.RoleUser}, user)
	})

	t.Run("should fail when the role is unknown", func(t *testing.T) {
		req := require.New(t)
		account := auth.AccountRequest{ID: "9", Username: "carol", Name: "Carol", Role: "root", Password: "carol123"}

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Register(ctx, account)

		req.ErrorIs(err, errors.ErrInvalidInput)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser(gomock.Any(), gomock.Any()).
			Return(errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register(ctx, DemoAccounts[1])

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokens("test-secret", time.Hour)
	svc := NewAuthService(log, mockRepo, tokens)
	ctx := context.Background()

	hashedPassword, err := auth.HashPassword("user123")
	require.NoError(t, err)
	storedUser := repositories.User{
		ID:           "2",
		Username:     "user1",
		Name:         "Dimple",
		Role:         domain.RoleUser,
		PasswordHash: hashedPassword,
	}

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByUsername(gomock.Any(), "user1").
			Return(storedUser, nil).
			Times(1)

		token, user, err := svc.Login(ctx, "user1", "user123")

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(storedUser.Identity(), user)

		claims, err := tokens.Validate(token.String())
		req.NoError(err)
		req.Equal(storedUser.ID, claims.UserID)
		req.Equal(domain.RoleUser, claims.Role)
	})

	t.Run("should return invalid credentials when password matches nothing", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByUsername(gomock.Any(), "user1").
			Return(storedUser, nil).
			Times(1)

		_, _, err := svc.Login(ctx, "user1", "wrong-password")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
		req.Equal(errors.KindUnauthenticated, errors.KindOf(err))
	})

	t.Run("should return invalid credentials when user is not found", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByUsername(gomock.Any(), "nobody").
			Return(repositories.User{}, errors.ErrUnknownUser).
			Times(1)

		_, _, err := svc.Login(ctx, "nobody", "anyPassword")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should reject malformed input before reading the directory", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().GetUserByUsername(gomock.Any(), gomock.Any()).Times(0)

		_, _, err := svc.Login(ctx, "", "")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}

func TestAuthService_SeedAndAuthenticate(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx := context.Background()
	svc := NewAuthService(log, repositories.NewUserRepository(storage.NewMemory()), auth.NewTokens("test-secret", time.Hour))

	req.NoError(svc.SeedDirectory(ctx, DemoAccounts))
	// Seeding twice keeps the existing accounts
	req.NoError(svc.SeedDirectory(ctx, DemoAccounts))

	token, user, err := svc.Login(ctx, "admin", "admin123")
	req.NoError(err)
	req.True(user.IsAdmin())
	req.Equal("Abdur", user.Name)

	authenticated, err := svc.Authenticate(token)
	req.NoError(err)
	req.Equal(user, authenticated)

	_, err = svc.Authenticate(Token("not-a-token"))
	req.ErrorIs(err, errors.ErrUnauthenticated)

	// A token signed with another secret is refused
	other := NewAuthService(log, repositories.NewUserRepository(storage.NewMemory()), auth.NewTokens("other-secret", time.Hour))
	_, err = other.Authenticate(token)
	req.ErrorIs(err, errors.ErrUnauthenticated)
}
