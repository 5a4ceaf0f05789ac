package services

import (
	"chat-guard/auth"
	"chat-guard/domain"
	"chat-guard/errors"
	"chat-guard/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
)

type IAuthService interface {
	Register(ctx context.Context, req auth.AccountRequest) (domain.User, error)
	Login(ctx context.Context, username, password string) (Token, domain.User, error)
	Authenticate(token Token) (domain.User, error)
}

type AuthService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	tokens         auth.Tokens
}

type Token string

func (t Token) String() string {
	return string(t)
}

// DemoAccounts is the directory the console starts with.
var DemoAccounts = []auth.AccountRequest{
	{ID: "1", Username: "admin", Name: "Abdur", Role: domain.RoleAdmin, Password: "admin123"},
	{ID: "2", Username: "user1", Name: "Dimple", Role: domain.RoleUser, Password: "user123"},
	{ID: "3", Username: "user2", Name: "Paul", Role: domain.RoleUser, Password: "user123"},
	{ID: "4", Username: "user3", Name: "Ayan", Role: domain.RoleUser, Password: "user123"},
}

func NewAuthService(log *slog.Logger, repo repositories.IUserRepository, tokens auth.Tokens) *AuthService {
	return &AuthService{log: log, userRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, req auth.AccountRequest) (domain.User, error) {
	// Validated before any expensive cryptographic operation
	if err := auth.ValidateAccount(req); err != nil {
		return domain.User{}, err
	}

	// Hashed here so the repository never sees a plain password
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	user := repositories.User{
		ID:           req.ID,
		Username:     req.Username,
		Name:         req.Name,
		Role:         req.Role,
		PasswordHash: hashedPassword,
	}
	if err = s.userRepository.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.log.Debug("Account registered", "user_id", user.ID, "username", user.Username)
	return user.Identity(), nil
}

// SeedDirectory registers the given accounts, skipping usernames already present.
func (s *AuthService) SeedDirectory(ctx context.Context, accounts []auth.AccountRequest) error {
	for _, account := range accounts {
		_, err := s.Register(ctx, account)
		if stderrors.Is(err, errors.ErrUserAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", account.Username, err)
		}
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (Token, domain.User, error) {
	if err := auth.ValidateLogin(auth.LoginRequest{Username: username, Password: password}); err != nil {
		return "", domain.User{}, err
	}

	user, err := s.userRepository.GetUserByUsername(ctx, username)
	if stderrors.Is(err, errors.ErrStorage) {
		return "", domain.User{}, err
	}
	if err != nil {
		// Same error as a wrong password, usernames are not enumerable
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.Identity())
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}

	s.log.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return Token(token), user.Identity(), nil
}

// Authenticate turns a session token back into the user it was issued to.
func (s *AuthService) Authenticate(token Token) (domain.User, error) {
	claims, err := s.tokens.Validate(token.String())
	if err != nil {
		return domain.User{}, err
	}
	return claims.User(), nil
}
