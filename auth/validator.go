package auth

import (
	"chat-guard/domain"
	"chat-guard/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type LoginRequest struct {
	Username string `validate:"required,min=3,max=32,alphanum"`
	Password string `validate:"required,min=6,max=72"`
}

func ValidateLogin(req LoginRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidCredentials, err)
	}
	return nil
}

// AccountRequest describes a directory entry to create.
type AccountRequest struct {
	ID       string      `validate:"required,max=64"`
	Username string      `validate:"required,min=3,max=32,alphanum"`
	Name     string      `validate:"required,max=64"`
	Role     domain.Role `validate:"required,oneof=user admin"`
	Password string      `validate:"required,min=6,max=72"`
}

func ValidateAccount(req AccountRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}
	return nil
}
