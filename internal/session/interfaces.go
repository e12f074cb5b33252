package session

import (
	"context"

	"github.com/emircancapkan/karma-case/internal/api"
	"github.com/emircancapkan/karma-case/internal/models"
)

// AuthAPI captures the auth endpoints the controller drives.
type AuthAPI interface {
	Login(ctx context.Context, req api.LoginRequest) (api.AuthResult, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.AuthResult, error)
	CheckUsername(ctx context.Context, username string) (bool, error)
	CheckMail(ctx context.Context, mail string) (bool, error)
	Logout(ctx context.Context) error
}

// UserAPI captures the profile endpoints the controller drives.
type UserAPI interface {
	Update(ctx context.Context, req api.UpdateRequest) (models.User, error)
	Delete(ctx context.Context) error
	Purchase(ctx context.Context) error
}
