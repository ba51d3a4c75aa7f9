package auth

import (
	"context"

	"github.com/zfogg/formdesk/internal/models"
)

// AuthServiceInterface defines the contract for authentication operations.
// This enables mocking for handler and middleware tests.
type AuthServiceInterface interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GenerateTokenForUser(user *models.User) (*AuthResponse, error)

	// Token operations
	ValidateToken(ctx context.Context, tokenString string) (*models.User, error)

	// Password management
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error

	// Second factor
	SetupTOTP(ctx context.Context, user *models.User) (*TOTPSetup, error)
	EnableTOTP(ctx context.Context, user *models.User, code string) error
	DisableTOTP(ctx context.Context, user *models.User, password, code string) error
}

// Ensure Service implements AuthServiceInterface
var _ AuthServiceInterface = (*Service)(nil)
