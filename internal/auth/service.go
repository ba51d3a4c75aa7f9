package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/email"
	"github.com/zfogg/formdesk/internal/logger"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrWeakPassword       = fmt.Errorf("password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength)

	ErrTOTPRequired       = errors.New("two-factor code required")
	ErrInvalidTOTP        = errors.New("invalid two-factor code")
	ErrTOTPNotSetup       = errors.New("two-factor authentication has not been set up")
	ErrTOTPAlreadyEnabled = errors.New("two-factor authentication is already enabled")
)

const (
	MinPasswordLength = 8
	// bcrypt ignores input past 72 bytes
	MaxPasswordLength = 72
)

// Service handles all authentication operations
type Service struct {
	users    repository.UserRepository
	notifier email.Notifier

	jwtSecret  []byte
	tokenTTL   time.Duration
	resetTTL   time.Duration
	totpIssuer string

	now func() time.Time
}

// NewService creates a new authentication service
func NewService(cfg config.AuthConfig, users repository.UserRepository, notifier email.Notifier) *Service {
	return &Service{
		users:      users,
		notifier:   notifier,
		jwtSecret:  []byte(cfg.JWTSecret),
		tokenTTL:   cfg.TokenTTL,
		resetTTL:   cfg.ResetTTL,
		totpIssuer: cfg.TOTPIssuer,
		now:        time.Now,
	}
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// LoginRequest accepts an email address or a username as Login.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code"`
}

// TOTPSetup is returned when a user starts enrolling an authenticator app.
type TOTPSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}

// Login authenticates with a password and, when enabled, a TOTP code.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(req.Login))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if user.TOTPEnabled {
		if req.TOTPCode == "" {
			return nil, ErrTOTPRequired
		}
		if !s.validateTOTP(req.TOTPCode, user.TOTPSecret) {
			return nil, ErrInvalidTOTP
		}
	}

	now := s.now().UTC()
	if err := s.users.UpdateUserFields(ctx, user.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		logger.WarnWithFields("Failed to record last login", err)
	}
	user.LastLoginAt = &now

	return s.GenerateTokenForUser(user)
}

// GenerateTokenForUser creates JWT token and auth response for a user
func (s *Service) GenerateTokenForUser(user *models.User) (*AuthResponse, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.tokenTTL)

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      expiresAt.Unix(),
		"iat":      issuedAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		Token:     tokenString,
		User:      user,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a JWT token and returns the current user record.
// The role in the token is informational; authorization always uses the
// stored role.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return user, nil
}

// RequestPasswordReset creates a reset token and emails it. Unknown,
// inactive and password-less accounts are ignored silently so callers
// cannot probe which addresses exist.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(emailAddr))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if !user.IsActive || user.PasswordHash == nil {
		return nil
	}

	reset := &models.PasswordReset{
		UserID:    user.ID,
		Token:     strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", ""),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.users.CreatePasswordReset(ctx, reset); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if err := s.notifier.SendPasswordReset(ctx, user, reset.Token); err != nil {
		logger.Log.Error("Failed to send password reset email",
			logger.WithUserID(user.ID),
			zap.Error(err),
		)
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	reset, err := s.users.GetPasswordReset(ctx, token)
	if errors.Is(err, repository.ErrResetNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if reset.Used || !s.now().Before(reset.ExpiresAt) {
		return ErrInvalidResetToken
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.users.ConsumePasswordReset(ctx, reset, hash)
	if errors.Is(err, repository.ErrStateConflict) {
		return ErrInvalidResetToken
	}
	return err
}

// ChangePassword replaces the password of an authenticated user.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error {
	if !CheckPassword(user.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdateUserFields(ctx, user.ID, map[string]interface{}{"password_hash": hash}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	user.PasswordHash = &hash
	return nil
}

// SetupTOTP generates and stores a new secret. The factor stays disabled
// until EnableTOTP verifies a code from it.
func (s *Service) SetupTOTP(ctx context.Context, user *models.User) (*TOTPSetup, error) {
	if user.TOTPEnabled {
		return nil, ErrTOTPAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.totpIssuer,
		AccountName: user.Email,
		SecretSize:  20,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	secret := key.Secret()
	if err := s.users.UpdateUserFields(ctx, user.ID, map[string]interface{}{"totp_secret": secret}); err != nil {
		return nil, fmt.Errorf("failed to save TOTP secret: %w", err)
	}
	user.TOTPSecret = &secret

	return &TOTPSetup{Secret: secret, URL: key.URL()}, nil
}

// EnableTOTP turns on the second factor after checking a code.
func (s *Service) EnableTOTP(ctx context.Context, user *models.User, code string) error {
	if user.TOTPEnabled {
		return ErrTOTPAlreadyEnabled
	}
	if user.TOTPSecret == nil {
		return ErrTOTPNotSetup
	}
	if !s.validateTOTP(code, user.TOTPSecret) {
		return ErrInvalidTOTP
	}

	if err := s.users.UpdateUserFields(ctx, user.ID, map[string]interface{}{"totp_enabled": true}); err != nil {
		return fmt.Errorf("failed to enable TOTP: %w", err)
	}
	user.TOTPEnabled = true

	logger.Log.Info("Two-factor authentication enabled", logger.WithUserID(user.ID))
	return nil
}

// DisableTOTP requires both the password and a current code.
func (s *Service) DisableTOTP(ctx context.Context, user *models.User, password, code string) error {
	if !user.TOTPEnabled {
		return ErrTOTPNotSetup
	}
	if !CheckPassword(user.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	if !s.validateTOTP(code, user.TOTPSecret) {
		return ErrInvalidTOTP
	}

	err := s.users.UpdateUserFields(ctx, user.ID, map[string]interface{}{
		"totp_enabled": false,
		"totp_secret":  nil,
	})
	if err != nil {
		return fmt.Errorf("failed to disable TOTP: %w", err)
	}
	user.TOTPEnabled = false
	user.TOTPSecret = nil

	logger.Log.Info("Two-factor authentication disabled", logger.WithUserID(user.ID))
	return nil
}

func (s *Service) validateTOTP(code string, secret *string) bool {
	if secret == nil || code == "" {
		return false
	}
	valid, err := totp.ValidateCustom(strings.TrimSpace(code), *secret, s.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash. Accounts without a
// password never match.
func CheckPassword(hash *string, password string) bool {
	if hash == nil || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*hash), []byte(password)) == nil
}

// ValidatePassword enforces the password length policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
