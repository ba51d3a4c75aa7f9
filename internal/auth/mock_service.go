package auth

import (
	"context"
	"sync"
	"time"

	"github.com/zfogg/formdesk/internal/models"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockAuthService is a mock implementation of AuthServiceInterface for testing.
type MockAuthService struct {
	mu sync.Mutex

	// Call tracking
	Calls []MockCall

	// Configurable function overrides
	LoginFunc                func(req LoginRequest) (*AuthResponse, error)
	ValidateTokenFunc        func(tokenString string) (*models.User, error)
	RequestPasswordResetFunc func(email string) error
	ResetPasswordFunc        func(token, newPassword string) error
	ChangePasswordFunc       func(user *models.User, currentPassword, newPassword string) error
	SetupTOTPFunc            func(user *models.User) (*TOTPSetup, error)

	// Default error to return
	DefaultError error

	// Tokens maps a bearer token to the user it authenticates.
	Tokens map[string]*models.User
}

// NewMockAuthService creates a new mock auth service with sensible defaults
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{
		Calls:  make([]MockCall, 0),
		Tokens: make(map[string]*models.User),
	}
}

// recordCall records a method call for later assertion
func (m *MockAuthService) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockAuthService) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

// AddToken makes token authenticate as user.
func (m *MockAuthService) AddToken(token string, user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tokens[token] = user
}

func (m *MockAuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	m.recordCall("Login", req)
	if m.LoginFunc != nil {
		return m.LoginFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for token, user := range m.Tokens {
		if user.Email == req.Login || user.Username == req.Login {
			return &AuthResponse{Token: token, User: user, ExpiresAt: time.Now().Add(24 * time.Hour)}, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (m *MockAuthService) GenerateTokenForUser(user *models.User) (*AuthResponse, error) {
	m.recordCall("GenerateTokenForUser", user)
	token := "mock_token_" + user.ID
	m.AddToken(token, user)
	return &AuthResponse{Token: token, User: user, ExpiresAt: time.Now().Add(24 * time.Hour)}, nil
}

func (m *MockAuthService) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	m.recordCall("ValidateToken", tokenString)
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Tokens[tokenString]
	if !ok {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return user, nil
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	m.recordCall("RequestPasswordReset", email)
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(email)
	}
	return m.DefaultError
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	m.recordCall("ResetPassword", token, newPassword)
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(token, newPassword)
	}
	return m.DefaultError
}

func (m *MockAuthService) ChangePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error {
	m.recordCall("ChangePassword", user.ID)
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(user, currentPassword, newPassword)
	}
	return m.DefaultError
}

func (m *MockAuthService) SetupTOTP(ctx context.Context, user *models.User) (*TOTPSetup, error) {
	m.recordCall("SetupTOTP", user.ID)
	if m.SetupTOTPFunc != nil {
		return m.SetupTOTPFunc(user)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return &TOTPSetup{Secret: "JBSWY3DPEHPK3PXP", URL: "otpauth://totp/Formdesk:" + user.Email}, nil
}

func (m *MockAuthService) EnableTOTP(ctx context.Context, user *models.User, code string) error {
	m.recordCall("EnableTOTP", user.ID, code)
	return m.DefaultError
}

func (m *MockAuthService) DisableTOTP(ctx context.Context, user *models.User, password, code string) error {
	m.recordCall("DisableTOTP", user.ID, code)
	return m.DefaultError
}

// Ensure MockAuthService implements AuthServiceInterface
var _ AuthServiceInterface = (*MockAuthService)(nil)
