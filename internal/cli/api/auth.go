package api

import (
	"github.com/zfogg/formdesk/internal/cli/client"
	"github.com/zfogg/formdesk/internal/cli/logger"
)

// Login exchanges a username or email and password for a token. totpCode
// is only needed when the account has two-factor enabled.
func Login(login, password, totpCode string) (*LoginResponse, error) {
	logger.Debug("Attempting login", "login", login)

	var out LoginResponse
	resp, err := client.GetClient().R().
		SetBody(LoginRequest{Login: login, Password: password, TOTPCode: totpCode}).
		Post("/api/v1/auth/login")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}

	logger.Debug("Login successful", "username", out.User.Username)
	return &out, nil
}

func GetCurrentUser() (*MeResponse, error) {
	var out MeResponse
	resp, err := client.GetClient().R().Get("/api/v1/auth/me")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ChangePassword(current, next string) error {
	resp, err := client.GetClient().R().
		SetBody(map[string]string{"current_password": current, "new_password": next}).
		Post("/api/v1/auth/password")
	return decode(resp, err, nil)
}

// RequestPasswordReset always succeeds for well-formed addresses; the
// server does not reveal whether the account exists.
func RequestPasswordReset(email string) error {
	resp, err := client.GetClient().R().
		SetBody(map[string]string{"email": email}).
		Post("/api/v1/auth/password-reset/request")
	return decode(resp, err, nil)
}

func ConfirmPasswordReset(token, newPassword string) error {
	resp, err := client.GetClient().R().
		SetBody(map[string]string{"token": token, "new_password": newPassword}).
		Post("/api/v1/auth/password-reset/confirm")
	return decode(resp, err, nil)
}

func SetupTOTP() (*TOTPSetup, error) {
	var out TOTPSetup
	resp, err := client.GetClient().R().Post("/api/v1/auth/totp/setup")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func EnableTOTP(code string) error {
	resp, err := client.GetClient().R().
		SetBody(map[string]string{"code": code}).
		Post("/api/v1/auth/totp/enable")
	return decode(resp, err, nil)
}

func DisableTOTP(code, password string) error {
	resp, err := client.GetClient().R().
		SetBody(map[string]string{"code": code, "password": password}).
		Post("/api/v1/auth/totp/disable")
	return decode(resp, err, nil)
}
