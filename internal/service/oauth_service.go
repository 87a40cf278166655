package service

import (
	"context"
	"errors"
	"fmt"

	"second-brain-client/internal/pkg/logger"

	"golang.org/x/oauth2"
)

var ErrOAuthNotConfigured = errors.New("google client id is not configured")

type IOAuthService interface {
	// StartDeviceLogin asks the provider for a user code the person enters
	// on another device.
	StartDeviceLogin(ctx context.Context) (*oauth2.DeviceAuthResponse, error)
	// AwaitIdToken polls until the person approves and returns the OpenID
	// Connect ID token.
	AwaitIdToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (string, error)
}

type oauthService struct {
	conf   *oauth2.Config
	logger logger.ILogger
}

// NewOAuthService uses endpoint for the device flow; callers pass
// google.Endpoint outside tests.
func NewOAuthService(clientId, clientSecret string, endpoint oauth2.Endpoint, log logger.ILogger) IOAuthService {
	return &oauthService{
		conf: &oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		logger: log,
	}
}

func (s *oauthService) StartDeviceLogin(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	if s.conf.ClientID == "" {
		return nil, ErrOAuthNotConfigured
	}
	da, err := s.conf.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device authorization: %w", err)
	}
	s.logger.Info("OAuthService", "Device login started", map[string]interface{}{"verification_uri": da.VerificationURI})
	return da, nil
}

func (s *oauthService) AwaitIdToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (string, error) {
	token, err := s.conf.DeviceAccessToken(ctx, da)
	if err != nil {
		return "", fmt.Errorf("device token: %w", err)
	}
	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", errors.New("provider returned no id_token")
	}
	return idToken, nil
}
