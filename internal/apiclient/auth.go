package apiclient

import (
	"context"
	"net/http"

	"second-brain-client/internal/dto"
)

// ValidateToken reports a missing or rejected token as Valid=false. Only
// failures that say nothing about the token (network, 5xx) are returned.
func (c *Client) ValidateToken(ctx context.Context) (*dto.ValidateTokenResponse, error) {
	if c.tokens == nil || c.tokens.Token() == "" {
		return &dto.ValidateTokenResponse{Valid: false, Message: "No token found"}, nil
	}

	var out dto.ValidateTokenResponse
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/api/auth/validate"}, &out); err != nil {
		status := StatusOf(err)
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return &dto.ValidateTokenResponse{Valid: false, Message: ServerMessage(err)}, nil
		}
		return nil, err
	}
	return &out, nil
}

// GoogleLogin exchanges a Google ID token for a backend session token.
func (c *Client) GoogleLogin(ctx context.Context, idToken, clientId string) (*dto.LoginResponse, error) {
	req, err := jsonRequest(http.MethodPost, "/api/auth/google", dto.GoogleLoginRequest{
		Token:    idToken,
		ClientId: clientId,
	})
	if err != nil {
		return nil, err
	}
	var out dto.LoginResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DevLogin is only served by the development backend.
func (c *Client) DevLogin(ctx context.Context, email, name string) (*dto.LoginResponse, error) {
	req, err := jsonRequest(http.MethodPost, "/api/auth/login", dto.DevLoginRequest{Email: email, Name: name})
	if err != nil {
		return nil, err
	}
	var out dto.LoginResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProfile(ctx context.Context) (*dto.ProfileResponse, error) {
	var out dto.ProfileResponse
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/api/auth/profile"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the backend (best effort) and always drops local
// credentials.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, &request{method: http.MethodPost, path: "/api/auth/logout"}, nil)
	if err != nil {
		c.logger.Warn(moduleName, "Logout request failed", map[string]interface{}{"error": err.Error()})
	}
	if c.tokens != nil {
		c.tokens.Invalidate(ctx)
	}
	return err
}
