package apiclient

import (
	"context"
	"net/http"

	"second-brain-client/internal/dto"
)

func (c *Client) GetStatus(ctx context.Context) (*dto.StatusResponse, error) {
	var out dto.StatusResponse
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/status"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUserStats(ctx context.Context) (*dto.UserStatsResponse, error) {
	var out dto.UserStatsResponse
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/stats"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
