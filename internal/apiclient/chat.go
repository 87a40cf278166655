package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"second-brain-client/internal/dto"
)

func (c *Client) SendQuery(ctx context.Context, question string, useHistory bool) (*dto.QueryResponse, error) {
	req, err := jsonRequest(http.MethodPost, "/query", dto.QueryRequest{
		Question:   question,
		UseHistory: useHistory,
	})
	if err != nil {
		return nil, err
	}
	var out dto.QueryResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetConversationHistory(ctx context.Context) (*dto.ConversationHistoryResponse, error) {
	var out dto.ConversationHistoryResponse
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/conversation/history"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClearConversationHistory(ctx context.Context) error {
	return c.do(ctx, &request{method: http.MethodDelete, path: "/conversation/history"}, nil)
}

func (c *Client) ExportConversationHistory(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/conversation/history/export"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
