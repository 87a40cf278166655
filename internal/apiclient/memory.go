package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"second-brain-client/internal/dto"
)

func memoryPath(key, suffix string) string {
	return "/memories/" + url.PathEscape(key) + suffix
}

func categoryQuery(category string) url.Values {
	if category == "" {
		return nil
	}
	return url.Values{"category": []string{category}}
}

func (c *Client) GetMemories(ctx context.Context) (*dto.GetMemoriesResponse, error) {
	var out dto.GetMemoriesResponse
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/memories"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUpcomingMemories(ctx context.Context, hoursAhead int) (*dto.GetMemoriesResponse, error) {
	req := &request{
		method: http.MethodGet,
		path:   "/memories/upcoming",
		query:  url.Values{"hours": []string{strconv.Itoa(hoursAhead)}},
	}
	var out dto.GetMemoriesResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetExpiredMemories(ctx context.Context) (*dto.GetMemoriesResponse, error) {
	var out dto.GetMemoriesResponse
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/memories/expired"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddMemory sends a natural-language command to the backend parser.
func (c *Client) AddMemory(ctx context.Context, command string) (*dto.AddMemoryResponse, error) {
	req, err := jsonRequest(http.MethodPost, "/memories", dto.AddMemoryCommandRequest{Command: command})
	if err != nil {
		return nil, err
	}
	var out dto.AddMemoryResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddMemoryDirect(ctx context.Context, in dto.AddMemoryDirectRequest) (*dto.AddMemoryResponse, error) {
	req, err := jsonRequest(http.MethodPost, "/memories", in)
	if err != nil {
		return nil, err
	}
	var out dto.AddMemoryResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMemory(ctx context.Context, key, category string) error {
	req := &request{
		method: http.MethodDelete,
		path:   memoryPath(key, ""),
		query:  categoryQuery(category),
	}
	return c.do(ctx, req, nil)
}

func (c *Client) CompleteMemory(ctx context.Context, key, category string) error {
	req := &request{
		method: http.MethodPost,
		path:   memoryPath(key, "/complete"),
		query:  categoryQuery(category),
	}
	return c.do(ctx, req, nil)
}

func (c *Client) CleanupMemories(ctx context.Context, daysOld int) (*dto.CleanupMemoriesResponse, error) {
	req, err := jsonRequest(http.MethodPost, "/memories/cleanup", dto.CleanupMemoriesRequest{DaysOld: daysOld})
	if err != nil {
		return nil, err
	}
	var out dto.CleanupMemoriesResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMemoryTimeStats(ctx context.Context) (*dto.MemoryTimeStatsResponse, error) {
	var out dto.MemoryTimeStatsResponse
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/memories/stats/time"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchMemories(ctx context.Context, query string) (*dto.SearchMemoriesResponse, error) {
	req := &request{
		method: http.MethodGet,
		path:   "/memories/search",
		query:  url.Values{"q": []string{query}},
	}
	var out dto.SearchMemoriesResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExportMemories(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/export/memories"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
