package controller

import (
	"encoding/json"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"second-brain-client/internal/dto"
)

func TestMemoryAddListDelete(t *testing.T) {
	b := newTestBackend(t, "")
	token := b.login(t, "ada@example.com")

	resp := b.do(t, fiber.MethodPost, "/memories", token, dto.AddMemoryCommandRequest{Command: "remember John phone as 555-1234"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var added dto.AddMemoryResponse
	decode(t, resp, &added)
	assert.True(t, added.Success)
	assert.Equal(t, "john_phone", added.Key)
	assert.Equal(t, "contacts", added.Category)

	resp = b.do(t, fiber.MethodPost, "/memories", token, dto.AddMemoryDirectRequest{
		Category: "financial", Key: "rent due", Value: "1200", Description: "monthly",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = b.do(t, fiber.MethodGet, "/memories", token, nil)
	var list dto.GetMemoriesResponse
	decode(t, resp, &list)
	assert.Equal(t, 2, list.Total)

	resp = b.do(t, fiber.MethodDelete, "/memories/rent%20due?category=contacts", token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Memory not found", errorOf(t, resp))

	resp = b.do(t, fiber.MethodDelete, "/memories/rent%20due?category=financial", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = b.do(t, fiber.MethodGet, "/memories", token, nil)
	decode(t, resp, &list)
	assert.Equal(t, 1, list.Total)
}

func TestMemoryAddRejections(t *testing.T) {
	b := newTestBackend(t, "")
	token := b.login(t, "ada@example.com")

	resp := b.do(t, fiber.MethodPost, "/memories", token, dto.AddMemoryCommandRequest{Command: "hello there"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorOf(t, resp), "remember")

	resp = b.do(t, fiber.MethodPost, "/memories", token, dto.AddMemoryDirectRequest{Category: "pets", Key: "dog", Value: "Rex"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorOf(t, resp), "category")

	resp = b.do(t, fiber.MethodGet, "/memories", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMemoryTimedEndpoints(t *testing.T) {
	b := newTestBackend(t, "")
	token := b.login(t, "ada@example.com")

	for _, cmd := range []string{
		"remember tax filing as important deadline on 2000-01-01",
		"remember moon trip as booked on 2999-01-01",
	} {
		resp := b.do(t, fiber.MethodPost, "/memories", token, dto.AddMemoryCommandRequest{Command: cmd})
		require.Equal(t, fiber.StatusOK, resp.StatusCode, cmd)
	}

	resp := b.do(t, fiber.MethodGet, "/memories/expired", token, nil)
	var expired dto.GetMemoriesResponse
	decode(t, resp, &expired)
	require.Len(t, expired.Memories, 1)
	assert.Equal(t, "tax_filing", expired.Memories[0].OriginalKey)

	resp = b.do(t, fiber.MethodGet, "/memories/upcoming?hours=48", token, nil)
	var upcoming dto.GetMemoriesResponse
	decode(t, resp, &upcoming)
	assert.Empty(t, upcoming.Memories)
	assert.NotNil(t, upcoming.Memories)

	resp = b.do(t, fiber.MethodGet, "/memories/stats/time", token, nil)
	var stats dto.MemoryTimeStatsResponse
	decode(t, resp, &stats)
	assert.Equal(t, 2, stats.Timed)
	assert.Equal(t, 1, stats.Expired)
	assert.Equal(t, 1, stats.Upcoming)

	resp = b.do(t, fiber.MethodPost, "/memories/tax_filing/complete", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = b.do(t, fiber.MethodPost, "/memories/missing/complete", token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = b.do(t, fiber.MethodPost, "/memories/cleanup", token, dto.CleanupMemoriesRequest{DaysOld: 1})
	var cleanup dto.CleanupMemoriesResponse
	decode(t, resp, &cleanup)
	assert.True(t, cleanup.Success)
	assert.Equal(t, 1, cleanup.RemovedCount)

	resp = b.do(t, fiber.MethodPost, "/memories/cleanup", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMemorySearchAndExport(t *testing.T) {
	b := newTestBackend(t, "")
	token := b.login(t, "ada@example.com")
	b.do(t, fiber.MethodPost, "/memories", token, dto.AddMemoryCommandRequest{Command: "remember John phone as 555-1234"})

	resp := b.do(t, fiber.MethodGet, "/memories/search?q=john", token, nil)
	var found dto.SearchMemoriesResponse
	decode(t, resp, &found)
	assert.Equal(t, "john", found.Query)
	assert.Len(t, found.Results, 1)

	resp = b.do(t, fiber.MethodGet, "/memories/search", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = b.do(t, fiber.MethodGet, "/export/memories", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var exported map[string]json.RawMessage
	decode(t, resp, &exported)
	assert.Contains(t, exported, "memories")
	assert.Contains(t, exported, "exported_at")
}
