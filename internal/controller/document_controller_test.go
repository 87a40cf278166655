package controller

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"second-brain-client/internal/dto"
)

func TestIngestListSearchDelete(t *testing.T) {
	b := newTestBackend(t, "")
	token := b.login(t, "ada@example.com")

	resp := b.upload(t, token, "garden notes.txt", []byte("Plant tomatoes after the last frost."))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var ingested dto.IngestResponse
	decode(t, resp, &ingested)
	assert.True(t, ingested.Success)
	assert.Equal(t, "garden notes.txt", ingested.Filename)
	assert.Equal(t, 1, ingested.Chunks)

	resp = b.do(t, fiber.MethodGet, "/documents", token, nil)
	var docs dto.GetDocumentsResponse
	decode(t, resp, &docs)
	require.Len(t, docs.Documents, 1)
	assert.Equal(t, ".txt", docs.Documents[0].FileType)

	resp = b.do(t, fiber.MethodGet, "/search?q=tomatoes", token, nil)
	var found dto.SearchDocumentsResponse
	decode(t, resp, &found)
	require.Len(t, found.Results, 1)
	assert.Equal(t, "garden notes.txt", found.Results[0].Metadata["file_name"])

	resp = b.do(t, fiber.MethodDelete, "/documents/garden%20notes.txt", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var deleted dto.DeleteDocumentResponse
	decode(t, resp, &deleted)
	assert.Equal(t, 1, deleted.DeletedChunks)

	resp = b.do(t, fiber.MethodDelete, "/documents/garden%20notes.txt", token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Document not found", errorOf(t, resp))
}

func TestUploadInfo(t *testing.T) {
	b := newTestBackend(t, "")
	token := b.login(t, "ada@example.com")

	resp := b.do(t, fiber.MethodGet, "/documents/upload-url", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var info dto.UploadInfoResponse
	decode(t, resp, &info)
	assert.True(t, strings.HasSuffix(info.UploadURL, "/ingest"))
	assert.Equal(t, int64(1024), info.MaxFileSize)
	assert.Equal(t, []string{"csv", "doc", "docx", "gif", "jpeg", "jpg", "json", "pdf", "png", "txt"}, info.SupportedFormats)

	resp = b.do(t, fiber.MethodGet, "/documents/upload-url", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestIngestRejectionsCarryStatusAndMessage(t *testing.T) {
	b := newTestBackend(t, "")
	token := b.login(t, "ada@example.com")

	tests := []struct {
		filename string
		data     []byte
		status   int
		message  string
	}{
		{"setup.exe", []byte("MZ"), fiber.StatusBadRequest, "Unsupported file type: .exe"},
		{"locked.pdf", []byte("%PDF-1.7 /Encrypt"), fiber.StatusBadRequest, "PDF is encrypted or password protected"},
		{"empty.txt", []byte("  "), fiber.StatusBadRequest, "No text content could be extracted from empty.txt"},
		{"huge.txt", []byte(strings.Repeat("a", 2048)), fiber.StatusRequestEntityTooLarge, "File too large"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			resp := b.upload(t, token, tt.filename, tt.data)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.message, errorOf(t, resp))
		})
	}
}

func TestIngestWithoutFile(t *testing.T) {
	b := newTestBackend(t, "")
	token := b.login(t, "ada@example.com")

	req := httptest.NewRequest(fiber.MethodPost, "/ingest", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := b.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file provided", errorOf(t, resp))
}

func TestSearchRequiresQuery(t *testing.T) {
	b := newTestBackend(t, "")
	token := b.login(t, "ada@example.com")

	resp := b.do(t, fiber.MethodGet, "/search?q=", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
