package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"second-brain-client/internal/dto"
)

func (c *Client) GetDocuments(ctx context.Context) (*dto.GetDocumentsResponse, error) {
	var out dto.GetDocumentsResponse
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/documents"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, filename string) (*dto.DeleteDocumentResponse, error) {
	var out dto.DeleteDocumentResponse
	req := &request{method: http.MethodDelete, path: "/documents/" + url.PathEscape(filename)}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchDocuments(ctx context.Context, query string) (*dto.SearchDocumentsResponse, error) {
	req := &request{
		method: http.MethodGet,
		path:   "/search",
		query:  url.Values{"q": []string{query}},
	}
	var out dto.SearchDocumentsResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUploadInfo(ctx context.Context) (*dto.UploadInfoResponse, error) {
	var out dto.UploadInfoResponse
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/documents/upload-url"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadFile posts one file to /ingest. Every failure comes back as an
// *UploadError carrying the mapped cause.
func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader) (*dto.IngestResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, newSetupUploadError(err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, newSetupUploadError(err)
	}
	if err := mw.Close(); err != nil {
		return nil, newSetupUploadError(err)
	}

	req := &request{
		method:      http.MethodPost,
		path:        "/ingest",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}

	var out dto.IngestResponse
	if err := c.do(ctx, req, &out); err != nil {
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			return nil, &UploadError{Failure: MapUploadError(0, ""), Err: err}
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, &UploadError{Failure: MapUploadError(apiErr.StatusCode, apiErr.Message), Err: err}
		}
		return nil, newSetupUploadError(err)
	}

	// Some backends answer 200 with a failure envelope
	if !out.Success && out.Error != "" {
		err := &APIError{StatusCode: http.StatusBadRequest, Message: out.Error}
		return nil, &UploadError{Failure: MapUploadError(http.StatusBadRequest, out.Error), Err: err}
	}
	return &out, nil
}

func newSetupUploadError(err error) *UploadError {
	return &UploadError{
		Failure: UploadFailure{
			Cause:       CauseUnknown,
			Message:     "Upload failed. Please try again.",
			Detail:      err.Error(),
			Suggestions: suggestionsFor(CauseUnknown),
		},
		Err: fmt.Errorf("prepare upload: %w", err),
	}
}
