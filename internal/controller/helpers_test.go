package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"second-brain-client/internal/devstore"
	"second-brain-client/internal/dto"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/pkg/serverutils"
)

type testBackend struct {
	app    *fiber.App
	store  *devstore.Store
	issuer *serverutils.TokenIssuer
}

func newTestBackend(t *testing.T, googleClientId string) *testBackend {
	t.Helper()
	store := devstore.New(nil)
	issuer := serverutils.NewTokenIssuer("test-secret", time.Hour)
	auth := serverutils.JwtMiddleware(issuer)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler})
	NewStatusController(store, auth, "test").RegisterRoutes(app)
	NewAuthController(store, issuer, auth, googleClientId).RegisterRoutes(app)
	NewChatController(store, auth).RegisterRoutes(app)
	NewMemoryController(store, auth).RegisterRoutes(app)
	NewDocumentController(store, auth, 1024, logger.NewNopLogger()).RegisterRoutes(app)

	return &testBackend{app: app, store: store, issuer: issuer}
}

func (b *testBackend) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := b.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (b *testBackend) upload(t *testing.T, token, filename string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/ingest", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := b.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (b *testBackend) login(t *testing.T, email string) string {
	t.Helper()
	resp := b.do(t, fiber.MethodPost, "/api/auth/login", "", dto.DevLoginRequest{Email: email, Name: "Test"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out dto.LoginResponse
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func errorOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body dto.ErrorResponse
	decode(t, resp, &body)
	return body.Error
}
