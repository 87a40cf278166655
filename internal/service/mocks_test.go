package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"

	"github.com/stretchr/testify/mock"
)

type mockChatBackend struct {
	mock.Mock
}

func (m *mockChatBackend) SendQuery(ctx context.Context, question string, useHistory bool) (*dto.QueryResponse, error) {
	args := m.Called(ctx, question, useHistory)
	resp, _ := args.Get(0).(*dto.QueryResponse)
	return resp, args.Error(1)
}

func (m *mockChatBackend) GetConversationHistory(ctx context.Context) (*dto.ConversationHistoryResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*dto.ConversationHistoryResponse)
	return resp, args.Error(1)
}

func (m *mockChatBackend) ClearConversationHistory(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockChatBackend) ExportConversationHistory(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

// recordingNotifier keeps every notification in order.
type recordingNotifier struct {
	mu    sync.Mutex
	items []entity.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, severity entity.NotificationSeverity, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, entity.Notification{Severity: severity, Message: message})
}

func (r *recordingNotifier) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, n.Message)
	}
	return out
}

type mockUploadBackend struct {
	mock.Mock
}

func (m *mockUploadBackend) UploadFile(ctx context.Context, filename string, content io.Reader) (*dto.IngestResponse, error) {
	body, _ := io.ReadAll(content)
	args := m.Called(ctx, filename, string(body))
	resp, _ := args.Get(0).(*dto.IngestResponse)
	return resp, args.Error(1)
}

type mockMemoryBackend struct {
	mock.Mock
}

func (m *mockMemoryBackend) GetMemories(ctx context.Context) (*dto.GetMemoriesResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*dto.GetMemoriesResponse)
	return resp, args.Error(1)
}

func (m *mockMemoryBackend) GetUpcomingMemories(ctx context.Context, hoursAhead int) (*dto.GetMemoriesResponse, error) {
	args := m.Called(ctx, hoursAhead)
	resp, _ := args.Get(0).(*dto.GetMemoriesResponse)
	return resp, args.Error(1)
}

func (m *mockMemoryBackend) GetExpiredMemories(ctx context.Context) (*dto.GetMemoriesResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*dto.GetMemoriesResponse)
	return resp, args.Error(1)
}

func (m *mockMemoryBackend) AddMemory(ctx context.Context, command string) (*dto.AddMemoryResponse, error) {
	args := m.Called(ctx, command)
	resp, _ := args.Get(0).(*dto.AddMemoryResponse)
	return resp, args.Error(1)
}

func (m *mockMemoryBackend) AddMemoryDirect(ctx context.Context, in dto.AddMemoryDirectRequest) (*dto.AddMemoryResponse, error) {
	args := m.Called(ctx, in)
	resp, _ := args.Get(0).(*dto.AddMemoryResponse)
	return resp, args.Error(1)
}

func (m *mockMemoryBackend) DeleteMemory(ctx context.Context, key, category string) error {
	return m.Called(ctx, key, category).Error(0)
}

func (m *mockMemoryBackend) CompleteMemory(ctx context.Context, key, category string) error {
	return m.Called(ctx, key, category).Error(0)
}

func (m *mockMemoryBackend) CleanupMemories(ctx context.Context, daysOld int) (*dto.CleanupMemoriesResponse, error) {
	args := m.Called(ctx, daysOld)
	resp, _ := args.Get(0).(*dto.CleanupMemoriesResponse)
	return resp, args.Error(1)
}

func (m *mockMemoryBackend) GetMemoryTimeStats(ctx context.Context) (*dto.MemoryTimeStatsResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*dto.MemoryTimeStatsResponse)
	return resp, args.Error(1)
}

func (m *mockMemoryBackend) SearchMemories(ctx context.Context, query string) (*dto.SearchMemoriesResponse, error) {
	args := m.Called(ctx, query)
	resp, _ := args.Get(0).(*dto.SearchMemoriesResponse)
	return resp, args.Error(1)
}

func (m *mockMemoryBackend) ExportMemories(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

type mockDocumentBackend struct {
	mock.Mock
}

func (m *mockDocumentBackend) GetDocuments(ctx context.Context) (*dto.GetDocumentsResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*dto.GetDocumentsResponse)
	return resp, args.Error(1)
}

func (m *mockDocumentBackend) DeleteDocument(ctx context.Context, filename string) (*dto.DeleteDocumentResponse, error) {
	args := m.Called(ctx, filename)
	resp, _ := args.Get(0).(*dto.DeleteDocumentResponse)
	return resp, args.Error(1)
}

func (m *mockDocumentBackend) SearchDocuments(ctx context.Context, query string) (*dto.SearchDocumentsResponse, error) {
	args := m.Called(ctx, query)
	resp, _ := args.Get(0).(*dto.SearchDocumentsResponse)
	return resp, args.Error(1)
}

type mockAuthBackend struct {
	mock.Mock
}

func (m *mockAuthBackend) ValidateToken(ctx context.Context) (*dto.ValidateTokenResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*dto.ValidateTokenResponse)
	return resp, args.Error(1)
}

func (m *mockAuthBackend) GoogleLogin(ctx context.Context, idToken, clientId string) (*dto.LoginResponse, error) {
	args := m.Called(ctx, idToken, clientId)
	resp, _ := args.Get(0).(*dto.LoginResponse)
	return resp, args.Error(1)
}

func (m *mockAuthBackend) DevLogin(ctx context.Context, email, name string) (*dto.LoginResponse, error) {
	args := m.Called(ctx, email, name)
	resp, _ := args.Get(0).(*dto.LoginResponse)
	return resp, args.Error(1)
}

func (m *mockAuthBackend) GetProfile(ctx context.Context) (*dto.ProfileResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*dto.ProfileResponse)
	return resp, args.Error(1)
}

func (m *mockAuthBackend) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
