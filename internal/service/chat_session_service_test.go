package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"second-brain-client/internal/apiclient"
	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/repository/contract"
	"second-brain-client/internal/repository/memory"
	"second-brain-client/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func newChatStore(t *testing.T, backend ChatBackend, storage contract.StorageRepository, notifier INotifier) IChatSessionService {
	t.Helper()
	return NewChatSessionService(context.Background(), "user-1", backend, storage, notifier, logger.NewNopLogger(), WithClock(fixedClock()))
}

func TestSendUserQuerySuccessAppendsUserAndAssistant(t *testing.T) {
	backend := new(mockChatBackend)
	confidence := 0.9
	backend.On("SendQuery", mock.Anything, "What documents do I have?", true).
		Return(&dto.QueryResponse{Response: "Two PDFs.", Sources: []string{"a.pdf"}, Confidence: &confidence}, nil).Once()

	store := newChatStore(t, backend, memory.NewStorageRepository(), &recordingNotifier{})
	before := len(store.Messages())

	require.NoError(t, store.SendUserQuery(context.Background(), "What documents do I have?"))

	msgs := store.Messages()
	require.Len(t, msgs, before+2)
	assert.Equal(t, entity.ChatRoleUser, msgs[0].Role)
	assert.Equal(t, "What documents do I have?", msgs[0].Content)
	assert.Equal(t, entity.ChatRoleAssistant, msgs[1].Role)
	assert.Equal(t, "Two PDFs.", msgs[1].Content)
	assert.Equal(t, []string{"a.pdf"}, msgs[1].Sources)
	require.NotNil(t, msgs[1].Confidence)
	assert.Equal(t, 0.9, *msgs[1].Confidence)
	assert.True(t, msgs[0].Timestamp.Before(msgs[1].Timestamp))
	assert.NotEqual(t, msgs[0].Id, msgs[1].Id)

	history := store.ConversationHistory()
	require.Len(t, history, 2)
	assert.Equal(t, entity.ChatRoleUser, history[0].Role)
	assert.Equal(t, entity.ChatRoleAssistant, history[1].Role)

	assert.Equal(t, RequestIdle, store.RequestState())
	backend.AssertExpectations(t)
}

func TestSendUserQueryFailureAppendsErrorMessage(t *testing.T) {
	backend := new(mockChatBackend)
	backend.On("SendQuery", mock.Anything, "What documents do I have?", true).
		Return(nil, errors.New("backend down")).Once()
	notifier := &recordingNotifier{}

	store := newChatStore(t, backend, memory.NewStorageRepository(), notifier)

	require.NoError(t, store.SendUserQuery(context.Background(), "What documents do I have?"))

	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, entity.ChatRoleUser, msgs[0].Role)
	assert.Equal(t, entity.ChatRoleError, msgs[1].Role)
	assert.Equal(t, "Sorry, I encountered an error. Please try again.", msgs[1].Content)
	assert.Equal(t, []string{"Failed to send message. Please try again."}, notifier.Messages())
	assert.Empty(t, store.ConversationHistory())
	assert.False(t, store.IsLoading())
}

func TestSendUserQueryBlankIsNoop(t *testing.T) {
	backend := new(mockChatBackend)
	store := newChatStore(t, backend, memory.NewStorageRepository(), nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		assert.ErrorIs(t, store.SendUserQuery(context.Background(), text), ErrEmptyQuery)
	}
	assert.Empty(t, store.Messages())
	backend.AssertNotCalled(t, "SendQuery", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendUserQueryWhileInFlightIsNoop(t *testing.T) {
	backend := new(mockChatBackend)
	release := make(chan struct{})
	started := make(chan struct{})
	backend.On("SendQuery", mock.Anything, "first", true).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&dto.QueryResponse{Response: "ok"}, nil).Once()

	store := newChatStore(t, backend, memory.NewStorageRepository(), nil)

	done := make(chan error, 1)
	go func() { done <- store.SendUserQuery(context.Background(), "first") }()
	<-started

	assert.True(t, store.IsLoading())
	assert.ErrorIs(t, store.SendUserQuery(context.Background(), "second"), ErrQueryInFlight)
	assert.Len(t, store.Messages(), 1)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, store.Messages(), 2)
	assert.False(t, store.IsLoading())
	backend.AssertNumberOfCalls(t, "SendQuery", 1)
}

func TestTranscriptRoundTripThroughStorage(t *testing.T) {
	storage := memory.NewStorageRepository()
	store := newChatStore(t, new(mockChatBackend), storage, nil)
	ctx := context.Background()

	confidence := 0.42
	require.NoError(t, store.AddMessages(ctx,
		entity.ChatMessage{Content: "hi", Role: entity.ChatRoleUser},
		entity.ChatMessage{Content: "hello", Role: entity.ChatRoleAssistant, Sources: []string{"s1", "s2"}, Confidence: &confidence},
	))
	original := store.Messages()

	reloaded := newChatStore(t, new(mockChatBackend), storage, nil)
	got := reloaded.Messages()
	require.Len(t, got, len(original))
	for i := range original {
		assert.Equal(t, original[i].Id, got[i].Id)
		assert.Equal(t, original[i].Role, got[i].Role)
		assert.Equal(t, original[i].Content, got[i].Content)
		assert.Equal(t, original[i].Sources, got[i].Sources)
		assert.Equal(t, original[i].Confidence, got[i].Confidence)
		assert.WithinDuration(t, original[i].Timestamp, got[i].Timestamp, time.Millisecond)
	}
}

func TestAddMessageRejectsBlankUserContent(t *testing.T) {
	store := newChatStore(t, new(mockChatBackend), memory.NewStorageRepository(), nil)

	err := store.AddMessage(context.Background(), entity.ChatMessage{Content: "  ", Role: entity.ChatRoleUser})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	err = store.AddMessages(context.Background(),
		entity.ChatMessage{Content: "ok", Role: entity.ChatRoleUser},
		entity.ChatMessage{Content: "", Role: entity.ChatRoleUser},
	)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, store.Messages())
}

func TestClearMessagesDoesNotTouchHistory(t *testing.T) {
	storage := memory.NewStorageRepository()
	store := newChatStore(t, new(mockChatBackend), storage, nil)
	ctx := context.Background()

	user := entity.ChatMessage{Id: "u", Content: "q", Role: entity.ChatRoleUser, Timestamp: time.Now()}
	assistant := entity.ChatMessage{Id: "a", Content: "a", Role: entity.ChatRoleAssistant, Timestamp: time.Now()}
	require.NoError(t, store.AddMessages(ctx, user, assistant))
	store.AddToConversationHistory(ctx, user, assistant)

	store.ClearMessages(ctx)
	assert.Empty(t, store.Messages())
	assert.Len(t, store.ConversationHistory(), 2)

	reloaded := newChatStore(t, new(mockChatBackend), storage, nil)
	assert.Empty(t, reloaded.Messages())
	assert.Len(t, reloaded.ConversationHistory(), 2)

	store.ClearHistory(ctx)
	assert.Empty(t, store.ConversationHistory())
	reloaded = newChatStore(t, new(mockChatBackend), storage, nil)
	assert.Empty(t, reloaded.ConversationHistory())
}

func TestConversationHistoryIsCapped(t *testing.T) {
	store := newChatStore(t, new(mockChatBackend), memory.NewStorageRepository(), nil)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		user := entity.ChatMessage{Id: fmt.Sprintf("u%d", i), Content: "q", Role: entity.ChatRoleUser, Timestamp: time.Now()}
		assistant := entity.ChatMessage{Id: fmt.Sprintf("a%d", i), Content: "a", Role: entity.ChatRoleAssistant, Timestamp: time.Now()}
		store.AddToConversationHistory(ctx, user, assistant)
		assert.LessOrEqual(t, len(store.ConversationHistory()), MaxConversationHistory)
	}

	history := store.ConversationHistory()
	require.Len(t, history, MaxConversationHistory)
	assert.Equal(t, "u5", history[0].Id)
	assert.Equal(t, "a14", history[len(history)-1].Id)
}

func TestLoadConversationHistory(t *testing.T) {
	backend := new(mockChatBackend)
	backend.On("GetConversationHistory", mock.Anything).Return(&dto.ConversationHistoryResponse{
		History: []dto.HistoryEntryDTO{
			{Id: "1", Content: "q", Role: "user", Timestamp: "2026-03-01T10:00:00Z"},
			{Id: "2", Content: "a", Role: "assistant", Timestamp: "2026-03-01T10:00:01Z"},
		},
	}, nil).Once()
	backend.On("GetConversationHistory", mock.Anything).Return(nil, errors.New("offline")).Once()

	storage := memory.NewStorageRepository()
	notifier := &recordingNotifier{}
	store := newChatStore(t, backend, storage, notifier)
	ctx := context.Background()

	store.LoadConversationHistory(ctx)
	require.Len(t, store.ConversationHistory(), 2)
	assert.False(t, store.IsLoadingHistory())

	// A failed reload keeps the previous cache
	store.LoadConversationHistory(ctx)
	assert.Len(t, store.ConversationHistory(), 2)
	assert.Equal(t, []string{"Failed to load conversation history."}, notifier.Messages())

	reloaded := newChatStore(t, new(mockChatBackend), storage, nil)
	history := reloaded.ConversationHistory()
	require.Len(t, history, 2)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC), history[1].ParsedTimestamp())
}

func TestStorageIsScopedPerUser(t *testing.T) {
	storage := memory.NewStorageRepository()
	ctx := context.Background()

	store := newChatStore(t, new(mockChatBackend), storage, nil)
	require.NoError(t, store.AddMessage(ctx, entity.ChatMessage{Content: "mine", Role: entity.ChatRoleUser}))

	raw, err := storage.Load(ctx, "second_brain_chat_user-1")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"lastUpdated"`)

	store.SwitchUser(ctx, "")
	assert.Equal(t, entity.AnonymousUserId, store.UserKey())
	assert.Empty(t, store.Messages())

	store.SwitchUser(ctx, "user-1")
	assert.Len(t, store.Messages(), 1)
}

func loadTranscript(t *testing.T, storage contract.StorageRepository, userKey string) []entity.ChatMessage {
	t.Helper()
	var transcript entity.ChatTranscript
	_, err := contract.LoadJSON(context.Background(), storage, "second_brain_chat_"+userKey, &transcript)
	require.NoError(t, err)
	return transcript.Messages
}

func TestUnauthorizedQueryReplyStaysWithAskingUser(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid token"}`))
	}))
	defer srv.Close()

	storage := memory.NewStorageRepository()
	log := logger.NewNopLogger()
	sessions := session.NewManager(storage, log)
	_, err := sessions.Start(ctx, "alice-token", &entity.User{Id: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	client, err := apiclient.New(srv.URL, 5*time.Second, sessions, log)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	store := NewChatSessionService(ctx, sessions.UserKey(), client, storage, notifier, log, WithClock(fixedClock()))
	sessions.OnChange(func(s *session.Session) {
		store.SwitchUser(context.Background(), s.UserKey())
	})

	require.NoError(t, store.SendUserQuery(ctx, "hello"))

	// the 401 purged the session and re-scoped the store
	assert.False(t, sessions.IsAuthenticated())
	assert.Equal(t, entity.AnonymousUserId, store.UserKey())
	assert.Empty(t, store.Messages())
	assert.Equal(t, RequestIdle, store.RequestState())

	alice := loadTranscript(t, storage, "alice")
	require.Len(t, alice, 2)
	assert.Equal(t, entity.ChatRoleUser, alice[0].Role)
	assert.Equal(t, "hello", alice[0].Content)
	assert.Equal(t, entity.ChatRoleError, alice[1].Role)
	assert.Equal(t, "Sorry, I encountered an error. Please try again.", alice[1].Content)

	assert.Empty(t, loadTranscript(t, storage, entity.AnonymousUserId))
	assert.Equal(t, []string{"Failed to send message. Please try again."}, notifier.Messages())

	store.SwitchUser(ctx, "alice")
	assert.Len(t, store.Messages(), 2)
}

func TestQueryAnsweredAfterUserSwitchGoesToAskingUser(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStorageRepository()
	backend := new(mockChatBackend)

	var store IChatSessionService
	backend.On("SendQuery", mock.Anything, "where is my passport?", true).
		Run(func(mock.Arguments) { store.SwitchUser(ctx, "user-2") }).
		Return(&dto.QueryResponse{Response: "In the drawer."}, nil).Once()

	store = newChatStore(t, backend, storage, nil)
	require.NoError(t, store.SendUserQuery(ctx, "where is my passport?"))

	assert.Equal(t, "user-2", store.UserKey())
	assert.Empty(t, store.Messages())
	assert.Empty(t, store.ConversationHistory())
	assert.Equal(t, RequestIdle, store.RequestState())
	assert.Empty(t, loadTranscript(t, storage, "user-2"))

	first := loadTranscript(t, storage, "user-1")
	require.Len(t, first, 2)
	assert.Equal(t, "where is my passport?", first[0].Content)
	assert.Equal(t, entity.ChatRoleAssistant, first[1].Role)
	assert.Equal(t, "In the drawer.", first[1].Content)

	store.SwitchUser(ctx, "user-1")
	history := store.ConversationHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "In the drawer.", history[1].Content)
	backend.AssertExpectations(t)
}

func TestClearConversation(t *testing.T) {
	backend := new(mockChatBackend)
	backend.On("ClearConversationHistory", mock.Anything).Return(nil).Once()
	backend.On("ClearConversationHistory", mock.Anything).Return(errors.New("nope")).Once()
	notifier := &recordingNotifier{}
	store := newChatStore(t, backend, memory.NewStorageRepository(), notifier)
	ctx := context.Background()

	require.NoError(t, store.AddMessage(ctx, entity.ChatMessage{Content: "x", Role: entity.ChatRoleUser}))
	require.NoError(t, store.ClearConversation(ctx))
	assert.Empty(t, store.Messages())

	require.NoError(t, store.AddMessage(ctx, entity.ChatMessage{Content: "y", Role: entity.ChatRoleUser}))
	assert.Error(t, store.ClearConversation(ctx))
	assert.Len(t, store.Messages(), 1)

	assert.Equal(t, []string{"Conversation history cleared", "Failed to clear conversation history"}, notifier.Messages())
}

func TestExportConversation(t *testing.T) {
	backend := new(mockChatBackend)
	backend.On("ExportConversationHistory", mock.Anything).Return(json.RawMessage(`{"history":[{"content":"q"}]}`), nil).Once()
	notifier := &recordingNotifier{}
	store := newChatStore(t, backend, memory.NewStorageRepository(), notifier)

	export, err := store.ExportConversation(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^second-brain-conversation-\d+\.json$`, export.FileName)
	assert.JSONEq(t, `{"history":[{"content":"q"}]}`, string(export.Data))
	assert.Contains(t, string(export.Data), "\n  ")
	assert.Equal(t, []string{"Conversation exported successfully"}, notifier.Messages())
}

func TestMessagesReturnsCopies(t *testing.T) {
	store := newChatStore(t, new(mockChatBackend), memory.NewStorageRepository(), nil)
	require.NoError(t, store.AddMessage(context.Background(), entity.ChatMessage{Content: "a", Role: entity.ChatRoleAssistant, Sources: []string{"x"}}))

	msgs := store.Messages()
	msgs[0].Content = "changed"
	msgs[0].Sources[0] = "changed"

	again := store.Messages()
	assert.Equal(t, "a", again[0].Content)
	assert.Equal(t, []string{"x"}, again[0].Sources)
}
