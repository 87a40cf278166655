package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
	"second-brain-client/internal/mapper"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/repository/contract"

	"github.com/google/uuid"
)

const (
	chatStorageKeyPrefix    = "second_brain_chat_"
	historyStorageKeyPrefix = "second_brain_history_"

	// MaxConversationHistory bounds the recent-conversations cache.
	MaxConversationHistory = 20

	errorReplyText = "Sorry, I encountered an error. Please try again."
)

var (
	ErrEmptyQuery    = errors.New("query is empty")
	ErrQueryInFlight = errors.New("a query is already in flight")
	ErrEmptyMessage  = errors.New("user message content is empty")
)

type RequestState int

const (
	RequestIdle RequestState = iota
	RequestInFlight
)

func (s RequestState) String() string {
	if s == RequestInFlight {
		return "in-flight"
	}
	return "idle"
}

// ChatBackend is the part of the API client the chat store talks to.
type ChatBackend interface {
	SendQuery(ctx context.Context, question string, useHistory bool) (*dto.QueryResponse, error)
	GetConversationHistory(ctx context.Context) (*dto.ConversationHistoryResponse, error)
	ClearConversationHistory(ctx context.Context) error
	ExportConversationHistory(ctx context.Context) (json.RawMessage, error)
}

type IChatSessionService interface {
	AddMessage(ctx context.Context, msg entity.ChatMessage) error
	AddMessages(ctx context.Context, msgs ...entity.ChatMessage) error
	SendUserQuery(ctx context.Context, text string) error
	ClearMessages(ctx context.Context)
	LoadConversationHistory(ctx context.Context)
	ClearHistory(ctx context.Context)
	AddToConversationHistory(ctx context.Context, user, assistant entity.ChatMessage)
	ClearConversation(ctx context.Context) error
	ExportConversation(ctx context.Context) (*ConversationExport, error)
	SwitchUser(ctx context.Context, userKey string)

	Messages() []entity.ChatMessage
	ConversationHistory() []entity.ConversationHistoryEntry
	RequestState() RequestState
	IsLoading() bool
	IsLoadingHistory() bool
	UserKey() string
}

// ConversationExport is a ready-to-write export file.
type ConversationExport struct {
	FileName string
	Data     []byte
}

type ChatSessionOption func(*chatSessionService)

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) ChatSessionOption {
	return func(s *chatSessionService) {
		s.now = now
	}
}

type chatSessionService struct {
	mu             sync.Mutex
	backend        ChatBackend
	storage        contract.StorageRepository
	notifier       INotifier
	logger         logger.ILogger
	mapper         *mapper.ChatMapper
	now            func() time.Time
	userKey        string
	messages       []entity.ChatMessage
	history        []entity.ConversationHistoryEntry
	state          RequestState
	loadingHistory bool
	// generation changes every time the store is re-scoped to a user
	generation uint64
}

// NewChatSessionService builds the store for userKey and reads back its
// persisted transcript and history.
func NewChatSessionService(
	ctx context.Context,
	userKey string,
	backend ChatBackend,
	storage contract.StorageRepository,
	notifier INotifier,
	log logger.ILogger,
	opts ...ChatSessionOption,
) IChatSessionService {
	s := &chatSessionService{
		backend:  backend,
		storage:  storage,
		notifier: notifier,
		logger:   log,
		mapper:   mapper.NewChatMapper(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mu.Lock()
	s.loadLocked(ctx, userKey)
	s.mu.Unlock()
	return s
}

func normalizeUserKey(userKey string) string {
	if strings.TrimSpace(userKey) == "" {
		return entity.AnonymousUserId
	}
	return userKey
}

func (s *chatSessionService) chatKey() string {
	return chatStorageKeyPrefix + s.userKey
}

func (s *chatSessionService) historyKey() string {
	return historyStorageKeyPrefix + s.userKey
}

// loadLocked re-scopes the store. Requests started for the previous user
// keep running but no longer touch in-memory state.
func (s *chatSessionService) loadLocked(ctx context.Context, userKey string) {
	s.generation++
	s.userKey = normalizeUserKey(userKey)
	s.messages = nil
	s.history = nil
	s.state = RequestIdle
	s.loadingHistory = false

	var transcript entity.ChatTranscript
	if _, err := contract.LoadJSON(ctx, s.storage, s.chatKey(), &transcript); err != nil {
		s.logger.Error("ChatSessionService", "Failed to load chat from storage", map[string]interface{}{"error": err, "user": s.userKey})
	} else {
		s.messages = transcript.Messages
	}

	var history []entity.ConversationHistoryEntry
	if _, err := contract.LoadJSON(ctx, s.storage, s.historyKey(), &history); err != nil {
		s.logger.Error("ChatSessionService", "Failed to load history from storage", map[string]interface{}{"error": err, "user": s.userKey})
	} else {
		s.history = history
	}
}

// SwitchUser re-scopes the store to another user's persisted state.
func (s *chatSessionService) SwitchUser(ctx context.Context, userKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if normalizeUserKey(userKey) == s.userKey {
		return
	}
	s.loadLocked(ctx, userKey)
}

func (s *chatSessionService) saveTranscriptLocked(ctx context.Context) {
	s.writeTranscript(ctx, s.userKey, s.messages)
}

func (s *chatSessionService) writeTranscript(ctx context.Context, userKey string, messages []entity.ChatMessage) {
	record := entity.ChatTranscript{
		Messages:    messages,
		LastUpdated: s.now().UTC(),
	}
	if record.Messages == nil {
		record.Messages = []entity.ChatMessage{}
	}
	if err := contract.SaveJSON(ctx, s.storage, chatStorageKeyPrefix+userKey, record); err != nil {
		s.logger.Error("ChatSessionService", "Failed to save chat to storage", map[string]interface{}{"error": err, "user": userKey})
	}
}

func (s *chatSessionService) saveHistoryLocked(ctx context.Context) {
	s.writeHistory(ctx, s.userKey, s.history)
}

func (s *chatSessionService) writeHistory(ctx context.Context, userKey string, history []entity.ConversationHistoryEntry) {
	if history == nil {
		history = []entity.ConversationHistoryEntry{}
	}
	if err := contract.SaveJSON(ctx, s.storage, historyStorageKeyPrefix+userKey, history); err != nil {
		s.logger.Error("ChatSessionService", "Failed to save history to storage", map[string]interface{}{"error": err, "user": userKey})
	}
}

// appendDetachedLocked adds a late reply to the stored state of a user the
// store is no longer scoped to. A nil question skips the history cache.
func (s *chatSessionService) appendDetachedLocked(ctx context.Context, userKey string, reply entity.ChatMessage, question *entity.ChatMessage) {
	var transcript entity.ChatTranscript
	if _, err := contract.LoadJSON(ctx, s.storage, chatStorageKeyPrefix+userKey, &transcript); err != nil {
		s.logger.Error("ChatSessionService", "Failed to load chat from storage", map[string]interface{}{"error": err, "user": userKey})
		return
	}
	s.writeTranscript(ctx, userKey, append(transcript.Messages, reply))

	if question == nil {
		return
	}
	var history []entity.ConversationHistoryEntry
	if _, err := contract.LoadJSON(ctx, s.storage, historyStorageKeyPrefix+userKey, &history); err != nil {
		s.logger.Error("ChatSessionService", "Failed to load history from storage", map[string]interface{}{"error": err, "user": userKey})
		return
	}
	s.writeHistory(ctx, userKey, capHistory(append(history,
		s.mapper.MessageToHistoryEntry(*question),
		s.mapper.MessageToHistoryEntry(reply),
	)))
}

func capHistory(history []entity.ConversationHistoryEntry) []entity.ConversationHistoryEntry {
	overflow := len(history) - MaxConversationHistory
	if overflow <= 0 {
		return history
	}
	trimmed := make([]entity.ConversationHistoryEntry, MaxConversationHistory)
	copy(trimmed, history[overflow:])
	return trimmed
}

func (s *chatSessionService) newMessage(role entity.ChatRole, content string) entity.ChatMessage {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return entity.ChatMessage{
		Id:        id.String(),
		Content:   content,
		Role:      role,
		Timestamp: s.now(),
	}
}

func (s *chatSessionService) AddMessage(ctx context.Context, msg entity.ChatMessage) error {
	return s.AddMessages(ctx, msg)
}

// AddMessages appends all messages or none.
func (s *chatSessionService) AddMessages(ctx context.Context, msgs ...entity.ChatMessage) error {
	for i := range msgs {
		if msgs[i].Role == entity.ChatRoleUser && msgs[i].IsBlank() {
			return ErrEmptyMessage
		}
	}
	if len(msgs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range msgs {
		if msg.Id == "" {
			fresh := s.newMessage(msg.Role, msg.Content)
			msg.Id = fresh.Id
			if msg.Timestamp.IsZero() {
				msg.Timestamp = fresh.Timestamp
			}
		}
		s.messages = append(s.messages, cloneMessage(msg))
	}
	s.saveTranscriptLocked(ctx)
	return nil
}

// SendUserQuery runs one chat turn. Only the guard outcomes are returned
// as errors; backend failures end up in the transcript. The reply always
// lands in the transcript of the user who asked, even when the session
// changed while the request was running.
func (s *chatSessionService) SendUserQuery(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyQuery
	}

	s.mu.Lock()
	if s.state == RequestInFlight {
		s.mu.Unlock()
		return ErrQueryInFlight
	}
	s.state = RequestInFlight
	generation, askedBy := s.generation, s.userKey
	userMsg := s.newMessage(entity.ChatRoleUser, text)
	s.messages = append(s.messages, userMsg)
	s.saveTranscriptLocked(ctx)
	s.mu.Unlock()

	resp, err := s.backend.SendQuery(ctx, text, true)

	var reply entity.ChatMessage
	if err != nil {
		s.logger.Error("ChatSessionService", "Query failed", map[string]interface{}{"error": err, "user": askedBy})
		reply = s.newMessage(entity.ChatRoleError, errorReplyText)
	} else {
		reply = s.newMessage(entity.ChatRoleAssistant, resp.Response)
		reply.Sources = resp.Sources
		reply.Confidence = resp.Confidence
	}

	s.mu.Lock()
	switch {
	case s.generation != generation:
		s.logger.Warn("ChatSessionService", "Session changed during query, storing reply for the original user", map[string]interface{}{"user": askedBy})
		if err != nil {
			s.appendDetachedLocked(ctx, askedBy, reply, nil)
		} else {
			s.appendDetachedLocked(ctx, askedBy, reply, &userMsg)
		}
	case err != nil:
		s.messages = append(s.messages, reply)
		s.saveTranscriptLocked(ctx)
		s.state = RequestIdle
	default:
		s.messages = append(s.messages, reply)
		s.saveTranscriptLocked(ctx)
		s.appendHistoryLocked(ctx, userMsg, reply)
		s.state = RequestIdle
	}
	s.mu.Unlock()

	if err != nil {
		s.notify(ctx, entity.SeverityError, "Failed to send message. Please try again.")
	}
	return nil
}

func (s *chatSessionService) ClearMessages(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	if err := s.storage.Remove(ctx, s.chatKey()); err != nil {
		s.logger.Error("ChatSessionService", "Failed to remove chat from storage", map[string]interface{}{"error": err})
	}
}

// LoadConversationHistory replaces the cache with the backend's copy. On
// failure the cache is left as it was.
func (s *chatSessionService) LoadConversationHistory(ctx context.Context) {
	s.mu.Lock()
	s.loadingHistory = true
	generation := s.generation
	s.mu.Unlock()

	resp, err := s.backend.GetConversationHistory(ctx)

	s.mu.Lock()
	// a history fetched for a previous user is dropped
	if s.generation == generation {
		s.loadingHistory = false
		if err == nil {
			s.history = s.mapper.HistoryDTOsToEntities(resp.History)
			s.saveHistoryLocked(ctx)
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("ChatSessionService", "Failed to load conversation history", map[string]interface{}{"error": err})
		s.notify(ctx, entity.SeverityError, "Failed to load conversation history.")
	}
}

func (s *chatSessionService) ClearHistory(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	if err := s.storage.Remove(ctx, s.historyKey()); err != nil {
		s.logger.Error("ChatSessionService", "Failed to remove history from storage", map[string]interface{}{"error": err})
	}
}

func (s *chatSessionService) AddToConversationHistory(ctx context.Context, user, assistant entity.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendHistoryLocked(ctx, user, assistant)
}

func (s *chatSessionService) appendHistoryLocked(ctx context.Context, user, assistant entity.ChatMessage) {
	s.history = append(s.history,
		s.mapper.MessageToHistoryEntry(user),
		s.mapper.MessageToHistoryEntry(assistant),
	)
	s.history = capHistory(s.history)
	s.saveHistoryLocked(ctx)
}

// ClearConversation wipes the server-side history and then the local
// transcript.
func (s *chatSessionService) ClearConversation(ctx context.Context) error {
	if err := s.backend.ClearConversationHistory(ctx); err != nil {
		s.logger.Error("ChatSessionService", "Failed to clear conversation history", map[string]interface{}{"error": err})
		s.notify(ctx, entity.SeverityError, "Failed to clear conversation history")
		return err
	}
	s.ClearMessages(ctx)
	s.notify(ctx, entity.SeveritySuccess, "Conversation history cleared")
	return nil
}

func (s *chatSessionService) ExportConversation(ctx context.Context) (*ConversationExport, error) {
	raw, err := s.backend.ExportConversationHistory(ctx)
	if err == nil && len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	var pretty bytes.Buffer
	if err == nil {
		err = json.Indent(&pretty, raw, "", "  ")
	}
	if err != nil {
		s.logger.Error("ChatSessionService", "Failed to export conversation", map[string]interface{}{"error": err})
		s.notify(ctx, entity.SeverityError, "Failed to export conversation")
		return nil, fmt.Errorf("export conversation: %w", err)
	}

	s.notify(ctx, entity.SeveritySuccess, "Conversation exported successfully")
	return &ConversationExport{
		FileName: fmt.Sprintf("second-brain-conversation-%d.json", s.now().UnixMilli()),
		Data:     pretty.Bytes(),
	}, nil
}

func (s *chatSessionService) notify(ctx context.Context, severity entity.NotificationSeverity, text string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, severity, text)
	}
}

func (s *chatSessionService) Messages() []entity.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.ChatMessage, len(s.messages))
	for i, msg := range s.messages {
		out[i] = cloneMessage(msg)
	}
	return out
}

func (s *chatSessionService) ConversationHistory() []entity.ConversationHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.ConversationHistoryEntry, len(s.history))
	for i, e := range s.history {
		e.Sources = append([]string(nil), e.Sources...)
		out[i] = e
	}
	return out
}

func cloneMessage(msg entity.ChatMessage) entity.ChatMessage {
	if msg.Sources != nil {
		msg.Sources = append([]string(nil), msg.Sources...)
	}
	if msg.Confidence != nil {
		c := *msg.Confidence
		msg.Confidence = &c
	}
	return msg
}

func (s *chatSessionService) RequestState() RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *chatSessionService) IsLoading() bool {
	return s.RequestState() == RequestInFlight
}

func (s *chatSessionService) IsLoadingHistory() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingHistory
}

func (s *chatSessionService) UserKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userKey
}
