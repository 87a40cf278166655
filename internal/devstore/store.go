// Package devstore keeps the development backend's state in memory,
// partitioned by user id.
package devstore

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
)

var ErrNotFound = errors.New("not found")

type memoryRecord struct {
	Key          string
	Category     entity.MemoryCategory
	Value        string
	Description  string
	CreatedAt    time.Time
	IsTimed      bool
	EventTime    *time.Time
	ReminderTime *time.Time
	IsCompleted  bool
	CompletedAt  *time.Time
}

func (r *memoryRecord) toDTO() dto.MemoryItemDTO {
	item := dto.MemoryItemDTO{
		OriginalKey: r.Key,
		Category:    string(r.Category),
		Memory: dto.MemoryPayloadDTO{
			Value:       r.Value,
			Description: r.Description,
			CreatedAt:   dto.NewFlexTime(r.CreatedAt),
			IsTimed:     r.IsTimed,
			IsCompleted: r.IsCompleted,
		},
	}
	if r.EventTime != nil {
		item.Memory.EventTime = dto.NewFlexTime(*r.EventTime)
	}
	if r.ReminderTime != nil {
		item.Memory.ReminderTime = dto.NewFlexTime(*r.ReminderTime)
	}
	if r.CompletedAt != nil {
		item.Memory.CompletedAt = dto.NewFlexTime(*r.CompletedAt)
	}
	return item
}

// storedChunk keeps the full chunk text next to what the API exposes.
type storedChunk struct {
	dto.DocumentDTO
	Content string
}

type userState struct {
	memories  []*memoryRecord
	documents []storedChunk
	history   []dto.HistoryEntryDTO
}

type Store struct {
	mu       sync.Mutex
	users    map[string]*userState
	accounts map[string]*entity.User
	now      func() time.Time
}

func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		users:    make(map[string]*userState),
		accounts: make(map[string]*entity.User),
		now:      now,
	}
}

func (s *Store) userLocked(userId string) *userState {
	u, ok := s.users[userId]
	if !ok {
		u = &userState{}
		s.users[userId] = u
	}
	return u
}

// Stats mirrors the backend's per-user counters.
func (s *Store) Stats(userId string) dto.UserStatsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userId)

	files := map[string]struct{}{}
	for _, d := range u.documents {
		files[d.FileName] = struct{}{}
	}
	return dto.UserStatsResponse{
		VectorStore: dto.VectorStoreStatsDTO{UniqueFiles: len(files), TotalChunks: len(u.documents)},
		Memories:    dto.MemoryStatsDTO{TotalMemories: len(u.memories)},
	}
}

func (s *Store) History(userId string) []dto.HistoryEntryDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userId)
	out := make([]dto.HistoryEntryDTO, len(u.history))
	copy(out, u.history)
	return out
}

func (s *Store) ClearHistory(userId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userLocked(userId).history = nil
}

func (s *Store) ExportHistory(userId string) json.RawMessage {
	history := s.History(userId)
	raw, _ := json.Marshal(map[string]interface{}{
		"exported_at": s.now().UTC().Format(time.RFC3339),
		"user_id":     userId,
		"history":     history,
	})
	return raw
}

// Query answers from the user's ingested chunks: every chunk sharing a
// word with the question is a source.
func (s *Store) Query(userId, question string, useHistory bool) dto.QueryResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userId)
	now := s.now().UTC()

	terms := queryTerms(question)
	var (
		sources  []string
		snippets []string
		seen     = map[string]bool{}
	)
	for _, d := range u.documents {
		if scoreText(d.Content+" "+d.FileName, terms) == 0 {
			continue
		}
		if !seen[d.FileName] {
			seen[d.FileName] = true
			sources = append(sources, d.FileName)
		}
		snippets = append(snippets, d.ContentPreview)
	}

	var confidence float64
	answer := "I could not find anything about that in your documents."
	if len(snippets) > 0 {
		confidence = float64(len(sources)) / float64(len(uniqueFiles(u.documents)))
		answer = "From your documents: " + strings.Join(snippets, " … ")
	}
	if useHistory && len(u.history) > 0 {
		answer += " (continuing our conversation)"
	}

	u.history = append(u.history,
		dto.HistoryEntryDTO{Content: question, Role: string(entity.ChatRoleUser), Timestamp: now.Format(time.RFC3339Nano)},
		dto.HistoryEntryDTO{Content: answer, Role: string(entity.ChatRoleAssistant), Timestamp: now.Format(time.RFC3339Nano), Sources: sources, Confidence: &confidence},
	)

	return dto.QueryResponse{Response: answer, Sources: sources, Confidence: &confidence}
}

func uniqueFiles(docs []storedChunk) map[string]struct{} {
	files := map[string]struct{}{}
	for _, d := range docs {
		files[d.FileName] = struct{}{}
	}
	return files
}

func queryTerms(q string) []string {
	var terms []string
	for _, f := range strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	}) {
		if len(f) > 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

func scoreText(text string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

func (s *Store) Documents(userId string) []dto.DocumentDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userId)
	out := make([]dto.DocumentDTO, 0, len(u.documents))
	for _, d := range u.documents {
		out = append(out, d.DocumentDTO)
	}
	return out
}

// DeleteDocument removes every chunk of filename and reports how many went.
func (s *Store) DeleteDocument(userId, filename string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userId)

	kept := u.documents[:0]
	removed := 0
	for _, d := range u.documents {
		if d.FileName == filename {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	u.documents = kept
	if removed == 0 {
		return 0, ErrNotFound
	}
	return removed, nil
}

func (s *Store) SearchDocuments(userId, query string, limit int) []dto.SearchResultDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userId)

	terms := queryTerms(query)
	var results []dto.SearchResultDTO
	for _, d := range u.documents {
		score := scoreText(d.Content+" "+d.FileName, terms)
		if score == 0 {
			continue
		}
		results = append(results, dto.SearchResultDTO{
			Content: d.Content,
			Metadata: map[string]interface{}{
				"file_name":   d.FileName,
				"chunk_index": d.ChunkIndex,
			},
			Score: score,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []dto.SearchResultDTO{}
	}
	return results
}
