package devstore

import (
	"encoding/json"
	"strings"
	"time"

	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
)

func (s *Store) findLocked(u *userState, key, category string) int {
	for i, r := range u.memories {
		if r.Key == key && (category == "" || string(r.Category) == category) {
			return i
		}
	}
	return -1
}

func toDTOs(records []*memoryRecord) []dto.MemoryItemDTO {
	out := make([]dto.MemoryItemDTO, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDTO())
	}
	return out
}

func (s *Store) Memories(userId string) []dto.MemoryItemDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return toDTOs(s.userLocked(userId).memories)
}

// PutMemory inserts or replaces the memory at (category, key).
func (s *Store) PutMemory(userId string, category entity.MemoryCategory, key, value, description string, eventTime *time.Time) dto.MemoryItemDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userId)

	rec := &memoryRecord{
		Key:         key,
		Category:    category,
		Value:       value,
		Description: description,
		CreatedAt:   s.now().UTC(),
		IsTimed:     eventTime != nil,
		EventTime:   eventTime,
	}
	if i := s.findLocked(u, key, string(category)); i >= 0 {
		u.memories[i] = rec
	} else {
		u.memories = append(u.memories, rec)
	}
	return rec.toDTO()
}

func (s *Store) AddMemoryCommand(userId, command string) (dto.AddMemoryResponse, error) {
	parsed, err := ParseMemoryCommand(command)
	if err != nil {
		return dto.AddMemoryResponse{}, err
	}
	s.PutMemory(userId, parsed.Category, parsed.Key, parsed.Value, "", parsed.EventTime)
	return dto.AddMemoryResponse{
		Success:  true,
		Message:  "Memory stored: " + parsed.Key,
		Category: string(parsed.Category),
		Key:      parsed.Key,
	}, nil
}

// DeleteMemory removes the first memory named key, restricted to category
// when one is given.
func (s *Store) DeleteMemory(userId, key, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userId)
	i := s.findLocked(u, key, category)
	if i < 0 {
		return ErrNotFound
	}
	u.memories = append(u.memories[:i], u.memories[i+1:]...)
	return nil
}

func (s *Store) CompleteMemory(userId, key, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userId)
	i := s.findLocked(u, key, category)
	if i < 0 {
		return ErrNotFound
	}
	now := s.now().UTC()
	u.memories[i].IsCompleted = true
	u.memories[i].CompletedAt = &now
	return nil
}

func (s *Store) filterMemories(userId string, keep func(r *memoryRecord, now time.Time) bool) []dto.MemoryItemDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var out []*memoryRecord
	for _, r := range s.userLocked(userId).memories {
		if keep(r, now) {
			out = append(out, r)
		}
	}
	return toDTOs(out)
}

func (s *Store) UpcomingMemories(userId string, hours int) []dto.MemoryItemDTO {
	window := time.Duration(hours) * time.Hour
	return s.filterMemories(userId, func(r *memoryRecord, now time.Time) bool {
		return r.IsTimed && !r.IsCompleted && r.EventTime != nil &&
			!r.EventTime.Before(now) && !r.EventTime.After(now.Add(window))
	})
}

func (s *Store) ExpiredMemories(userId string) []dto.MemoryItemDTO {
	return s.filterMemories(userId, func(r *memoryRecord, now time.Time) bool {
		return r.IsTimed && !r.IsCompleted && r.EventTime != nil && r.EventTime.Before(now)
	})
}

// CleanupMemories drops completed memories finished more than daysOld days
// ago and timed memories whose event passed more than daysOld days ago.
func (s *Store) CleanupMemories(userId string, daysOld int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userId)
	cutoff := s.now().Add(-time.Duration(daysOld) * 24 * time.Hour)

	kept := u.memories[:0]
	removed := 0
	for _, r := range u.memories {
		stale := (r.IsCompleted && r.CompletedAt != nil && r.CompletedAt.Before(cutoff)) ||
			(r.IsTimed && r.EventTime != nil && r.EventTime.Before(cutoff))
		if stale {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	u.memories = kept
	return removed
}

func (s *Store) MemoryTimeStats(userId string) dto.MemoryTimeStatsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	var stats dto.MemoryTimeStatsResponse
	for _, r := range s.userLocked(userId).memories {
		stats.Total++
		if r.IsCompleted {
			stats.Completed++
		}
		if !r.IsTimed {
			continue
		}
		stats.Timed++
		if r.IsCompleted || r.EventTime == nil {
			continue
		}
		if r.EventTime.Before(now) {
			stats.Expired++
		} else {
			stats.Upcoming++
		}
	}
	return stats
}

func (s *Store) SearchMemories(userId, query string) []dto.MemoryItemDTO {
	needle := strings.ToLower(strings.TrimSpace(query))
	return s.filterMemories(userId, func(r *memoryRecord, _ time.Time) bool {
		return needle != "" && (strings.Contains(strings.ToLower(r.Key), needle) ||
			strings.Contains(strings.ToLower(r.Value), needle) ||
			strings.Contains(strings.ToLower(r.Description), needle))
	})
}

// ExportMemories nests memories as category -> key -> payload.
func (s *Store) ExportMemories(userId string) json.RawMessage {
	items := s.Memories(userId)
	grouped := map[string]map[string]dto.MemoryPayloadDTO{}
	for _, item := range items {
		if grouped[item.Category] == nil {
			grouped[item.Category] = map[string]dto.MemoryPayloadDTO{}
		}
		grouped[item.Category][item.OriginalKey] = item.Memory
	}
	raw, _ := json.Marshal(map[string]interface{}{
		"exported_at": s.now().UTC().Format(time.RFC3339),
		"user_id":     userId,
		"memories":    grouped,
	})
	return raw
}
