package mapper

import (
	"time"

	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) MessageToHistoryEntry(msg entity.ChatMessage) entity.ConversationHistoryEntry {
	return entity.ConversationHistoryEntry{
		Id:         msg.Id,
		Content:    msg.Content,
		Role:       msg.Role,
		Timestamp:  msg.Timestamp.UTC().Format(time.RFC3339Nano),
		Sources:    cloneStrings(msg.Sources),
		Confidence: cloneFloat(msg.Confidence),
	}
}

func (m *ChatMapper) HistoryDTOToEntity(d dto.HistoryEntryDTO) entity.ConversationHistoryEntry {
	return entity.ConversationHistoryEntry{
		Id:         d.Id,
		Content:    d.Content,
		Role:       entity.ChatRole(d.Role),
		Timestamp:  d.Timestamp,
		Sources:    cloneStrings(d.Sources),
		Confidence: cloneFloat(d.Confidence),
	}
}

func (m *ChatMapper) HistoryDTOsToEntities(items []dto.HistoryEntryDTO) []entity.ConversationHistoryEntry {
	out := make([]entity.ConversationHistoryEntry, 0, len(items))
	for _, item := range items {
		out = append(out, m.HistoryDTOToEntity(item))
	}
	return out
}

func (m *ChatMapper) HistoryEntryToDTO(e entity.ConversationHistoryEntry) dto.HistoryEntryDTO {
	return dto.HistoryEntryDTO{
		Id:         e.Id,
		Content:    e.Content,
		Role:       string(e.Role),
		Timestamp:  e.Timestamp,
		Sources:    cloneStrings(e.Sources),
		Confidence: cloneFloat(e.Confidence),
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneFloat(in *float64) *float64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
