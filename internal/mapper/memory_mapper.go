package mapper

import (
	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
)

type MemoryMapper struct{}

func NewMemoryMapper() *MemoryMapper {
	return &MemoryMapper{}
}

func (m *MemoryMapper) ToEntity(d dto.MemoryItemDTO) entity.Memory {
	mem := entity.Memory{
		Key:          d.OriginalKey,
		Category:     entity.NormalizeCategory(d.Category),
		Value:        d.Memory.Value,
		Description:  d.Memory.Description,
		IsTimed:      d.Memory.IsTimed,
		EventTime:    d.Memory.EventTime.Ptr(),
		ReminderTime: d.Memory.ReminderTime.Ptr(),
		IsCompleted:  d.Memory.IsCompleted,
		CompletedAt:  d.Memory.CompletedAt.Ptr(),
	}
	if created := d.Memory.CreatedAt.Ptr(); created != nil {
		mem.CreatedAt = *created
	}
	return mem
}

func (m *MemoryMapper) ToEntities(items []dto.MemoryItemDTO) []entity.Memory {
	out := make([]entity.Memory, 0, len(items))
	for _, item := range items {
		out = append(out, m.ToEntity(item))
	}
	return out
}

func (m *MemoryMapper) ToDTO(mem entity.Memory) dto.MemoryItemDTO {
	payload := dto.MemoryPayloadDTO{
		Value:       mem.Value,
		Description: mem.Description,
		IsTimed:     mem.IsTimed,
		IsCompleted: mem.IsCompleted,
	}
	if !mem.CreatedAt.IsZero() {
		payload.CreatedAt = dto.NewFlexTime(mem.CreatedAt)
	}
	if mem.EventTime != nil {
		payload.EventTime = dto.NewFlexTime(*mem.EventTime)
	}
	if mem.ReminderTime != nil {
		payload.ReminderTime = dto.NewFlexTime(*mem.ReminderTime)
	}
	if mem.CompletedAt != nil {
		payload.CompletedAt = dto.NewFlexTime(*mem.CompletedAt)
	}
	return dto.MemoryItemDTO{
		OriginalKey: mem.Key,
		Category:    string(mem.Category),
		Memory:      payload,
	}
}
