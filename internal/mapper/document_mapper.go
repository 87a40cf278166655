package mapper

import (
	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d dto.DocumentDTO) entity.DocumentChunk {
	chunk := entity.DocumentChunk{
		FileName:       d.FileName,
		FileType:       d.FileType,
		FileSize:       d.FileSize,
		ChunkIndex:     d.ChunkIndex,
		TotalChunks:    d.TotalChunks,
		ContentPreview: d.ContentPreview,
	}
	if t := d.IngestionTime.Ptr(); t != nil {
		chunk.IngestionTime = *t
	}
	return chunk
}

func (m *DocumentMapper) ToEntities(items []dto.DocumentDTO) []entity.DocumentChunk {
	out := make([]entity.DocumentChunk, 0, len(items))
	for _, item := range items {
		out = append(out, m.ToEntity(item))
	}
	return out
}

func (m *DocumentMapper) ToDTO(c entity.DocumentChunk) dto.DocumentDTO {
	d := dto.DocumentDTO{
		FileName:       c.FileName,
		FileType:       c.FileType,
		FileSize:       c.FileSize,
		ChunkIndex:     c.ChunkIndex,
		TotalChunks:    c.TotalChunks,
		ContentPreview: c.ContentPreview,
	}
	if !c.IngestionTime.IsZero() {
		d.IngestionTime = dto.NewFlexTime(c.IngestionTime)
	}
	return d
}
