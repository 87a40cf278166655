package entity

import (
	"path/filepath"
	"strings"
	"time"
)

// DocumentChunk is one ingested slice of a source file. A file is deleted
// as a whole, which removes every chunk sharing its FileName.
type DocumentChunk struct {
	FileName       string
	FileType       string
	FileSize       int64
	ChunkIndex     int
	TotalChunks    int
	IngestionTime  time.Time
	ContentPreview string
}

type DocumentChunkKey struct {
	FileName   string
	ChunkIndex int
}

func (d DocumentChunk) Key() DocumentChunkKey {
	return DocumentChunkKey{FileName: d.FileName, ChunkIndex: d.ChunkIndex}
}

// Extension returns the lowercase extension without the dot, preferring
// FileType when the backend supplied one.
func (d DocumentChunk) Extension() string {
	ext := d.FileType
	if ext == "" {
		ext = filepath.Ext(d.FileName)
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
