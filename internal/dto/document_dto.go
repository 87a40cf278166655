package dto

type DocumentDTO struct {
	FileName       string    `json:"file_name"`
	FileType       string    `json:"file_type"`
	FileSize       int64     `json:"file_size"`
	ChunkIndex     int       `json:"chunk_index"`
	TotalChunks    int       `json:"total_chunks"`
	IngestionTime  *FlexTime `json:"ingestion_time,omitempty"`
	ContentPreview string    `json:"content_preview"`
}

type GetDocumentsResponse struct {
	Documents []DocumentDTO `json:"documents"`
}

type DeleteDocumentResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	DeletedChunks int    `json:"deleted_chunks"`
}

type SearchResultDTO struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Score    float64                `json:"score"`
}

type SearchDocumentsResponse struct {
	Query   string            `json:"query"`
	Results []SearchResultDTO `json:"results"`
}

// UploadInfoResponse describes where and what the backend accepts for
// ingestion.
type UploadInfoResponse struct {
	UploadURL        string   `json:"upload_url"`
	MaxFileSize      int64    `json:"max_file_size"`
	SupportedFormats []string `json:"supported_formats"`
}

// IngestResponse is returned by POST /ingest. Error is only set on the
// failure envelope.
type IngestResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
	Error    string `json:"error,omitempty"`
}
