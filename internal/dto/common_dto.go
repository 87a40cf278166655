package dto

// ErrorResponse is the backend error envelope.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type StatusResponse struct {
	Status     string                 `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Components map[string]interface{} `json:"components,omitempty"`
}

type VectorStoreStatsDTO struct {
	UniqueFiles int `json:"unique_files"`
	TotalChunks int `json:"total_chunks"`
}

type MemoryStatsDTO struct {
	TotalMemories int `json:"total_memories"`
}

type UserStatsResponse struct {
	VectorStore VectorStoreStatsDTO `json:"vector_store"`
	Memories    MemoryStatsDTO      `json:"memories"`
}
