package dto

import "encoding/json"

type QueryRequest struct {
	Question   string `json:"question" validate:"required"`
	UseHistory bool   `json:"use_history"`
}

type QueryResponse struct {
	Response   string   `json:"response"`
	Sources    []string `json:"sources"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type HistoryEntryDTO struct {
	Id         string   `json:"id,omitempty"`
	Content    string   `json:"content"`
	Role       string   `json:"role"`
	Timestamp  string   `json:"timestamp"`
	Sources    []string `json:"sources,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type ConversationHistoryResponse struct {
	History []HistoryEntryDTO `json:"history"`
}

// ConversationExport is passed through untouched; its layout belongs to
// the backend.
type ConversationExport = json.RawMessage
