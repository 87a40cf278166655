package dto

type MemoryPayloadDTO struct {
	Value        string    `json:"value"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    *FlexTime `json:"created_at,omitempty"`
	IsTimed      bool      `json:"is_timed"`
	EventTime    *FlexTime `json:"event_time,omitempty"`
	ReminderTime *FlexTime `json:"reminder_time,omitempty"`
	IsCompleted  bool      `json:"is_completed"`
	CompletedAt  *FlexTime `json:"completed_at,omitempty"`
}

type MemoryItemDTO struct {
	OriginalKey string           `json:"original_key"`
	Category    string           `json:"category"`
	Memory      MemoryPayloadDTO `json:"memory"`
}

type GetMemoriesResponse struct {
	Memories []MemoryItemDTO `json:"memories"`
	Total    int             `json:"total"`
}

type AddMemoryCommandRequest struct {
	Command string `json:"command" validate:"required"`
}

type AddMemoryDirectRequest struct {
	Category    string `json:"category" validate:"required,oneof=contacts financial borrowed_items personal_info important_notes other"`
	Key         string `json:"key" validate:"required"`
	Value       string `json:"value" validate:"required"`
	Description string `json:"description"`
}

type AddMemoryResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Category string `json:"category,omitempty"`
	Key      string `json:"key,omitempty"`
}

type CleanupMemoriesRequest struct {
	DaysOld int `json:"days_old" validate:"gte=1"`
}

type CleanupMemoriesResponse struct {
	Success      bool `json:"success"`
	RemovedCount int  `json:"removed_count"`
}

type MemoryTimeStatsResponse struct {
	Total     int `json:"total"`
	Timed     int `json:"timed"`
	Upcoming  int `json:"upcoming"`
	Expired   int `json:"expired"`
	Completed int `json:"completed"`
}

type SearchMemoriesResponse struct {
	Query   string          `json:"query"`
	Results []MemoryItemDTO `json:"results"`
}
