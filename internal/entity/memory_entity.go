package entity

import "time"

type MemoryCategory string

const (
	MemoryCategoryContacts       MemoryCategory = "contacts"
	MemoryCategoryFinancial      MemoryCategory = "financial"
	MemoryCategoryBorrowedItems  MemoryCategory = "borrowed_items"
	MemoryCategoryPersonalInfo   MemoryCategory = "personal_info"
	MemoryCategoryImportantNotes MemoryCategory = "important_notes"
	MemoryCategoryOther          MemoryCategory = "other"
)

var MemoryCategories = []MemoryCategory{
	MemoryCategoryContacts,
	MemoryCategoryFinancial,
	MemoryCategoryBorrowedItems,
	MemoryCategoryPersonalInfo,
	MemoryCategoryImportantNotes,
	MemoryCategoryOther,
}

// NormalizeCategory maps unknown or empty categories to "other" so that
// every memory lands in exactly one category.
func NormalizeCategory(raw string) MemoryCategory {
	for _, c := range MemoryCategories {
		if string(c) == raw {
			return c
		}
	}
	return MemoryCategoryOther
}

type MemoryStatus string

const (
	MemoryStatusActive    MemoryStatus = "active"
	MemoryStatusCompleted MemoryStatus = "completed"
	MemoryStatusExpired   MemoryStatus = "expired"
	MemoryStatusSoon      MemoryStatus = "soon"
	MemoryStatusUpcoming  MemoryStatus = "upcoming"
)

type Memory struct {
	Key          string
	Category     MemoryCategory
	Value        string
	Description  string
	CreatedAt    time.Time
	IsTimed      bool
	EventTime    *time.Time
	ReminderTime *time.Time
	IsCompleted  bool
	CompletedAt  *time.Time
}
