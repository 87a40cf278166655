package devstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"second-brain-client/internal/entity"
)

func TestParseMemoryCommand(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		key      string
		value    string
		category entity.MemoryCategory
		timed    bool
	}{
		{"contact", "remember John's phone as 555-1234", "john's_phone", "555-1234", entity.MemoryCategoryContacts, false},
		{"drops filler words", "Please remember that my birthday is 1990-05-01", "birthday", "1990-05-01", entity.MemoryCategoryPersonalInfo, false},
		{"borrowed", "remember lawnmower as borrowed by Mike", "lawnmower", "borrowed by Mike", entity.MemoryCategoryBorrowedItems, false},
		{"financial", "store rent as 1200 due monthly", "rent", "1200 due monthly", entity.MemoryCategoryFinancial, false},
		{"timed", "remember dentist appointment as checkup on 2026-10-21T09:30", "dentist_appointment", "checkup", entity.MemoryCategoryImportantNotes, true},
		{"other", "memorize favourite color as green", "favourite_color", "green", entity.MemoryCategoryOther, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseMemoryCommand(tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.key, parsed.Key)
			assert.Equal(t, tt.value, parsed.Value)
			assert.Equal(t, tt.category, parsed.Category)
			assert.Equal(t, tt.timed, parsed.EventTime != nil)
		})
	}
}

func TestParseMemoryCommandEventTime(t *testing.T) {
	parsed, err := ParseMemoryCommand("remember flight as BA117 at 2026-11-02 18:45")
	require.NoError(t, err)
	require.NotNil(t, parsed.EventTime)
	assert.Equal(t, time.Date(2026, 11, 2, 18, 45, 0, 0, time.UTC), *parsed.EventTime)
	assert.Equal(t, "BA117", parsed.Value)
}

func TestParseMemoryCommandRejectsUnknownPhrasing(t *testing.T) {
	for _, cmd := range []string{"", "what is my phone", "remember something", "remember as x"} {
		_, err := ParseMemoryCommand(cmd)
		assert.ErrorIs(t, err, ErrUnrecognizedCommand, cmd)
	}
}
