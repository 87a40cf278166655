package devstore

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"second-brain-client/internal/entity"
)

var ErrUnrecognizedCommand = errors.New(`could not understand memory command; try "remember <key> as <value>"`)

var (
	commandPattern = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:remember|memorize|store)\s+(?:that\s+)?(.+?)\s+(?:as|is)\s+(.+?)\s*$`)
	eventSuffix    = regexp.MustCompile(`(?i)\s+(?:on|at|by)\s+(\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?(?:Z|[+-]\d{2}:\d{2})?)?)$`)
)

var eventLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var categoryKeywords = []struct {
	category entity.MemoryCategory
	words    []string
}{
	{entity.MemoryCategoryBorrowedItems, []string{"borrow", "lent", "lend", "loan"}},
	{entity.MemoryCategoryFinancial, []string{"owe", "debt", "paid", "pay", "rent", "salary", "$", "€", "bank"}},
	{entity.MemoryCategoryContacts, []string{"phone", "email", "number", "contact", "@"}},
	{entity.MemoryCategoryPersonalInfo, []string{"birthday", "address", "passport", "allergy", "blood"}},
	{entity.MemoryCategoryImportantNotes, []string{"important", "deadline", "meeting", "appointment"}},
}

type ParsedCommand struct {
	Category  entity.MemoryCategory
	Key       string
	Value     string
	EventTime *time.Time
}

// ParseMemoryCommand understands "remember <key> as <value>" with an
// optional trailing "on|at|by <date>" that makes the memory timed.
func ParseMemoryCommand(command string) (ParsedCommand, error) {
	m := commandPattern.FindStringSubmatch(command)
	if m == nil {
		return ParsedCommand{}, ErrUnrecognizedCommand
	}
	key := normalizeKey(m[1])
	value := strings.TrimSpace(m[2])

	var eventTime *time.Time
	if em := eventSuffix.FindStringSubmatchIndex(value); em != nil {
		raw := value[em[2]:em[3]]
		for _, layout := range eventLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				eventTime = &t
				value = strings.TrimSpace(value[:em[0]])
				break
			}
		}
	}
	if key == "" || value == "" {
		return ParsedCommand{}, ErrUnrecognizedCommand
	}

	return ParsedCommand{
		Category:  inferCategory(key + " " + value),
		Key:       key,
		Value:     value,
		EventTime: eventTime,
	}, nil
}

func normalizeKey(raw string) string {
	fields := strings.Fields(strings.ToLower(strings.Trim(raw, ` "'`)))
	kept := fields[:0]
	for _, f := range fields {
		if f == "my" || f == "the" {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, "_")
}

func inferCategory(text string) entity.MemoryCategory {
	lower := strings.ToLower(text)
	for _, rule := range categoryKeywords {
		for _, w := range rule.words {
			if strings.Contains(lower, w) {
				return rule.category
			}
		}
	}
	return entity.MemoryCategoryOther
}
