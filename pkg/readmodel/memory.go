// Package readmodel derives the filtered, sorted and grouped views shown by
// the memory manager and the document browser. Every function is pure:
// inputs are never modified and "now" is always an explicit argument.
package readmodel

import (
	"sort"
	"strings"
	"time"

	"second-brain-client/internal/entity"
)

// SoonWindow is how close an event must be to count as "soon".
const SoonWindow = 24 * time.Hour

// DeriveStatus computes the time status of a memory at now. A timed memory
// without an event time is treated as active.
func DeriveStatus(m entity.Memory, now time.Time) entity.MemoryStatus {
	if m.IsCompleted {
		return entity.MemoryStatusCompleted
	}
	if !m.IsTimed || m.EventTime == nil {
		return entity.MemoryStatusActive
	}
	until := m.EventTime.Sub(now)
	switch {
	case until < 0:
		return entity.MemoryStatusExpired
	case until <= SoonWindow:
		return entity.MemoryStatusSoon
	default:
		return entity.MemoryStatusUpcoming
	}
}

type TimeFilter string

const (
	TimeFilterAll       TimeFilter = "all"
	TimeFilterUpcoming  TimeFilter = "upcoming"
	TimeFilterExpired   TimeFilter = "expired"
	TimeFilterCompleted TimeFilter = "completed"
	TimeFilterTimed     TimeFilter = "timed"
)

const CategoryAll = "all"

type MemoryFilter struct {
	SearchText string
	// Category is a category name or "all" (empty means all)
	Category      string
	TimeFilter    TimeFilter
	ShowCompleted bool
}

func (f MemoryFilter) matchesTime(m entity.Memory, status entity.MemoryStatus) bool {
	switch f.TimeFilter {
	case TimeFilterUpcoming:
		return status == entity.MemoryStatusUpcoming || status == entity.MemoryStatusSoon
	case TimeFilterExpired:
		return status == entity.MemoryStatusExpired
	case TimeFilterCompleted:
		return status == entity.MemoryStatusCompleted
	case TimeFilterTimed:
		return m.IsTimed
	default:
		return f.ShowCompleted || status != entity.MemoryStatusCompleted
	}
}

// FilterMemories returns the memories that pass every criterion of f, in
// their original order.
func FilterMemories(list []entity.Memory, f MemoryFilter, now time.Time) []entity.Memory {
	needle := strings.ToLower(strings.TrimSpace(f.SearchText))
	out := make([]entity.Memory, 0, len(list))
	for _, m := range list {
		if needle != "" &&
			!strings.Contains(strings.ToLower(m.Key), needle) &&
			!strings.Contains(strings.ToLower(m.Value), needle) {
			continue
		}
		if f.Category != "" && f.Category != CategoryAll && string(m.Category) != f.Category {
			continue
		}
		if !f.matchesTime(m, DeriveStatus(m, now)) {
			continue
		}
		out = append(out, m)
	}
	return out
}

type MemorySort string

const (
	SortByCreated  MemorySort = "created"
	SortByEvent    MemorySort = "event"
	SortByCategory MemorySort = "category"
	SortByStatus   MemorySort = "status"
)

// SortMemories returns a sorted copy. Ties keep their input order.
func SortMemories(list []entity.Memory, by MemorySort, now time.Time) []entity.Memory {
	out := make([]entity.Memory, len(list))
	copy(out, list)

	var less func(a, b entity.Memory) bool
	switch by {
	case SortByEvent:
		less = func(a, b entity.Memory) bool {
			switch {
			case a.EventTime == nil:
				return false
			case b.EventTime == nil:
				return true
			default:
				return a.EventTime.Before(*b.EventTime)
			}
		}
	case SortByCategory:
		less = func(a, b entity.Memory) bool {
			return a.Category < b.Category
		}
	case SortByStatus:
		less = func(a, b entity.Memory) bool {
			return DeriveStatus(a, now) < DeriveStatus(b, now)
		}
	default:
		less = func(a, b entity.Memory) bool {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

type MemoryGroup struct {
	Category entity.MemoryCategory
	Memories []entity.Memory
}

// GroupMemories partitions list by category. Groups appear in the order
// their category is first seen.
func GroupMemories(list []entity.Memory) []MemoryGroup {
	index := make(map[entity.MemoryCategory]int)
	var groups []MemoryGroup
	for _, m := range list {
		i, ok := index[m.Category]
		if !ok {
			i = len(groups)
			index[m.Category] = i
			groups = append(groups, MemoryGroup{Category: m.Category})
		}
		groups[i].Memories = append(groups[i].Memories, m)
	}
	return groups
}

// AnnotatedMemory pairs a memory with its status at render time.
type AnnotatedMemory struct {
	entity.Memory
	Status entity.MemoryStatus
}

func Annotate(list []entity.Memory, now time.Time) []AnnotatedMemory {
	out := make([]AnnotatedMemory, 0, len(list))
	for _, m := range list {
		out = append(out, AnnotatedMemory{Memory: m, Status: DeriveStatus(m, now)})
	}
	return out
}

// MemoryView runs filter, sort and grouping in display order.
func MemoryView(list []entity.Memory, f MemoryFilter, by MemorySort, now time.Time) []MemoryGroup {
	return GroupMemories(SortMemories(FilterMemories(list, f, now), by, now))
}

// CountByStatus tallies derived statuses, for the summary line.
func CountByStatus(list []entity.Memory, now time.Time) map[entity.MemoryStatus]int {
	counts := make(map[entity.MemoryStatus]int)
	for _, m := range list {
		counts[DeriveStatus(m, now)]++
	}
	return counts
}
