package readmodel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"second-brain-client/internal/entity"
)

type FileTypeTab string

const (
	TabAll       FileTypeTab = "all"
	TabPDF       FileTypeTab = "pdf"
	TabDocuments FileTypeTab = "documents"
	TabImages    FileTypeTab = "images"
	TabData      FileTypeTab = "data"
)

var tabExtensions = map[FileTypeTab][]string{
	TabPDF:       {"pdf"},
	TabDocuments: {"doc", "docx", "txt"},
	TabImages:    {"jpg", "jpeg", "png", "gif"},
	TabData:      {"json", "csv"},
}

// TabFor returns the tab a file extension is listed under, or TabAll when
// it belongs to none.
func TabFor(ext string) FileTypeTab {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for tab, exts := range tabExtensions {
		for _, e := range exts {
			if e == ext {
				return tab
			}
		}
	}
	return TabAll
}

type DocumentFilter struct {
	SearchText string
	Tab        FileTypeTab
	// MatchPreview extends the search to the chunk preview text.
	MatchPreview bool
}

func (f DocumentFilter) matchesText(d entity.DocumentChunk, needle string) bool {
	if needle == "" || strings.Contains(strings.ToLower(d.FileName), needle) {
		return true
	}
	return f.MatchPreview && strings.Contains(strings.ToLower(d.ContentPreview), needle)
}

func FilterDocuments(list []entity.DocumentChunk, f DocumentFilter) []entity.DocumentChunk {
	needle := strings.ToLower(strings.TrimSpace(f.SearchText))
	out := make([]entity.DocumentChunk, 0, len(list))
	for _, d := range list {
		if !f.matchesText(d, needle) {
			continue
		}
		if f.Tab != "" && f.Tab != TabAll && TabFor(d.Extension()) != f.Tab {
			continue
		}
		out = append(out, d)
	}
	return out
}

type DocumentSort string

const (
	SortDocsByName DocumentSort = "name"
	SortDocsBySize DocumentSort = "size"
	SortDocsByDate DocumentSort = "date"
)

// SortDocuments returns a sorted copy. Direction applies to whichever key
// is chosen; chunks of one file stay in chunk order.
func SortDocuments(list []entity.DocumentChunk, by DocumentSort, descending bool) []entity.DocumentChunk {
	out := make([]entity.DocumentChunk, len(list))
	copy(out, list)

	compare := func(a, b entity.DocumentChunk) int {
		switch by {
		case SortDocsBySize:
			return compareInt64(a.FileSize, b.FileSize)
		case SortDocsByDate:
			return a.IngestionTime.Compare(b.IngestionTime)
		default:
			return strings.Compare(a.FileName, b.FileName)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j])
		if descending {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		if out[i].FileName == out[j].FileName {
			return out[i].ChunkIndex < out[j].ChunkIndex
		}
		return false
	})
	return out
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// FileSummary is one row per source file in the document browser.
type FileSummary struct {
	FileName      string
	FileType      string
	FileSize      int64
	Chunks        int
	IngestionTime time.Time
}

// SummarizeFiles collapses chunks into files, in first-seen order.
func SummarizeFiles(list []entity.DocumentChunk) []FileSummary {
	index := make(map[string]int)
	var files []FileSummary
	for _, d := range list {
		i, ok := index[d.FileName]
		if !ok {
			i = len(files)
			index[d.FileName] = i
			files = append(files, FileSummary{
				FileName: d.FileName,
				FileType: d.Extension(),
				FileSize: d.FileSize,
			})
		}
		files[i].Chunks++
		if d.IngestionTime.After(files[i].IngestionTime) {
			files[i].IngestionTime = d.IngestionTime
		}
		if d.FileSize > files[i].FileSize {
			files[i].FileSize = d.FileSize
		}
	}
	return files
}

// FormatFileSize renders bytes the way the browser lists them.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "Unknown"
	}
	mb := float64(bytes) / 1024 / 1024
	if mb < 1 {
		return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.2f MB", mb)
}
