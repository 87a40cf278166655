package devstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"second-brain-client/internal/dto"
	"second-brain-client/pkg/utils"
)

const (
	chunkSize    = 1000
	chunkOverlap = 100
	previewRunes = 200
)

// IngestError carries the HTTP status the backend answers with.
type IngestError struct {
	Status  int
	Message string
}

func (e *IngestError) Error() string {
	return e.Message
}

func rejectf(status int, format string, args ...interface{}) *IngestError {
	return &IngestError{Status: status, Message: fmt.Sprintf(format, args...)}
}

var supportedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".txt": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".json": true, ".csv": true,
}

// SupportedFormats lists the accepted extensions without the dot.
func SupportedFormats() []string {
	out := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		out = append(out, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(out)
	return out
}

// extractText returns the searchable text of a file, or an IngestError
// phrased the way the real backend phrases it.
func extractText(filename string, data []byte) (string, *IngestError) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExtensions[ext] {
		return "", rejectf(http.StatusBadRequest, "Unsupported file type: %s", ext)
	}

	switch ext {
	case ".pdf":
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			return "", rejectf(http.StatusBadRequest, "PDF file is corrupted or invalid")
		}
		if bytes.Contains(data, []byte("/Encrypt")) {
			return "", rejectf(http.StatusBadRequest, "PDF is encrypted or password protected")
		}
		return pdfText(data), nil
	case ".txt", ".csv":
		if !utf8.Valid(data) {
			return "", rejectf(http.StatusBadRequest, "File is corrupted: not valid UTF-8 text")
		}
		return string(data), nil
	case ".json":
		if !json.Valid(data) {
			return "", rejectf(http.StatusBadRequest, "JSON file is corrupted")
		}
		return string(data), nil
	default:
		return fmt.Sprintf("%s (%d bytes of %s content)", filename, len(data), strings.TrimPrefix(ext, ".")), nil
	}
}

// pdfText pulls the literal strings out of PDF text operators. Good enough
// for generated test files.
func pdfText(data []byte) string {
	var b strings.Builder
	depth := 0
	for _, c := range data {
		switch {
		case c == '(':
			if depth > 0 {
				b.WriteByte(c)
			}
			depth++
		case c == ')' && depth > 0:
			depth--
			if depth == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteByte(c)
			}
		case depth > 0:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Ingest splits the file into chunks and replaces any earlier upload of
// the same name.
func (s *Store) Ingest(userId, filename string, data []byte, maxBytes int64) (dto.IngestResponse, error) {
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return dto.IngestResponse{}, rejectf(http.StatusRequestEntityTooLarge, "File too large")
	}
	text, ierr := extractText(filename, data)
	if ierr != nil {
		return dto.IngestResponse{}, ierr
	}
	chunks := utils.SplitText(text, chunkSize, chunkOverlap)
	if len(chunks) == 0 {
		return dto.IngestResponse{}, rejectf(http.StatusBadRequest, "No text content could be extracted from %s", filename)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userLocked(userId)

	kept := u.documents[:0]
	for _, d := range u.documents {
		if d.FileName != filename {
			kept = append(kept, d)
		}
	}
	u.documents = kept

	ingested := dto.NewFlexTime(s.now().UTC())
	for i, chunk := range chunks {
		u.documents = append(u.documents, storedChunk{
			DocumentDTO: dto.DocumentDTO{
				FileName:       filename,
				FileType:       strings.ToLower(filepath.Ext(filename)),
				FileSize:       int64(len(data)),
				ChunkIndex:     i,
				TotalChunks:    len(chunks),
				IngestionTime:  ingested,
				ContentPreview: preview(chunk),
			},
			Content: chunk,
		})
	}

	return dto.IngestResponse{Success: true, Filename: filename, Chunks: len(chunks)}, nil
}

func preview(chunk string) string {
	runes := []rune(chunk)
	if len(runes) <= previewRunes {
		return chunk
	}
	return string(runes[:previewRunes]) + "..."
}
