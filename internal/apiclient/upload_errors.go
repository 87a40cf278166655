package apiclient

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

type UploadCause string

const (
	CausePasswordProtected UploadCause = "password_protected"
	CauseCorrupted         UploadCause = "corrupted"
	CauseEmptyContent      UploadCause = "empty_content"
	CauseUnsupportedFormat UploadCause = "unsupported_format"
	CauseInvalid           UploadCause = "invalid"
	CauseOversize          UploadCause = "oversize"
	CauseUnauthorized      UploadCause = "unauthorized"
	CauseServer            UploadCause = "server"
	CauseNetwork           UploadCause = "network"
	CauseUnknown           UploadCause = "unknown"
)

const DefaultMaxUploadBytes int64 = 50 * 1024 * 1024

// AcceptedExtensions lists the file types the backend can ingest.
var AcceptedExtensions = []string{"pdf", "doc", "docx", "txt", "jpg", "jpeg", "png", "gif", "json", "csv"}

// UploadFailure is the user-facing explanation of a failed upload.
type UploadFailure struct {
	Cause       UploadCause `json:"cause"`
	Message     string      `json:"message"`
	Detail      string      `json:"detail,omitempty"`
	Suggestions []string    `json:"suggestions"`
}

type UploadError struct {
	Failure UploadFailure
	Err     error
}

func (e *UploadError) Error() string {
	return e.Failure.Message
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

var causeSuggestions = map[UploadCause][]string{
	CausePasswordProtected: {
		"Remove the password protection and upload the file again",
		"Export or print the document to an unprotected PDF",
	},
	CauseCorrupted: {
		"Open the file locally to confirm it is readable",
		"Re-export or re-download the file and try again",
	},
	CauseEmptyContent: {
		"Make sure the file contains selectable text, not only scanned images",
		"Run OCR on scanned documents before uploading",
	},
	CauseUnsupportedFormat: {
		"Supported formats: " + strings.Join(AcceptedExtensions, ", "),
		"Convert the file to PDF or plain text",
	},
	CauseInvalid: {
		"Check that the file extension matches its content",
		"Try converting the file to PDF or plain text",
	},
	CauseOversize: {
		"Split the file into smaller parts",
		"Compress images or remove embedded media",
	},
	CauseUnauthorized: {
		"Sign in again and retry the upload",
	},
	CauseServer: {
		"Wait a moment and try again",
		"If the problem persists, check the backend status",
	},
	CauseNetwork: {
		"Check your internet connection",
		"Make sure the backend is running and reachable",
	},
	CauseUnknown: {
		"Try uploading the file again",
	},
}

func suggestionsFor(cause UploadCause) []string {
	s := causeSuggestions[cause]
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// MapUploadError translates an ingest failure into a cause and message.
// status 0 means no response was received.
func MapUploadError(status int, serverMessage string) UploadFailure {
	f := UploadFailure{Detail: serverMessage}

	switch {
	case status == 0:
		f.Cause = CauseNetwork
		f.Message = "Network error. Please check your internet connection."
		f.Detail = "Network request failed"
	case status == http.StatusBadRequest:
		switch {
		case containsAny(serverMessage, "encrypted", "Encrypted", "password", "Password"):
			f.Cause = CausePasswordProtected
			f.Message = "File is password-protected or encrypted"
		case containsAny(serverMessage, "corrupted", "corrupt"):
			f.Cause = CauseCorrupted
			f.Message = "File appears to be corrupted"
		case containsAny(serverMessage, "No text", "empty content", "extractable"):
			f.Cause = CauseEmptyContent
			f.Message = "No readable text found in file"
		case strings.Contains(serverMessage, "Unsupported"):
			f.Cause = CauseUnsupportedFormat
			f.Message = "File format is not supported"
		default:
			f.Cause = CauseInvalid
			f.Message = serverMessage
			if f.Message == "" {
				f.Message = "Invalid file format or content"
			}
		}
	case status == http.StatusRequestEntityTooLarge:
		f.Cause = CauseOversize
		f.Message = "File too large (maximum 50MB)"
	case status == http.StatusUnauthorized:
		f.Cause = CauseUnauthorized
		f.Message = "Please login again to upload files"
	case status >= 500:
		f.Cause = CauseServer
		f.Message = "Server error. Please try again later."
	default:
		f.Cause = CauseUnknown
		f.Message = serverMessage
		if f.Message == "" {
			f.Message = fmt.Sprintf("Upload failed (Error %d)", status)
		}
	}

	f.Suggestions = suggestionsFor(f.Cause)
	return f
}

// ValidateUpload runs the checks that need no round trip. It returns nil
// when the file may be sent.
func ValidateUpload(filename string, size, maxBytes int64) *UploadFailure {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if size > maxBytes {
		f := UploadFailure{
			Cause:       CauseOversize,
			Message:     fmt.Sprintf("File too large (maximum %dMB)", maxBytes/(1024*1024)),
			Detail:      fmt.Sprintf("%d bytes", size),
			Suggestions: suggestionsFor(CauseOversize),
		}
		return &f
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, accepted := range AcceptedExtensions {
		if ext == accepted {
			return nil
		}
	}
	f := UploadFailure{
		Cause:       CauseUnsupportedFormat,
		Message:     "File format is not supported",
		Detail:      fmt.Sprintf("extension %q", ext),
		Suggestions: suggestionsFor(CauseUnsupportedFormat),
	}
	return &f
}
