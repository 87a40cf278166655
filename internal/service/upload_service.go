package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"second-brain-client/internal/apiclient"
	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
	"second-brain-client/internal/pkg/logger"

	"github.com/google/uuid"
)

var ErrUploadInFlight = errors.New("an upload is already running")

type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadSuccess   UploadStatus = "success"
	UploadError     UploadStatus = "error"
)

// UploadSource is anything that can be sent as one file.
type UploadSource interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

type fileSource struct {
	path string
	size int64
}

// NewFileSource stats path so size checks can run before upload.
func NewFileSource(path string) (UploadSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &fileSource{path: path, size: info.Size()}, nil
}

func (f *fileSource) Name() string { return filepath.Base(f.path) }
func (f *fileSource) Size() int64  { return f.size }
func (f *fileSource) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

type bytesSource struct {
	name string
	data []byte
}

func NewBytesSource(name string, data []byte) UploadSource {
	return &bytesSource{name: name, data: data}
}

func (b *bytesSource) Name() string { return b.name }
func (b *bytesSource) Size() int64  { return int64(len(b.data)) }
func (b *bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

type UploadItem struct {
	Id      string
	Name    string
	Size    int64
	Status  UploadStatus
	Result  *dto.IngestResponse
	Failure *apiclient.UploadFailure
	source  UploadSource
}

// UploadedDocument is handed to the success callback.
type UploadedDocument struct {
	ItemId   string
	FileName string
	Chunks   int
}

type UploadBackend interface {
	UploadFile(ctx context.Context, filename string, content io.Reader) (*dto.IngestResponse, error)
}

type IUploadService interface {
	Add(sources ...UploadSource) []UploadItem
	Remove(id string) bool
	Clear()
	Items() []UploadItem
	IsUploading() bool
	// Upload sends every pending or failed item, one at a time in queue
	// order. onSuccess receives only the documents that made it.
	Upload(ctx context.Context, onSuccess func([]UploadedDocument)) ([]UploadItem, error)
}

type UploadOption func(*uploadService)

// WithAfterFunc replaces time.AfterFunc for the delayed clear.
func WithAfterFunc(fn func(time.Duration, func())) UploadOption {
	return func(s *uploadService) {
		s.afterFunc = fn
	}
}

type uploadService struct {
	mu         sync.Mutex
	backend    UploadBackend
	notifier   INotifier
	logger     logger.ILogger
	maxBytes   int64
	clearDelay time.Duration
	afterFunc  func(time.Duration, func())
	items      []UploadItem
	uploading  bool
}

func NewUploadService(
	backend UploadBackend,
	maxBytes int64,
	clearDelay time.Duration,
	notifier INotifier,
	log logger.ILogger,
	opts ...UploadOption,
) IUploadService {
	s := &uploadService{
		backend:    backend,
		notifier:   notifier,
		logger:     log,
		maxBytes:   maxBytes,
		clearDelay: clearDelay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *uploadService) Add(sources ...UploadSource) []UploadItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]UploadItem, 0, len(sources))
	for _, src := range sources {
		item := UploadItem{
			Id:     uuid.NewString(),
			Name:   src.Name(),
			Size:   src.Size(),
			Status: UploadPending,
			source: src,
		}
		s.items = append(s.items, item)
		added = append(added, item)
	}
	return added
}

func (s *uploadService) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if item.Id == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *uploadService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

func (s *uploadService) Items() []UploadItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UploadItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *uploadService) IsUploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading
}

func (s *uploadService) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].Id == id {
			return i
		}
	}
	return -1
}

// set updates an item if it is still queued.
func (s *uploadService) set(id string, update func(*UploadItem)) (UploadItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return UploadItem{}, false
	}
	update(&s.items[i])
	return s.items[i], true
}

func (s *uploadService) Upload(ctx context.Context, onSuccess func([]UploadedDocument)) ([]UploadItem, error) {
	s.mu.Lock()
	if s.uploading {
		s.mu.Unlock()
		return nil, ErrUploadInFlight
	}
	var ids []string
	for _, item := range s.items {
		if item.Status == UploadPending || item.Status == UploadError {
			ids = append(ids, item.Id)
		}
	}
	if len(ids) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	s.uploading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.uploading = false
		s.mu.Unlock()
	}()

	var (
		results   []UploadItem
		succeeded []UploadedDocument
	)
	for _, id := range ids {
		item, ok := s.set(id, func(it *UploadItem) {
			it.Status = UploadUploading
			it.Failure = nil
			it.Result = nil
		})
		if !ok {
			continue
		}

		resp, failure := s.uploadOne(ctx, item)

		final, ok := s.set(id, func(it *UploadItem) {
			if failure != nil {
				it.Status = UploadError
				it.Failure = failure
				return
			}
			it.Status = UploadSuccess
			it.Result = resp
		})
		if !ok {
			continue
		}
		results = append(results, final)
		if failure == nil {
			succeeded = append(succeeded, UploadedDocument{ItemId: id, FileName: final.Name, Chunks: resp.Chunks})
		}
	}

	s.report(ctx, len(succeeded), len(results)-len(succeeded))

	if len(succeeded) > 0 {
		if onSuccess != nil {
			onSuccess(succeeded)
		}
		s.scheduleClear(succeeded)
	}
	return results, nil
}

func (s *uploadService) uploadOne(ctx context.Context, item UploadItem) (*dto.IngestResponse, *apiclient.UploadFailure) {
	if failure := apiclient.ValidateUpload(item.Name, item.Size, s.maxBytes); failure != nil {
		s.logger.Warn("UploadService", "File rejected before upload", map[string]interface{}{
			"file":  item.Name,
			"cause": string(failure.Cause),
		})
		return nil, failure
	}

	content, err := item.source.Open()
	if err != nil {
		failure := apiclient.UploadFailure{
			Cause:       apiclient.CauseUnknown,
			Message:     "Upload failed. Please try again.",
			Detail:      err.Error(),
			Suggestions: []string{"Check that the file still exists and is readable"},
		}
		return nil, &failure
	}
	defer content.Close()

	resp, err := s.backend.UploadFile(ctx, item.Name, content)
	if err != nil {
		var upErr *apiclient.UploadError
		if errors.As(err, &upErr) {
			failure := upErr.Failure
			s.logger.Error("UploadService", "File upload error", map[string]interface{}{
				"file":   item.Name,
				"cause":  string(failure.Cause),
				"detail": failure.Detail,
			})
			return nil, &failure
		}
		failure := apiclient.MapUploadError(apiclient.StatusOf(err), apiclient.ServerMessage(err))
		return nil, &failure
	}

	s.logger.Info("UploadService", "File uploaded", map[string]interface{}{"file": item.Name, "chunks": resp.Chunks})
	return resp, nil
}

func (s *uploadService) report(ctx context.Context, ok, failed int) {
	if s.notifier == nil {
		return
	}
	switch {
	case failed == 0:
		s.notifier.Notify(ctx, entity.SeveritySuccess, fmt.Sprintf("Uploaded %d file(s)", ok))
	case ok == 0:
		s.notifier.Notify(ctx, entity.SeverityError, fmt.Sprintf("%d file(s) failed to upload", failed))
	default:
		s.notifier.Notify(ctx, entity.SeverityWarning, fmt.Sprintf("Uploaded %d file(s), %d failed", ok, failed))
	}
}

// scheduleClear drops the succeeded entries after the clear delay. Failed
// entries stay until the user removes them.
func (s *uploadService) scheduleClear(succeeded []UploadedDocument) {
	ids := make(map[string]struct{}, len(succeeded))
	for _, doc := range succeeded {
		ids[doc.ItemId] = struct{}{}
	}
	s.afterFunc(s.clearDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		kept := s.items[:0]
		for _, item := range s.items {
			if _, done := ids[item.Id]; done && item.Status == UploadSuccess {
				continue
			}
			kept = append(kept, item)
		}
		s.items = kept
	})
}
