package service

import (
	"context"
	"strings"

	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
	"second-brain-client/internal/mapper"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/repository/memory"
)

type DocumentBackend interface {
	GetDocuments(ctx context.Context) (*dto.GetDocumentsResponse, error)
	DeleteDocument(ctx context.Context, filename string) (*dto.DeleteDocumentResponse, error)
	SearchDocuments(ctx context.Context, query string) (*dto.SearchDocumentsResponse, error)
}

type IDocumentService interface {
	List(ctx context.Context, refresh bool) ([]entity.DocumentChunk, error)
	Delete(ctx context.Context, filename string) (*dto.DeleteDocumentResponse, error)
	Search(ctx context.Context, query string) ([]dto.SearchResultDTO, error)
	// Invalidate drops the cached list, e.g. after an upload.
	Invalidate()
}

type documentService struct {
	backend  DocumentBackend
	cache    *memory.ListCache[entity.DocumentChunk]
	userKey  func() string
	notifier INotifier
	logger   logger.ILogger
	mapper   *mapper.DocumentMapper
}

func NewDocumentService(
	backend DocumentBackend,
	cache *memory.ListCache[entity.DocumentChunk],
	userKey func() string,
	notifier INotifier,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		backend:  backend,
		cache:    cache,
		userKey:  userKey,
		notifier: notifier,
		logger:   log,
		mapper:   mapper.NewDocumentMapper(),
	}
}

func (s *documentService) cacheKey() string {
	return "documents:" + normalizeUserKey(s.userKey())
}

func (s *documentService) fail(ctx context.Context, text string, err error) error {
	s.logger.Error("DocumentService", text, map[string]interface{}{"error": err})
	if s.notifier != nil {
		s.notifier.Notify(ctx, entity.SeverityError, text)
	}
	return err
}

func (s *documentService) List(ctx context.Context, refresh bool) ([]entity.DocumentChunk, error) {
	if !refresh {
		if cached, ok := s.cache.Get(s.cacheKey()); ok {
			return cached, nil
		}
	}
	resp, err := s.backend.GetDocuments(ctx)
	if err != nil {
		return nil, s.fail(ctx, "Failed to load documents", err)
	}
	list := s.mapper.ToEntities(resp.Documents)
	s.cache.Set(s.cacheKey(), list)
	return list, nil
}

func (s *documentService) Delete(ctx context.Context, filename string) (*dto.DeleteDocumentResponse, error) {
	resp, err := s.backend.DeleteDocument(ctx, filename)
	if err != nil {
		return nil, s.fail(ctx, "Failed to delete document", err)
	}
	s.Invalidate()
	return resp, nil
}

func (s *documentService) Search(ctx context.Context, query string) ([]dto.SearchResultDTO, error) {
	if strings.TrimSpace(query) == "" {
		return []dto.SearchResultDTO{}, nil
	}
	resp, err := s.backend.SearchDocuments(ctx, query)
	if err != nil {
		return nil, s.fail(ctx, "Search failed", err)
	}
	return resp.Results, nil
}

func (s *documentService) Invalidate() {
	s.cache.Invalidate(s.cacheKey())
}
