package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
	"second-brain-client/internal/mapper"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/repository/memory"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultUpcomingHours  = 24
	DefaultCleanupDaysOld = 30
)

var ErrEmptyCommand = errors.New("memory command is empty")

type MemoryBackend interface {
	GetMemories(ctx context.Context) (*dto.GetMemoriesResponse, error)
	GetUpcomingMemories(ctx context.Context, hoursAhead int) (*dto.GetMemoriesResponse, error)
	GetExpiredMemories(ctx context.Context) (*dto.GetMemoriesResponse, error)
	AddMemory(ctx context.Context, command string) (*dto.AddMemoryResponse, error)
	AddMemoryDirect(ctx context.Context, in dto.AddMemoryDirectRequest) (*dto.AddMemoryResponse, error)
	DeleteMemory(ctx context.Context, key, category string) error
	CompleteMemory(ctx context.Context, key, category string) error
	CleanupMemories(ctx context.Context, daysOld int) (*dto.CleanupMemoriesResponse, error)
	GetMemoryTimeStats(ctx context.Context) (*dto.MemoryTimeStatsResponse, error)
	SearchMemories(ctx context.Context, query string) (*dto.SearchMemoriesResponse, error)
	ExportMemories(ctx context.Context) (json.RawMessage, error)
}

type IMemoryService interface {
	// List returns the user's memories, served from cache unless refresh
	// is set or the cache expired.
	List(ctx context.Context, refresh bool) ([]entity.Memory, error)
	Add(ctx context.Context, command string) (*dto.AddMemoryResponse, error)
	AddDirect(ctx context.Context, req dto.AddMemoryDirectRequest) (*dto.AddMemoryResponse, error)
	Delete(ctx context.Context, key string, category entity.MemoryCategory) error
	Complete(ctx context.Context, key string, category entity.MemoryCategory) error
	Upcoming(ctx context.Context, hoursAhead int) ([]entity.Memory, error)
	Expired(ctx context.Context) ([]entity.Memory, error)
	Cleanup(ctx context.Context, daysOld int) (int, error)
	TimeStats(ctx context.Context) (*dto.MemoryTimeStatsResponse, error)
	Search(ctx context.Context, query string) ([]entity.Memory, error)
	Export(ctx context.Context) ([]byte, error)
}

type memoryService struct {
	backend  MemoryBackend
	cache    *memory.ListCache[entity.Memory]
	userKey  func() string
	notifier INotifier
	logger   logger.ILogger
	mapper   *mapper.MemoryMapper
	validate *validator.Validate
}

func NewMemoryService(
	backend MemoryBackend,
	cache *memory.ListCache[entity.Memory],
	userKey func() string,
	notifier INotifier,
	log logger.ILogger,
) IMemoryService {
	return &memoryService{
		backend:  backend,
		cache:    cache,
		userKey:  userKey,
		notifier: notifier,
		logger:   log,
		mapper:   mapper.NewMemoryMapper(),
		validate: validator.New(),
	}
}

func (s *memoryService) cacheKey() string {
	return "memories:" + normalizeUserKey(s.userKey())
}

func (s *memoryService) fail(ctx context.Context, text string, err error) error {
	s.logger.Error("MemoryService", text, map[string]interface{}{"error": err})
	if s.notifier != nil {
		s.notifier.Notify(ctx, entity.SeverityError, text)
	}
	return err
}

func (s *memoryService) List(ctx context.Context, refresh bool) ([]entity.Memory, error) {
	if !refresh {
		if cached, ok := s.cache.Get(s.cacheKey()); ok {
			return cached, nil
		}
	}

	resp, err := s.backend.GetMemories(ctx)
	if err != nil {
		return nil, s.fail(ctx, "Failed to load memories", err)
	}
	list := s.mapper.ToEntities(resp.Memories)
	s.cache.Set(s.cacheKey(), list)
	return list, nil
}

func (s *memoryService) Add(ctx context.Context, command string) (*dto.AddMemoryResponse, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrEmptyCommand
	}
	resp, err := s.backend.AddMemory(ctx, command)
	if err != nil {
		return nil, s.fail(ctx, "Failed to add memory", err)
	}
	s.cache.Invalidate(s.cacheKey())
	return resp, nil
}

func (s *memoryService) AddDirect(ctx context.Context, req dto.AddMemoryDirectRequest) (*dto.AddMemoryResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid memory: %w", err)
	}
	resp, err := s.backend.AddMemoryDirect(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, "Failed to add memory", err)
	}
	s.cache.Invalidate(s.cacheKey())
	return resp, nil
}

func (s *memoryService) Delete(ctx context.Context, key string, category entity.MemoryCategory) error {
	if err := s.backend.DeleteMemory(ctx, key, string(category)); err != nil {
		return s.fail(ctx, "Failed to delete memory", err)
	}
	s.cache.Invalidate(s.cacheKey())
	return nil
}

func (s *memoryService) Complete(ctx context.Context, key string, category entity.MemoryCategory) error {
	if err := s.backend.CompleteMemory(ctx, key, string(category)); err != nil {
		return s.fail(ctx, "Failed to complete memory", err)
	}
	s.cache.Invalidate(s.cacheKey())
	return nil
}

func (s *memoryService) Upcoming(ctx context.Context, hoursAhead int) ([]entity.Memory, error) {
	if hoursAhead <= 0 {
		hoursAhead = DefaultUpcomingHours
	}
	resp, err := s.backend.GetUpcomingMemories(ctx, hoursAhead)
	if err != nil {
		return nil, s.fail(ctx, "Failed to load upcoming memories", err)
	}
	return s.mapper.ToEntities(resp.Memories), nil
}

func (s *memoryService) Expired(ctx context.Context) ([]entity.Memory, error) {
	resp, err := s.backend.GetExpiredMemories(ctx)
	if err != nil {
		return nil, s.fail(ctx, "Failed to load expired memories", err)
	}
	return s.mapper.ToEntities(resp.Memories), nil
}

func (s *memoryService) Cleanup(ctx context.Context, daysOld int) (int, error) {
	if daysOld <= 0 {
		daysOld = DefaultCleanupDaysOld
	}
	resp, err := s.backend.CleanupMemories(ctx, daysOld)
	if err != nil {
		return 0, s.fail(ctx, "Failed to clean up memories", err)
	}
	s.cache.Invalidate(s.cacheKey())
	return resp.RemovedCount, nil
}

func (s *memoryService) TimeStats(ctx context.Context) (*dto.MemoryTimeStatsResponse, error) {
	resp, err := s.backend.GetMemoryTimeStats(ctx)
	if err != nil {
		return nil, s.fail(ctx, "Failed to load memory statistics", err)
	}
	return resp, nil
}

// Search returns an empty result for a blank query without calling the
// backend.
func (s *memoryService) Search(ctx context.Context, query string) ([]entity.Memory, error) {
	if strings.TrimSpace(query) == "" {
		return []entity.Memory{}, nil
	}
	resp, err := s.backend.SearchMemories(ctx, query)
	if err != nil {
		return nil, s.fail(ctx, "Failed to search memories", err)
	}
	return s.mapper.ToEntities(resp.Results), nil
}

func (s *memoryService) Export(ctx context.Context) ([]byte, error) {
	raw, err := s.backend.ExportMemories(ctx)
	if err != nil {
		return nil, s.fail(ctx, "Failed to export memories", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return nil, s.fail(ctx, "Failed to export memories", err)
	}
	return pretty.Bytes(), nil
}
