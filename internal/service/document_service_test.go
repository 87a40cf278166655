package service

import (
	"context"
	"testing"
	"time"

	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDocumentServiceCachesAndInvalidates(t *testing.T) {
	backend := new(mockDocumentBackend)
	first := &dto.GetDocumentsResponse{Documents: []dto.DocumentDTO{{FileName: "a.pdf", FileType: ".pdf", TotalChunks: 1}}}
	second := &dto.GetDocumentsResponse{Documents: []dto.DocumentDTO{}}
	backend.On("GetDocuments", mock.Anything).Return(first, nil).Once()
	backend.On("GetDocuments", mock.Anything).Return(second, nil).Once()
	backend.On("DeleteDocument", mock.Anything, "a.pdf").Return(&dto.DeleteDocumentResponse{Success: true, DeletedChunks: 1}, nil).Once()

	svc := NewDocumentService(backend, memory.NewListCache[entity.DocumentChunk](time.Minute), func() string { return "" }, nil, logger.NewNopLogger())
	ctx := context.Background()

	docs, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "pdf", docs[0].Extension())

	_, err = svc.List(ctx, false)
	require.NoError(t, err)
	backend.AssertNumberOfCalls(t, "GetDocuments", 1)

	resp, err := svc.Delete(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.DeletedChunks)

	docs, err = svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, docs)
	backend.AssertExpectations(t)
}

func TestDocumentSearchBlankQuery(t *testing.T) {
	backend := new(mockDocumentBackend)
	svc := NewDocumentService(backend, memory.NewListCache[entity.DocumentChunk](0), func() string { return "" }, nil, logger.NewNopLogger())

	results, err := svc.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, results)
	backend.AssertNotCalled(t, "SearchDocuments", mock.Anything, mock.Anything)
}
