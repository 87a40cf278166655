package controller

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"second-brain-client/internal/devstore"
	"second-brain-client/internal/dto"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/pkg/serverutils"
)

const defaultSearchLimit = 5

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Ingest(ctx *fiber.Ctx) error
	UploadInfo(ctx *fiber.Ctx) error
}

type documentController struct {
	store    *devstore.Store
	auth     fiber.Handler
	maxBytes int64
	logger   logger.ILogger
}

func NewDocumentController(store *devstore.Store, auth fiber.Handler, maxBytes int64, log logger.ILogger) IDocumentController {
	return &documentController{store: store, auth: auth, maxBytes: maxBytes, logger: log}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	r.Get("/documents", c.auth, c.List)
	r.Get("/documents/upload-url", c.auth, c.UploadInfo)
	r.Delete("/documents/:filename", c.auth, c.Delete)
	r.Get("/search", c.auth, c.Search)
	r.Post("/ingest", c.auth, c.Ingest)
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.GetDocumentsResponse{Documents: c.store.Documents(serverutils.UserId(ctx))})
}

func (c *documentController) UploadInfo(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.UploadInfoResponse{
		UploadURL:        ctx.BaseURL() + "/ingest",
		MaxFileSize:      c.maxBytes,
		SupportedFormats: devstore.SupportedFormats(),
	})
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	filename, err := url.PathUnescape(ctx.Params("filename"))
	if err != nil || filename == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid file name")
	}
	n, err := c.store.DeleteDocument(serverutils.UserId(ctx), filename)
	if err != nil {
		return notFoundOr(err, "Document")
	}
	return ctx.JSON(dto.DeleteDocumentResponse{
		Success:       true,
		Message:       fmt.Sprintf("Deleted %d chunks from %s", n, filename),
		DeletedChunks: n,
	})
}

func (c *documentController) Search(ctx *fiber.Ctx) error {
	q := ctx.Query("q")
	if q == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Query parameter 'q' is required")
	}
	limit := ctx.QueryInt("limit", defaultSearchLimit)
	return ctx.JSON(dto.SearchDocumentsResponse{
		Query:   q,
		Results: c.store.SearchDocuments(serverutils.UserId(ctx), q, limit),
	})
}

func (c *documentController) Ingest(ctx *fiber.Ctx) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No file provided")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	userId := serverutils.UserId(ctx)
	res, err := c.store.Ingest(userId, fh.Filename, data, c.maxBytes)
	if err != nil {
		var ierr *devstore.IngestError
		if errors.As(err, &ierr) {
			c.logger.Warn("DocumentController", "Ingest rejected", map[string]interface{}{
				"user_id":  userId,
				"filename": fh.Filename,
				"status":   ierr.Status,
				"reason":   ierr.Message,
			})
			return serverutils.ErrorResponse(ctx, ierr.Status, ierr.Message)
		}
		return err
	}

	c.logger.Info("DocumentController", "Ingested file", map[string]interface{}{
		"user_id":  userId,
		"filename": res.Filename,
		"chunks":   res.Chunks,
	})
	return ctx.JSON(res)
}
