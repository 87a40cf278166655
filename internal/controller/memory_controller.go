package controller

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"second-brain-client/internal/devstore"
	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
	"second-brain-client/internal/pkg/serverutils"
)

const (
	defaultUpcomingHours = 24
	defaultCleanupDays   = 30
)

type IMemoryController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Add(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Complete(ctx *fiber.Ctx) error
	Upcoming(ctx *fiber.Ctx) error
	Expired(ctx *fiber.Ctx) error
	Cleanup(ctx *fiber.Ctx) error
	TimeStats(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
}

type memoryController struct {
	store *devstore.Store
	auth  fiber.Handler
}

func NewMemoryController(store *devstore.Store, auth fiber.Handler) IMemoryController {
	return &memoryController{store: store, auth: auth}
}

func (c *memoryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/memories", c.auth)
	h.Get("/", c.List)
	h.Post("/", c.Add)
	h.Get("/upcoming", c.Upcoming)
	h.Get("/expired", c.Expired)
	h.Get("/search", c.Search)
	h.Get("/stats/time", c.TimeStats)
	h.Post("/cleanup", c.Cleanup)
	h.Delete("/:key", c.Delete)
	h.Post("/:key/complete", c.Complete)

	r.Get("/export/memories", c.auth, c.Export)
}

func memoryList(items []dto.MemoryItemDTO) dto.GetMemoriesResponse {
	if items == nil {
		items = []dto.MemoryItemDTO{}
	}
	return dto.GetMemoriesResponse{Memories: items, Total: len(items)}
}

func (c *memoryController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(memoryList(c.store.Memories(serverutils.UserId(ctx))))
}

// addMemoryRequest accepts both a natural-language command and the direct
// category/key/value form.
type addMemoryRequest struct {
	Command     string `json:"command"`
	Category    string `json:"category"`
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

func (c *memoryController) Add(ctx *fiber.Ctx) error {
	var req addMemoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	userId := serverutils.UserId(ctx)

	if req.Command != "" {
		res, err := c.store.AddMemoryCommand(userId, req.Command)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return ctx.JSON(res)
	}

	direct := dto.AddMemoryDirectRequest{
		Category:    req.Category,
		Key:         req.Key,
		Value:       req.Value,
		Description: req.Description,
	}
	if err := serverutils.ValidateRequest(&direct); err != nil {
		return err
	}
	item := c.store.PutMemory(userId, entity.NormalizeCategory(direct.Category), direct.Key, direct.Value, direct.Description, nil)
	return ctx.JSON(dto.AddMemoryResponse{
		Success:  true,
		Message:  "Memory stored: " + item.OriginalKey,
		Category: item.Category,
		Key:      item.OriginalKey,
	})
}

func keyParam(ctx *fiber.Ctx) (string, error) {
	key, err := url.PathUnescape(ctx.Params("key"))
	if err != nil || key == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid memory key")
	}
	return key, nil
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, devstore.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, what+" not found")
	}
	return err
}

func (c *memoryController) Delete(ctx *fiber.Ctx) error {
	key, err := keyParam(ctx)
	if err != nil {
		return err
	}
	if err := c.store.DeleteMemory(serverutils.UserId(ctx), key, ctx.Query("category")); err != nil {
		return notFoundOr(err, "Memory")
	}
	return serverutils.SuccessResponse(ctx, "Memory deleted: "+key)
}

func (c *memoryController) Complete(ctx *fiber.Ctx) error {
	key, err := keyParam(ctx)
	if err != nil {
		return err
	}
	if err := c.store.CompleteMemory(serverutils.UserId(ctx), key, ctx.Query("category")); err != nil {
		return notFoundOr(err, "Memory")
	}
	return serverutils.SuccessResponse(ctx, "Memory completed: "+key)
}

func (c *memoryController) Upcoming(ctx *fiber.Ctx) error {
	hours := ctx.QueryInt("hours", defaultUpcomingHours)
	if hours <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "hours must be positive")
	}
	return ctx.JSON(memoryList(c.store.UpcomingMemories(serverutils.UserId(ctx), hours)))
}

func (c *memoryController) Expired(ctx *fiber.Ctx) error {
	return ctx.JSON(memoryList(c.store.ExpiredMemories(serverutils.UserId(ctx))))
}

func (c *memoryController) Cleanup(ctx *fiber.Ctx) error {
	req := dto.CleanupMemoriesRequest{DaysOld: defaultCleanupDays}
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}
	removed := c.store.CleanupMemories(serverutils.UserId(ctx), req.DaysOld)
	return ctx.JSON(dto.CleanupMemoriesResponse{Success: true, RemovedCount: removed})
}

func (c *memoryController) TimeStats(ctx *fiber.Ctx) error {
	return ctx.JSON(c.store.MemoryTimeStats(serverutils.UserId(ctx)))
}

func (c *memoryController) Search(ctx *fiber.Ctx) error {
	q := ctx.Query("q")
	if q == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Query parameter 'q' is required")
	}
	results := c.store.SearchMemories(serverutils.UserId(ctx), q)
	if results == nil {
		results = []dto.MemoryItemDTO{}
	}
	return ctx.JSON(dto.SearchMemoriesResponse{Query: q, Results: results})
}

func (c *memoryController) Export(ctx *fiber.Ctx) error {
	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return ctx.Send(c.store.ExportMemories(serverutils.UserId(ctx)))
}
