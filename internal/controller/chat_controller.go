package controller

import (
	"github.com/gofiber/fiber/v2"

	"second-brain-client/internal/devstore"
	"second-brain-client/internal/dto"
	"second-brain-client/internal/pkg/serverutils"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	ClearHistory(ctx *fiber.Ctx) error
	ExportHistory(ctx *fiber.Ctx) error
}

type chatController struct {
	store *devstore.Store
	auth  fiber.Handler
}

func NewChatController(store *devstore.Store, auth fiber.Handler) IChatController {
	return &chatController{store: store, auth: auth}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Post("/query", c.auth, c.Query)

	h := r.Group("/conversation/history", c.auth)
	h.Get("/", c.History)
	h.Delete("/", c.ClearHistory)
	h.Get("/export", c.ExportHistory)
}

func (c *chatController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return err
	}
	return ctx.JSON(c.store.Query(serverutils.UserId(ctx), req.Question, req.UseHistory))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.ConversationHistoryResponse{History: c.store.History(serverutils.UserId(ctx))})
}

func (c *chatController) ClearHistory(ctx *fiber.Ctx) error {
	c.store.ClearHistory(serverutils.UserId(ctx))
	return serverutils.SuccessResponse(ctx, "Conversation history cleared")
}

func (c *chatController) ExportHistory(ctx *fiber.Ctx) error {
	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return ctx.Send(c.store.ExportHistory(serverutils.UserId(ctx)))
}
