package controller

import (
	"github.com/gofiber/fiber/v2"

	"second-brain-client/internal/devstore"
	"second-brain-client/internal/dto"
	"second-brain-client/internal/pkg/serverutils"
)

type IStatusController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type statusController struct {
	store   *devstore.Store
	auth    fiber.Handler
	version string
}

func NewStatusController(store *devstore.Store, auth fiber.Handler, version string) IStatusController {
	return &statusController{store: store, auth: auth, version: version}
}

func (c *statusController) RegisterRoutes(r fiber.Router) {
	r.Get("/status", c.Status)
	r.Get("/stats", c.auth, c.Stats)
}

func (c *statusController) Status(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.StatusResponse{
		Status:  "healthy",
		Version: c.version,
		Components: map[string]interface{}{
			"vector_store": "in-memory",
			"memory_store": "in-memory",
		},
	})
}

func (c *statusController) Stats(ctx *fiber.Ctx) error {
	return ctx.JSON(c.store.Stats(serverutils.UserId(ctx)))
}
