package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"second-brain-client/internal/dto"
)

// ErrorResponse writes the {"error": ...} envelope the client reads.
func ErrorResponse(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(dto.ErrorResponse{Error: message})
}

func SuccessResponse(ctx *fiber.Ctx, message string) error {
	return ctx.JSON(dto.MessageResponse{Success: true, Message: message})
}

// ErrorHandler is installed as the fiber.Config ErrorHandler so handlers
// can simply return errors.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	}
	return ErrorResponse(ctx, status, message)
}
