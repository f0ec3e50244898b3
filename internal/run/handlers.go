package run

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Mode string `json:"mode"`
		}
		_ = c.BodyParser(&req) // body is optional, mode defaults to "run"
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "user required")
		}
		run, err := svc.StartRun(c.Context(), userID, req.Mode)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(run)
	})

	r.Post("/:id/samples", authMiddleware, func(c *fiber.Ctx) error {
		var req SampleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		resp, err := svc.Ingest(c.Context(), c.Params("id"), req)
		switch {
		case errors.Is(err, ErrRunNotFound):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case errors.Is(err, ErrRateLimited):
			return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(resp)
	})

	r.Post("/:id/stop", authMiddleware, func(c *fiber.Ctx) error {
		sum, err := svc.StopRun(c.Context(), c.Params("id"))
		if errors.Is(err, ErrRunNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(sum)
	})

	r.Get("/:id/summary", func(c *fiber.Ctx) error {
		sum, err := svc.Summary(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "run not found")
		}
		return c.JSON(sum)
	})
}
