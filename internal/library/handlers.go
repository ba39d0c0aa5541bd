package library

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/courses", func(c *fiber.Ctx) error {
		courses, err := svc.Recent(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(courses)
	})

	r.Get("/courses/nearby", func(c *fiber.Ctx) error {
		lat, _ := strconv.ParseFloat(c.Query("lat"), 64)
		lng, _ := strconv.ParseFloat(c.Query("lng"), 64)
		radius, _ := strconv.ParseFloat(c.Query("radius_km"), 64)
		if radius == 0 {
			radius = 5
		}
		courses, err := svc.Nearby(c.Context(), lat, lng, radius)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(courses)
	})

	r.Post("/courses/:id/publish", authMiddleware, func(c *fiber.Ctx) error {
		ownerID := c.Locals("user_id").(string)
		if err := svc.Publish(c.Context(), c.Params("id"), ownerID); err != nil {
			if errors.Is(err, errCourseNotOwned) {
				return fiber.NewError(fiber.StatusNotFound, "course not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/courses/:id/unpublish", authMiddleware, func(c *fiber.Ctx) error {
		ownerID := c.Locals("user_id").(string)
		if err := svc.Unpublish(c.Context(), c.Params("id"), ownerID); err != nil {
			if errors.Is(err, errCourseNotOwned) {
				return fiber.NewError(fiber.StatusNotFound, "course not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
