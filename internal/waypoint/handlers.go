package waypoint

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers course-scoped waypoint routes plus direct
// routes by waypoint id, so r should be the API root router.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/courses/:courseID/waypoints", authMiddleware, func(c *fiber.Ctx) error {
		var req Waypoint
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		wp, err := svc.Create(c.Context(), c.Params("courseID"), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(wp)
	})

	r.Get("/courses/:courseID/waypoints", func(c *fiber.Ctx) error {
		waypoints, err := svc.ListByCourse(c.Context(), c.Params("courseID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(waypoints)
	})

	r.Get("/waypoints/:id", func(c *fiber.Ctx) error {
		wp, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "waypoint not found")
		}
		return c.JSON(wp)
	})

	r.Put("/waypoints/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Waypoint
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		wp, err := svc.Update(c.Context(), c.Params("id"), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(wp)
	})

	r.Delete("/waypoints/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id")); err != nil {
			if errors.Is(err, errProtectedWaypoint) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
