package plan

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Plan
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.CourseID == "" || req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "course_id and name required")
		}
		req.OwnerID = c.Locals("user_id").(string)
		created, err := svc.Create(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		courseID := c.Query("course_id")
		if courseID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "course_id required")
		}
		plans, err := svc.ListByCourse(c.Context(), courseID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(plans)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "plan not found")
		}
		return c.JSON(p)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		updated, err := svc.Update(c.Context(), c.Params("id"), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(updated)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/stoppages", func(c *fiber.Ctx) error {
		stoppages, err := svc.Stoppages(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(stoppages)
	})

	r.Put("/:id/stoppages/:waypointID", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			StoppageSec float64 `json:"stoppage_sec"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		st, err := svc.SetStoppage(c.Context(), c.Params("id"), c.Params("waypointID"), body.StoppageSec)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(st)
	})

	r.Delete("/:id/stoppages/:waypointID", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteStoppage(c.Context(), c.Params("id"), c.Params("waypointID")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/splits", func(c *fiber.Ctx) error {
		rows, err := svc.Splits(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(rows)
	})

	r.Get("/:id/series", func(c *fiber.Ctx) error {
		step, err := queryFloat(c, "step", 0)
		if err != nil {
			return err
		}
		points, err := svc.Series(c.Context(), c.Params("id"), step)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(points)
	})

	r.Get("/:id/pace", func(c *fiber.Ctx) error {
		if c.Query("distance") == "" {
			return fiber.NewError(fiber.StatusBadRequest, "distance required")
		}
		distance, err := queryFloat(c, "distance", 0)
		if err != nil {
			return err
		}
		pt, err := svc.PaceAt(c.Context(), c.Params("id"), distance)
		if err != nil || pt == nil {
			return fiber.NewError(fiber.StatusNotFound, "plan not found")
		}
		return c.JSON(pt)
	})

	r.Get("/:id/etas", func(c *fiber.Ctx) error {
		etas, err := svc.ETAs(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(etas)
	})

	r.Get("/:id/status", func(c *fiber.Ctx) error {
		if c.Query("distance") == "" || c.Query("elapsed") == "" {
			return fiber.NewError(fiber.StatusBadRequest, "distance and elapsed required")
		}
		distance, err := queryFloat(c, "distance", 0)
		if err != nil {
			return err
		}
		elapsed, err := queryFloat(c, "elapsed", 0)
		if err != nil {
			return err
		}
		st, err := svc.StatusAt(c.Context(), c.Params("id"), distance, elapsed)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(st)
	})

	r.Get("/:id/export/csv", func(c *fiber.Ctx) error {
		data, err := svc.ExportCSV(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="splits.csv"`)
		return c.Send(data)
	})
}

func queryFloat(c *fiber.Ctx, name string, fallback float64) (float64, error) {
	v := c.Query(name)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" must be a number")
	}
	return parsed, nil
}
