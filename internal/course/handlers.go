package course

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		file, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file required")
		}
		name := c.FormValue("name")
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		format := formatFromFilename(file.Filename)
		if format == "" {
			return fiber.NewError(fiber.StatusBadRequest, "file must be .gpx or .fit")
		}

		src, err := file.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ownerID, _ := c.Locals("user_id").(string)
		course, err := svc.Import(c.Context(), ImportInput{
			OwnerID:     ownerID,
			Name:        name,
			Description: c.FormValue("description"),
			Activity:    c.FormValue("activity"),
			Format:      format,
			Data:        data,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(course)
	})

	r.Post("/geojson", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			Activity    string          `json:"activity"`
			GeoJSON     json.RawMessage `json:"geojson"`
		}
		if err := c.BodyParser(&body); err != nil || body.Name == "" || len(body.GeoJSON) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "name and geojson required")
		}

		ownerID, _ := c.Locals("user_id").(string)
		course, err := svc.Import(c.Context(), ImportInput{
			OwnerID:     ownerID,
			Name:        body.Name,
			Description: body.Description,
			Activity:    body.Activity,
			Format:      "geojson",
			Data:        body.GeoJSON,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(course)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		ownerID, _ := c.Locals("user_id").(string)
		courses, err := svc.ListByOwner(c.Context(), ownerID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(courses)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		course, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "course not found")
		}
		return c.JSON(course)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Course
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		course, err := svc.Update(c.Context(), c.Params("id"), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(course)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/elevation", func(c *fiber.Ctx) error {
		var step float64
		if q := c.Query("step"); q != "" {
			parsed, err := strconv.ParseFloat(q, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "step must be a number")
			}
			step = parsed
		}
		samples, err := svc.ElevationSeries(c.Context(), c.Params("id"), step)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "course not found")
		}
		return c.JSON(samples)
	})

	r.Get("/:id/export/geojson", func(c *fiber.Ctx) error {
		fc, err := svc.ExportGeoJSON(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "course not found")
		}
		return c.JSON(fc)
	})
}

func formatFromFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gpx":
		return "gpx"
	case ".fit":
		return "fit"
	default:
		return ""
	}
}
