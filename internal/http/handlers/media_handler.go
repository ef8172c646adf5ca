package handlers

import (
	"errors"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"estatedesk/internal/domain"
	applog "estatedesk/internal/log"
	"estatedesk/internal/storage"
)

// MediaHandler serves uploaded listing photos from whichever store is configured.
type MediaHandler struct {
	Store storage.Store
}

// GET /uploads/*
func (h *MediaHandler) Serve(c *fiber.Ctx) error {
	key := c.Params("*")
	raw := strings.ToLower(key)
	// Block encoded traversal attempts as well as raw .. or null bytes
	if strings.Contains(raw, "..") || strings.Contains(raw, "%2e") || strings.Contains(raw, "\x00") {
		applog.Security(c, "media.traversal.block", map[string]any{"path": key})
		return c.SendStatus(fiber.StatusNotFound)
	}
	clean := path.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "/") {
		applog.Security(c, "media.traversal.block", map[string]any{"path": key})
		return c.SendStatus(fiber.StatusNotFound)
	}

	obj, err := h.Store.Open(c.UserContext(), clean)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, storage.ErrBadKey) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		applog.Error(c, "media.open.fail", err, map[string]any{"path": clean})
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	if obj.ContentType != "" {
		c.Set(fiber.HeaderContentType, obj.ContentType)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	size := -1
	if obj.Size >= 0 {
		size = int(obj.Size)
	}
	return c.SendStream(obj.Body, size)
}
