package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/transdoc/api/internal/formats"
	"github.com/transdoc/api/internal/storage"
	"github.com/transdoc/api/pkg/response"
)

type DownloadHandler struct {
	store storage.Store
}

func NewDownloadHandler(store storage.Store) *DownloadHandler {
	return &DownloadHandler{store: store}
}

// Download handles GET /api/download/:fileName
// The file is removed from storage once it has been streamed.
func (h *DownloadHandler) Download(c *fiber.Ctx) error {
	name := c.Params("fileName")
	log := logrus.WithField("fileName", name)

	rc, size, err := storage.OpenOnce(c.UserContext(), h.store, name, func(err error) {
		log.WithError(err).Warn("failed to delete downloaded file")
	})
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		return response.ValidationError(c, "Invalid file name", nil)
	case errors.Is(err, storage.ErrNotFound):
		return response.NotFound(c, "File not found")
	case err != nil:
		log.WithError(err).Error("failed to open output")
		return response.ServiceError(c, "Failed to read file")
	}

	c.Set(fiber.HeaderContentType, formats.ContentTypeForName(name))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.SendStream(rc, int(size))
}
