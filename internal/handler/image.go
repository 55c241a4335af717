package handler

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/transdoc/api/internal/middleware"
	"github.com/transdoc/api/internal/model"
	"github.com/transdoc/api/pkg/response"
)

// ImageTranslator is implemented by service.ImageService.
type ImageTranslator interface {
	Translate(ctx context.Context, image []byte, mimeType, targetLang string) (*model.ImageTranslationResult, error)
}

type ImageHandler struct {
	service         ImageTranslator
	validator       *validator.Validate
	defaultLanguage string
}

func NewImageHandler(svc ImageTranslator, v *validator.Validate, defaultLanguage string) *ImageHandler {
	return &ImageHandler{
		service:         svc,
		validator:       v,
		defaultLanguage: defaultLanguage,
	}
}

// Translate handles POST /api/translate/image
func (h *ImageHandler) Translate(c *fiber.Ctx) error {
	var req model.TranslateImageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid form data", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	file, err := c.FormFile("image")
	if err != nil {
		return response.ValidationError(c, "Image is required", nil)
	}
	if tooLarge(file, middleware.UploadLimitBytes(c)) {
		return response.FileTooLarge(c, middleware.UploadLimitMB(c))
	}
	mimeType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		return response.UnsupportedFileType(c, "Only image files are allowed")
	}

	data, err := readUpload(file)
	if err != nil {
		return response.ValidationError(c, "Could not read image", nil)
	}

	target := req.TargetLanguage
	if target == "" {
		target = h.defaultLanguage
	}

	result, err := h.service.Translate(c.UserContext(), data, mimeType, target)
	if err != nil {
		logrus.WithError(err).Error("image translation failed")
		return response.UpstreamError(c, "Image translation failed")
	}
	return response.OK(c, result)
}
