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

// AudioTranslator is implemented by service.AudioService.
type AudioTranslator interface {
	Translate(ctx context.Context, audio []byte, mimeType, sourceLang, targetLang string) (*model.AudioTranslationResult, error)
}

type AudioHandler struct {
	service         AudioTranslator
	validator       *validator.Validate
	defaultLanguage string
}

func NewAudioHandler(svc AudioTranslator, v *validator.Validate, defaultLanguage string) *AudioHandler {
	return &AudioHandler{
		service:         svc,
		validator:       v,
		defaultLanguage: defaultLanguage,
	}
}

// Translate handles POST /api/translate/audio
func (h *AudioHandler) Translate(c *fiber.Ctx) error {
	var req model.TranslateAudioRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid form data", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	file, err := c.FormFile("audio")
	if err != nil {
		return response.ValidationError(c, "Audio is required", nil)
	}
	if tooLarge(file, middleware.UploadLimitBytes(c)) {
		return response.FileTooLarge(c, middleware.UploadLimitMB(c))
	}
	mimeType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "audio/") && !strings.HasPrefix(mimeType, "video/") {
		return response.UnsupportedFileType(c, "Only audio files are allowed")
	}

	data, err := readUpload(file)
	if err != nil {
		return response.ValidationError(c, "Could not read audio", nil)
	}

	target := req.TargetLanguage
	if target == "" {
		target = h.defaultLanguage
	}
	source := req.SourceLanguage
	if source == "" {
		source = "auto"
	}

	result, err := h.service.Translate(c.UserContext(), data, mimeType, source, target)
	if err != nil {
		logrus.WithError(err).Error("audio translation failed")
		return response.UpstreamError(c, "Audio translation failed")
	}
	return response.OK(c, result)
}
