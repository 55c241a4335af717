package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/transdoc/api/internal/formats"
	"github.com/transdoc/api/internal/middleware"
	"github.com/transdoc/api/internal/model"
	"github.com/transdoc/api/internal/service"
	"github.com/transdoc/api/pkg/response"
)

// DocumentQueue is implemented by service.DocumentService.
type DocumentQueue interface {
	Enqueue(ctx context.Context, payload model.TranslationJobPayload) (string, error)
	GetJob(ctx context.Context, jobID string) (*model.JobStatusResponse, error)
}

type DocumentHandler struct {
	service   DocumentQueue
	validator *validator.Validate
}

func NewDocumentHandler(svc DocumentQueue, v *validator.Validate) *DocumentHandler {
	return &DocumentHandler{
		service:   svc,
		validator: v,
	}
}

// Translate handles POST /api/translate/document
func (h *DocumentHandler) Translate(c *fiber.Ctx) error {
	var req model.TranslateDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid form data", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}
	if tooLarge(file, middleware.UploadLimitBytes(c)) {
		return response.FileTooLarge(c, middleware.UploadLimitMB(c))
	}
	if _, err := formats.DetectKind(file.Filename); err != nil {
		return response.UnsupportedFileType(c, err.Error())
	}

	data, err := readUpload(file)
	if err != nil {
		return response.ValidationError(c, "Could not read file", nil)
	}

	jobID, err := h.service.Enqueue(c.UserContext(), model.TranslationJobPayload{
		FileData:       data,
		OriginalName:   file.Filename,
		TargetLanguage: req.TargetLanguage,
		SocketID:       req.SocketID,
		IsPremium:      middleware.IsPremium(c),
	})
	if err != nil {
		var unsupported *formats.UnsupportedFileTypeError
		if errors.As(err, &unsupported) {
			return response.UnsupportedFileType(c, err.Error())
		}
		logrus.WithError(err).WithField("fileName", file.Filename).Error("failed to enqueue translation")
		return response.ServiceError(c, "Failed to queue translation")
	}

	return response.Accepted(c, model.TranslateDocumentResponse{
		JobID:   jobID,
		Status:  model.JobStatusPending,
		Message: "Translation queued",
	})
}

// Status handles GET /api/translate/status/:jobId
func (h *DocumentHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "jobId is required", nil)
	}

	status, err := h.service.GetJob(c.UserContext(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		logrus.WithError(err).WithField("jobId", jobID).Error("failed to read job")
		return response.ServiceError(c, "Failed to read job status")
	}
	return response.OK(c, status)
}
