package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/transdoc/api/internal/config"
	"github.com/transdoc/api/internal/formats"
	"github.com/transdoc/api/internal/model"
)

var ErrJobNotFound = errors.New("job not found")

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskInspector is satisfied by *asynq.Inspector.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// DocumentService queues document translations and reports their state.
type DocumentService struct {
	enqueuer        TaskEnqueuer
	inspector       TaskInspector
	queue           string
	maxRetry        int
	timeout         time.Duration
	retention       time.Duration
	defaultLanguage string
}

func NewDocumentService(enqueuer TaskEnqueuer, inspector TaskInspector, wc *config.WorkerConfig, defaultLanguage string) *DocumentService {
	return &DocumentService{
		enqueuer:        enqueuer,
		inspector:       inspector,
		queue:           wc.Queue,
		maxRetry:        wc.MaxRetry,
		timeout:         wc.TaskTimeout,
		retention:       wc.Retention,
		defaultLanguage: defaultLanguage,
	}
}

// NewTranslateTask wraps the payload in the queue envelope.
func NewTranslateTask(jobID string, payload model.TranslationJobPayload) (*asynq.Task, error) {
	data, err := json.Marshal(model.TaskEnvelope{JobID: jobID, Payload: payload})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(model.TaskTypeTranslateDocument, data), nil
}

// Enqueue validates the file type and queues the job. The job id is returned.
func (s *DocumentService) Enqueue(ctx context.Context, payload model.TranslationJobPayload) (string, error) {
	if _, err := formats.DetectKind(payload.OriginalName); err != nil {
		return "", err
	}
	if payload.TargetLanguage == "" {
		payload.TargetLanguage = s.defaultLanguage
	}

	jobID := uuid.New().String()
	task, err := NewTranslateTask(jobID, payload)
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	opts := []asynq.Option{
		asynq.TaskID(jobID),
		asynq.Queue(s.queue),
		asynq.MaxRetry(s.maxRetry),
		asynq.Retention(s.retention),
	}
	if s.timeout > 0 {
		opts = append(opts, asynq.Timeout(s.timeout))
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task, opts...); err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}
	return jobID, nil
}

// GetJob reports the queue's view of a job.
func (s *DocumentService) GetJob(_ context.Context, jobID string) (*model.JobStatusResponse, error) {
	info, err := s.inspector.GetTaskInfo(s.queue, jobID)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to inspect job: %w", err)
	}

	resp := &model.JobStatusResponse{JobID: jobID}
	switch info.State {
	case asynq.TaskStateActive:
		resp.Status = model.JobStatusActive
	case asynq.TaskStateCompleted:
		resp.Status = model.JobStatusCompleted
		resp.Completed = true
		resp.ReturnValue = string(info.Result)
		if !info.CompletedAt.IsZero() {
			completedAt := info.CompletedAt
			resp.CompletedAt = &completedAt
		}
	case asynq.TaskStateArchived:
		resp.Status = model.JobStatusFailed
		resp.Failed = true
		resp.FailureReason = info.LastErr
	default:
		resp.Status = model.JobStatusPending
		resp.FailureReason = info.LastErr
	}
	return resp, nil
}
