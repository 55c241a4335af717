package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/transdoc/api/internal/formats"
	"github.com/transdoc/api/internal/model"
	"github.com/transdoc/api/internal/storage"
)

// Notifier delivers job events to a client session. Delivery is best effort.
type Notifier interface {
	Notify(handle, event string, payload interface{})
}

// DocumentTranslator turns a source document into a translated one.
type DocumentTranslator interface {
	Translate(ctx context.Context, kind formats.Kind, data []byte, targetLang, jobID string) ([]byte, error)
}

// TranslationWorker processes document translation tasks
type TranslationWorker struct {
	pipeline        DocumentTranslator
	store           storage.Store
	notifier        Notifier
	defaultLanguage string
	now             func() time.Time
}

// NewTranslationWorker creates a new translation worker
func NewTranslationWorker(pipeline DocumentTranslator, store storage.Store, notifier Notifier, defaultLanguage string) *TranslationWorker {
	return &TranslationWorker{
		pipeline:        pipeline,
		store:           store,
		notifier:        notifier,
		defaultLanguage: defaultLanguage,
		now:             time.Now,
	}
}

// ProcessTask handles one document:translate task. Every failure is
// reported to the client before being returned to the queue.
func (w *TranslationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var env model.TaskEnvelope
	if err := json.Unmarshal(t.Payload(), &env); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	jobID := env.JobID
	payload := env.Payload
	if payload.TargetLanguage == "" {
		payload.TargetLanguage = w.defaultLanguage
	}
	log := logrus.WithFields(logrus.Fields{"jobId": jobID, "file": payload.OriginalName})
	log.Info("starting translation job")

	kind, err := formats.DetectKind(payload.OriginalName)
	if err != nil {
		w.failJob(jobID, payload.SocketID, err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	w.progress(jobID, payload.SocketID, "translating")
	out, err := w.pipeline.Translate(ctx, kind, payload.FileData, payload.TargetLanguage, jobID)
	if err != nil {
		w.failJob(jobID, payload.SocketID, err)
		return err
	}

	w.progress(jobID, payload.SocketID, "saving")
	fileName := storage.OutputName(jobID, kind.Ext(), w.now())
	if err := w.store.Save(ctx, fileName, out); err != nil {
		w.failJob(jobID, payload.SocketID, err)
		return fmt.Errorf("failed to store output: %w", err)
	}

	if rw := t.ResultWriter(); rw != nil {
		if _, err := rw.Write([]byte(fileName)); err != nil {
			log.WithError(err).Warn("failed to record job result")
		}
	}

	w.notifier.Notify(payload.SocketID, model.EventTranslationComplete, model.TranslationComplete{
		JobID:    jobID,
		Status:   model.JobStatusCompleted,
		FileName: fileName,
	})
	log.WithField("fileName", fileName).Info("translation job completed")
	return nil
}

func (w *TranslationWorker) progress(jobID, socketID, stage string) {
	w.notifier.Notify(socketID, model.EventTranslationProgress, model.TranslationProgress{JobID: jobID, Stage: stage})
}

func (w *TranslationWorker) failJob(jobID, socketID string, err error) {
	logrus.WithField("jobId", jobID).WithError(err).Error("translation job failed")
	reason := err.Error()
	var unsupported *formats.UnsupportedFileTypeError
	if errors.As(err, &unsupported) {
		reason = unsupported.Error()
	}
	w.notifier.Notify(socketID, model.EventTranslationFailed, model.TranslationFailed{
		JobID:  jobID,
		Status: model.JobStatusFailed,
		Reason: reason,
	})
}
