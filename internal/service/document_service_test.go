package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transdoc/api/internal/config"
	"github.com/transdoc/api/internal/formats"
	"github.com/transdoc/api/internal/model"
)

type fakeEnqueuer struct {
	task *asynq.Task
	opts []asynq.Option
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.task = task
	f.opts = opts
	return &asynq.TaskInfo{}, nil
}

type fakeInspector struct {
	info *asynq.TaskInfo
	err  error
}

func (f *fakeInspector) GetTaskInfo(string, string) (*asynq.TaskInfo, error) {
	return f.info, f.err
}

func newDocService(enq TaskEnqueuer, insp TaskInspector) *DocumentService {
	return NewDocumentService(enq, insp, &config.WorkerConfig{Queue: "translation", Retention: time.Hour}, "Vietnamese")
}

func TestEnqueueDefaultsLanguageAndUsesJobID(t *testing.T) {
	enq := &fakeEnqueuer{}
	svc := newDocService(enq, &fakeInspector{})

	jobID, err := svc.Enqueue(context.Background(), model.TranslationJobPayload{
		FileData:     []byte("hi"),
		OriginalName: "Notes.TXT",
		SocketID:     "sock-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	assert.Equal(t, model.TaskTypeTranslateDocument, enq.task.Type())
	var env model.TaskEnvelope
	require.NoError(t, json.Unmarshal(enq.task.Payload(), &env))
	assert.Equal(t, jobID, env.JobID)
	assert.Equal(t, "Vietnamese", env.Payload.TargetLanguage)
	assert.Equal(t, "sock-1", env.Payload.SocketID)

	var taskID, queue string
	for _, o := range enq.opts {
		switch o.Type() {
		case asynq.TaskIDOpt:
			taskID = o.Value().(string)
		case asynq.QueueOpt:
			queue = o.Value().(string)
		}
	}
	assert.Equal(t, jobID, taskID)
	assert.Equal(t, "translation", queue)
}

func TestEnqueueRejectsUnsupportedType(t *testing.T) {
	enq := &fakeEnqueuer{}
	svc := newDocService(enq, &fakeInspector{})

	_, err := svc.Enqueue(context.Background(), model.TranslationJobPayload{OriginalName: "movie.mkv"})
	var unsupported *formats.UnsupportedFileTypeError
	assert.ErrorAs(t, err, &unsupported)
	assert.Nil(t, enq.task)
}

func TestGetJobStates(t *testing.T) {
	done := time.Now()
	cases := []struct {
		info *asynq.TaskInfo
		want model.JobStatusResponse
	}{
		{&asynq.TaskInfo{State: asynq.TaskStatePending}, model.JobStatusResponse{JobID: "j", Status: "pending"}},
		{&asynq.TaskInfo{State: asynq.TaskStateActive}, model.JobStatusResponse{JobID: "j", Status: "active"}},
		{
			&asynq.TaskInfo{State: asynq.TaskStateCompleted, Result: []byte("translated-j-1.pdf"), CompletedAt: done},
			model.JobStatusResponse{JobID: "j", Status: "completed", Completed: true, ReturnValue: "translated-j-1.pdf", CompletedAt: &done},
		},
		{
			&asynq.TaskInfo{State: asynq.TaskStateArchived, LastErr: "Unsupported file type: .xyz"},
			model.JobStatusResponse{JobID: "j", Status: "failed", Failed: true, FailureReason: "Unsupported file type: .xyz"},
		},
	}
	for _, c := range cases {
		svc := newDocService(&fakeEnqueuer{}, &fakeInspector{info: c.info})
		got, err := svc.GetJob(context.Background(), "j")
		require.NoError(t, err)
		assert.Equal(t, c.want, *got)
	}
}

func TestGetJobNotFound(t *testing.T) {
	svc := newDocService(&fakeEnqueuer{}, &fakeInspector{err: asynq.ErrTaskNotFound})
	_, err := svc.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
