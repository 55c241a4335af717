package model

import "time"

// Task types
const (
	TaskTypeTranslateDocument = "document:translate"
)

// Job statuses reported to clients
const (
	JobStatusPending   = "pending"
	JobStatusActive    = "active"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// TranslationJobPayload is everything a worker needs to translate one document.
type TranslationJobPayload struct {
	FileData       []byte `json:"fileData"`
	OriginalName   string `json:"originalName"`
	TargetLanguage string `json:"targetLanguage"`
	SocketID       string `json:"socketId,omitempty"`
	IsPremium      bool   `json:"isPremium"`
}

// TaskEnvelope is the JSON body stored in the queue.
type TaskEnvelope struct {
	JobID   string                `json:"jobId"`
	Payload TranslationJobPayload `json:"payload"`
}

// TranslateDocumentRequest holds the form fields of a document upload.
type TranslateDocumentRequest struct {
	TargetLanguage string `form:"targetLanguage" validate:"omitempty,min=2,max=64"`
	SocketID       string `form:"socketId" validate:"omitempty,max=128"`
}

type TranslateDocumentResponse struct {
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobStatusResponse mirrors the queue's view of a job.
type JobStatusResponse struct {
	JobID         string     `json:"jobId"`
	Status        string     `json:"status"`
	Completed     bool       `json:"completed"`
	Failed        bool       `json:"failed"`
	ReturnValue   string     `json:"returnValue,omitempty"`
	FailureReason string     `json:"failureReason,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}
