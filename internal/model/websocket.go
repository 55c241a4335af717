package model

// Notification events
const (
	EventTranslationProgress = "translationProgress"
	EventTranslationComplete = "translationComplete"
	EventTranslationFailed   = "translationFailed"
	EventConnected           = "connected"
	EventPing                = "ping"
	EventPong                = "pong"
)

// WSMessage is the envelope of every message sent over a socket.
type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// WSInbound is what clients may send.
type WSInbound struct {
	Event string `json:"event"`
}

type TranslationProgress struct {
	JobID string `json:"jobId"`
	Stage string `json:"stage"`
}

type TranslationComplete struct {
	JobID    string `json:"jobId"`
	Status   string `json:"status"`
	FileName string `json:"fileName"`
}

type TranslationFailed struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type Connected struct {
	SocketID string `json:"socketId"`
}
