package model

type TranslateAudioRequest struct {
	TargetLanguage string `form:"targetLanguage" validate:"omitempty,min=2,max=64"`
	SourceLanguage string `form:"sourceLanguage" validate:"omitempty,max=32"`
}

type AudioMetadata struct {
	Duration         float64 `json:"duration"`
	DetectedLanguage string  `json:"detectedLanguage"`
	PrimaryLanguage  string  `json:"primaryLanguage"`
}

// AudioTranslationResult is returned for audio uploads. Message is set and
// both texts are empty when no speech was recognized.
type AudioTranslationResult struct {
	Message        string         `json:"message,omitempty"`
	OriginalText   string         `json:"originalText"`
	TranslatedText string         `json:"translatedText"`
	TargetLanguage string         `json:"targetLanguage,omitempty"`
	Metadata       *AudioMetadata `json:"metadata,omitempty"`
}
