package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/transdoc/api/internal/client"
	"github.com/transdoc/api/internal/model"
)

const (
	defaultSpeechLanguage = "en-US"
	maxAlternativeCodes   = 3
	noSpeechMessage       = "No speech detected"
)

// Supported recognition languages in alternative-code priority order.
var speechLanguages = []struct{ base, code string }{
	{"en", "en-US"},
	{"vi", "vi-VN"},
	{"ja", "ja-JP"},
	{"ko", "ko-KR"},
	{"zh", "zh-CN"},
	{"fr", "fr-FR"},
	{"de", "de-DE"},
	{"es", "es-ES"},
}

var languageNames = map[string]string{
	"english":    "en",
	"vietnamese": "vi",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"french":     "fr",
	"german":     "de",
	"spanish":    "es",
}

// SpeechRecognizer transcribes audio bytes.
type SpeechRecognizer interface {
	Recognize(ctx context.Context, audio []byte, rc client.RecognitionConfig) (*client.RecognizeResponse, error)
}

// TextTranslator translates a whole text in one call.
type TextTranslator interface {
	TranslateText(ctx context.Context, text, targetLang string) (string, error)
}

// AudioService transcribes speech and translates the transcript.
type AudioService struct {
	speech     SpeechRecognizer
	translator TextTranslator
}

func NewAudioService(speech SpeechRecognizer, translator TextTranslator) *AudioService {
	return &AudioService{speech: speech, translator: translator}
}

// Encoding maps a MIME type to a recognition encoding and sample rate.
// A zero sample rate lets the service read it from the file header.
func Encoding(mimeType string) (string, int) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch mt {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return "LINEAR16", 0
	case "audio/flac", "audio/x-flac":
		return "FLAC", 0
	case "audio/ogg", "audio/opus":
		return "OGG_OPUS", 48000
	case "audio/webm", "video/webm":
		return "WEBM_OPUS", 48000
	}
	return "MP3", 44100
}

// LanguageCode resolves a source-language hint to a recognition code.
// Unknown hints fall back to en-US.
func LanguageCode(hint string) string {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" || h == "auto" {
		return defaultSpeechLanguage
	}
	if base, ok := languageNames[h]; ok {
		h = base
	}
	tag, err := language.Parse(h)
	if err != nil {
		return defaultSpeechLanguage
	}
	base, _ := tag.Base()
	for _, l := range speechLanguages {
		if l.base == base.String() {
			return l.code
		}
	}
	return defaultSpeechLanguage
}

// AlternativeCodes lists the other supported codes for auto detection.
func AlternativeCodes(hint, primary string) []string {
	if strings.ToLower(strings.TrimSpace(hint)) != "auto" {
		return nil
	}
	var codes []string
	for _, l := range speechLanguages {
		if l.code == primary {
			continue
		}
		codes = append(codes, l.code)
		if len(codes) == maxAlternativeCodes {
			break
		}
	}
	return codes
}

// Translate transcribes audio and translates the transcript.
func (s *AudioService) Translate(ctx context.Context, audio []byte, mimeType, sourceLang, targetLang string) (*model.AudioTranslationResult, error) {
	encoding, rate := Encoding(mimeType)
	primary := LanguageCode(sourceLang)
	rc := client.RecognitionConfig{
		Encoding:                   encoding,
		SampleRateHertz:            rate,
		LanguageCode:               primary,
		AlternativeLanguageCodes:   AlternativeCodes(sourceLang, primary),
		EnableAutomaticPunctuation: true,
		AudioChannelCount:          1,
		Model:                      "latest_long",
		UseEnhanced:                true,
	}

	resp, err := s.speech.Recognize(ctx, audio, rc)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	var transcripts []string
	detected := ""
	var duration time.Duration
	for _, r := range resp.Results {
		if detected == "" && r.LanguageCode != "" {
			detected = r.LanguageCode
		}
		if d, err := time.ParseDuration(r.ResultEndTime); err == nil && d > duration {
			duration = d
		}
		if len(r.Alternatives) == 0 {
			continue
		}
		if t := strings.TrimSpace(r.Alternatives[0].Transcript); t != "" {
			transcripts = append(transcripts, t)
		}
	}
	if len(transcripts) == 0 {
		return &model.AudioTranslationResult{Message: noSpeechMessage}, nil
	}

	original := strings.Join(transcripts, "\n")
	if detected == "" {
		detected = whatlanggo.DetectLang(original).Iso6391()
	}

	translated, err := s.translator.TranslateText(ctx, original, targetLang)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	logrus.WithFields(logrus.Fields{"encoding": encoding, "language": primary, "detected": detected}).Info("audio translated")

	return &model.AudioTranslationResult{
		OriginalText:   original,
		TranslatedText: translated,
		TargetLanguage: targetLang,
		Metadata: &model.AudioMetadata{
			Duration:         duration.Seconds(),
			DetectedLanguage: detected,
			PrimaryLanguage:  primary,
		},
	}, nil
}
