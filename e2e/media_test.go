package e2e

import (
	"errors"
	"net/http"
	"testing"
)

func TestTranslateImage(t *testing.T) {
	ta := setupApp(t)

	resp := upload(t, ta.app, "/api/translate/image", "image", "sign.png", "image/png",
		[]byte{0x89, 'P', 'N', 'G'}, map[string]string{"targetLanguage": "Korean"}, "")

	assertStatus(t, resp, http.StatusOK)
	body := parseJSON(t, resp)
	segments, ok := body["segments"].([]interface{})
	if !ok || len(segments) != 1 {
		t.Fatalf("expected one segment, got %v", body)
	}
	seg := segments[0].(map[string]interface{})
	if seg["translated"] != "[Korean] Hello" {
		t.Errorf("unexpected translation %v", seg["translated"])
	}
}

func TestTranslateImage_DefaultLanguage(t *testing.T) {
	ta := setupApp(t)

	resp := upload(t, ta.app, "/api/translate/image", "image", "sign.jpg", "image/jpeg", []byte{0xff, 0xd8}, nil, "")

	assertStatus(t, resp, http.StatusOK)
	seg := parseJSON(t, resp)["segments"].([]interface{})[0].(map[string]interface{})
	if seg["translated"] != "[Vietnamese] Hello" {
		t.Errorf("expected default target language, got %v", seg["translated"])
	}
}

func TestTranslateImage_NotAnImage(t *testing.T) {
	ta := setupApp(t)

	resp := upload(t, ta.app, "/api/translate/image", "image", "doc.pdf", "application/pdf", []byte("%PDF"), nil, "")

	assertStatus(t, resp, http.StatusUnsupportedMediaType)
	assertErrorCode(t, parseJSON(t, resp), "UNSUPPORTED_FILE_TYPE")
}

func TestTranslateImage_UpstreamFailure(t *testing.T) {
	ta := setupApp(t)
	ta.images.err = errors.New("vision model returned no segments")

	resp := upload(t, ta.app, "/api/translate/image", "image", "sign.png", "image/png", []byte{0x89}, nil, "")

	assertStatus(t, resp, http.StatusBadGateway)
	assertErrorCode(t, parseJSON(t, resp), "UPSTREAM_ERROR")
}

func TestTranslateAudio(t *testing.T) {
	ta := setupApp(t)

	resp := upload(t, ta.app, "/api/translate/audio", "audio", "clip.webm", "audio/webm",
		[]byte("webm"), map[string]string{"targetLanguage": "English"}, "")

	assertStatus(t, resp, http.StatusOK)
	body := parseJSON(t, resp)
	if body["translatedText"] != "[English] hello" {
		t.Errorf("unexpected translatedText %v", body["translatedText"])
	}
	if ta.audio.gotSource != "auto" {
		t.Errorf("expected source language 'auto', got %q", ta.audio.gotSource)
	}
}

func TestTranslateAudio_MissingFile(t *testing.T) {
	ta := setupApp(t)

	resp := upload(t, ta.app, "/api/translate/audio", "", "", "", nil, map[string]string{"targetLanguage": "English"}, "")

	assertStatus(t, resp, http.StatusBadRequest)
	assertErrorCode(t, parseJSON(t, resp), "VALIDATION_ERROR")
}
