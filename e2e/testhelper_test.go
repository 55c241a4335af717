package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/transdoc/api/internal/auth"
	"github.com/transdoc/api/internal/handler"
	"github.com/transdoc/api/internal/middleware"
	"github.com/transdoc/api/internal/model"
	"github.com/transdoc/api/internal/service"
	"github.com/transdoc/api/internal/storage"
)

const testJWTSecret = "test-secret-for-e2e"

// Upload limits in MB; small so tests can exceed them cheaply.
const (
	testMaxMB        = 1
	testPremiumMaxMB = 2
)

// fakeQueue records enqueued payloads and serves job states from a map.
type fakeQueue struct {
	mu       sync.Mutex
	payloads []model.TranslationJobPayload
	jobs     map[string]*model.JobStatusResponse
	err      error
}

func (q *fakeQueue) Enqueue(_ context.Context, p model.TranslationJobPayload) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.payloads = append(q.payloads, p)
	return "job-1", nil
}

func (q *fakeQueue) GetJob(_ context.Context, id string) (*model.JobStatusResponse, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if j, ok := q.jobs[id]; ok {
		return j, nil
	}
	return nil, service.ErrJobNotFound
}

type fakeImages struct {
	err error
}

func (f *fakeImages) Translate(_ context.Context, _ []byte, _, target string) (*model.ImageTranslationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.ImageTranslationResult{Segments: []model.Segment{{
		Position:   model.Position{X: 10, Y: 10, Width: 50, Height: 5},
		Original:   "Hello",
		Translated: "[" + target + "] Hello",
	}}}, nil
}

type fakeAudio struct {
	gotSource string
}

func (f *fakeAudio) Translate(_ context.Context, _ []byte, _, source, target string) (*model.AudioTranslationResult, error) {
	f.gotSource = source
	return &model.AudioTranslationResult{
		OriginalText:   "hello",
		TranslatedText: "[" + target + "] hello",
		TargetLanguage: target,
	}, nil
}

// testApp holds all components needed for testing
type testApp struct {
	app    *fiber.App
	queue  *fakeQueue
	images *fakeImages
	audio  *fakeAudio
	store  *storage.LocalStore
}

// setupApp mounts the real routes and middleware over fake services and a
// local store in a temp dir.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	validate := validator.New()
	ta := &testApp{
		queue:  &fakeQueue{jobs: map[string]*model.JobStatusResponse{}},
		images: &fakeImages{},
		audio:  &fakeAudio{},
		store:  store,
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 8 * 1024 * 1024,
	})
	handler.Register(app, handler.Routes{
		Auth:        middleware.NewAuthMiddleware(true, testJWTSecret).Optional(),
		UploadLimit: middleware.UploadLimit(testMaxMB, testPremiumMaxMB),
		Documents:   handler.NewDocumentHandler(ta.queue, validate),
		Images:      handler.NewImageHandler(ta.images, validate, "Vietnamese"),
		Audio:       handler.NewAudioHandler(ta.audio, validate, "Vietnamese"),
		Downloads:   handler.NewDownloadHandler(store),
		Services: func() map[string]bool {
			return map[string]bool{"translation": true}
		},
	})
	ta.app = app
	return ta
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T, premium bool) string {
	t.Helper()
	signed, err := auth.IssueToken("test-user-123", premium, testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return app.Test(req, -1)
}

// multipartBody builds a form with one file part and the given fields.
func multipartBody(t *testing.T, field, filename, contentType string, content []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		part.Write(content)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

// upload posts a multipart form, optionally with a bearer token.
func upload(t *testing.T, app *fiber.App, path, field, filename, contentType string, content []byte, fields map[string]string, token string) *http.Response {
	t.Helper()
	body, formType := multipartBody(t, field, filename, contentType, content, fields)
	headers := map[string]string{"Content-Type": formType}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	resp, err := doRequest(app, http.MethodPost, path, body, headers)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body := readBody(t, resp)
		t.Fatalf("expected status %d, got %d\nbody: %s", expected, resp.StatusCode, body)
	}
}

// assertErrorCode checks the error code in the response.
func assertErrorCode(t *testing.T, body map[string]interface{}, expectedCode string) {
	t.Helper()
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected 'error' object in response, got: %v", body)
	}
	if errObj["code"] != expectedCode {
		t.Errorf("expected error code %q, got %q", expectedCode, errObj["code"])
	}
}
