package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/transdoc/api/internal/config"
)

// SpeechClient calls the Google Cloud Speech-to-Text speech:recognize endpoint.
type SpeechClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// RecognitionConfig mirrors the fields of the REST RecognitionConfig we set.
type RecognitionConfig struct {
	Encoding                   string   `json:"encoding"`
	SampleRateHertz            int      `json:"sampleRateHertz,omitempty"`
	LanguageCode               string   `json:"languageCode"`
	AlternativeLanguageCodes   []string `json:"alternativeLanguageCodes,omitempty"`
	EnableAutomaticPunctuation bool     `json:"enableAutomaticPunctuation"`
	AudioChannelCount          int      `json:"audioChannelCount"`
	Model                      string   `json:"model,omitempty"`
	UseEnhanced                bool     `json:"useEnhanced"`
}

type recognizeRequest struct {
	Config RecognitionConfig `json:"config"`
	Audio  struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type SpeechAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type SpeechResult struct {
	Alternatives  []SpeechAlternative `json:"alternatives"`
	LanguageCode  string              `json:"languageCode"`
	ResultEndTime string              `json:"resultEndTime"`
}

// RecognizeResponse is the decoded speech:recognize response.
type RecognizeResponse struct {
	Results         []SpeechResult `json:"results"`
	TotalBilledTime string         `json:"totalBilledTime"`
}

// NewSpeechClient creates a new Speech API client
func NewSpeechClient(cfg *config.SpeechConfig) *SpeechClient {
	return &SpeechClient{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// Recognize performs synchronous recognition of the audio bytes.
func (c *SpeechClient) Recognize(ctx context.Context, audio []byte, rc RecognitionConfig) (*RecognizeResponse, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("speech API key not configured")
	}

	body := recognizeRequest{Config: rc}
	body.Audio.Content = base64.StdEncoding.EncodeToString(audio)

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/speech:recognize?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var out RecognizeResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &out, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *SpeechClient) IsConfigured() bool {
	return c.apiKey != ""
}
