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

// VisionClient calls the Google Cloud Vision images:annotate REST endpoint.
type VisionClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type BoundingPoly struct {
	Vertices []Vertex `json:"vertices"`
}

type DetectedBreak struct {
	Type string `json:"type"`
}

type TextProperty struct {
	DetectedBreak *DetectedBreak `json:"detectedBreak,omitempty"`
}

type Symbol struct {
	Text     string        `json:"text"`
	Property *TextProperty `json:"property,omitempty"`
}

// Break returns the detected break type following the symbol, or "".
func (s Symbol) Break() string {
	if s.Property == nil || s.Property.DetectedBreak == nil {
		return ""
	}
	return s.Property.DetectedBreak.Type
}

type Word struct {
	BoundingBox BoundingPoly `json:"boundingBox"`
	Symbols     []Symbol     `json:"symbols"`
}

type Paragraph struct {
	BoundingBox BoundingPoly `json:"boundingBox"`
	Words       []Word       `json:"words"`
}

type Block struct {
	Paragraphs []Paragraph `json:"paragraphs"`
}

type Page struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Blocks []Block `json:"blocks"`
}

type TextAnnotation struct {
	Description string `json:"description"`
}

type FullTextAnnotation struct {
	Pages []Page `json:"pages"`
	Text  string `json:"text"`
}

// AnnotateResult is the per-image part of an annotate response.
type AnnotateResult struct {
	TextAnnotations    []TextAnnotation    `json:"textAnnotations"`
	FullTextAnnotation *FullTextAnnotation `json:"fullTextAnnotation"`
	Error              *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type annotateRequest struct {
	Requests []annotateImageRequest `json:"requests"`
}

type annotateImageRequest struct {
	Image struct {
		Content string `json:"content"`
	} `json:"image"`
	Features []struct {
		Type string `json:"type"`
	} `json:"features"`
}

type annotateResponse struct {
	Responses []AnnotateResult `json:"responses"`
}

// NewVisionClient creates a new Vision API client
func NewVisionClient(cfg *config.VisionConfig) *VisionClient {
	return &VisionClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// DetectDocumentText runs DOCUMENT_TEXT_DETECTION on the image bytes.
func (c *VisionClient) DetectDocumentText(ctx context.Context, image []byte) (*AnnotateResult, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("vision API key not configured")
	}

	item := annotateImageRequest{}
	item.Image.Content = base64.StdEncoding.EncodeToString(image)
	item.Features = append(item.Features, struct {
		Type string `json:"type"`
	}{Type: "DOCUMENT_TEXT_DETECTION"})

	bodyBytes, err := json.Marshal(annotateRequest{Requests: []annotateImageRequest{item}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/images:annotate?key=" + c.apiKey
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
		return nil, fmt.Errorf("vision API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var out annotateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(out.Responses) == 0 {
		return &AnnotateResult{}, nil
	}
	result := out.Responses[0]
	if result.Error != nil {
		return nil, fmt.Errorf("vision API error (code %d): %s", result.Error.Code, result.Error.Message)
	}
	return &result, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *VisionClient) IsConfigured() bool {
	return c.apiKey != ""
}
