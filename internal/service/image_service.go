package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/transdoc/api/internal/client"
	"github.com/transdoc/api/internal/model"
)

// ErrMalformedSegments means the vision model did not return a segments array.
var ErrMalformedSegments = errors.New("vision response has no segments array")

// OCRClient detects text with per-word geometry.
type OCRClient interface {
	DetectDocumentText(ctx context.Context, image []byte) (*client.AnnotateResult, error)
}

// VisionCompleter sends an image to a vision-capable chat model.
type VisionCompleter interface {
	CompleteWithImage(ctx context.Context, system, prompt, dataURI string) (string, error)
}

// LineTranslator translates a batch of lines in one call.
type LineTranslator interface {
	TranslateLines(ctx context.Context, lines []string, targetLang string) (string, error)
}

// ImageService finds text regions in an image and translates them.
type ImageService struct {
	ocr    OCRClient
	vision VisionCompleter
	lines  LineTranslator
}

func NewImageService(ocr OCRClient, vision VisionCompleter, lines LineTranslator) *ImageService {
	return &ImageService{ocr: ocr, vision: vision, lines: lines}
}

// Translate runs OCR then a batch translation; if either fails it makes a
// single vision-model call instead.
func (s *ImageService) Translate(ctx context.Context, image []byte, mimeType, targetLang string) (*model.ImageTranslationResult, error) {
	log := logrus.WithField("targetLanguage", targetLang)

	annotation, err := s.ocr.DetectDocumentText(ctx, image)
	if err != nil {
		log.WithError(err).Warn("OCR failed, using vision model")
		return s.translateWithVision(ctx, image, mimeType, targetLang)
	}

	segments := SegmentsFromAnnotation(annotation)
	if len(segments) == 0 {
		return &model.ImageTranslationResult{Segments: []model.Segment{}}, nil
	}

	originals := make([]string, len(segments))
	for i, seg := range segments {
		originals[i] = seg.Original
	}
	out, err := s.lines.TranslateLines(ctx, originals, targetLang)
	if err == nil && strings.TrimSpace(out) == "" {
		err = errors.New("empty batch translation")
	}
	if err != nil {
		log.WithError(err).Warn("batch translation failed, using vision model")
		return s.translateWithVision(ctx, image, mimeType, targetLang)
	}

	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(out, "\r\n", "\n")), "\n")
	for i := range segments {
		if i >= len(lines) {
			break
		}
		segments[i].Translated = strings.TrimSpace(lines[i])
	}
	return &model.ImageTranslationResult{Segments: segments}, nil
}

// SegmentsFromAnnotation builds one segment per non-blank paragraph with its
// bounding box in percent of the page.
func SegmentsFromAnnotation(a *client.AnnotateResult) []model.Segment {
	if a == nil || a.FullTextAnnotation == nil {
		return nil
	}
	var segments []model.Segment
	for _, page := range a.FullTextAnnotation.Pages {
		width, height := page.Width, page.Height
		for _, block := range page.Blocks {
			for _, para := range block.Paragraphs {
				text, minX, minY, maxX, maxY := paragraphText(para)
				text = strings.TrimSpace(text)
				if text == "" {
					continue
				}
				segments = append(segments, model.Segment{
					Position: model.Position{
						X:      percent(minX, width),
						Y:      percent(minY, height),
						Width:  percent(maxX-minX, width),
						Height: percent(maxY-minY, height),
					},
					Original: text,
				})
			}
		}
	}
	return segments
}

func paragraphText(p client.Paragraph) (text string, minX, minY, maxX, maxY float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	var sb strings.Builder
	for _, w := range p.Words {
		for _, sym := range w.Symbols {
			sb.WriteString(sym.Text)
			switch sym.Break() {
			case "SPACE", "SURE_SPACE", "EOL_SURE_SPACE", "LINE_BREAK":
				sb.WriteString(" ")
			}
		}
		for _, v := range w.BoundingBox.Vertices {
			minX = math.Min(minX, v.X)
			minY = math.Min(minY, v.Y)
			maxX = math.Max(maxX, v.X)
			maxY = math.Max(maxY, v.Y)
		}
	}
	if minX == math.MaxFloat64 {
		minX, minY = 0, 0
	}
	return sb.String(), minX, minY, maxX, maxY
}

func percent(v, total float64) float64 {
	if total <= 0 {
		return 0
	}
	p := v / total * 100
	p = math.Max(0, math.Min(100, p))
	return math.Round(p*100) / 100
}

const visionSystemPrompt = `You detect and translate text in images. Respond with JSON only.`

func visionPrompt(targetLang string) string {
	return fmt.Sprintf(`Find every block of text in this image and translate it into %s.
Return a JSON object of the form {"segments":[{"position":{"x":0,"y":0,"width":0,"height":0},"original":"...","translated":"..."}]}.
position values are percentages (0-100) of the image width and height. Return only the JSON.`, targetLang)
}

func (s *ImageService) translateWithVision(ctx context.Context, image []byte, mimeType, targetLang string) (*model.ImageTranslationResult, error) {
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(image)
	}
	dataURI := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	out, err := s.vision.CompleteWithImage(ctx, visionSystemPrompt, visionPrompt(targetLang), dataURI)
	if err != nil {
		return nil, fmt.Errorf("vision translation failed: %w", err)
	}
	segments, err := ParseVisionSegments(out)
	if err != nil {
		return nil, err
	}
	return &model.ImageTranslationResult{Segments: segments}, nil
}

var codeFence = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*(.*?)\\s*```\\s*$")

// ParseVisionSegments decodes {"segments":[...]} after removing a markdown
// code fence.
func ParseVisionSegments(raw string) ([]model.Segment, error) {
	body := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(body); m != nil {
		body = m[1]
	}

	var parsed struct {
		Segments *[]model.Segment `json:"segments"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSegments, err)
	}
	if parsed.Segments == nil {
		return nil, ErrMalformedSegments
	}
	return *parsed.Segments, nil
}
