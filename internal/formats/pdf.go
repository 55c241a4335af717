package formats

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
	"github.com/signintech/gopdf"
	"github.com/sirupsen/logrus"
)

const (
	pdfMargin     = 50.0
	pdfFontSize   = 12
	pdfLineHeight = 18.0
	pdfFontFamily = "body"
)

// ExtractPDFText returns the plain text of every page joined by blank lines.
func ExtractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(err, "failed to open pdf")
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", errors.Wrapf(err, "failed to read pdf page %d", i)
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, strings.TrimSpace(text))
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// BuildPDF lays text out on A4 pages with greedy word wrapping.
func BuildPDF(text string, font []byte) ([]byte, error) {
	out, missing, err := buildPDF(text, font)
	if err != nil {
		return nil, err
	}
	if missing > 0 {
		logrus.WithField("glyphs", missing).Warn("font is missing glyphs for translated text")
	}
	return out, nil
}

// buildPDF also reports how many glyphs the font could not supply.
func buildPDF(text string, font []byte) ([]byte, int, error) {
	doc := gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})

	missing := 0
	err := doc.AddTTFFontDataWithOption(pdfFontFamily, font, gopdf.TtfOption{
		OnGlyphNotFound: func(rune) { missing++ },
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to load pdf font")
	}
	if err := doc.SetFont(pdfFontFamily, "", pdfFontSize); err != nil {
		return nil, 0, errors.Wrap(err, "failed to set pdf font")
	}

	pageW, pageH := gopdf.PageSizeA4.W, gopdf.PageSizeA4.H
	measure := func(s string) float64 {
		w, err := doc.MeasureTextWidth(s)
		if err != nil {
			return float64(len([]rune(s))) * pdfFontSize / 2
		}
		return w
	}
	lines := wrapText(text, pageW-2*pdfMargin, measure)

	doc.AddPage()
	y := pdfMargin
	for _, line := range lines {
		if y+pdfLineHeight > pageH-pdfMargin {
			doc.AddPage()
			y = pdfMargin
		}
		if line != "" {
			doc.SetXY(pdfMargin, y)
			if err := doc.Cell(nil, line); err != nil {
				return nil, 0, errors.Wrap(err, "failed to write pdf line")
			}
		}
		y += pdfLineHeight
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, 0, errors.Wrap(err, "failed to write pdf")
	}
	return buf.Bytes(), missing, nil
}

// wrapText breaks text into lines no wider than maxWidth. Explicit newlines
// always break; words wider than a line are split by rune.
func wrapText(text string, maxWidth float64, measure func(string) float64) []string {
	var lines []string
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(raw)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range words {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if measure(candidate) <= maxWidth {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			if measure(word) <= maxWidth {
				current = word
				continue
			}
			pieces := splitWord(word, maxWidth, measure)
			lines = append(lines, pieces[:len(pieces)-1]...)
			current = pieces[len(pieces)-1]
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

func splitWord(word string, maxWidth float64, measure func(string) float64) []string {
	var pieces []string
	var cur []rune
	for _, r := range word {
		next := append(cur, r)
		if len(cur) > 0 && measure(string(next)) > maxWidth {
			pieces = append(pieces, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	if len(cur) > 0 {
		pieces = append(pieces, string(cur))
	}
	return pieces
}
