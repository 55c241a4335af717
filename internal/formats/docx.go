package formats

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/pkg/errors"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// ExtractDOCXText reads the body paragraphs of word/document.xml. Tabs and
// line breaks inside a paragraph are kept; paragraphs are separated by a
// blank line.
func ExtractDOCXText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(err, "failed to open docx")
	}
	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return "", errors.Wrap(err, "failed to open word/document.xml")
			}
			break
		}
	}
	if body == nil {
		return "", errors.New("docx has no word/document.xml")
	}
	defer body.Close()

	dec := xml.NewDecoder(body)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "failed to parse word/document.xml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteString("\t")
			case "br", "cr":
				current.WriteString("\n")
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := strings.TrimSpace(current.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

// BuildDOCX writes one paragraph per blank-line separated block.
func BuildDOCX(translated string) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()
	for _, block := range blankLine.Split(strings.TrimSpace(translated), -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		doc.AddParagraph().AddText(block)
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to write docx")
	}
	return buf.Bytes(), nil
}
