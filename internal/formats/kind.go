// Package formats extracts text from supported document types and rebuilds
// translated documents of the same type.
package formats

import (
	"path/filepath"
	"strings"
)

// Kind is the closed set of document types the pipeline understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindDOCX
	KindXLSX
	KindPPTX
	KindCSV
	KindText
)

var kindsByExt = map[string]Kind{
	".pdf":  KindPDF,
	".docx": KindDOCX,
	".xlsx": KindXLSX,
	".pptx": KindPPTX,
	".csv":  KindCSV,
	".txt":  KindText,
}

// UnsupportedFileTypeError is returned for extensions outside the known set.
type UnsupportedFileTypeError struct {
	Ext string
}

func (e *UnsupportedFileTypeError) Error() string {
	return "Unsupported file type: " + e.Ext
}

// DetectKind maps a filename's extension, case-insensitively, to a Kind.
func DetectKind(filename string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if k, ok := kindsByExt[ext]; ok {
		return k, nil
	}
	if ext == "" {
		ext = "(none)"
	}
	return KindUnknown, &UnsupportedFileTypeError{Ext: ext}
}

// IsSupportedExt reports whether ext (with leading dot) is a known output extension.
func IsSupportedExt(ext string) bool {
	_, ok := kindsByExt[strings.ToLower(ext)]
	return ok
}

func (k Kind) Ext() string {
	switch k {
	case KindPDF:
		return ".pdf"
	case KindDOCX:
		return ".docx"
	case KindXLSX:
		return ".xlsx"
	case KindPPTX:
		return ".pptx"
	case KindCSV:
		return ".csv"
	case KindText:
		return ".txt"
	}
	return ""
}

func (k Kind) String() string {
	if k == KindUnknown {
		return "unknown"
	}
	return strings.TrimPrefix(k.Ext(), ".")
}

// ContentType is the MIME type served for documents of this kind.
func (k Kind) ContentType() string {
	switch k {
	case KindPDF:
		return "application/pdf"
	case KindDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case KindXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case KindPPTX:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case KindCSV:
		return "text/csv; charset=utf-8"
	case KindText:
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}

// ContentTypeForName resolves a content type from a file name.
func ContentTypeForName(name string) string {
	k, err := DetectKind(name)
	if err != nil {
		return "application/octet-stream"
	}
	return k.ContentType()
}
