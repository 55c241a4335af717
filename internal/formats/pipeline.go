package formats

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrEmptyOutput means reconstruction produced no bytes.
	ErrEmptyOutput = errors.New("reconstruction produced no output")
	// ErrNoText means extraction found nothing to translate.
	ErrNoText = errors.New("no extractable text found in document")
)

// TextTranslator is the translation surface the reconstructors need.
type TextTranslator interface {
	TranslateChunks(ctx context.Context, text, targetLang, jobID string) (string, error)
	TranslateText(ctx context.Context, text, targetLang string) (string, error)
}

type PipelineOptions struct {
	CellConcurrency  int
	SlideConcurrency int
}

// Pipeline extracts, translates and rebuilds documents of every Kind.
type Pipeline struct {
	tr    TextTranslator
	fonts *FontSet
	opts  PipelineOptions
}

func NewPipeline(tr TextTranslator, fonts *FontSet, opts PipelineOptions) *Pipeline {
	if opts.CellConcurrency <= 0 {
		opts.CellConcurrency = 10
	}
	if opts.SlideConcurrency <= 0 {
		opts.SlideConcurrency = 5
	}
	if fonts == nil {
		fonts = NewFontSet("")
	}
	return &Pipeline{tr: tr, fonts: fonts, opts: opts}
}

// Translate returns the translated document. Output is never empty on success.
func (p *Pipeline) Translate(ctx context.Context, kind Kind, data []byte, targetLang, jobID string) ([]byte, error) {
	log := logrus.WithFields(logrus.Fields{"jobId": jobID, "kind": kind.String()})

	var (
		out []byte
		err error
	)
	switch kind {
	case KindPDF:
		out, err = p.viaText(ctx, data, targetLang, jobID, ExtractPDFText, func(s string) ([]byte, error) {
			font, ferr := p.fonts.Load(targetLang)
			if ferr != nil {
				return nil, ferr
			}
			return BuildPDF(s, font)
		})
	case KindDOCX:
		out, err = p.viaText(ctx, data, targetLang, jobID, ExtractDOCXText, BuildDOCX)
	case KindCSV:
		out, err = p.viaText(ctx, data, targetLang, jobID, ExtractCSVText, BuildCSV)
	case KindText:
		out, err = p.viaText(ctx, data, targetLang, jobID, ExtractPlainText, BuildPlainText)
	case KindXLSX:
		out, err = TranslateXLSX(ctx, data, targetLang, p.tr, p.opts.CellConcurrency)
	case KindPPTX:
		out, err = TranslatePPTX(ctx, data, targetLang, jobID, p.tr, p.opts.SlideConcurrency)
	default:
		return nil, &UnsupportedFileTypeError{Ext: kind.Ext()}
	}
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmptyOutput
	}
	log.WithField("bytes", len(out)).Info("document translated")
	return out, nil
}

func (p *Pipeline) viaText(
	ctx context.Context,
	data []byte,
	targetLang, jobID string,
	extract func([]byte) (string, error),
	build func(string) ([]byte, error),
) ([]byte, error) {
	text, err := extract(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}
	translated, err := p.tr.TranslateChunks(ctx, text, targetLang, jobID)
	if err != nil {
		return nil, errors.Wrap(err, "translation failed")
	}
	return build(translated)
}
