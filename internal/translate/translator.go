// Package translate splits text into chunks and translates them through a
// chat completion backend.
package translate

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/transdoc/api/internal/fanout"
)

const (
	DefaultChunkConcurrency = 10

	placeholderPrefix  = "[TRANSLATION ERROR] "
	placeholderPreview = 200
)

// Completer is the remote translation call.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ChunkResult is the outcome of translating one chunk. When Reason is set
// the call failed and Text holds a placeholder instead of a translation.
type ChunkResult struct {
	Index  int
	Text   string
	Reason string
}

// Failed reports whether the chunk fell back to a placeholder.
func (r ChunkResult) Failed() bool {
	return r.Reason != ""
}

type Options struct {
	ChunkSize   int
	Overlap     int
	Concurrency int
}

type Translator struct {
	client Completer
	opts   Options
}

func NewTranslator(client Completer, opts Options) *Translator {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Overlap < 0 {
		opts.Overlap = DefaultChunkOverlap
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultChunkConcurrency
	}
	return &Translator{client: client, opts: opts}
}

// TranslateText translates text in a single remote call. Errors propagate.
func (t *Translator) TranslateText(ctx context.Context, text, targetLang string) (string, error) {
	out, err := t.client.Complete(ctx, systemPrompt(targetLang), text)
	if err != nil {
		return "", fmt.Errorf("failed to translate text: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// TranslateLines sends newline-joined lines as one batch with a
// line-preserving instruction and returns the raw response.
func (t *Translator) TranslateLines(ctx context.Context, lines []string, targetLang string) (string, error) {
	out, err := t.client.Complete(ctx, BatchLinesPrompt(targetLang), strings.Join(lines, "\n"))
	if err != nil {
		return "", fmt.Errorf("failed to translate lines: %w", err)
	}
	return out, nil
}

// TranslateChunk never fails; a remote error yields a placeholder result.
func (t *Translator) TranslateChunk(ctx context.Context, chunk Chunk, targetLang string) ChunkResult {
	out, err := t.client.Complete(ctx, systemPrompt(targetLang), chunk.Text)
	if err == nil && strings.TrimSpace(out) == "" {
		err = fmt.Errorf("empty translation")
	}
	if err != nil {
		return ChunkResult{Index: chunk.Index, Text: Placeholder(chunk.Text), Reason: err.Error()}
	}
	return ChunkResult{Index: chunk.Index, Text: strings.TrimSpace(out)}
}

// TranslateChunkResults splits text and translates every chunk concurrently.
// Results are in chunk order.
func (t *Translator) TranslateChunkResults(ctx context.Context, text, targetLang, jobID string) ([]ChunkResult, error) {
	chunks, err := SplitChunks(text, t.opts.ChunkSize, t.opts.Overlap)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"jobId": jobID, "chunks": len(chunks)})
	log.Debug("translating chunks")

	results, err := fanout.Map(ctx, chunks, t.opts.Concurrency, func(ctx context.Context, _ int, c Chunk) (ChunkResult, error) {
		return t.TranslateChunk(ctx, c, targetLang), nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.Failed() {
			log.WithField("chunk", r.Index).Warnf("chunk translation failed: %s", r.Reason)
		}
	}
	return results, nil
}

// TranslateChunks translates text chunk by chunk and joins the results.
func (t *Translator) TranslateChunks(ctx context.Context, text, targetLang, jobID string) (string, error) {
	results, err := t.TranslateChunkResults(ctx, text, targetLang, jobID)
	if err != nil {
		return "", err
	}
	return Join(results), nil
}

// Join concatenates results in index order with ChunkSeparator.
func Join(results []ChunkResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Text
	}
	return strings.Join(parts, ChunkSeparator)
}

// Placeholder marks an untranslated chunk with a bounded preview of its source.
func Placeholder(source string) string {
	preview := strings.TrimSpace(source)
	if utf8.RuneCountInString(preview) > placeholderPreview {
		preview = string([]rune(preview)[:placeholderPreview]) + "..."
	}
	return placeholderPrefix + preview
}
