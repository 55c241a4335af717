package formats

import (
	"bytes"
	"encoding/csv"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// FieldSeparator joins CSV fields in the translatable text form.
const FieldSeparator = "|||"

var blankLine = regexp.MustCompile(`\n\s*\n`)

// ExtractCSVText renders header and rows as |||-joined lines separated by
// blank lines.
func ExtractCSVText(data []byte) (string, error) {
	text, err := ExtractPlainText(data)
	if err != nil {
		return "", err
	}
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return "", errors.Wrap(err, "failed to parse csv")
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		for i := range rec {
			rec[i] = squeezeBlankLines(rec[i])
		}
		lines = append(lines, strings.Join(rec, FieldSeparator))
	}
	return strings.Join(lines, "\n\n"), nil
}

// squeezeBlankLines drops blank lines inside a quoted field so that blank
// lines only ever separate records.
func squeezeBlankLines(field string) string {
	if !strings.ContainsAny(field, "\r\n") {
		return field
	}
	field = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(field)
	parts := strings.Split(field, "\n")
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

// BuildCSV parses the translated text back into records. The first record
// is the header; later records are mapped onto it by position.
func BuildCSV(translated string) ([]byte, error) {
	var records [][]string
	for _, block := range blankLine.Split(strings.TrimSpace(translated), -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		fields := strings.Split(block, FieldSeparator)
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		records = append(records, fields)
	}
	if len(records) == 0 {
		return nil, ErrEmptyOutput
	}

	header := records[0]
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, errors.Wrap(err, "failed to write csv header")
	}
	for _, rec := range records[1:] {
		row := make([]string, len(header))
		copy(row, rec)
		if err := w.Write(row); err != nil {
			return nil, errors.Wrap(err, "failed to write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to flush csv")
	}
	return buf.Bytes(), nil
}
