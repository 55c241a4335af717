package formats

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ExtractPlainText decodes UTF-8 (or BOM-marked UTF-16), replacing invalid
// sequences with U+FFFD.
func ExtractPlainText(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode text")
	}
	return string(out), nil
}

func BuildPlainText(translated string) ([]byte, error) {
	return []byte(translated), nil
}
