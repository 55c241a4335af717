package formats

import (
	_ "embed"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const defaultFontFile = "NotoSans-Regular.ttf"

// fallbackFont covers Latin (including Vietnamese), Greek, Cyrillic,
// Hebrew and Arabic. It has no CJK, Thai or Devanagari glyphs.
//
//go:embed fonts/DejaVuSans.ttf
var fallbackFont []byte

// scriptFonts maps a lower-cased language name or code to a font file able
// to render its script.
var scriptFonts = map[string]string{
	"japanese":   "NotoSansJP-Regular.ttf",
	"ja":         "NotoSansJP-Regular.ttf",
	"chinese":    "NotoSansSC-Regular.ttf",
	"zh":         "NotoSansSC-Regular.ttf",
	"korean":     "NotoSansKR-Regular.ttf",
	"ko":         "NotoSansKR-Regular.ttf",
	"thai":       "NotoSansThai-Regular.ttf",
	"th":         "NotoSansThai-Regular.ttf",
	"arabic":     "NotoNaskhArabic-Regular.ttf",
	"ar":         "NotoNaskhArabic-Regular.ttf",
	"hindi":      "NotoSansDevanagari-Regular.ttf",
	"hi":         "NotoSansDevanagari-Regular.ttf",
	"hebrew":     "NotoSansHebrew-Regular.ttf",
	"he":         "NotoSansHebrew-Regular.ttf",
	"vietnamese": defaultFontFile,
	"vi":         defaultFontFile,
}

// embeddedCovers lists mapped files whose script the embedded face renders.
var embeddedCovers = map[string]bool{
	defaultFontFile:               true,
	"NotoNaskhArabic-Regular.ttf": true,
	"NotoSansHebrew-Regular.ttf":  true,
}

// FontSet resolves TrueType font data for a target language.
type FontSet struct {
	dir string
}

func NewFontSet(dir string) *FontSet {
	return &FontSet{dir: dir}
}

// Load returns the language's font, then the default font from the font
// directory, then the embedded face.
func (f *FontSet) Load(targetLang string) ([]byte, error) {
	if f.dir != "" {
		candidates := []string{defaultFontFile}
		if name, ok := scriptFonts[strings.ToLower(strings.TrimSpace(targetLang))]; ok {
			candidates = append([]string{name}, candidates...)
		}
		for _, name := range candidates {
			data, err := os.ReadFile(filepath.Join(f.dir, name))
			if err == nil && len(data) > 0 {
				return data, nil
			}
		}
	}
	return fallbackFont, nil
}

// Unrenderable lists the mapped font files that are absent from the font
// directory and whose script the embedded face cannot draw. PDFs for those
// languages would come out with missing glyphs.
func (f *FontSet) Unrenderable() []string {
	seen := map[string]bool{}
	var missing []string
	for _, name := range scriptFonts {
		if seen[name] || embeddedCovers[name] {
			continue
		}
		seen[name] = true
		if f.dir != "" {
			if info, err := os.Stat(filepath.Join(f.dir, name)); err == nil && info.Size() > 0 {
				continue
			}
		}
		missing = append(missing, name)
	}
	sort.Strings(missing)
	return missing
}
