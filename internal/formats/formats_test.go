package formats

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// upperTranslator "translates" by upper-casing and counts calls.
type upperTranslator struct {
	mu         sync.Mutex
	textCalls  map[string]int
	chunkCalls int
	failOn     string
}

func newUpper() *upperTranslator {
	return &upperTranslator{textCalls: map[string]int{}}
}

func (u *upperTranslator) TranslateChunks(_ context.Context, text, _, _ string) (string, error) {
	u.mu.Lock()
	u.chunkCalls++
	u.mu.Unlock()
	return strings.ToUpper(text), nil
}

func (u *upperTranslator) TranslateText(_ context.Context, text, _ string) (string, error) {
	u.mu.Lock()
	u.textCalls[text]++
	u.mu.Unlock()
	if text == u.failOn {
		return "", errors.New("remote down")
	}
	return strings.ToUpper(text), nil
}

func TestDetectKind(t *testing.T) {
	cases := map[string]Kind{
		"report.PDF": KindPDF,
		"a.b.docx":   KindDOCX,
		"sheet.XlSx": KindXLSX,
		"deck.pptx":  KindPPTX,
		"data.csv":   KindCSV,
		"notes.txt":  KindText,
	}
	for name, want := range cases {
		got, err := DetectKind(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := DetectKind("archive.xyz")
	var unsupported *UnsupportedFileTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "Unsupported file type: .xyz", err.Error())
}

func TestPipelineRejectsUnknownKind(t *testing.T) {
	p := NewPipeline(newUpper(), nil, PipelineOptions{})
	_, err := p.Translate(context.Background(), KindUnknown, []byte("x"), "French", "job")
	var unsupported *UnsupportedFileTypeError
	assert.ErrorAs(t, err, &unsupported)
}

func TestPipelinePlainText(t *testing.T) {
	tr := newUpper()
	p := NewPipeline(tr, nil, PipelineOptions{})
	out, err := p.Translate(context.Background(), KindText, []byte("hello\nworld"), "French", "job")
	require.NoError(t, err)
	assert.Equal(t, "HELLO\nWORLD", string(out))
	assert.Equal(t, 1, tr.chunkCalls)
}

func TestPipelineBlankTextFails(t *testing.T) {
	p := NewPipeline(newUpper(), nil, PipelineOptions{})
	_, err := p.Translate(context.Background(), KindText, []byte("   \n"), "French", "job")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtractPlainTextReplacesInvalidUTF8(t *testing.T) {
	text, err := ExtractPlainText([]byte{'a', 0xff, 'b'})
	require.NoError(t, err)
	assert.Equal(t, "a\uFFFDb", text)
}

func TestCSVRoundTrip(t *testing.T) {
	src := "name,comment\nalice,\"hi, there\"\nbob,yo\n"
	text, err := ExtractCSVText([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "name|||comment\n\nalice|||hi, there\n\nbob|||yo", text)

	out, err := BuildCSV(strings.ToUpper(text))
	require.NoError(t, err)
	assert.Equal(t, "NAME,COMMENT\nALICE,\"HI, THERE\"\nBOB,YO\n", string(out))
}

func TestCSVMultilineFieldKeepsRecords(t *testing.T) {
	src := "name,comment\r\nalice,\"line one\r\n\r\n  \r\nline two\"\r\nbob,yo\r\n"
	text, err := ExtractCSVText([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "name|||comment\n\nalice|||line one\nline two\n\nbob|||yo", text)

	out, err := BuildCSV(strings.ToUpper(text))
	require.NoError(t, err)
	assert.Equal(t, "NAME,COMMENT\nALICE,\"LINE ONE\nLINE TWO\"\nBOB,YO\n", string(out))
}

func TestBuildCSVMapsRowsOntoHeader(t *testing.T) {
	out, err := BuildCSV("a|||b|||c\n\n1|||2\n \n4|||5|||6|||7")
	require.NoError(t, err)
	assert.Equal(t, "a,b,c\n1,2,\n4,5,6\n", string(out))
}

func TestWrapText(t *testing.T) {
	measure := func(s string) float64 { return float64(len([]rune(s))) }

	lines := wrapText("aaa bbb ccc\n\nddd", 7, measure)
	assert.Equal(t, []string{"aaa bbb", "ccc", "", "ddd"}, lines)

	lines = wrapText("abcdefghij", 4, measure)
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, lines)

	for _, l := range wrapText(strings.Repeat("word ", 100), 23, measure) {
		assert.LessOrEqual(t, measure(l), 23.0)
	}
}

func TestBuildPDFProducesDocument(t *testing.T) {
	font, err := NewFontSet("").Load("English")
	require.NoError(t, err)

	out, err := BuildPDF(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 400), font)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	r, err := pdf.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	assert.Greater(t, r.NumPage(), 1)
}

func TestPDFRoundTrip(t *testing.T) {
	font, err := NewFontSet("").Load("English")
	require.NoError(t, err)

	out, err := BuildPDF("Hello rebuilt document\n\nSecond paragraph here", font)
	require.NoError(t, err)

	text, err := ExtractPDFText(out)
	require.NoError(t, err)
	assert.Contains(t, text, "Hello rebuilt document")
	assert.Contains(t, text, "Second paragraph here")
}

func TestExtractPDFTextRejectsGarbage(t *testing.T) {
	_, err := ExtractPDFText([]byte("not a pdf"))
	assert.Error(t, err)
}

func TestEmbeddedFontRendersVietnamese(t *testing.T) {
	font, err := NewFontSet(t.TempDir()).Load("Vietnamese")
	require.NoError(t, err)

	_, missing, err := buildPDF("Xin chào thế giới, người Việt Nam. Đường phố ở Hà Nội rất đẹp.", font)
	require.NoError(t, err)
	assert.Zero(t, missing)
}

func TestFontSetPrefersDirectoryFont(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "NotoSansJP-Regular.ttf"), []byte("jp-font"), 0o644))

	font, err := NewFontSet(dir).Load("Japanese")
	require.NoError(t, err)
	assert.Equal(t, []byte("jp-font"), font)

	font, err = NewFontSet(dir).Load("Korean")
	require.NoError(t, err)
	assert.Equal(t, fallbackFont, font)
}

func TestFontSetUnrenderable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "NotoSansJP-Regular.ttf"), []byte("jp-font"), 0o644))

	missing := NewFontSet(dir).Unrenderable()
	assert.NotContains(t, missing, "NotoSansJP-Regular.ttf")
	assert.Contains(t, missing, "NotoSansKR-Regular.ttf")
	assert.NotContains(t, missing, defaultFontFile)
	assert.NotContains(t, missing, "NotoSansHebrew-Regular.ttf")
}

func TestDOCXRoundTrip(t *testing.T) {
	out, err := BuildDOCX("First paragraph\n\nSecond paragraph")
	require.NoError(t, err)

	text, err := ExtractDOCXText(out)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\n\nSecond paragraph", text)
}

func TestTranslateXLSXDeduplicates(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellStr(sheet, "A1", "yes"))
	require.NoError(t, f.SetCellStr(sheet, "A2", "no"))
	require.NoError(t, f.SetCellStr(sheet, "A3", "yes"))
	require.NoError(t, f.SetCellStr(sheet, "B1", "yes"))
	require.NoError(t, f.SetCellStr(sheet, "B2", "   "))
	require.NoError(t, f.SetCellFormula(sheet, "C1", "LEN(A1)"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tr := newUpper()
	out, err := TranslateXLSX(context.Background(), buf.Bytes(), "German", tr, 10)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"yes": 1, "no": 1}, tr.textCalls)

	got, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer got.Close()
	for cell, want := range map[string]string{"A1": "YES", "A2": "NO", "A3": "YES", "B1": "YES"} {
		v, err := got.GetCellValue(sheet, cell)
		require.NoError(t, err)
		assert.Equal(t, want, v, cell)
	}
	formula, err := got.GetCellFormula(sheet, "C1")
	require.NoError(t, err)
	assert.Equal(t, "LEN(A1)", formula)
}

func TestTranslateXLSXLeavesNumericCells(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellStr(sheet, "A1", "total"))
	require.NoError(t, f.SetCellInt(sheet, "B1", 42))
	require.NoError(t, f.SetCellFloat(sheet, "C1", 3.5, -1, 64))
	require.NoError(t, f.SetCellBool(sheet, "D1", true))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tr := newUpper()
	out, err := TranslateXLSX(context.Background(), buf.Bytes(), "German", tr, 4)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"total": 1}, tr.textCalls)

	got, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer got.Close()

	v, _ := got.GetCellValue(sheet, "A1")
	assert.Equal(t, "TOTAL", v)
	for cell, want := range map[string]string{"B1": "42", "C1": "3.5"} {
		v, err := got.GetCellValue(sheet, cell)
		require.NoError(t, err)
		assert.Equal(t, want, v, cell)
		typ, err := got.GetCellType(sheet, cell)
		require.NoError(t, err)
		assert.NotEqual(t, excelize.CellTypeSharedString, typ, cell)
		assert.NotEqual(t, excelize.CellTypeInlineString, typ, cell)
	}
	typ, err := got.GetCellType(sheet, "D1")
	require.NoError(t, err)
	assert.Equal(t, excelize.CellTypeBool, typ)
}

func TestTranslateXLSXKeepsOriginalOnFailure(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellStr(sheet, "A1", "keep"))
	require.NoError(t, f.SetCellStr(sheet, "A2", "change"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tr := newUpper()
	tr.failOn = "keep"
	out, err := TranslateXLSX(context.Background(), buf.Bytes(), "German", tr, 2)
	require.NoError(t, err)

	got, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer got.Close()
	v, _ := got.GetCellValue(sheet, "A1")
	assert.Equal(t, "keep", v)
	v, _ = got.GetCellValue(sheet, "A2")
	assert.Equal(t, "CHANGE", v)
}

func TestTranslateXLSXWithoutTextReturnsInput(t *testing.T) {
	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tr := newUpper()
	out, err := TranslateXLSX(context.Background(), buf.Bytes(), "German", tr, 10)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), out)
	assert.Empty(t, tr.textCalls)
}

func slideDoc(runs ...string) string {
	var b strings.Builder
	b.WriteString(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody>`)
	for _, r := range runs {
		fmt.Fprintf(&b, `<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, r)
	}
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
	return b.String()
}

func buildDeck(t *testing.T, slides map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range slides {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractSlidesNumericOrder(t *testing.T) {
	deck := buildDeck(t, map[string]string{
		"ppt/slides/slide10.xml":            slideDoc("ten"),
		"ppt/slides/slide2.xml":             slideDoc("two", "&amp; more"),
		"ppt/slides/slide1.xml":             slideDoc("one"),
		"ppt/slides/_rels/slide1.xml.rels":  "<Relationships/>",
		"ppt/slideLayouts/slideLayout1.xml": slideDoc("layout"),
	})

	slides, err := ExtractSlides(deck)
	require.NoError(t, err)
	require.Len(t, slides, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{slides[0].Number, slides[1].Number, slides[2].Number})
	assert.Equal(t, "two & more", slides[1].Text)
}

func TestTranslatePPTXOneSlidePerPart(t *testing.T) {
	deck := buildDeck(t, map[string]string{
		"ppt/slides/slide1.xml": slideDoc("hello"),
		"ppt/slides/slide2.xml": slideDoc(),
		"ppt/slides/slide3.xml": slideDoc("bye"),
	})
	tr := newUpper()

	out, err := TranslatePPTX(context.Background(), deck, "Spanish", "job", tr, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.chunkCalls)

	slides, err := ExtractSlides(out)
	require.NoError(t, err)
	require.Len(t, slides, 3)
	assert.Equal(t, "Slide 1 HELLO", slides[0].Text)
	assert.Equal(t, "Slide 2", slides[1].Text)
	assert.Equal(t, "Slide 3 BYE", slides[2].Text)
}

func TestTranslatePPTXWithoutTextEmitsNotice(t *testing.T) {
	deck := buildDeck(t, map[string]string{"ppt/presentation.xml": "<p:presentation/>"})
	tr := newUpper()

	out, err := TranslatePPTX(context.Background(), deck, "Spanish", "job", tr, 5)
	require.NoError(t, err)
	assert.Zero(t, tr.chunkCalls)

	slides, err := ExtractSlides(out)
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Contains(t, slides[0].Text, emptyPresentationNotice)
}
