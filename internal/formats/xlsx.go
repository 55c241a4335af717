package formats

import (
	"bytes"
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/transdoc/api/internal/fanout"
)

// cellText is a non-blank string cell and its current text.
type cellText struct {
	Sheet string
	Cell  string
	Text  string
	Runs  []excelize.RichTextRun
}

func collectCells(f *excelize.File) ([]cellText, error) {
	var cells []cellText
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read sheet %q", sheet)
		}
		for r, row := range rows {
			for c, value := range row {
				if strings.TrimSpace(value) == "" {
					continue
				}
				name, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, errors.Wrap(err, "invalid cell coordinates")
				}
				if formula, _ := f.GetCellFormula(sheet, name); formula != "" {
					continue
				}
				if !isTextCell(f, sheet, name) {
					continue
				}
				cell := cellText{Sheet: sheet, Cell: name, Text: value}
				if runs, err := f.GetCellRichText(sheet, name); err == nil && len(runs) > 1 {
					var sb strings.Builder
					for _, run := range runs {
						sb.WriteString(run.Text)
					}
					cell.Text = sb.String()
					cell.Runs = runs
				}
				if strings.TrimSpace(cell.Text) == "" {
					continue
				}
				cells = append(cells, cell)
			}
		}
	}
	return cells, nil
}

// isTextCell reports whether the cell stores a string. A cell without a type
// attribute holds a number, so it stays untouched along with booleans, dates
// and errors.
func isTextCell(f *excelize.File, sheet, cell string) bool {
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return false
	}
	return typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString
}

// distinctTexts returns each cell text once, in first-seen order.
func distinctTexts(cells []cellText) []string {
	seen := make(map[string]struct{}, len(cells))
	var out []string
	for _, c := range cells {
		if _, ok := seen[c.Text]; ok {
			continue
		}
		seen[c.Text] = struct{}{}
		out = append(out, c.Text)
	}
	return out
}

// TranslateXLSX translates every distinct cell text once and writes the
// translation back into each cell holding it. A workbook without text is
// returned unchanged.
func TranslateXLSX(ctx context.Context, data []byte, targetLang string, tr TextTranslator, limit int) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open xlsx")
	}
	defer f.Close()

	cells, err := collectCells(f)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return data, nil
	}

	texts := distinctTexts(cells)
	translations, err := fanout.Map(ctx, texts, limit, func(ctx context.Context, _ int, text string) (string, error) {
		out, err := tr.TranslateText(ctx, text, targetLang)
		if err != nil || strings.TrimSpace(out) == "" {
			logrus.WithError(err).Warn("cell translation failed, keeping original")
			return text, nil
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mapping := make(map[string]string, len(texts))
	for i, text := range texts {
		mapping[text] = translations[i]
	}

	for _, c := range cells {
		translated := mapping[c.Text]
		if translated == c.Text {
			continue
		}
		if len(c.Runs) > 0 {
			run := excelize.RichTextRun{Font: c.Runs[0].Font, Text: translated}
			if err := f.SetCellRichText(c.Sheet, c.Cell, []excelize.RichTextRun{run}); err != nil {
				return nil, errors.Wrapf(err, "failed to write %s!%s", c.Sheet, c.Cell)
			}
			continue
		}
		if err := f.SetCellStr(c.Sheet, c.Cell, translated); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s!%s", c.Sheet, c.Cell)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to write xlsx")
	}
	return buf.Bytes(), nil
}
