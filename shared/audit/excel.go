package audit

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

var errNoSheet = errors.New("no active sheet")

// Workbook builds an xlsx document sheet by sheet, row by row.
type Workbook struct {
	file   *excelize.File
	sheet  string
	row    int
	bold   int
	names  map[string]bool
	widths map[string][]int
}

// NewWorkbook creates an empty workbook.
func NewWorkbook() *Workbook {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		bold = 0
	}
	return &Workbook{file: f, bold: bold, names: make(map[string]bool), widths: make(map[string][]int)}
}

// SheetName sanitises name into a valid, unique sheet name.
func (w *Workbook) SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Sheet"
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	base := name
	for i := 2; w.names[name]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		runes := []rune(base)
		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}
		name = string(runes) + suffix
	}
	return name
}

// AddSheet starts a new sheet and makes it current.
func (w *Workbook) AddSheet(name string) error {
	name = w.SheetName(name)
	if w.sheet == "" {
		// The first sheet replaces the default one.
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	w.names[name] = true
	w.sheet = name
	w.row = 1
	return nil
}

// WriteHeader writes a bold header row to the current sheet.
func (w *Workbook) WriteHeader(columns ...string) error {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	start := w.row
	if err := w.WriteRow(row...); err != nil {
		return err
	}
	if w.bold != 0 && len(columns) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, start)
		last, _ := excelize.CoordinatesToCellName(len(columns), start)
		_ = w.file.SetCellStyle(w.sheet, first, last, w.bold)
	}
	return nil
}

// WriteRow writes values to the next row of the current sheet.
func (w *Workbook) WriteRow(values ...any) error {
	if w.sheet == "" {
		return errNoSheet
	}
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", w.row, err)
	}
	w.track(values)
	w.row++
	return nil
}

func (w *Workbook) track(values []any) {
	widths := w.widths[w.sheet]
	for i, v := range values {
		n := len([]rune(fmt.Sprint(v)))
		if i >= len(widths) {
			widths = append(widths, n)
		} else if n > widths[i] {
			widths[i] = n
		}
	}
	w.widths[w.sheet] = widths
}

// Bytes fits column widths and returns the encoded workbook.
func (w *Workbook) Bytes() ([]byte, error) {
	for sheet, widths := range w.widths {
		for i, n := range widths {
			col, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				continue
			}
			_ = w.file.SetColWidth(sheet, col, col, float64(min(max(n+2, 8), 60)))
		}
	}
	var buf bytes.Buffer
	if err := w.file.Write(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}
