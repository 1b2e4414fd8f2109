// Package export renders extraction results as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/medextract/extract"
)

// SheetName is the worksheet the result is written to.
const SheetName = "Extraction"

// XLSX returns a workbook with one row per output key, in result order.
// Absent values are written as extract.NotMentioned; the third column marks
// whether the value was found in the document.
func XLSX(res *extract.Result, source string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	sw := &sheetWriter{f: f, sheet: SheetName}
	row := 1
	write := func(col int, v any) { sw.set(col, row, v) }

	if source != "" {
		write(1, "Source")
		write(2, source)
		row += 2
	}

	for i, h := range []string{"Field", "Value", "Found"} {
		write(i+1, h)
	}
	row++

	for _, k := range res.Keys() {
		v, _ := res.Get(k)
		write(1, k)
		write(2, v.String())
		write(3, foundLabel(v.Found))
		row++
	}

	if sw.err != nil {
		return nil, sw.err
	}

	for _, cw := range []struct {
		col   string
		width float64
	}{{"A", 30}, {"B", 18}, {"C", 8}} {
		if err := f.SetColWidth(SheetName, cw.col, cw.col, cw.width); err != nil {
			return nil, fmt.Errorf("xlsx column %s: %w", cw.col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteXLSX writes the workbook produced by XLSX to w.
func WriteXLSX(w io.Writer, res *extract.Result, source string) error {
	data, err := XLSX(res, source)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// sheetWriter keeps the first failed cell write and ignores later ones.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, v any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err == nil {
		err = w.f.SetCellValue(w.sheet, cell, v)
	}
	if err != nil {
		w.err = fmt.Errorf("xlsx cell (%d,%d): %w", col, row, err)
	}
}

func foundLabel(found bool) string {
	if found {
		return "yes"
	}
	return "no"
}
