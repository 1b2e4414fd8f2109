package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXParser reads spreadsheet lab reports. Each row becomes one line with
// the first cell used as the label: "Albumin (AL) | 3.5" -> "Albumin (AL): 3.5".
type XLSXParser struct{}

func (p *XLSXParser) SupportedFormats() []string { return []string{"xlsx"} }

func (p *XLSXParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var pages []Page

	for i, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		var content strings.Builder
		for _, row := range rows {
			line := rowLine(row)
			if line == "" {
				continue
			}
			content.WriteString(line)
			content.WriteString("\n")
		}
		if content.Len() == 0 {
			continue
		}

		pages = append(pages, Page{
			Number: i + 1,
			Name:   sheet,
			Text:   content.String(),
		})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no data found in XLSX")
	}

	return &ParseResult{
		Pages:  pages,
		Method: "native",
	}, nil
}

func rowLine(row []string) string {
	cells := make([]string, 0, len(row))
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	switch len(cells) {
	case 0:
		return ""
	case 1:
		return cells[0]
	}
	label := strings.TrimSuffix(cells[0], ":")
	return label + ": " + strings.Join(cells[1:], " ")
}
