package parser

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ledongthuc/pdf"
)

// PDFParser extracts the plain text of every page in page order. It does not
// attempt to recover table layout.
type PDFParser struct{}

func (p *PDFParser) SupportedFormats() []string { return []string{"pdf"} }

func (p *PDFParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	totalPages := reader.NumPage()
	pages := make([]Page, 0, totalPages)
	skipped := 0

	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			skipped++
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			skipped++
			continue
		}

		pages = append(pages, Page{Number: i, Text: text})
	}

	return &ParseResult{
		Pages:  pages,
		Method: "native",
		Metadata: map[string]string{
			"page_count":    strconv.Itoa(totalPages),
			"skipped_pages": strconv.Itoa(skipped),
		},
	}, nil
}
