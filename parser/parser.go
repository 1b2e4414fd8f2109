// Package parser turns documents into plain text for field extraction.
package parser

import (
	"context"
	"strings"
)

// ParseResult is what a parser produces from a document file.
type ParseResult struct {
	Pages    []Page // Page-ordered text
	Method   string // "native"
	Metadata map[string]string
}

// Page is the text of one page, or one sheet for spreadsheets.
type Page struct {
	Number int
	Name   string
	Text   string
}

// Text concatenates all pages in order, one newline between pages.
func (r *ParseResult) Text() string {
	if r == nil || len(r.Pages) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

// Parser can parse a specific document format.
type Parser interface {
	Parse(ctx context.Context, path string) (*ParseResult, error)
	SupportedFormats() []string
}
