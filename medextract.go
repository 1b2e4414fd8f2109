// Package medextract pulls clinical field values (demographics, vitals, blood
// panel, urinalysis and diabetes risk features) out of document text.
//
// Text goes through normalize.Normalize exactly once and is then matched
// against an immutable field catalogue by extract.Engine. Files are decoded to
// text by the parser registry first.
package medextract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brunobiangulo/medextract/catalog"
	"github.com/brunobiangulo/medextract/extract"
	"github.com/brunobiangulo/medextract/normalize"
	"github.com/brunobiangulo/medextract/parser"
)

// Extractor is the main entry point.
type Extractor interface {
	// ExtractText normalizes raw document text and extracts every catalogue
	// field from it. It never fails; missing fields are reported as absent.
	ExtractText(text string) *extract.Result

	// ExtractFile decodes a document with the parser for its extension and
	// extracts from the decoded text.
	ExtractFile(ctx context.Context, path string) (*extract.Result, error)

	// Catalog returns the field catalogue in use.
	Catalog() *catalog.Catalog
}

// Option configures an Extractor.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	catalog *catalog.Catalog
	parsers map[string]parser.Parser
}

// WithLogger sets the logger used by the extractor and catalogue loader.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCatalog uses cat instead of loading one from Config.CatalogPath.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(o *options) { o.catalog = cat }
}

// WithParser registers an additional document parser for format.
func WithParser(format string, p parser.Parser) Option {
	return func(o *options) {
		if o.parsers == nil {
			o.parsers = make(map[string]parser.Parser)
		}
		o.parsers[format] = p
	}
}

// extractor is the concrete implementation of Extractor.
type extractor struct {
	logger  *slog.Logger
	engine  *extract.Engine
	parsers *parser.Registry
}

// New creates an Extractor. The catalogue is loaded once here and shared
// read-only by every call.
func New(cfg Config, opts ...Option) (Extractor, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	cat := o.catalog
	if cat == nil {
		var err error
		if cfg.CatalogPath != "" {
			cat, err = catalog.LoadFile(cfg.CatalogPath, o.logger)
		} else {
			cat, err = catalog.Default(o.logger)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
		}
	}

	reg := parser.NewRegistry()
	for f, p := range o.parsers {
		reg.Register(f, p)
	}

	o.logger.Info("extractor ready",
		"fields", cat.Len(),
		"output_keys", len(cat.Keys()),
		"catalog", catalogSource(cfg.CatalogPath, o.catalog != nil),
	)

	return &extractor{
		logger:  o.logger,
		engine:  extract.New(cat),
		parsers: reg,
	}, nil
}

func (e *extractor) Catalog() *catalog.Catalog { return e.engine.Catalog() }

func (e *extractor) ExtractText(text string) *extract.Result {
	return e.engine.Extract(normalize.Normalize(text))
}

func (e *extractor) ExtractFile(ctx context.Context, path string) (*extract.Result, error) {
	start := time.Now()

	p, err := e.parsers.ForPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, parser.FormatOf(path))
	}

	parsed, err := p.Parse(ctx, path)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrParsingFailed, err)
	}

	res := e.ExtractText(parsed.Text())

	e.logger.Debug("document extracted",
		"path", path,
		"pages", len(parsed.Pages),
		"found", res.Found(),
		"fields", e.engine.Catalog().Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func catalogSource(path string, injected bool) string {
	switch {
	case injected:
		return "injected"
	case path != "":
		return path
	default:
		return "builtin"
	}
}
