// Command medextract extracts clinical fields from a single document and
// prints them as JSON, or writes them to an XLSX workbook.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/brunobiangulo/medextract"
	"github.com/brunobiangulo/medextract/export"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "medextract: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("medextract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file (JSON or YAML)")
	catalogPath := fs.String("catalog", "", "Path to a field catalogue (overrides config)")
	xlsxPath := fs.String("xlsx", "", "Write an XLSX workbook here instead of printing JSON")
	timeout := fs.Duration("timeout", 2*time.Minute, "Maximum time to decode the document")
	verbose := fs.Bool("v", false, "Debug logging")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: medextract [flags] <document.pdf|.xlsx|.txt>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one document, got %d", fs.NArg())
	}
	docPath := fs.Arg(0)

	_ = godotenv.Load()

	cfg := medextract.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = medextract.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	cfg.ApplyEnv()
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level}))

	ex, err := medextract.New(cfg, medextract.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	res, err := ex.ExtractFile(ctx, docPath)
	if err != nil {
		return err
	}

	if *xlsxPath != "" {
		f, err := os.Create(*xlsxPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", *xlsxPath, err)
		}
		if err := export.WriteXLSX(f, res, filepath.Base(docPath)); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("workbook written", "path", *xlsxPath, "keys", res.Len(), "found", res.Found())
		return nil
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
