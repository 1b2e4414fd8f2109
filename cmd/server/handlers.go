package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brunobiangulo/medextract"
	"github.com/brunobiangulo/medextract/catalog"
	"github.com/brunobiangulo/medextract/extract"
	"github.com/brunobiangulo/medextract/parser"
)

const banner = "Patient Data Extraction API - Send a POST request to /extract with a PDF file"

type handler struct {
	extractor medextract.Extractor
	cfg       medextract.Config
	logger    *slog.Logger
}

func newHandler(ex medextract.Extractor, cfg medextract.Config, logger *slog.Logger) *handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &handler{extractor: ex, cfg: cfg, logger: logger}
}

type extractResponse struct {
	Status string          `json:"status"`
	Data   *extract.Result `json:"data"`
}

// GET /
func (h *handler) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, banner)
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type fieldInfo struct {
	Name          string        `json:"name"`
	Labels        []string      `json:"labels,omitempty"`
	Abbreviations []string      `json:"abbreviations,omitempty"`
	Shape         catalog.Shape `json:"shape,omitempty"`
	Aliases       []string      `json:"aliases,omitempty"`
}

// GET /fields
func (h *handler) handleFields(w http.ResponseWriter, r *http.Request) {
	cat := h.extractor.Catalog()

	aliases := make(map[string][]string)
	for _, a := range cat.Aliases() {
		aliases[a.Field] = append(aliases[a.Field], a.Keys...)
	}

	fields := make([]fieldInfo, 0, cat.Len())
	for _, f := range cat.Fields() {
		spec := f.Spec()
		fields = append(fields, fieldInfo{
			Name:          spec.Name,
			Labels:        spec.Labels,
			Abbreviations: spec.Abbreviations,
			Shape:         spec.Shape,
			Aliases:       aliases[spec.Name],
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(fields),
		"fields": fields,
	})
}

// POST /extract
// Accepts a multipart upload in the "file" field.
func (h *handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A part sent with an empty filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			writeError(w, http.StatusBadRequest, "No selected file")
			return
		}
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	// Sanitise filename to prevent path traversal.
	safeName := filepath.Base(header.Filename)
	if safeName == "" || safeName == "." || safeName == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	format := parser.FormatOf(safeName)
	if !h.cfg.Allows(format) {
		writeError(w, http.StatusBadRequest, allowedMessage(h.cfg.AllowedExtensions))
		return
	}

	dst, err := os.CreateTemp(h.cfg.UploadDir, "medextract-*."+format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error processing file")
		h.logger.Error("creating temp file", "error", err)
		return
	}
	tmpPath := dst.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, "Error processing file")
		h.logger.Error("saving uploaded file", "error", err)
		return
	}
	if err := dst.Close(); err != nil {
		writeError(w, http.StatusInternalServerError, "Error processing file")
		h.logger.Error("closing uploaded file", "error", err)
		return
	}

	res, err := h.extractor.ExtractFile(ctx, tmpPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error processing file")
		h.logger.Error("extract error", "filename", safeName, "error", err)
		return
	}

	h.logger.Info("document extracted",
		"filename", safeName,
		"found", res.Found(),
		"keys", res.Len(),
	)
	writeJSON(w, http.StatusOK, extractResponse{Status: "success", Data: res})
}

// POST /extract/text
// Accepts {"text": "..."} with already decoded document text.
func (h *handler) handleExtractText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	var req struct {
		Text *string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == nil {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	res := h.extractor.ExtractText(*req.Text)
	writeJSON(w, http.StatusOK, extractResponse{Status: "success", Data: res})
}

func allowedMessage(exts []string) string {
	upper := make([]string, len(exts))
	for i, e := range exts {
		upper[i] = strings.ToUpper(e)
	}
	if len(upper) == 1 {
		return fmt.Sprintf("Allowed file type is %s only", upper[0])
	}
	return fmt.Sprintf("Allowed file types are %s only", strings.Join(upper, ", "))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
