package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/felo/som-extract/internal/parser"
	"github.com/felo/som-extract/internal/som"
)

// sanitizeFilename removes dangerous characters from uploaded filenames
func sanitizeFilename(filename string) string {
	// Remove path separators, including Windows ones sent by some browsers
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))

	// Remove any control characters and quotes
	cleaned := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 || r == '"' || r == '\'' {
			return -1 // Remove character
		}
		return r
	}, filename)

	// Limit length
	if len(cleaned) > 255 {
		cleaned = cleaned[:255]
	}

	// Fallback if empty
	if cleaned == "" || cleaned == "." || cleaned == "/" {
		cleaned = "upload.bin"
	}

	return cleaned
}

// Extract runs an uploaded report through the pipeline and returns either
// the import CSV or an HTML preview (action=preview)
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("Invalid upload (limit %s)", humanize.IBytes(uint64(h.cfg.MaxUploadBytes))),
			http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("report")
	if err != nil {
		http.Error(w, "Missing report file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)

	// The loader dispatches on the extension, so the temp file keeps it
	tmp, err := os.CreateTemp("", "som-upload-*"+filepath.Ext(filename))
	if err != nil {
		log.Printf("Error creating temp file: %v", err)
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		log.Printf("Error storing upload %s: %v", filename, err)
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	if err := tmp.Close(); err != nil {
		log.Printf("Error closing upload %s: %v", filename, err)
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}

	description := strings.TrimSpace(r.FormValue("description"))
	if description == "" {
		description = h.cfg.Description
	}
	if description == "" {
		description = som.Description("", h.separator(r), h.pipeline.Today())
	}

	report, err := h.pipeline.Extract(tmp.Name(), description)
	if err != nil {
		log.Printf("Error extracting %s: %v", filename, err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	rows := report.Rows
	log.Printf("Extracted %d entries from %s (%s)", len(rows), filename, humanize.Bytes(uint64(header.Size)))

	if r.FormValue("action") == "preview" {
		h.render(w, "result.html", map[string]interface{}{
			"PageTitle": filename + " - SOM Extract",
			"Filename":  filename,
			"Rows":      rows,
			"Body":      report.HTMLBody,
		})
		return
	}

	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{
			"filename": filepath.Base(h.cfg.OutputPath),
		}))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if err := som.WriteCSV(w, rows); err != nil {
		log.Printf("Error writing CSV: %v", err)
	}
}

// separator picks the default description separator. The form sends
// legacy=0 or legacy=1; without the field the server setting applies.
func (h *Handlers) separator(r *http.Request) string {
	switch r.FormValue("legacy") {
	case "":
		return h.cfg.DescriptionSeparator
	case "0":
		return som.DefaultSeparator
	default:
		return som.LegacySeparator
	}
}

// statusFor maps a load failure to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, parser.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, parser.ErrMissingDependency):
		return http.StatusNotImplemented
	default:
		return http.StatusUnprocessableEntity
	}
}
