package handlers

import (
	"log"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/felo/som-extract/internal/som"
)

// Index handles the upload form
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"PageTitle":   "SOM Extract",
		"MaxUpload":   humanize.IBytes(uint64(h.cfg.MaxUploadBytes)),
		"Description": h.cfg.Description,
		"Legacy":      h.cfg.DescriptionSeparator == som.LegacySeparator,
	}

	h.render(w, "index.html", data)
}

func (h *Handlers) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}
