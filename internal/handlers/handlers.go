package handlers

import (
	"embed"
	"html/template"
	"os"

	"github.com/felo/som-extract/internal/config"
	"github.com/felo/som-extract/internal/som"
	"github.com/microcosm-cc/bluemonday"
)

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	pipeline  *som.Pipeline
	cfg       *config.Config
	templates *template.Template
	policy    *bluemonday.Policy
	shutdown  chan<- os.Signal
}

// New creates a new Handlers instance
func New(pipeline *som.Pipeline, cfg *config.Config) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		cfg:      cfg,
		policy:   bluemonday.UGCPolicy(),
	}
}

// SetShutdownChannel sets the channel signalled by the shutdown handler
func (h *Handlers) SetShutdownChannel(ch chan<- os.Signal) {
	h.shutdown = ch
}

// LoadTemplates loads HTML templates from embedded filesystem
func (h *Handlers) LoadTemplates(embeddedFiles embed.FS) error {
	// Report bodies come from untrusted senders
	funcs := template.FuncMap{
		"sanitizeHTML": func(s string) template.HTML {
			return template.HTML(h.policy.Sanitize(s))
		},
	}

	tmpl, err := template.New("").Funcs(funcs).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return err
	}
	h.templates = tmpl
	return nil
}
