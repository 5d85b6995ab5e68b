package handlers

import (
	"net/http"
	"net/url"
	"os"
)

// Shutdown asks the server to stop
func (h *Handlers) Shutdown(w http.ResponseWriter, r *http.Request) {
	if h.shutdown == nil {
		http.Error(w, "Shutdown not available", http.StatusNotImplemented)
		return
	}

	if !h.fromOwnPage(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Shutting down\n"))

	select {
	case h.shutdown <- os.Interrupt:
	default:
	}
}

// fromOwnPage reports whether the request was sent by a page served from
// the configured address, judged by Origin or else Referer
func (h *Handlers) fromOwnPage(r *http.Request) bool {
	source := r.Header.Get("Origin")
	if source == "" {
		source = r.Referer()
	}
	if source == "" {
		return false
	}

	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Scheme == "http" && u.Host == h.cfg.Address()
}
