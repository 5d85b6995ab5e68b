package handlers

import (
	"bytes"
	"encoding/csv"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/felo/som-extract/internal/config"
	"github.com/felo/som-extract/internal/parser"
	"github.com/felo/som-extract/internal/som"
	"github.com/felo/som-extract/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportFixture = "../parser/testdata/report.eml"

func fixedClock() time.Time {
	return time.Date(2024, time.May, 1, 9, 0, 0, 0, time.Local)
}

// setupTestHandlers creates a handlers instance with loaded templates
func setupTestHandlers(t *testing.T, loader *parser.Loader) *Handlers {
	t.Helper()

	pipeline := som.NewPipeline(loader).WithClock(fixedClock)
	h := New(pipeline, config.Default())

	err := h.LoadTemplates(web.Assets)
	require.NoError(t, err, "Failed to load templates for testing")

	return h
}

// uploadRequest builds a multipart POST to /extract
func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("report", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func readFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(reportFixture)
	require.NoError(t, err)
	return data
}

// Test that templates load without errors
func TestTemplatesLoadWithoutErrors(t *testing.T) {
	h := New(nil, config.Default())

	err := h.LoadTemplates(web.Assets)

	require.NoError(t, err, "Templates must load successfully")
	require.NotNil(t, h.templates, "Templates should be initialized")
}

// Test that all required templates exist
func TestAllRequiredTemplatesExist(t *testing.T) {
	h := setupTestHandlers(t, nil)

	for _, tmpl := range []string{"index.html", "result.html", "header", "footer"} {
		t.Run(tmpl, func(t *testing.T) {
			assert.NotNil(t, h.templates.Lookup(tmpl), "Template %s must exist", tmpl)
		})
	}
}

func TestIndexHandler(t *testing.T) {
	h := setupTestHandlers(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.Index(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `name="report"`)
	assert.Contains(t, body, `action="/extract"`)
	assert.Contains(t, body, "32 MiB")
}

func TestExtractDownloadsCSV(t *testing.T) {
	h := setupTestHandlers(t, nil)

	w := httptest.NewRecorder()
	h.Extract(w, uploadRequest(t, "report.eml", readFixture(t), nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=TM_filled.csv", w.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 11)
	assert.Equal(t, []string{"Type", "Object", "Description"}, records[0])
	assert.Equal(t, []string{"domain", "evil.example", "cert+2024-05-01"}, records[1])
	assert.Equal(t, []string{"email_sender", "phish@bad.example", "cert+2024-05-01"}, records[10])
}

func TestExtractDescription(t *testing.T) {
	h := setupTestHandlers(t, nil)

	w := httptest.NewRecorder()
	h.Extract(w, uploadRequest(t, "report.eml", readFixture(t), map[string]string{
		"description": "  campaign 7 ",
	}))

	require.Equal(t, http.StatusOK, w.Code)
	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	for _, rec := range records[1:] {
		assert.Equal(t, "campaign 7", rec[2])
	}
}

func TestExtractLegacyDescription(t *testing.T) {
	h := setupTestHandlers(t, nil)

	w := httptest.NewRecorder()
	h.Extract(w, uploadRequest(t, "report.eml", readFixture(t), map[string]string{
		"legacy": "1",
	}))

	require.Equal(t, http.StatusOK, w.Code)
	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "cert 2024-05-01", records[1][2])
}

func TestExtractSeparatorFollowsForm(t *testing.T) {
	tests := []struct {
		name   string
		server string
		legacy string
		want   string
	}{
		{"default server, no field", som.DefaultSeparator, "", "cert+2024-05-01"},
		{"legacy server, no field", som.LegacySeparator, "", "cert 2024-05-01"},
		{"legacy server, default chosen", som.LegacySeparator, "0", "cert+2024-05-01"},
		{"default server, legacy chosen", som.DefaultSeparator, "1", "cert 2024-05-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupTestHandlers(t, nil)
			h.cfg.DescriptionSeparator = tt.server

			fields := map[string]string{}
			if tt.legacy != "" {
				fields["legacy"] = tt.legacy
			}

			w := httptest.NewRecorder()
			h.Extract(w, uploadRequest(t, "report.eml", readFixture(t), fields))

			require.Equal(t, http.StatusOK, w.Code)
			records, err := csv.NewReader(w.Body).ReadAll()
			require.NoError(t, err)
			assert.Equal(t, tt.want, records[1][2])
		})
	}
}

func TestIndexHandlerLegacyChecked(t *testing.T) {
	h := setupTestHandlers(t, nil)
	h.cfg.UseLegacyDescription()

	w := httptest.NewRecorder()
	h.Index(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="1" checked`)
	assert.NotContains(t, w.Body.String(), `value="0" checked`)
}

func TestExtractPreview(t *testing.T) {
	h := setupTestHandlers(t, nil)

	w := httptest.NewRecorder()
	h.Extract(w, uploadRequest(t, "report.eml", readFixture(t), map[string]string{
		"action": "preview",
	}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "report.eml")
	assert.Contains(t, body, "10 entries")
	assert.Contains(t, body, "https://bad.example/login")
	assert.Contains(t, body, "Report body")
}

func TestExtractPreviewEmpty(t *testing.T) {
	h := setupTestHandlers(t, nil)

	data, err := os.ReadFile("../parser/testdata/plain.eml")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.Extract(w, uploadRequest(t, "plain.eml", data, map[string]string{"action": "preview"}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No suspicious objects found in this report.")
}

func TestExtractUnsupportedFormat(t *testing.T) {
	h := setupTestHandlers(t, nil)

	w := httptest.NewRecorder()
	h.Extract(w, uploadRequest(t, "report.txt", []byte("hello"), nil))

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestExtractMissingDependency(t *testing.T) {
	loader := parser.NewLoader()
	loader.Container = nil
	h := setupTestHandlers(t, loader)

	w := httptest.NewRecorder()
	h.Extract(w, uploadRequest(t, "report.msg", []byte("not a compound file"), nil))

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestExtractMissingFile(t *testing.T) {
	h := setupTestHandlers(t, nil)

	w := httptest.NewRecorder()
	h.Extract(w, uploadRequest(t, "", nil, map[string]string{"description": "x"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractTooLarge(t *testing.T) {
	h := setupTestHandlers(t, nil)
	h.cfg.MaxUploadBytes = 64

	w := httptest.NewRecorder()
	h.Extract(w, uploadRequest(t, "report.eml", readFixture(t), nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func shutdownRequest(origin, referer string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/shutdown", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	return req
}

func TestShutdown(t *testing.T) {
	h := setupTestHandlers(t, nil)
	own := h.cfg.URL()

	w := httptest.NewRecorder()
	h.Shutdown(w, shutdownRequest(own, ""))
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	ch := make(chan os.Signal, 1)
	h.SetShutdownChannel(ch)

	w = httptest.NewRecorder()
	h.Shutdown(w, shutdownRequest(own, ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, os.Interrupt, <-ch)

	// A full channel does not block
	ch <- os.Interrupt
	w = httptest.NewRecorder()
	h.Shutdown(w, shutdownRequest("", own+"/extract"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestShutdownRejectsOtherOrigins(t *testing.T) {
	h := setupTestHandlers(t, nil)
	ch := make(chan os.Signal, 1)
	h.SetShutdownChannel(ch)

	tests := []struct {
		name    string
		origin  string
		referer string
	}{
		{"no origin", "", ""},
		{"cross-site origin", "https://evil.example", ""},
		{"cross-site referer", "", "https://evil.example/page"},
		{"other port", "http://localhost:9999", ""},
		{"null origin", "null", h.cfg.URL() + "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Shutdown(w, shutdownRequest(tt.origin, tt.referer))

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Empty(t, ch, "No shutdown signal may be sent")
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.eml":            "report.eml",
		"../../etc/passwd":      "passwd",
		`C:\Users\me\phish.msg`: "phish.msg",
		"a\"b'c\x00.eml":        "abc.eml",
		"":                      "upload.bin",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), "input %q", in)
	}
}
