package web

import "embed"

// Assets holds the HTML templates served by the upload form
//
//go:embed templates
var Assets embed.FS
