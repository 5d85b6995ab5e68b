// Package som turns the IOCs of a report mail into rows for bulk import
// into a suspicious object management console.
package som

import (
	"time"

	"github.com/felo/som-extract/internal/extract"
)

// Object types understood by the import template
const (
	TypeDomain      = "domain"
	TypeURL         = "url"
	TypeIP          = "ip"
	TypeSHA1        = "sha1"
	TypeSHA256      = "sha256"
	TypeEmailSender = "email_sender"
)

// TemplateTypes is the row order of the import template. The two ip slots
// were meant for IPv4 and IPv6; the report table has a single IP column,
// so the second slot never adds rows.
var TemplateTypes = []string{
	TypeDomain,
	TypeURL,
	TypeIP, // IPv4
	TypeIP, // IPv6
	TypeSHA1,
	TypeSHA256,
	TypeEmailSender,
}

// Report table column feeding each type. URLs come from the HTML body.
var typeColumns = map[string]string{
	TypeDomain:      "domain",
	TypeIP:          "IP",
	TypeSHA1:        "sha1",
	TypeSHA256:      "sha256",
	TypeEmailSender: "email_sender",
}

const (
	// DefaultDescriptionPrefix starts the generated description
	DefaultDescriptionPrefix = "cert"

	// DefaultSeparator joins the prefix and the date
	DefaultSeparator = "+"

	// LegacySeparator is the space-separated form produced by older exports
	LegacySeparator = " "
)

// Row is one suspicious object entry
type Row struct {
	Type        string
	Object      string
	Description string
}

// Description returns desc, or "cert<sep><today>" when desc is empty
func Description(desc, sep string, today time.Time) string {
	if desc != "" {
		return desc
	}
	return DefaultDescriptionPrefix + sep + today.Format(time.DateOnly)
}

// Format builds the import rows from the report table and the body URLs.
// Rows are grouped by type in TemplateTypes order; within a type they keep
// table (or document) order.
func Format(table extract.Table, urls []string, description string) []Row {
	values := map[string][]string{
		TypeURL: extract.Clean(urls),
	}
	for typ, column := range typeColumns {
		values[typ] = extract.Clean(table.Column(column))
	}

	rows := []Row{}
	emitted := make(map[string]bool, len(TemplateTypes))
	for _, typ := range TemplateTypes {
		if emitted[typ] {
			continue
		}
		emitted[typ] = true

		for _, v := range values[typ] {
			rows = append(rows, Row{
				Type:        typ,
				Object:      v,
				Description: description,
			})
		}
	}

	return rows
}
