package extract

import (
	"encoding/csv"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/felo/som-extract/internal/parser"
)

// TableExt is the extension of the attachment holding the IOC table
const TableExt = ".csv"

// Record is one row of the IOC table keyed by column name. Columns missing
// from a short row are absent from the map.
type Record map[string]string

// Table is the IOC table in attachment order
type Table []Record

// Column returns the non-empty values of the named column in row order.
// An unknown column yields nil.
func (t Table) Column(name string) []string {
	var values []string
	for _, rec := range t {
		if v, ok := rec[name]; ok && v != "" {
			values = append(values, v)
		}
	}
	return values
}

// ExtractTable parses the first CSV attachment of msg. A message without one
// yields an empty table.
func ExtractTable(msg parser.Message) Table {
	part, ok := FindTablePart(msg)
	if !ok {
		return Table{}
	}
	return ParseTable(parser.DecodeUTF8(part.Data))
}

// FindTablePart returns the first attachment whose filename ends in .csv
func FindTablePart(msg parser.Message) (parser.Part, bool) {
	for _, part := range msg.Parts() {
		if part.Attachment && strings.HasSuffix(strings.ToLower(part.Filename), TableExt) {
			return part, true
		}
	}
	return parser.Part{}, false
}

// ParseTable reads delimited text whose first line holds the column names.
// Rows read before a syntax error are kept.
func ParseTable(text string) Table {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	table := Table{}

	header, err := r.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Printf("Error reading CSV header: %v", err)
		}
		return table
	}

	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Printf("Error reading CSV row: %v", err)
			break
		}

		rec := make(Record, len(header))
		for i, name := range header {
			if i < len(fields) {
				rec[name] = fields[i]
			}
		}
		table = append(table, rec)
	}

	return table
}
