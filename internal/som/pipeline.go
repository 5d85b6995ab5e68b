package som

import (
	"time"

	"github.com/felo/som-extract/internal/extract"
	"github.com/felo/som-extract/internal/parser"
)

// Pipeline extracts import rows from report files
type Pipeline struct {
	loader    *parser.Loader
	clock     func() time.Time
	separator string
}

// NewPipeline creates a pipeline using loader. A nil loader uses
// parser.NewLoader.
func NewPipeline(loader *parser.Loader) *Pipeline {
	if loader == nil {
		loader = parser.NewLoader()
	}
	return &Pipeline{
		loader:    loader,
		clock:     time.Now,
		separator: DefaultSeparator,
	}
}

// WithClock sets the time source for the default description
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// WithSeparator sets the separator of the default description
func (p *Pipeline) WithSeparator(sep string) *Pipeline {
	p.separator = sep
	return p
}

// Report is the outcome of extracting one report file
type Report struct {
	// HTMLBody is the body the URLs were taken from
	HTMLBody string
	Rows     []Row
}

// Run loads the report at path and returns its import rows. An empty
// description is replaced by the dated default. Load failures are returned
// unchanged.
func (p *Pipeline) Run(path, description string) ([]Row, error) {
	report, err := p.Extract(path, description)
	if err != nil {
		return nil, err
	}
	return report.Rows, nil
}

// Extract is Run keeping the HTML body alongside the rows
func (p *Pipeline) Extract(path, description string) (*Report, error) {
	msg, err := p.loader.Load(path)
	if err != nil {
		return nil, err
	}

	table := extract.ExtractTable(msg)
	urls := extract.ExtractURLs(msg)
	desc := Description(description, p.separator, p.clock())

	return &Report{
		HTMLBody: msg.HTMLBody(),
		Rows:     Format(table, urls, desc),
	}, nil
}

// Today returns the current time from the pipeline clock
func (p *Pipeline) Today() time.Time {
	return p.clock()
}
