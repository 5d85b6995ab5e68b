package parser

// Message is a decoded mail report. Both .eml and .msg adapters satisfy it.
type Message interface {
	// Parts returns every MIME part (.eml) or declared attachment (.msg)
	// in document order.
	Parts() []Part

	// HTMLBody returns the HTML-rendered body, or "" when there is none.
	HTMLBody() string
}

// Part represents a single MIME part or container attachment
type Part struct {
	Filename    string
	ContentType string
	// Attachment is true when the part is disposed as an attachment
	Attachment bool
	Data       []byte
}

// EMLMessage is a parsed internet message (.eml)
type EMLMessage struct {
	Subject  string
	Sender   string
	BodyText string
	BodyHTML string
	parts    []Part
}

// Parts implements Message
func (m *EMLMessage) Parts() []Part { return m.parts }

// HTMLBody implements Message
func (m *EMLMessage) HTMLBody() string { return m.BodyHTML }

// MSGMessage is a parsed Outlook container message (.msg)
type MSGMessage struct {
	Subject     string
	Sender      string
	BodyText    string
	BodyHTML    string
	Attachments []Part
}

// Parts implements Message
func (m *MSGMessage) Parts() []Part { return m.Attachments }

// HTMLBody implements Message
func (m *MSGMessage) HTMLBody() string { return m.BodyHTML }
