package parser

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// ParseEMLFile parses an .eml file and returns an EMLMessage
func ParseEMLFile(filePath string) (*EMLMessage, error) {
	// Open the file
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// Parse the email
	return ParseEML(f)
}

// ParseEML parses an email from a reader. Unknown charsets and transfer
// encodings are tolerated: the affected part keeps its raw bytes.
func ParseEML(r io.Reader) (*EMLMessage, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("failed to read email: %w", err)
	}

	mr, err := mail.CreateReader(bytes.NewReader(buf.Bytes()))
	if err != nil && (mr == nil || !lenient(err)) {
		return nil, fmt.Errorf("failed to create mail reader: %w", err)
	}

	parsed := &EMLMessage{}
	header := mr.Header

	if subject, err := header.Subject(); err == nil {
		parsed.Subject = subject
	} else {
		parsed.Subject = header.Get("Subject")
	}

	if fromAddrs, err := header.AddressList("From"); err == nil && len(fromAddrs) > 0 {
		parsed.Sender = fromAddrs[0].Address
	}

	// Walk body parts and attachments
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && (part == nil || !lenient(err)) {
			// Keep whatever was read before the broken part
			log.Printf("Stopped reading parts: %v", err)
			break
		}

		data, err := io.ReadAll(part.Body)
		if err != nil {
			log.Printf("Error reading part body: %v", err)
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, params, _ := h.ContentType()
			_, dispParams, _ := h.ContentDisposition()
			filename := dispParams["filename"]
			if filename == "" {
				filename = params["name"]
			}

			if strings.HasPrefix(contentType, "text/plain") && parsed.BodyText == "" {
				parsed.BodyText = string(data)
			} else if strings.HasPrefix(contentType, "text/html") && parsed.BodyHTML == "" {
				// First HTML part is the rendered body
				parsed.BodyHTML = string(data)
			}

			parsed.parts = append(parsed.parts, Part{
				Filename:    filename,
				ContentType: contentType,
				Data:        data,
			})

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, params, _ := h.ContentType()
			if filename == "" {
				filename = params["name"]
			}

			// go-message also lands undisposed non-text parts here; only an
			// explicit attachment disposition counts
			disp, _, _ := h.ContentDisposition()

			parsed.parts = append(parsed.parts, Part{
				Filename:    filename,
				ContentType: contentType,
				Attachment:  strings.EqualFold(disp, "attachment"),
				Data:        data,
			})
		}
	}

	return parsed, nil
}

// lenient reports whether err only concerns content decoding
func lenient(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}
