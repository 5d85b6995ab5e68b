package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	ExtEML = ".eml"
	ExtMSG = ".msg"
)

// DecodeFunc decodes the file at path into a Message
type DecodeFunc func(path string) (Message, error)

// containerDecoder is set by msg_decoder.go unless built with the nomsg tag
var containerDecoder DecodeFunc

// Loader opens report files and dispatches on their extension
type Loader struct {
	// Internet decodes .eml files
	Internet DecodeFunc

	// Container decodes .msg files. A nil Container makes every .msg load
	// fail with ErrMissingDependency.
	Container DecodeFunc
}

// NewLoader creates a loader with every decoder compiled into the binary
func NewLoader() *Loader {
	return &Loader{
		Internet:  func(path string) (Message, error) { return ParseEMLFile(path) },
		Container: containerDecoder,
	}
}

// ContainerSupported reports whether .msg files can be decoded
func (l *Loader) ContainerSupported() bool {
	return l.Container != nil
}

// Load parses the file at path according to its extension
func (l *Loader) Load(path string) (Message, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ExtEML:
		return l.Internet(path)
	case ExtMSG:
		if l.Container == nil {
			return nil, fmt.Errorf("%w: cannot parse %s", ErrMissingDependency, filepath.Base(path))
		}
		return l.Container(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// SupportedExtension reports whether path has an extension Load understands
func SupportedExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtEML, ExtMSG:
		return true
	}
	return false
}
