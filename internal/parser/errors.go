package parser

import "errors"

var (
	// ErrUnsupportedFormat is returned when the file extension is neither .eml nor .msg
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrMissingDependency is returned for .msg files when the binary was
	// built without container support
	ErrMissingDependency = errors.New("msg container support not available")
)
