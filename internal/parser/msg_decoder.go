//go:build !nomsg

package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richardlehane/mscfb"
)

func init() {
	containerDecoder = func(path string) (Message, error) { return ParseMSGFile(path) }
}

// ParseMSGFile parses an Outlook .msg file and returns an MSGMessage
func ParseMSGFile(filePath string) (*MSGMessage, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ParseMSG(f)
}

// ParseMSG reads the property streams of a compound file and converts the
// message bodies before returning
func ParseMSG(r io.ReaderAt) (*MSGMessage, error) {
	doc, err := mscfb.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read msg container: %w", err)
	}

	var streams []msgStream
	for {
		entry, err := doc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read msg entry: %w", err)
		}

		if entry.Name != propertiesName && !strings.HasPrefix(entry.Name, substgPrefix) {
			continue
		}

		data, err := readStream(entry, entry.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to read stream %s: %w", entry.Name, err)
		}

		streams = append(streams, msgStream{
			path: storagePath(entry.Path),
			name: entry.Name,
			data: data,
		})
	}

	return buildMSG(streams), nil
}

// readStream reads at most size bytes of r. The size comes from the
// directory entry, so memory grows with the data actually present.
func readStream(r io.Reader, size int64) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(r, size))
}

func storagePath(path []string) []string {
	out := make([]string, 0, len(path))
	for _, p := range path {
		if p != "" && p != "Root Entry" {
			out = append(out, p)
		}
	}
	return out
}
