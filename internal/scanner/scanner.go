package scanner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felo/som-extract/internal/parser"
)

// Scanner finds report files (.eml, .msg) under a directory
type Scanner struct {
	rootPath string
}

// NewScanner creates a new scanner for the given root path
func NewScanner(rootPath string) *Scanner {
	return &Scanner{
		rootPath: rootPath,
	}
}

// GetRootPath returns the directory being scanned
func (s *Scanner) GetRootPath() string {
	return s.rootPath
}

// Scan recursively collects report files in lexical order. Returned paths
// are joined onto the root path.
func (s *Scanner) Scan() ([]string, error) {
	var reports []string

	err := filepath.Walk(s.rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		// Skip directories
		if info.IsDir() {
			return nil
		}

		if parser.SupportedExtension(path) {
			reports = append(reports, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	return reports, nil
}

// ScanWithCallback scans for reports and calls the callback for each file found
func (s *Scanner) ScanWithCallback(callback func(path string, index, total int) error) error {
	files, err := s.Scan()
	if err != nil {
		return err
	}

	total := len(files)

	for i, file := range files {
		if err := callback(file, i+1, total); err != nil {
			return fmt.Errorf("callback error for file %s: %w", file, err)
		}
	}

	return nil
}
