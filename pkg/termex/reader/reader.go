// Package reader turns documents into the single text blob extraction
// runs on. The format is chosen by file extension.
package reader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/termex/pkg/termex/internalerr"
)

// ParseFunc extracts text from a document's bytes.
type ParseFunc func(data []byte) (string, error)

var parsers = map[string]ParseFunc{
	".txt":   parseText,
	".md":    parseMarkdown,
	".html":  parseHTML,
	".htm":   parseHTML,
	".xliff": parseXLIFF,
	".xlf":   parseXLIFF,
	".docx":  parseDOCX,
	".pdf":   parsePDF,
}

// Extensions returns the supported file extensions, sorted.
func Extensions() []string {
	out := make([]string, 0, len(parsers))
	for ext := range parsers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Supported reports whether path has a readable extension.
func Supported(path string) bool {
	_, ok := parsers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Read loads the file at path and extracts its text.
func Read(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := parsers[ext]; !ok {
		return "", fmt.Errorf("%w: %q", internalerr.ErrUnsupportedFormat, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text, err := Parse(ext, data)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return text, nil
}

// Parse extracts text from data in the format named by ext (".txt", ".docx", ...).
func Parse(ext string, data []byte) (string, error) {
	parse, ok := parsers[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("%w: %q", internalerr.ErrUnsupportedFormat, ext)
	}
	return parse(data)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func parseText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", internalerr.ErrInvalidInput)
	}
	return string(data), nil
}

// joinBlocks joins the non-blank blocks with blank lines.
func joinBlocks(blocks []string) string {
	kept := blocks[:0]
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, "\n\n")
}
