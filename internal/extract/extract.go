// Package extract pulls plain text out of statement files so the bank
// detector can run before anything is uploaded.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/statement2sheet/s2s/internal/common"
)

// Result holds the extracted text of a statement file.
type Result struct {
	Text      string
	PageCount int
}

// Extract reads a statement file and returns its text content. PDF files go
// through the PDF text extractor; plain text and CSV files are read as-is.
func Extract(path string) (*Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".csv":
		data, err := os.ReadFile(path) // #nosec G304 -- user-supplied statement path
		if err != nil {
			return nil, common.NewUserError("Could not read the statement file", err)
		}
		return &Result{Text: string(data), PageCount: 1}, nil
	default:
		return nil, common.NewUserError(
			fmt.Sprintf("Unsupported file type %q. Use a PDF, TXT, or CSV statement.", filepath.Ext(path)),
			fmt.Errorf("unsupported extension: %s", path))
	}
}
