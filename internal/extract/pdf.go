package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/statement2sheet/s2s/internal/common"
)

// extractPDF pulls text from a PDF, trying row-based extraction first and
// falling back to plain-text extraction for PDFs with unusual layouts. The
// library can panic on malformed files, so the whole thing runs behind a
// recover.
func extractPDF(path string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = common.NewUserError("The PDF could not be read. It may be corrupt or scanned.",
				fmt.Errorf("pdf extraction panicked: %v", r))
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, common.NewUserError("The PDF could not be opened", err)
	}
	defer func() { _ = f.Close() }()

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, common.NewUserError("The PDF has no pages", fmt.Errorf("empty pdf: %s", path))
	}

	text := extractByRow(reader, numPages)
	if !readable(text) {
		text = extractPlainText(reader)
	}
	if !readable(text) {
		return nil, common.NewUserError(
			"No text could be extracted. Scanned statements need server-side OCR; upload the file instead.",
			fmt.Errorf("no extractable text: %s", path))
	}

	return &Result{Text: text, PageCount: numPages}, nil
}

// extractByRow preserves line structure, which the detector's period and
// account heuristics depend on.
func extractByRow(reader *pdf.Reader, numPages int) string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(pages, "\n\n")
}

func extractPlainText(reader *pdf.Reader) string {
	r, err := reader.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readable filters out extractions that produced only whitespace or a
// handful of stray glyphs.
func readable(text string) bool {
	letters := 0
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127 {
			letters++
		}
		if letters >= 20 {
			return true
		}
	}
	return false
}
