package extraction

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const (
	// MaxPDFPages limits the number of pages to process
	MaxPDFPages = 20

	// MaxPDFTextSize limits the extracted text size handed to the model
	MaxPDFTextSize = 64 * 1024
)

// ExtractPDFText pulls the embedded text out of a PDF prescription so it can
// go through the same extraction prompt as photographed prescriptions.
func ExtractPDFText(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	totalPages := pdfReader.NumPage()
	if totalPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}
	if totalPages > MaxPDFPages {
		return "", fmt.Errorf("PDF has too many pages (%d), max allowed is %d", totalPages, MaxPDFPages)
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages with extraction errors rather than failing the scan
			continue
		}

		cleaned := strings.TrimSpace(collapseWhitespace(text))
		if cleaned != "" {
			builder.WriteString(cleaned)
			builder.WriteString("\n")
		}

		if builder.Len() > MaxPDFTextSize {
			break
		}
	}

	extracted := builder.String()
	if len(extracted) > MaxPDFTextSize {
		extracted = extracted[:MaxPDFTextSize]
	}
	if strings.TrimSpace(extracted) == "" {
		return "", fmt.Errorf("PDF contains no extractable text")
	}

	return extracted, nil
}

// collapseWhitespace folds runs of spaces into one while keeping newlines.
func collapseWhitespace(text string) string {
	var result strings.Builder
	lastWasSpace := false

	for _, r := range text {
		if unicode.IsSpace(r) && r != '\n' {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		result.WriteRune(r)
		lastWasSpace = false
	}

	return result.String()
}
