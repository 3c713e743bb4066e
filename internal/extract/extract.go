package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxParsedText bounds the text kept from an uploaded resume.
const MaxParsedText = 20000

var (
	tabRuns     = regexp.MustCompile(`\t+`)
	blankBlocks = regexp.MustCompile(`\n{3,}`)
)

// ExtractPDF returns the plain text of a PDF document.
// Library used: github.com/ledongthuc/pdf.
func ExtractPDF(ctx context.Context, data []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("empty pdf data")
	}
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("parse pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Clean normalizes extracted text: LF line endings, tabs as single spaces,
// no NUL bytes, at most one blank line in a row, trimmed and cut to max
// characters.
func Clean(text string, max int) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = tabRuns.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\x00", "")
	text = blankBlocks.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	if max > 0 {
		if r := []rune(text); len(r) > max {
			text = string(r[:max])
		}
	}
	return text
}

// PDFText extracts and cleans the text of a PDF. Extraction failures yield an
// empty string and the error for logging.
func PDFText(ctx context.Context, data []byte) (string, error) {
	raw, err := ExtractPDF(ctx, data)
	if err != nil {
		return "", err
	}
	return Clean(raw, MaxParsedText), nil
}
