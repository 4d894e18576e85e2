package pdfextract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// ExtractText extracts plain text from raw PDF bytes, page by page. A PDF
// with no extractable text yields an empty string and no error.
//
// The parser panics on some malformed inputs instead of returning an error,
// so the panic is converted here.
func ExtractText(raw []byte) (_ string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	if len(raw) == 0 {
		return "", fmt.Errorf("pdf content is empty")
	}
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text failed: %w", err)
	}
	return string(out), nil
}
