package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts page text in page order. A page that fails to decode becomes
// an empty segment; a PDF with no decodable page is a *Failure.
type PDF struct {
	OnPageError func(page int, err error)
}

func (p PDF) Extract(ctx context.Context, doc Document) (string, error) {
	if len(doc.Data) == 0 {
		return "", fail(doc, ErrEmptyDocument)
	}

	r, err := openPDF(doc.Data)
	if err != nil {
		return "", fail(doc, err)
	}

	pages := r.NumPage()
	if pages <= 0 {
		return "", fail(doc, ErrNoReadableContent)
	}

	decoded := 0
	segments := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := pageText(r, i)
		if err != nil {
			if p.OnPageError != nil {
				p.OnPageError(i, err)
			}
			text = ""
		} else {
			decoded++
		}
		segments = append(segments, text)
	}

	if decoded == 0 {
		return "", fail(doc, ErrNoReadableContent)
	}
	return strings.Join(segments, "\n"), nil
}

func openPDF(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return r, nil
}

// pageText recovers from decoder panics on damaged content streams.
func pageText(r *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d: %v", num, rec)
		}
	}()

	page := r.Page(num)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: not found in page tree", num)
	}
	return page.GetPlainText(nil)
}
