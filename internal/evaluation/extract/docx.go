package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// maxDocxBodySize bounds the decompressed body part.
const maxDocxBodySize = 64 << 20

// Docx reads the main body of an OOXML word-processing document. Paragraphs
// are separated by newlines; tabs and breaks are kept.
type Docx struct{}

func (Docx) Extract(ctx context.Context, doc Document) (string, error) {
	if len(doc.Data) == 0 {
		return "", fail(doc, ErrEmptyDocument)
	}

	zr, err := zip.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", fail(doc, fmt.Errorf("open package: %w", err))
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return "", fail(doc, fmt.Errorf("missing %s", docxBodyPart))
	}

	rc, err := body.Open()
	if err != nil {
		return "", fail(doc, fmt.Errorf("open %s: %w", docxBodyPart, err))
	}
	defer rc.Close()

	text, err := docxText(ctx, io.LimitReader(rc, maxDocxBodySize))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		if text == "" {
			return "", fail(doc, err)
		}
		// Truncated or malformed tail: keep what was read.
	}
	return text, nil
}

func docxText(ctx context.Context, r io.Reader) (string, error) {
	var (
		b      strings.Builder
		inText bool
	)

	dec := xml.NewDecoder(r)
	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return b.String(), err
			}
		}

		tok, err := dec.Token()
		if err == io.EOF {
			return strings.TrimRight(b.String(), "\n"), nil
		}
		if err != nil {
			return strings.TrimRight(b.String(), "\n"), fmt.Errorf("parse %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
}
