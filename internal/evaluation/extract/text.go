package extract

import (
	"bytes"
	"context"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PlainText reads .txt and .md files as UTF-8. Invalid byte sequences are
// replaced rather than rejected.
type PlainText struct{}

func (PlainText) Extract(_ context.Context, doc Document) (string, error) {
	if len(doc.Data) == 0 {
		return "", fail(doc, ErrEmptyDocument)
	}
	data := bytes.TrimPrefix(doc.Data, utf8BOM)
	return strings.ToValidUTF8(string(data), "�"), nil
}
