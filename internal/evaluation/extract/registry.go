package extract

import (
	"context"
	"fmt"
	"sort"
)

// Registry dispatches on file extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns a registry with the built-in extractors for .pdf,
// .docx, .txt and .md.
func NewRegistry(pdf PDF) *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	r.Register(".pdf", pdf)
	r.Register(".docx", Docx{})
	r.Register(".txt", PlainText{})
	r.Register(".md", PlainText{})
	return r
}

// Register adds or replaces the extractor for ext (".pdf").
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[ext] = e
}

// Supported lists registered extensions in sorted order.
func (r *Registry) Supported() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Extract(ctx context.Context, doc Document) (string, error) {
	e, ok := r.byExt[doc.Ext()]
	if !ok {
		return "", fail(doc, fmt.Errorf("%w %q, supported: %v", ErrUnsupportedFormat, doc.Ext(), r.Supported()))
	}
	return e.Extract(ctx, doc)
}
