// Package extract turns uploaded documents into plain text for scoring.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MinViableLength is the fewest characters of trimmed text worth scoring.
const MinViableLength = 50

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyDocument     = errors.New("document is empty")
	ErrNoReadableContent = errors.New("no readable content")
)

// Document is an uploaded file held in memory.
type Document struct {
	Name string
	Data []byte
}

// Ext returns the lowercase file extension including the dot.
func (d Document) Ext() string {
	return strings.ToLower(filepath.Ext(d.Name))
}

// Fingerprint identifies the document content independent of its name.
func (d Document) Fingerprint() string {
	sum := sha256.Sum256(d.Data)
	return hex.EncodeToString(sum[:])
}

// Extractor returns the document text in reading order. Sections that cannot
// be read contribute empty text; a *Failure is returned only when nothing in
// the document can be read.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, doc Document) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, doc Document) (string, error) {
	return f(ctx, doc)
}

// Failure means the document as a whole could not be read.
type Failure struct {
	Document string
	Format   string
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", f.Document, f.Format, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(doc Document, err error) *Failure {
	return &Failure{Document: doc.Name, Format: doc.Ext(), Err: err}
}

// UnevaluableError reports extracted text that is too short to score.
type UnevaluableError struct {
	Length  int
	Minimum int
}

func (e *UnevaluableError) Error() string {
	return fmt.Sprintf("document text too short to evaluate: %d characters, need at least %d", e.Length, e.Minimum)
}

// CheckViable measures text in characters after trimming surrounding
// whitespace. A non-positive minimum disables the check.
func CheckViable(text string, minimum int) error {
	if minimum <= 0 {
		return nil
	}
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < minimum {
		return &UnevaluableError{Length: n, Minimum: minimum}
	}
	return nil
}
