package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"evaluation-workers/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>أهداف البرنامج</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Module </w:t></w:r><w:r><w:t>one</w:t></w:r><w:r><w:tab/><w:t>Quiz</w:t></w:r></w:p>
    <w:p><w:r><w:t>line</w:t><w:br/><w:t>break</w:t></w:r></w:p>
    <w:sectPr><w:pgSz w:w="11906"/></w:sectPr>
  </w:body>
</w:document>`

// buildPDF numbers objects from 1 in order; object 1 must be the catalog.
func buildPDF(objects ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func pdfStream(dict, content string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(content), content)
}

const pdfFont = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"

// undecodablePDF has one page whose content stream uses a filter no reader supports.
func undecodablePDF() []byte {
	return buildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>",
		pdfStream("/Filter /BogusDecode", "garbage"),
	)
}

func zeroPagePDF() []byte {
	return buildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	)
}

// mixedPDF has a readable first page and an undecodable second page.
func mixedPDF() []byte {
	return buildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 5 0 R] /Count 2 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 7 0 R >> >> /Contents 4 0 R >>",
		pdfStream("", "BT /F1 12 Tf 72 720 Td (Readable page) Tj ET"),
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 6 0 R >>",
		pdfStream("/Filter /BogusDecode", "garbage"),
		pdfFont,
	)
}

func requireFailure(t *testing.T, err error) *Failure {
	t.Helper()
	var f *Failure
	require.True(t, errors.As(err, &f), "expected *Failure, got %T: %v", err, err)
	return f
}

// ==========================
// Viability
// ==========================

func TestCheckViable(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		minimum int
		wantErr bool
		wantLen int
	}{
		{"empty", "", MinViableLength, true, 0},
		{"whitespace only", "   \n\t  ", MinViableLength, true, 0},
		{"exactly minimum", strings.Repeat("a", 50), MinViableLength, false, 0},
		{"one short", strings.Repeat("a", 49), MinViableLength, true, 49},
		{"padding not counted", "  " + strings.Repeat("a", 49) + "  ", MinViableLength, true, 49},
		{"arabic counted in characters", strings.Repeat("هـ", 25), MinViableLength, false, 0},
		{"arabic one short", strings.Repeat("ه", 49), MinViableLength, true, 49},
		{"check disabled", "", 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckViable(tt.text, tt.minimum)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var unevaluable *UnevaluableError
			require.True(t, errors.As(err, &unevaluable))
			assert.Equal(t, tt.wantLen, unevaluable.Length)
			assert.Equal(t, tt.minimum, unevaluable.Minimum)
		})
	}
}

// ==========================
// Format extractors
// ==========================

func TestPlainText(t *testing.T) {
	ctx := context.Background()

	text, err := PlainText{}.Extract(ctx, Document{Name: "a.txt", Data: append([]byte{0xEF, 0xBB, 0xBF}, "هدف"...)})
	require.NoError(t, err)
	assert.Equal(t, "هدف", text)

	text, err = PlainText{}.Extract(ctx, Document{Name: "a.txt", Data: []byte{'o', 'k', 0xff}})
	require.NoError(t, err)
	assert.Equal(t, "ok�", text)

	_, err = PlainText{}.Extract(ctx, Document{Name: "a.txt"})
	f := requireFailure(t, err)
	assert.ErrorIs(t, f, ErrEmptyDocument)
}

func TestDocx(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   docxBody,
	})

	text, err := Docx{}.Extract(context.Background(), Document{Name: "plan.docx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "أهداف البرنامج\nModule one\tQuiz\nline\nbreak", text)
}

func TestDocx_Failures(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a zip", []byte("plain text pretending to be docx")},
		{"missing body", buildDocx(t, map[string]string{"word/styles.xml": "<styles/>"})},
		{"unparseable body", buildDocx(t, map[string]string{"word/document.xml": "<w:document><w:body"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Docx{}.Extract(context.Background(), Document{Name: "x.docx", Data: tt.data})
			f := requireFailure(t, err)
			assert.Equal(t, ".docx", f.Format)
			assert.Equal(t, "x.docx", f.Document)
		})
	}
}

func TestDocx_KeepsTextBeforeMalformedTail(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="urn:w"><w:body><w:p><w:r><w:t>kept text</w:t></w:r></w:p><w:p><w:r>`,
	})

	text, err := Docx{}.Extract(context.Background(), Document{Name: "x.docx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "kept text", text)
}

func TestPDF_Failures(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("this is not a pdf at all")},
		{"truncated header", []byte("%PDF-1.4\n1 0 obj\n<<")},
		{"undecodable content stream", undecodablePDF()},
		{"zero pages", zeroPagePDF()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := PDF{}.Extract(context.Background(), Document{Name: "x.pdf", Data: tt.data})
			requireFailure(t, err)
			assert.Empty(t, text, "error text must never be returned as document text")
		})
	}
}

func TestPDF_NoReadableContent(t *testing.T) {
	var pageErrors []int
	p := PDF{OnPageError: func(page int, err error) { pageErrors = append(pageErrors, page) }}

	_, err := p.Extract(context.Background(), Document{Name: "scan.pdf", Data: undecodablePDF()})
	f := requireFailure(t, err)
	assert.ErrorIs(t, f, ErrNoReadableContent)
	assert.Equal(t, []int{1}, pageErrors)

	_, err = p.Extract(context.Background(), Document{Name: "blank.pdf", Data: zeroPagePDF()})
	assert.ErrorIs(t, requireFailure(t, err), ErrNoReadableContent)
}

func TestPDF_SkipsUndecodablePage(t *testing.T) {
	var pageErrors []int
	p := PDF{OnPageError: func(page int, err error) { pageErrors = append(pageErrors, page) }}

	text, err := p.Extract(context.Background(), Document{Name: "mixed.pdf", Data: mixedPDF()})
	require.NoError(t, err)
	assert.Contains(t, text, "Readable page")
	assert.Equal(t, []int{2}, pageErrors)
}

// ==========================
// Registry
// ==========================

func TestRegistry(t *testing.T) {
	r := NewRegistry(PDF{})
	assert.Equal(t, []string{".docx", ".md", ".pdf", ".txt"}, r.Supported())

	text, err := r.Extract(context.Background(), Document{Name: "NOTES.TXT", Data: []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = r.Extract(context.Background(), Document{Name: "slides.pptx", Data: []byte("x")})
	f := requireFailure(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, ".pptx", f.Format)

	r.Register(".pptx", ExtractorFunc(func(context.Context, Document) (string, error) { return "slides", nil }))
	text, err = r.Extract(context.Background(), Document{Name: "slides.pptx", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "slides", text)
}

func TestDocument_Fingerprint(t *testing.T) {
	a := Document{Name: "a.txt", Data: []byte("same")}
	b := Document{Name: "b.txt", Data: []byte("same")}
	c := Document{Name: "a.txt", Data: []byte("different")}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
}

// ==========================
// Cache
// ==========================

type countingExtractor struct {
	calls int
	text  string
	err   error
}

func (c *countingExtractor) Extract(context.Context, Document) (string, error) {
	c.calls++
	return c.text, c.err
}

func newCache(t *testing.T, next Extractor) (*CachedExtractor, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCachedExtractor(next, rdb, time.Hour, logger.NewTestLogger(t)), mr
}

func TestCachedExtractor_HitAndMiss(t *testing.T) {
	next := &countingExtractor{text: "extracted text"}
	cache, mr := newCache(t, next)
	doc := Document{Name: "plan.pdf", Data: []byte("%PDF-fake")}

	for i := 0; i < 3; i++ {
		text, err := cache.Extract(context.Background(), doc)
		require.NoError(t, err)
		assert.Equal(t, "extracted text", text)
	}
	assert.Equal(t, 1, next.calls)

	key := cacheKey(doc)
	assert.True(t, mr.Exists(key))
	assert.Greater(t, mr.TTL(key), time.Duration(0))

	mr.FastForward(2 * time.Hour)
	_, err := cache.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedExtractor_FailuresAreNotCached(t *testing.T) {
	next := &countingExtractor{err: fail(Document{Name: "x.pdf"}, errors.New("broken"))}
	cache, mr := newCache(t, next)
	doc := Document{Name: "x.pdf", Data: []byte("broken")}

	_, err := cache.Extract(context.Background(), doc)
	requireFailure(t, err)
	assert.False(t, mr.Exists(cacheKey(doc)))
}

func TestCachedExtractor_UnreadablePDFIsNotCached(t *testing.T) {
	cache, mr := newCache(t, NewRegistry(PDF{}))

	for _, doc := range []Document{
		{Name: "scan.pdf", Data: undecodablePDF()},
		{Name: "blank.pdf", Data: zeroPagePDF()},
	} {
		_, err := cache.Extract(context.Background(), doc)
		assert.ErrorIs(t, requireFailure(t, err), ErrNoReadableContent)
		assert.False(t, mr.Exists(cacheKey(doc)), doc.Name)
	}
}

func TestCachedExtractor_RedisDownFallsThrough(t *testing.T) {
	next := &countingExtractor{text: "still works"}
	cache, mr := newCache(t, next)
	mr.Close()

	text, err := cache.Extract(context.Background(), Document{Name: "a.txt", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "still works", text)
	assert.Equal(t, 1, next.calls)
}
