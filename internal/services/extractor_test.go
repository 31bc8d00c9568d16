package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainTextUnchanged(t *testing.T) {
	e := NewTextExtractor(NewPDFParserService(), 0)
	input := "Experienced backend engineer with five years of Go and PostgreSQL."

	text, err := e.Extract([]byte(input), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, input, text)

	text, err = e.Extract([]byte(input), "Text/Plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, input, text)
}

func TestExtractRejectsEmptyContent(t *testing.T) {
	e := NewTextExtractor(NewPDFParserService(), 0)

	for _, input := range []string{"", "   ", "\n\t \r\n"} {
		_, err := e.Extract([]byte(input), MediaTypeText)
		assert.ErrorIs(t, err, ErrEmptyContent, "input %q", input)
	}

	// A parser that returns only whitespace is rejected the same way.
	stub := newTextExtractor(0, map[string]parseFunc{
		MediaTypeDOCX: func([]byte) (string, error) { return " \n\n ", nil },
	})
	_, err := stub.Extract([]byte("PK"), MediaTypeDOCX)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestExtractOversizeSkipsParser(t *testing.T) {
	called := false
	e := newTextExtractor(16, map[string]parseFunc{
		MediaTypePDF: func([]byte) (string, error) {
			called = true
			return "text", nil
		},
	})

	_, err := e.Extract(bytes.Repeat([]byte("x"), 17), MediaTypePDF)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.False(t, called)

	text, err := e.Extract(bytes.Repeat([]byte("x"), 16), MediaTypePDF)
	require.NoError(t, err)
	assert.Equal(t, "text", text)
	assert.True(t, called)
}

func TestExtractDefaultCeilingIsTenMiB(t *testing.T) {
	e := NewTextExtractor(NewPDFParserService(), 0)

	_, err := e.Extract(make([]byte, MaxDocumentSize+1), MediaTypeText)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestExtractCeilingIgnoresLargerUploadLimit(t *testing.T) {
	e := NewTextExtractor(NewPDFParserService(), 50<<20)

	_, err := e.Extract(make([]byte, MaxDocumentSize+1), MediaTypeText)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestExtractUnsupportedFormatNamesType(t *testing.T) {
	e := NewTextExtractor(NewPDFParserService(), 0)

	for _, mediaType := range []string{"image/png", "application/msword", ""} {
		_, err := e.Extract([]byte("data"), mediaType)
		require.ErrorIs(t, err, ErrUnsupportedFormat)
		assert.Contains(t, err.Error(), fmt.Sprintf("%q", mediaType))
	}
}

func TestExtractWrapsParserFailure(t *testing.T) {
	cause := errors.New("bad xref table")
	e := newTextExtractor(0, map[string]parseFunc{
		MediaTypePDF: func([]byte) (string, error) { return "", cause },
	})

	_, err := e.Extract([]byte("%PDF"), MediaTypePDF)
	assert.ErrorIs(t, err, ErrUnreadableDocument)
	assert.ErrorIs(t, err, cause)
}

func TestExtractGarbagePDF(t *testing.T) {
	e := NewTextExtractor(NewPDFParserService(), 0)

	_, err := e.Extract([]byte("this is not a pdf"), MediaTypePDF)
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

func TestDecodePlainTextBOM(t *testing.T) {
	utf16 := []byte{0xFF, 0xFE, 'H', 0x00, 'i', 0x00}
	text, err := decodePlainText(utf16)
	require.NoError(t, err)
	assert.Equal(t, "Hi", text)

	utf8BOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("résumé")...)
	text, err = decodePlainText(utf8BOM)
	require.NoError(t, err)
	assert.Equal(t, "résumé", text)

	text, err = decodePlainText([]byte{'o', 'k', 0xFF})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "ok"))
	assert.NotContains(t, text, "\xff")
}

const wordDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Skills:</w:t><w:tab/><w:t>Go</w:t></w:r><w:r><w:br/><w:t>SQL &amp; Docker</w:t></w:r></w:p>
</w:body>
</w:document>`

func TestWordMLText(t *testing.T) {
	text, err := wordMLText(wordDocument)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSkills:\tGo\nSQL & Docker\n", text)

	_, err = wordMLText("<w:document><w:body>")
	assert.Error(t, err)
}

func buildDocx(t *testing.T, document string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml": document,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDocx(t *testing.T) {
	e := NewTextExtractor(NewPDFParserService(), 0)

	text, err := e.Extract(buildDocx(t, wordDocument), MediaTypeDOCX)
	require.NoError(t, err)
	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "Skills:\tGo")

	empty := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p/></w:body></w:document>`
	_, err = e.Extract(buildDocx(t, empty), MediaTypeDOCX)
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = e.Extract([]byte("PK not a zip"), MediaTypeDOCX)
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

// buildPDF writes a one-page PDF whose page content stream is content.
func buildPDF(content string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return b.Bytes()
}

func TestExtractPDF(t *testing.T) {
	e := NewTextExtractor(NewPDFParserService(), 0)

	text, err := e.Extract(buildPDF("BT /F1 12 Tf 72 720 Td (Hello PDF) Tj ET"), MediaTypePDF)
	require.NoError(t, err)
	assert.Contains(t, text, "Hello PDF")

	// An image-only scan has a page but no text layer.
	_, err = e.Extract(buildPDF("q Q"), MediaTypePDF)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestCleanText(t *testing.T) {
	in := "  Title  \n\n\n  first line \nsecond line\n \n\nlast  "
	assert.Equal(t, "Title\n\nfirst line\nsecond line\n\nlast", CleanText(in))
}
