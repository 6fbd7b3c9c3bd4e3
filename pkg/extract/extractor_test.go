package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduintel/grader/config"
	"github.com/eduintel/grader/pkg/models"
)

type stubRasterizer struct {
	pages []models.PageImage
	err   error
	calls atomic.Int32
}

func (s *stubRasterizer) Rasterize(_ context.Context, _ models.Document) ([]models.PageImage, error) {
	s.calls.Add(1)
	return s.pages, s.err
}

// stubRecognizer echoes the page image as text; later pages finish first.
type stubRecognizer struct {
	fail  string
	calls atomic.Int32
}

func (s *stubRecognizer) Recognize(_ context.Context, image []byte) (string, error) {
	s.calls.Add(1)
	if string(image) == s.fail {
		return "", errors.New("recognition failed")
	}
	if strings.HasSuffix(string(image), "1") {
		time.Sleep(20 * time.Millisecond)
	}
	return "text of " + string(image), nil
}

func staticText(text string, err error) StructuredExtractor {
	return func(models.Document) (string, error) { return text, err }
}

func threePages() []models.PageImage {
	return []models.PageImage{
		{Number: 1, Image: []byte("page 1")},
		{Number: 2, Image: []byte("page 2")},
		{Number: 3, Image: []byte("page 3")},
	}
}

func TestExtractPrefersTextLayer(t *testing.T) {
	text := "1. Photosynthesis converts light to chemical energy in plants and algae.\n"
	rasterizer := &stubRasterizer{pages: threePages()}
	recognizer := &stubRecognizer{}
	e := NewExtractor(
		WithStructuredExtractor(staticText(text, nil)),
		WithOCR(rasterizer, recognizer),
	)

	got := e.Extract(context.Background(), models.NewDocument("key.pdf", []byte("pdf")))

	assert.Equal(t, text, got)
	assert.Zero(t, rasterizer.calls.Load())
	assert.Zero(t, recognizer.calls.Load())
}

func TestExtractFallsBackToOCR(t *testing.T) {
	tests := []struct {
		name       string
		structured StructuredExtractor
	}{
		{"text layer too short", staticText("  Name: ____  \n", nil)},
		{"exactly the threshold", staticText(strings.Repeat("x", DefaultMinTextLength), nil)},
		{"parse failure", staticText("", errors.New("malformed xref"))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rasterizer := &stubRasterizer{pages: threePages()}
			recognizer := &stubRecognizer{}
			e := NewExtractor(
				WithStructuredExtractor(tc.structured),
				WithOCR(rasterizer, recognizer),
				WithConcurrency(3),
			)

			got := e.Extract(context.Background(), models.NewDocument("scan.pdf", []byte("pdf")))

			assert.Equal(t, "text of page 1\ntext of page 2\ntext of page 3\n", got)
			assert.Equal(t, int32(1), rasterizer.calls.Load())
			assert.Equal(t, int32(3), recognizer.calls.Load())
		})
	}
}

func TestExtractDegradesGracefully(t *testing.T) {
	t.Run("page recognition failure", func(t *testing.T) {
		e := NewExtractor(
			WithStructuredExtractor(staticText("", nil)),
			WithOCR(&stubRasterizer{pages: threePages()}, &stubRecognizer{fail: "page 2"}),
		)

		got := e.Extract(context.Background(), models.NewDocument("scan.pdf", []byte("pdf")))
		assert.Equal(t, "text of page 1\n\ntext of page 3\n", got)
	})

	t.Run("rasterizer failure", func(t *testing.T) {
		e := NewExtractor(
			WithStructuredExtractor(staticText("short", nil)),
			WithOCR(&stubRasterizer{err: errors.New("pdftoppm missing")}, &stubRecognizer{}),
		)

		assert.Equal(t, "", e.Extract(context.Background(), models.NewDocument("scan.pdf", nil)))
	})

	t.Run("ocr disabled", func(t *testing.T) {
		e := NewExtractor(WithStructuredExtractor(staticText("short", nil)))

		assert.Equal(t, "", e.Extract(context.Background(), models.NewDocument("scan.pdf", nil)))
	})

	t.Run("short fallback output is still returned", func(t *testing.T) {
		e := NewExtractor(
			WithStructuredExtractor(staticText("", nil)),
			WithOCR(&stubRasterizer{pages: []models.PageImage{{Number: 1, Image: []byte("x")}}}, &stubRecognizer{}),
		)

		assert.Equal(t, "text of x\n", e.Extract(context.Background(), models.NewDocument("scan.pdf", nil)))
	})
}

func TestNewExtractorFromConfig(t *testing.T) {
	cfg := &config.Config{Extractor: config.ExtractorConfig{
		MinTextLength: 10,
		OCR: config.OCRConfig{
			Enabled:     true,
			Language:    "deu",
			DPI:         300,
			Concurrency: 2,
		},
	}}

	e := NewExtractorFromConfig(cfg)

	assert.Equal(t, 10, e.minTextLength)
	assert.Equal(t, 2, e.concurrency)
	require.IsType(t, &PopplerRasterizer{}, e.rasterizer)
	assert.Equal(t, 300, e.rasterizer.(*PopplerRasterizer).DPI)
	assert.Equal(t, DefaultPdftoppmCmd, e.rasterizer.(*PopplerRasterizer).Cmd)
	require.IsType(t, &TesseractRecognizer{}, e.recognizer)
	assert.Equal(t, "deu", e.recognizer.(*TesseractRecognizer).Language)
	assert.Equal(t, DefaultTesseractCmd, e.recognizer.(*TesseractRecognizer).Cmd)

	cfg.Extractor.OCR.Enabled = false
	assert.Nil(t, NewExtractorFromConfig(cfg).rasterizer)
}

// buildPDF writes a minimal single-font PDF with one text line per page.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	pageCount := len(pages)
	kids := make([]string, pageCount)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+i*2)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		obj(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			5+i*2,
		))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

func TestExtractPDFText(t *testing.T) {
	data := buildPDF("1. Plants make food from sunlight", "2. Water boils at one hundred degrees")

	text, err := ExtractPDFText(models.NewDocument("key.pdf", data))
	require.NoError(t, err)

	first := strings.Index(text, "Plants make food from sunlight")
	second := strings.Index(text, "Water boils at one hundred degrees")
	assert.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)
	assert.True(t, strings.HasSuffix(text, "\n"))
}

func TestExtractPDFTextFailures(t *testing.T) {
	_, err := ExtractPDFText(models.NewDocument("empty.pdf", nil))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = ExtractPDFText(models.NewDocument("garbage.pdf", []byte("%PDF-1.4\nHello\nWorld\n%%EOF")))
	assert.Error(t, err)
}

func TestExtractWithRealPDF(t *testing.T) {
	data := buildPDF("1. Photosynthesis converts light to chemical energy in green plants")
	recognizer := &stubRecognizer{}
	e := NewExtractor(WithOCR(&stubRasterizer{}, recognizer))

	got := e.Extract(context.Background(), models.NewDocument("key.pdf", data))

	assert.Contains(t, got, "Photosynthesis converts light to chemical energy")
	assert.Zero(t, recognizer.calls.Load())
}

func TestCollectPages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page-10.png", "page-02.png", "page-1.png", "input.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o600))
	}

	pages, err := collectPages(dir)
	require.NoError(t, err)

	require.Len(t, pages, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{pages[0].Number, pages[1].Number, pages[2].Number})
	assert.Equal(t, []byte("page-02.png"), pages[1].Image)
}

func TestExternalCommandsMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	_, err := NewTesseractRecognizer(missing, "").Recognize(context.Background(), []byte("img"))
	assert.Error(t, err)

	_, err = NewPopplerRasterizer(missing, 0).Rasterize(context.Background(), models.NewDocument("a.pdf", []byte("pdf")))
	assert.Error(t, err)
}
