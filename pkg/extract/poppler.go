package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/eduintel/grader/pkg/models"
)

const (
	DefaultPdftoppmCmd = "pdftoppm"
	DefaultDPI         = 200
)

// pageFilePattern matches pdftoppm output such as "page-1.png" or "page-007.png".
var pageFilePattern = regexp.MustCompile(`-(\d+)\.png$`)

var _ models.Rasterizer = &PopplerRasterizer{}

// PopplerRasterizer renders pages with poppler's pdftoppm.
type PopplerRasterizer struct {
	Cmd string
	DPI int
}

func NewPopplerRasterizer(cmd string, dpi int) *PopplerRasterizer {
	if cmd == "" {
		cmd = DefaultPdftoppmCmd
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &PopplerRasterizer{Cmd: cmd, DPI: dpi}
}

// Rasterize copies the document to a scratch directory, renders every page to PNG and
// returns the images in page order. The scratch directory is removed before returning.
func (p *PopplerRasterizer) Rasterize(ctx context.Context, doc models.Document) ([]models.PageImage, error) {
	dir, err := os.MkdirTemp("", "grader-raster-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.pdf")
	if err := writeDocument(input, doc); err != nil {
		return nil, err
	}

	prefix := filepath.Join(dir, "page")
	// #nosec G204 -- command path comes from operator configuration
	cmd := exec.CommandContext(ctx, p.Cmd, "-r", strconv.Itoa(p.DPI), "-png", input, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", p.Cmd, err, strings.TrimSpace(stderr.String()))
	}

	return collectPages(dir)
}

func writeDocument(path string, doc models.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, doc.Reader()); err != nil {
		return fmt.Errorf("failed to write scratch file: %w", err)
	}
	return f.Close()
}

func collectPages(dir string) ([]models.PageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	pages := make([]models.PageImage, 0, len(entries))
	for _, entry := range entries {
		m := pageFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		image, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", number, err)
		}
		pages = append(pages, models.PageImage{Number: number, Image: image})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })

	return pages, nil
}
