package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/eduintel/grader/pkg/models"
)

const (
	DefaultTesseractCmd = "/usr/bin/tesseract"
	DefaultLanguage     = "eng"
)

var _ models.Recognizer = &TesseractRecognizer{}

// TesseractRecognizer runs the tesseract CLI over a single page image.
type TesseractRecognizer struct {
	Cmd      string
	Language string
}

func NewTesseractRecognizer(cmd, language string) *TesseractRecognizer {
	if cmd == "" {
		cmd = DefaultTesseractCmd
	}
	if language == "" {
		language = DefaultLanguage
	}
	return &TesseractRecognizer{Cmd: cmd, Language: language}
}

// Recognize streams the image through stdin and returns tesseract's stdout.
func (t *TesseractRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	// #nosec G204 -- command path comes from operator configuration
	cmd := exec.CommandContext(ctx, t.Cmd, "stdin", "stdout", "-l", t.Language)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", t.Cmd, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}
