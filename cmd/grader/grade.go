package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/spf13/cobra"

	"github.com/eduintel/grader/config"
	"github.com/eduintel/grader/pkg/models"
)

var (
	teacherFile string
	disableOCR  bool
	gradeFlags  config.Config
)

var gradeCmd = &cobra.Command{
	Use:     "grade --teacher KEY.pdf STUDENT.pdf...",
	Short:   "Grades local PDF files and prints the result as JSON",
	Example: "grader grade --teacher key.pdf alice.pdf bob.pdf",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if err := applyOverrides(cfg, &gradeFlags, disableOCR); err != nil {
			return err
		}

		appState, err := NewAppState(cfg)
		if err != nil {
			return err
		}

		teacher, err := loadDocument(teacherFile)
		if err != nil {
			return err
		}
		students := make([]models.Document, 0, len(args))
		for _, path := range args {
			doc, err := loadDocument(path)
			if err != nil {
				return err
			}
			students = append(students, doc)
		}

		report, err := appState.Grader.Grade(context.Background(), teacher, students)
		if err != nil {
			_ = printJSON(cmd, models.NewErrorResponse(err))
			return err
		}
		return printJSON(cmd, models.NewAnalyzeResponse(report))
	},
}

// applyOverrides merges the non-zero fields of overrides into cfg and revalidates it.
func applyOverrides(cfg *config.Config, overrides *config.Config, noOCR bool) error {
	if err := mergo.Merge(cfg, overrides, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to apply flags: %w", err)
	}
	if noOCR {
		cfg.Extractor.OCR.Enabled = false
	}
	return config.Validate(cfg)
}

func loadDocument(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return models.NewDocument(filepath.Base(path), data), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
