package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eduintel/grader/config"
	"github.com/eduintel/grader/internal"
)

var (
	log = internal.GetLogger()

	cfgFile     string
	showVersion bool
	dumpConfig  bool
	generateKey bool
	tokenTTL    time.Duration
)

var cmd = &cobra.Command{
	Use:   "grader",
	Short: "grader scores student answer sheets against a teacher's answer key by semantic similarity",
	Run:   func(cmd *cobra.Command, args []string) { run() },
}

var dumpJsonSchemaCmd = &cobra.Command{
	Use:     "json-schema",
	Short:   "Generates JSON Schema for the grader configuration file",
	Example: "grader json-schema > grader_config_schema.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	},
}

func init() {
	cmd.AddCommand(dumpJsonSchemaCmd)
	cmd.AddCommand(gradeCmd)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")
	cmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "print version number")
	cmd.PersistentFlags().BoolVarP(&dumpConfig, "dump-config", "d", false, "dump config")
	cmd.PersistentFlags().
		BoolVarP(&generateKey, "generate-token", "g", false, "generate a new JWT token")
	cmd.PersistentFlags().
		DurationVar(&tokenTTL, "token-ttl", 0, "lifetime of a generated token (0 never expires)")

	gradeCmd.Flags().StringVarP(&teacherFile, "teacher", "t", "", "teacher answer key PDF")
	gradeCmd.Flags().IntVar(&gradeFlags.Grading.Workers, "workers", 0, "students graded in parallel")
	gradeCmd.Flags().StringVar(&gradeFlags.Extractor.OCR.Language, "ocr-lang", "", "tesseract language")
	gradeCmd.Flags().BoolVar(&disableOCR, "no-ocr", false, "never fall back to OCR")
	_ = gradeCmd.MarkFlagRequired("teacher")
}

// Execute executes the root cobra command.
func Execute() {
	log.SetLevel(logrus.InfoLevel)

	err := cmd.Execute()

	if err != nil {
		os.Exit(1)
	}
}
