package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/anphuc-nienso/internal/app"
	"github.com/joseph-ayodele/anphuc-nienso/internal/ocr"
	"github.com/joseph-ayodele/anphuc-nienso/internal/pipeline/textextract"
)

var (
	ocrParse bool
	ocrYear  int
)

var ocrCmd = &cobra.Command{
	Use:   "ocr <image>",
	Short: "Run OCR on a ledger photo",
	Long:  `Runs tesseract on a JPEG, PNG, WebP, TIFF, BMP or HEIC image and prints the normalized text.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runOCR,
}

func init() {
	ocrCmd.Flags().BoolVar(&ocrParse, "parse", false, "Also extract members and print JSON")
	ocrCmd.Flags().IntVar(&ocrYear, "year", 0, "Reference year when --parse is set (default: current year)")
	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	extractor := ocr.NewExtractor(app.OCRConfig(cfg.OCR), logger)
	res, err := extractor.Extract(cmd.Context(), image)
	if err != nil {
		return err
	}
	logger.Info("ocr done", "format", res.Format, "duration_ms", res.Duration.Milliseconds(),
		"confidence", res.Confidence, "warnings", len(res.Warnings))

	if !ocrParse {
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return nil
	}
	year := ocrYear
	if year == 0 {
		year = time.Now().Year()
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		ExtractedText string `json:"extractedText"`
		textextract.Result
	}{res.Text, textextract.Extract(res.Text, year)})
}
