package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/anphuc-nienso/internal/pipeline/textextract"
)

var parseYear int

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Extract household members from ledger text",
	Long: `Reads ledger text from a file, or stdin when the argument is "-" or absent,
and prints the extracted household head, address and members as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().IntVar(&parseYear, "year", 0, "Reference year for age-to-birth-year conversion (default: current year)")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	var (
		text []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		text, err = io.ReadAll(cmd.InOrStdin())
	} else {
		text, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	year := parseYear
	if year == 0 {
		year = time.Now().Year()
	}
	res := textextract.Extract(string(text), year)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
