package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/anphuc-nienso/internal/app"
)

var (
	ingestForce      bool
	ingestWithHidden bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Extract every ledger image and text file under a folder",
	Long: `Walks dir and writes a <file>.import.json sidecar with the extracted members
next to each image or text file. Files that already have a sidecar are skipped
unless --force is given. Sidecars are reviewed and saved through the import API.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "Re-extract files that already have a sidecar")
	ingestCmd.Flags().BoolVar(&ingestWithHidden, "hidden", false, "Include hidden files and directories")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	results, stats, err := a.Ingestor.IngestDirectory(cmd.Context(), args[0], !ingestWithHidden, ingestForce)
	out := cmd.OutOrStdout()
	for _, r := range results {
		switch {
		case r.Err != "":
			fmt.Fprintf(out, "FAIL  %s: %s\n", r.SourcePath, r.Err)
		case r.Skipped:
			fmt.Fprintf(out, "SKIP  %s\n", r.SourcePath)
		default:
			fmt.Fprintf(out, "OK    %s (%d members)\n", r.SourcePath, r.Members)
		}
	}
	fmt.Fprintf(out, "scanned=%d matched=%d succeeded=%d skipped=%d failed=%d\n",
		stats.Scanned, stats.Matched, stats.Succeeded, stats.Skipped, stats.Failed)
	if err != nil {
		return err
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d file(s) failed", stats.Failed)
	}
	return nil
}
