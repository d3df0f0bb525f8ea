package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/anphuc-nienso/internal/lunar"
)

var (
	fortuneFemale bool
	fortuneYear   int
)

var fortuneCmd = &cobra.Command{
	Use:   "fortune <birthYear>",
	Short: "Show tuổi mụ, Sao and Hạn for a birth year",
	Args:  cobra.ExactArgs(1),
	RunE:  runFortune,
}

func init() {
	fortuneCmd.Flags().BoolVar(&fortuneFemale, "female", false, "Use the female star and obstacle tables")
	fortuneCmd.Flags().IntVar(&fortuneYear, "year", 0, "Reference lunar year (default: current year)")
	rootCmd.AddCommand(fortuneCmd)
}

func runFortune(cmd *cobra.Command, args []string) error {
	birthYear, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("birth year must be an integer: %q", args[0])
	}
	year := fortuneYear
	if year == 0 {
		year = time.Now().Year()
	}
	g, label := lunar.Male, "Nam"
	if fortuneFemale {
		g, label = lunar.Female, "Nữ"
	}
	f := lunar.Compute(birthYear, g, year)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Năm sinh: %d (%s)\n", birthYear, label)
	fmt.Fprintf(out, "Năm xem:  %d\n", year)
	fmt.Fprintf(out, "Tuổi mụ:  %d\n", f.ApparentAge)
	fmt.Fprintf(out, "Sao:      %s\n", f.Star)
	fmt.Fprintf(out, "Hạn:      %s\n", f.Obstacle)
	return nil
}
