package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wyseguys/site-audit/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [host]",
	Short: "Show previous audit runs, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host := ""
		if len(args) == 1 {
			host = strings.ToLower(args[0])
		}

		store, err := storage.New(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(host, historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No audits recorded")
			return nil
		}
		for _, r := range runs {
			scores, err := store.RunScores(r.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s  %-11s %s\n", r.StartedAt.Format("2006-01-02 15:04"), r.Kind, r.URL)
			var parts []string
			for _, s := range scores {
				parts = append(parts, fmt.Sprintf("%s=%d", s.Category, s.Score))
			}
			if r.ObservatoryGrade != "" {
				parts = append(parts, fmt.Sprintf("observatory=%s(%d)", r.ObservatoryGrade, r.ObservatoryScore))
			}
			if len(parts) > 0 {
				fmt.Fprintf(out, "    %s\n", strings.Join(parts, " "))
			}
			if r.PDFPath != "" {
				fmt.Fprintf(out, "    %s\n", r.PDFPath)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum runs to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
