package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wyseguys/site-audit/report"
)

var placeholdersCmd = &cobra.Command{
	Use:   "placeholders [kind]",
	Short: "List the template placeholders each report kind understands",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := report.Kinds()
		if len(args) == 1 {
			k, err := report.ParseKind(args[0])
			if err != nil {
				return err
			}
			kinds = []report.Kind{k}
		}

		out := cmd.OutOrStdout()
		for i, k := range kinds {
			tokens, err := report.VocabularyFor(k)
			if err != nil {
				return err
			}
			if len(kinds) > 1 {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s:\n", k)
			}
			for _, t := range tokens {
				fmt.Fprintf(out, "{{%s}}\n", t)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(placeholdersCmd)
}
