package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/wyseguys/site-audit/config"
	"github.com/wyseguys/site-audit/display"
)

var (
	configPath string
	verbose    bool
	noColor    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "site-audit",
	Short: "site-audit runs Lighthouse and Mozilla Observatory against a site and reports the results",
	Long: `A CLI tool that audits a URL with Google Lighthouse and the Mozilla HTTP
Observatory (both installed with NPM), prints a summary, keeps a history of
runs and can render the results into a PDF report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if verbose {
			loaded.Verbose = true
		}
		cfg = loaded
		display.SetNoColor(noColor)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (JSON or YAML, default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
