package cmd

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wyseguys/site-audit/audit"
	"github.com/wyseguys/site-audit/crawler"
	"github.com/wyseguys/site-audit/display"
	"github.com/wyseguys/site-audit/pdf"
	"github.com/wyseguys/site-audit/report"
	"github.com/wyseguys/site-audit/scanner"
	"github.com/wyseguys/site-audit/storage"
	"github.com/wyseguys/site-audit/target"
)

var (
	auditKind string
	pdfDir    string
	keepHTML  bool
	pages     int
)

var auditCmd = &cobra.Command{
	Use:   "audit <url>",
	Short: "Audit a URL with lighthouse and/or observatory (both must be installed with NPM)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVarP(&auditKind, "test", "t", string(report.KindAll), "tests to run: lighthouse, observatory or all")
	auditCmd.Flags().StringVarP(&pdfDir, "pdf", "f", "", "write a PDF report into this directory")
	auditCmd.Flags().BoolVar(&keepHTML, "keep-html", false, "keep the HTML the PDF was printed from")
	auditCmd.Flags().IntVarP(&pages, "pages", "p", 1, "audit up to this many pages of the site, starting at <url>")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	kind, err := report.ParseKind(auditKind)
	if err != nil {
		return err
	}

	appLogger, store, err := cfg.InitializeApp()
	if err != nil {
		return err
	}
	defer appLogger.Close()
	defer store.Close()

	snaps, err := storage.OpenSnapshots(cfg.SnapshotPath)
	if err != nil {
		return err
	}
	defer snaps.Close()

	exec := scanner.ShellExecutor{}
	printer := display.New(cfg.Thresholds)
	printer.Out = cmd.OutOrStdout()

	runner := &audit.Runner{
		Lighthouse: &scanner.Lighthouse{
			Exec:        exec,
			OutputDir:   filepath.Join(cfg.OutputDir, "lighthouse"),
			ChromeFlags: cfg.ChromeFlags,
			Verbose:     cfg.Verbose,
		},
		Observatory: &scanner.Observatory{Exec: exec},
		Engine:      report.NewEngine(report.NewLoader(cfg.TemplateDir)),
		PDF: pdf.ChromeRenderer{
			ExecPath:  cfg.ChromePath,
			NoSandbox: cfg.NoSandbox,
			Timeout:   time.Duration(cfg.PDFTimeout) * time.Second,
		},
		Printer:    printer,
		Log:        appLogger,
		Store:      store,
		Snapshots:  snaps,
		Thresholds: cfg.Thresholds,
	}
	var robots *target.RobotsChecker
	if cfg.RespectRobots {
		robots = target.NewRobotsChecker(cfg.UserAgent, time.Duration(cfg.HTTPTimeout)*time.Second)
		runner.Robots = robots
	}

	urls := []string{args[0]}
	if pages > 1 {
		c := crawler.New(cfg, appLogger)
		if robots != nil {
			c.Robots = robots
		}
		urls, err = c.Discover(cmd.Context(), args[0], pages)
		if err != nil {
			return err
		}
	}

	appLogger.Debug("Audit runner initialized")
	_, err = runner.RunPages(cmd.Context(), urls, kind, audit.Options{
		PDFDir:   pdfDir,
		KeepHTML: keepHTML || cfg.KeepHTML,
	})
	if err != nil {
		appLogger.Error("Audit failed:", err)
	}
	return err
}
