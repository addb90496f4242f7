package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wyseguys/site-audit/pdf"
	"github.com/wyseguys/site-audit/report"
)

var (
	renderKind     string
	renderData     string
	renderTemplate string
	renderOut      string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a report template against a JSON context file",
	Long: `Render fills a report template with the values in a JSON context file.
The output is HTML, or a PDF when the output file ends in .pdf. Without -o the
HTML is written to stdout.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderKind, "kind", string(report.KindAll), "report kind: lighthouse, observatory or all")
	renderCmd.Flags().StringVar(&renderData, "data", "", "JSON file holding the template context")
	renderCmd.Flags().StringVar(&renderTemplate, "template", "", "template file to render instead of the stock one")
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "output file (.html or .pdf)")
	renderCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	kind, err := report.ParseKind(renderKind)
	if err != nil {
		return err
	}

	ctx, err := loadContext(renderData)
	if err != nil {
		return err
	}

	engine := report.NewEngine(report.NewLoader(cfg.TemplateDir))
	var html string
	if renderTemplate != "" {
		src, err := os.ReadFile(renderTemplate)
		if err != nil {
			return err
		}
		html, err = engine.Render(kind, ctx, string(src))
		if err != nil {
			return err
		}
	} else {
		html, err = engine.RenderKind(kind, ctx)
		if err != nil {
			return err
		}
	}

	switch {
	case renderOut == "":
		_, err = fmt.Fprint(cmd.OutOrStdout(), html)
		return err
	case strings.EqualFold(filepath.Ext(renderOut), ".pdf"):
		r := pdf.ChromeRenderer{
			ExecPath:  cfg.ChromePath,
			NoSandbox: cfg.NoSandbox,
			Timeout:   time.Duration(cfg.PDFTimeout) * time.Second,
		}
		if err := r.Render(cmd.Context(), html, renderOut); err != nil {
			return err
		}
	default:
		if err := pdf.WriteFile(renderOut, []byte(html)); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", renderOut)
	return nil
}

func loadContext(path string) (*report.Context, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse context %s: %w", path, err)
	}
	return report.ContextFromMap(m), nil
}
