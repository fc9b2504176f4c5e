package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/pipeline"
	"github.com/ppiankov/newsguard/internal/report"
)

var (
	outJSON   string
	outMD     string
	outFormat string
	timeout   time.Duration
	noFooter  bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <claim...>",
	Short: "Check one claim and print a credibility verdict",
	Long: `Check searches the web for the claim, reads and weighs each source,
judges each source's stance, and prints the verdict.

Pass the claim as arguments, or "-" to read it from stdin.

Example:
  newsguard check "The Eiffel Tower was completed in 1889"
  echo "Vaccines cause autism" | newsguard check -
  newsguard check "..." --json report.json --md report.md
  newsguard check "..." --format json --llm-provider openai`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&outJSON, "json", "", "also write the full analysis as JSON to this path")
	checkCmd.Flags().StringVar(&outMD, "md", "", "also write a Markdown report to this path")
	checkCmd.Flags().StringVarP(&outFormat, "format", "f", "text", "stdout format: text, json or md")
	checkCmd.Flags().DurationVar(&timeout, "timeout", 0, "request deadline (default from config)")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runCheck(cmd *cobra.Command, args []string) error {
	text, err := claimText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.Pipeline.RequestTimeout = timeout
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	stdout, err := stdoutWriter(cmd.OutOrStdout(), outFormat, cfg.Output)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := pipeline.Build(ctx, cfg, nil)
	if err != nil {
		return err
	}

	analysis := p.Check(ctx, text)

	if _, err := stdout.Write(analysis); err != nil {
		return eris.Wrap(err, "write report")
	}
	return writeReportFiles(analysis, outJSON, outMD, cfg.Output)
}

// claimText joins the arguments, or reads stdin when the only argument is "-"
func claimText(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
		if err != nil {
			return "", eris.Wrap(err, "read claim from stdin")
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func stdoutWriter(w io.Writer, format string, out model.OutputConfig) (report.Writer, error) {
	switch format {
	case "", "text":
		return report.NewTextWriter(w, out.Verbose), nil
	case "json":
		return report.NewJSONWriter(w, report.WithPrettyPrint()), nil
	case "md", "markdown":
		return report.NewMarkdownWriter(w, report.WithDetails(out.Verbose), report.WithFooter(out.IncludeFooter)), nil
	default:
		return nil, eris.Errorf("unknown format %q (supported: text, json, md)", format)
	}
}

func writeReportFiles(a *model.Analysis, jsonPath, mdPath string, out model.OutputConfig) error {
	if jsonPath != "" {
		err := report.WriteFile(jsonPath, a, func(w io.Writer) report.Writer {
			return report.NewJSONWriter(w, report.WithPrettyPrint())
		})
		if err != nil {
			return err
		}
		printStatus("✓ Wrote %s\n", jsonPath)
	}
	if mdPath != "" {
		err := report.WriteFile(mdPath, a, func(w io.Writer) report.Writer {
			return report.NewMarkdownWriter(w, report.WithDetails(out.Verbose), report.WithFooter(out.IncludeFooter))
		})
		if err != nil {
			return err
		}
		printStatus("✓ Wrote %s\n", mdPath)
	}
	return nil
}

// statusOut receives progress lines so stdout carries only the report
var statusOut io.Writer = os.Stderr

func printStatus(format string, a ...any) {
	_, _ = fmt.Fprintf(statusOut, format, a...)
}
