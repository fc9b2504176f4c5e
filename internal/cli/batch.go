package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/pipeline"
	"github.com/ppiankov/newsguard/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check many claims from a file",
	Long: `Batch checks claims from a file, one per line, through one shared
pipeline. Blank lines and lines starting with '#' are skipped.

Concurrency is bounded twice: by --concurrency here, and by the
pipeline's own admission limit (pipeline.max_concurrent_requests).

Example:
  newsguard batch claims.txt
  newsguard batch claims.txt --concurrency 2 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "claims checked at once (default: pipeline.max_concurrent_requests)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "write JSON and Markdown reports per claim to this directory")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Pipeline.MaxConcurrentRequests
	}

	p, err := pipeline.Build(ctx, cfg, nil)
	if err != nil {
		return err
	}

	printStatus("⚙️  Checking claims from %s with %d workers...\n", file, workers)
	results, err := worker.NewBatchProcessor(p, workers).ProcessFile(ctx, file)
	if err != nil {
		return eris.Wrap(err, "process file")
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return eris.Wrap(err, "create output directory")
		}
		for _, r := range results {
			if r.Analysis == nil {
				continue
			}
			base := filepath.Join(outputDir, fmt.Sprintf("%03d-%s", r.Line, slugify(r.Text, 60)))
			if err := writeReportFiles(r.Analysis, base+".json", base+".md", cfg.Output); err != nil {
				printStatus("✗ line %d: %v\n", r.Line, err)
			}
		}
	}

	writeBatchSummary(cmd.OutOrStdout(), results)
	return nil
}

// writeBatchSummary prints one row per claim and the label totals
func writeBatchSummary(w io.Writer, results []*worker.ClaimResult) {
	counts := make(map[model.Label]int)
	failed := 0

	fmt.Fprintf(w, "%-5s  %-18s  %6s  %s\n", "LINE", "VERDICT", "SCORE", "CLAIM")
	for _, r := range results {
		if r.Error != nil || r.Analysis == nil {
			failed++
			fmt.Fprintf(w, "%-5d  %-18s  %6s  %s\n", r.Line, "ERROR", "-", truncate(r.Text, 70))
			continue
		}
		v := r.Analysis.Verdict
		counts[v.Label]++
		fmt.Fprintf(w, "%-5d  %-18s  %6.2f  %s\n", r.Line, v.Label, v.Score, truncate(r.Text, 70))
	}

	fmt.Fprintf(w, "\n%d claims: %d Reliable, %d Unreliable, %d Mixed, %d NotEnoughEvidence",
		len(results),
		counts[model.LabelReliable],
		counts[model.LabelUnreliable],
		counts[model.LabelMixed],
		counts[model.LabelNotEnoughEvidence])
	if failed > 0 {
		fmt.Fprintf(w, ", %d not checked", failed)
	}
	fmt.Fprintln(w)
}

// slugify makes a short lowercase file name fragment from text
func slugify(text string, maxLen int) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
		if sb.Len() >= maxLen {
			break
		}
	}
	s := strings.Trim(sb.String(), "-")
	if s == "" {
		return "claim"
	}
	return s
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
