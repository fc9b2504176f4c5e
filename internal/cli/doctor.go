package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/newsguard/internal/llm"
	"github.com/ppiankov/newsguard/internal/search"
	"github.com/ppiankov/newsguard/internal/util"
)

var doctorTimeout time.Duration

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the search backend and judge model are usable",
	Long: `Doctor verifies the configured search backend has credentials and that
the configured language model provider answers.

Example:
  newsguard doctor
  newsguard doctor --llm-provider ollama`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
		defer cancel()

		if !runDoctor(ctx, cmd.OutOrStdout()) {
			return eris.New("doctor found problems")
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 20*time.Second, "timeout for the provider check")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(ctx context.Context, w io.Writer) bool {
	ok := true
	check := func(passed bool, format string, a ...any) {
		mark := "✓"
		if !passed {
			mark = "✗"
			ok = false
		}
		fmt.Fprintf(w, "%s %s\n", mark, fmt.Sprintf(format, a...))
	}

	searcher, err := search.New(cfg.Search, search.WithHTTPClient(util.NewHTTPClient(cfg.HTTP, cfg.Search.Timeout)))
	switch {
	case err != nil:
		check(false, "search %s: %v", cfg.Search.Provider, err)
	case searcher.Name() == "google" && (cfg.Search.APIKey == "" || cfg.Search.EngineID == ""):
		check(false, "search google: GOOGLE_API_KEY and GOOGLE_CSE_ID must be set")
	default:
		check(true, "search %s configured", searcher.Name())
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM, util.NewHTTPClient(cfg.HTTP, 0))
	if err != nil {
		check(false, "llm %s: %v", cfg.LLM.Provider, err)
		return ok
	}
	check(provider.IsAvailable(ctx), "llm %s/%s reachable", provider.Name(), provider.Model())

	check(true, "trust table %s", cfg.Trust.Table.Version)
	return ok
}
