// Package cli implements the newsguard command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/newsguard/internal/config"
	"github.com/ppiankov/newsguard/internal/logging"
	"github.com/ppiankov/newsguard/internal/model"
)

// Version is set at build time with -ldflags "-X ...cli.Version=..."
var Version = "dev"

var (
	cfgFile string
	verbose bool

	v   = viper.New()
	cfg *model.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "newsguard",
	Short: "newsguard - credibility checks for news claims",
	Long: `newsguard checks a free-text news claim against the web.

It searches for sources, reads them, weighs each source by a transparent
trust heuristic, asks a language model whether each source supports or
refutes the claim, and combines the results into a verdict:
Reliable, Unreliable, Mixed or NotEnoughEvidence, with a 0-100 score.

Verdicts are heuristic. Read the sources.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "newsguard %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and debug logging")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")
	rootCmd.PersistentFlags().String("llm-provider", "", "judge provider: gemini, openai, anthropic, ollama")
	rootCmd.PersistentFlags().String("llm-model", "", "judge model name")
	rootCmd.PersistentFlags().String("search-provider", "", "search backend: google or jina")
	rootCmd.PersistentFlags().Bool("no-cache", false, "disable search and fetch caches")

	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = v.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("llm-model"))
	_ = v.BindPFlag("search.provider", rootCmd.PersistentFlags().Lookup("search-provider"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig loads configuration (flags > env > file > defaults) and installs
// the logger
func initConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		loaded.Cache.Enabled = false
	}
	if verbose {
		loaded.Output.Verbose = true
	}
	cfg = loaded

	if err := logging.Init(cfg.Log, verbose); err != nil {
		return err
	}
	if used := v.ConfigFileUsed(); used != "" {
		zap.L().Debug("using config file", zap.String("path", used))
	}
	return nil
}
