package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/newsguard/internal/config"
	"github.com/ppiankov/newsguard/internal/logging"
	"github.com/ppiankov/newsguard/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage newsguard configuration",
	Long: `Manage newsguard configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (NEWSGUARD_*, e.g. NEWSGUARD_LLM_PROVIDER)
3. Config file (` + config.DefaultPath() + `)
4. Defaults

Vendor variables (GOOGLE_API_KEY, GOOGLE_CSE_ID, JINA_API_KEY, GEMINI_API_KEY,
OPENAI_API_KEY, ANTHROPIC_API_KEY, OLLAMA_BASE_URL) fill in keys left unset.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		if used := v.ConfigFileUsed(); used != "" {
			printStatus("Configuration file: %s\n\n", used)
		} else {
			printStatus("No configuration file found (using defaults)\n\n")
		}

		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	// The file named by --config may not exist yet
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = model.DefaultConfig()
		return logging.Init(cfg.Log, verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if err := writeDefaultConfig(path, configForce); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created default configuration: %s\n", path)
		fmt.Fprintf(cmd.OutOrStdout(), "\nTo view the effective configuration:\n  newsguard config show\n")
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.DefaultPath())
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

const configHeader = `# newsguard configuration
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (NEWSGUARD_*)
#   3. This config file
#   4. Built-in defaults
#
# API keys are better kept in the environment:
#   export GOOGLE_API_KEY=...  GOOGLE_CSE_ID=...   (search.provider: google)
#   export JINA_API_KEY=...                        (search.provider: jina)
#   export GEMINI_API_KEY=...                      (llm.provider: gemini)
#   export OPENAI_API_KEY=sk-...                   (llm.provider: openai)
#   export ANTHROPIC_API_KEY=sk-ant-...            (llm.provider: anthropic)
#   export OLLAMA_BASE_URL=http://localhost:11434  (llm.provider: ollama)

`

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return eris.Errorf("config file already exists: %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(err, "stat %s", path)
	}

	data, err := config.Marshal(model.DefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "create config directory")
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o600); err != nil {
		return eris.Wrap(err, "write config file")
	}
	return nil
}
