package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/java-dataset-converter/internal/config"
	"github.com/l3aro/java-dataset-converter/internal/log"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "jdc",
	Short: "java-dataset-converter - De-identify Java sources for LLM training pairs",
	Long: `java-dataset-converter renames Java methods to func_N and parameters and
locals to var_N, then pairs each obfuscated file with its original as a
prompt/response JSONL record.

Commands:
  convert     Obfuscate and pair every Java file in a directory
  obfuscate   Obfuscate a single file
  pair        Write the JSONL record for one original/obfuscated pair
  status      Summarise the manifest of an output directory
  init        Create a configuration file interactively
  doctor      Check the configuration, backends and directories

Use "jdc [command] --help" for more information about a command.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	configFile string
	logLevel   string
	logFormat  string

	// cfg is the effective configuration, loaded before any command runs.
	cfg *config.Config
)

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./.jdc/config.yaml, then ~/.jdc/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
}

// setup loads the configuration and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		if !log.ValidFormat(logFormat) {
			return fmt.Errorf("invalid --log-format %q (use text or json)", logFormat)
		}
		cfg.LogFormat = logFormat
	}

	logger := log.New(log.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Writer: cmd.ErrOrStderr(),
	})
	log.SetDefault(logger)
	cmd.SetContext(log.WithLogger(cmd.Context(), logger))
	return nil
}
