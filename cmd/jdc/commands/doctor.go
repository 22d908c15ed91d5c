package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/java-dataset-converter/internal/config"
	"github.com/l3aro/java-dataset-converter/internal/healthcheck"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [output-dir...]",
	Short: "Check the configuration, syntax backends and output directories",
	Long: `Runs a probe snippet through every syntax backend with the configured
prefixes and verifies that the given output directories can be written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := healthcheck.Check(cmd.Context(), cfg, effectiveConfigPath(), args...)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		displayDoctorResult(cmd.OutOrStdout(), result)

		if !result.Healthy() {
			return fmt.Errorf("health check failed: see the errors above")
		}
		return nil
	},
}

// effectiveConfigPath returns the file that config.Load read with the
// highest priority, or "" when only defaults apply.
func effectiveConfigPath() string {
	if configFile != "" {
		return configFile
	}
	for _, path := range []string{config.ProjectPath(), config.GlobalPath()} {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func displayDoctorResult(out io.Writer, result *healthcheck.HealthCheckResult) {
	if result.EffectivePath == "" {
		fmt.Fprintln(out, "Using config: built-in defaults")
	} else {
		fmt.Fprintf(out, "Using config: %s (%s)\n", result.EffectivePath, result.EffectiveScope)
	}

	fmt.Fprintln(out, "\nBackends:")
	for _, b := range result.Backends {
		name := b.Name
		if name == result.Backend {
			name += " (selected)"
		}
		printStatus(out, name, b)
	}

	if len(result.Dirs) > 0 {
		fmt.Fprintln(out, "\nDirectories:")
		for _, d := range result.Dirs {
			printStatus(out, d.Name, d)
		}
	}
}

func printStatus(out io.Writer, name string, s healthcheck.ComponentStatus) {
	fmt.Fprintf(out, "  %s %s", formatStatusIcon(s.Status), name)
	if s.Detail != "" && s.Status == healthcheck.StatusReady {
		fmt.Fprintf(out, ": %s", s.Detail)
	}
	fmt.Fprintln(out)
	if s.Error != "" {
		fmt.Fprintf(out, "    Error: %s\n", s.Error)
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case healthcheck.StatusReady:
		return "✓"
	case healthcheck.StatusError:
		return "✗"
	default:
		return "?"
	}
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}
