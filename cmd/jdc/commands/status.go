package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/l3aro/java-dataset-converter/internal/log"
	"github.com/l3aro/java-dataset-converter/internal/pipeline"
	"github.com/l3aro/java-dataset-converter/pkg/manifest"
)

// recentErrors is how many error log entries the text output shows.
const recentErrors = 5

// StatusOutput represents the output structure for JSON
type StatusOutput struct {
	Output    string                `json:"output"`
	Backend   string                `json:"backend"`
	UpdatedAt time.Time             `json:"updated_at"`
	Summary   manifest.Summary      `json:"summary"`
	Failures  []FailureOutput       `json:"failures,omitempty"`
	ErrorLog  string                `json:"error_log,omitempty"`
	Logged    []pipeline.ErrorEntry `json:"logged_errors,omitempty"`
}

// FailureOutput is one failed file in the status output.
type FailureOutput struct {
	Path      string           `json:"path"`
	Obfuscate manifest.Outcome `json:"obfuscate"`
	Pair      manifest.Outcome `json:"pair"`
	Reason    string           `json:"reason"`
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <output-dir>",
	Short: "Summarise the manifest of an output directory",
	Long:  `Reads the manifest written by convert and reports what happened to each file.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(args[0], manifest.DefaultFile)
		m, err := manifest.LoadFile(path)
		if err != nil {
			return fmt.Errorf("reading manifest: %w", err)
		}
		if m.Len() == 0 {
			return fmt.Errorf("no manifest found in %s; run 'jdc convert' first", args[0])
		}

		status := StatusOutput{
			Output:    args[0],
			Backend:   m.Backend(),
			UpdatedAt: m.UpdatedAt(),
			Summary:   m.Summarize(),
		}
		for _, e := range m.Failures() {
			status.Failures = append(status.Failures, FailureOutput{
				Path:      e.Path,
				Obfuscate: e.Obfuscate,
				Pair:      e.Pair,
				Reason:    e.Reason,
			})
		}

		errPath := cfg.ErrorLog
		if errPath == "" {
			errPath = filepath.Join(args[0], pipeline.DefaultErrorLog)
		}
		entries, err := pipeline.ReadErrorLog(errPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			log.FromContext(cmd.Context()).Warn("could not read error log", log.FieldPath, errPath, log.FieldError, err)
		default:
			status.ErrorLog = errPath
			status.Logged = entries
		}

		out := cmd.OutOrStdout()
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		s := status.Summary
		fmt.Fprintf(out, "Output: %s\n", status.Output)
		fmt.Fprintf(out, "Backend: %s\n", status.Backend)
		fmt.Fprintf(out, "Updated: %s\n", status.UpdatedAt.Format(time.RFC3339))
		fmt.Fprintf(out, "Files: %d\n", s.Files)
		fmt.Fprintf(out, "  Renamed: %d\n", s.Renamed)
		fmt.Fprintf(out, "  Unchanged: %d\n", s.Unchanged)
		fmt.Fprintf(out, "  Skipped: %d\n", s.Skipped)
		fmt.Fprintf(out, "  Failed: %d\n", s.Failed)
		fmt.Fprintf(out, "Records: %d written, %d failed\n", s.Paired, s.PairFailed)
		fmt.Fprintf(out, "Renamed: %d methods, %d locals\n", s.Methods, s.Locals)
		if len(status.Failures) > 0 {
			fmt.Fprintln(out, "\nFailures:")
			for _, f := range status.Failures {
				fmt.Fprintf(out, "  %s: %s\n", f.Path, f.Reason)
			}
		}
		if len(status.Logged) > 0 {
			fmt.Fprintf(out, "\nError log: %s (%d entries)\n", status.ErrorLog, len(status.Logged))
			recent := status.Logged[max(0, len(status.Logged)-recentErrors):]
			for _, e := range recent {
				fmt.Fprintf(out, "  %s [%s] %s: %s\n", e.Time.Format(time.RFC3339), e.Stage, e.File, e.Error)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(statusCmd)
}
