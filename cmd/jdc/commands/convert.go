package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/java-dataset-converter/internal/log"
	"github.com/l3aro/java-dataset-converter/internal/pipeline"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert -i <input> -o <output> [-j <jsonl-output>]",
	Short: "Obfuscate and pair every Java file in a directory",
	Long: `Obfuscates every matching file under the input directory into the output
directory and writes one <File>.java.jsonl record per file with the obfuscated
text as "prompt" and the original as "response".

Files whose output already exists are skipped, as are records that already
exist, so an interrupted run can simply be started again. Failures are
appended to an error log and do not stop the run.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	flags := convertCmd.Flags()
	flags.StringP("input", "i", "", "Input directory of Java files to convert")
	flags.StringP("output", "o", "", "Output directory for the obfuscated files")
	flags.StringP("jsonl-output", "j", "", "Output directory for the JSONL records (default: the output directory)")
	flags.IntP("workers", "w", 0, "Number of files processed in parallel (default: number of CPUs)")
	flags.BoolP("recursive", "r", false, "Descend into subdirectories")
	flags.String("extension", "", "Source file extension to convert (default java)")
	flags.Bool("no-jsonl", false, "Only obfuscate; do not write JSONL records")
	flags.Bool("no-manifest", false, "Do not write the run manifest")
	flags.String("error-log", "", "Append failures to this file (default: <output>/errors.log)")
	flags.BoolP("force", "f", false, "Redo files whose outputs already exist")
	flags.Bool("strict", false, "Exit with an error when any file fails")
	_ = convertCmd.MarkFlagRequired("input")
	_ = convertCmd.MarkFlagRequired("output")
	addObfuscationFlags(convertCmd)

	RootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("recursive") {
		cfg.Recursive, _ = flags.GetBool("recursive")
	}
	if flags.Changed("extension") {
		cfg.Extension, _ = flags.GetString("extension")
	}
	if flags.Changed("jsonl-output") {
		cfg.JSONLDir, _ = flags.GetString("jsonl-output")
	}
	if flags.Changed("error-log") {
		cfg.ErrorLog, _ = flags.GetString("error-log")
	}
	if noJSONL, _ := flags.GetBool("no-jsonl"); noJSONL {
		cfg.JSONL = false
	}
	if noManifest, _ := flags.GetBool("no-manifest"); noManifest {
		cfg.Manifest = false
	}

	obf, err := newObfuscator(cmd)
	if err != nil {
		return err
	}

	input, _ := flags.GetString("input")
	output, _ := flags.GetString("output")
	force, _ := flags.GetBool("force")

	p := pipeline.New(obf, pipeline.Options{
		Input:    input,
		Output:   output,
		JSONLDir: cfg.JSONLDir,
		Workers:  cfg.Workers,
		JSONL:    cfg.JSONL,
		Manifest: cfg.Manifest,
		ErrorLog: cfg.ErrorLog,
		Force:    force,
		Scan:     cfg.ScannerOptions(),
		Progress: cmd.ErrOrStderr(),
	})

	result, err := p.Run(cmd.Context())
	if result != nil {
		out := cmd.OutOrStdout()
		styles := pipeline.NewStyles(pipeline.ColorEnabled(out))
		fmt.Fprint(out, pipeline.RenderSummary(result.Stats, result.ErrorLog, styles))
		for _, e := range result.Errors {
			log.FromContext(cmd.Context()).Warn("run completed with an error", log.FieldError, e)
		}
	}
	if err != nil {
		return err
	}

	if strict, _ := flags.GetBool("strict"); strict && result.HasFailures() {
		return fmt.Errorf("%d obfuscation and %d pairing failures, see %s",
			result.Stats.ObfuscateFailed, result.Stats.PairFailed, result.ErrorLog)
	}
	return nil
}
