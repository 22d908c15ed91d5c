package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/java-dataset-converter/internal/log"
	"github.com/l3aro/java-dataset-converter/pkg/obfuscator"
)

// obfuscateCmd represents the obfuscate command
var obfuscateCmd = &cobra.Command{
	Use:   "obfuscate <input.java> [output.java]",
	Short: "Obfuscate a single file",
	Long: `Renames the methods, parameters and locals of one Java file. The result is
written to the output path, or to stdout when no output is given. A file the
parser cannot handle is passed through unchanged.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runObfuscate,
}

func init() {
	addObfuscationFlags(obfuscateCmd)
	RootCmd.AddCommand(obfuscateCmd)
}

func runObfuscate(cmd *cobra.Command, args []string) error {
	obf, err := newObfuscator(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := log.FromContext(ctx).With(log.FieldFile, args[0])

	var result obfuscator.Result
	if len(args) == 2 {
		result, err = obf.ObfuscateFile(ctx, args[0], args[1])
		if err != nil {
			return err
		}
	} else {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		result = obf.Obfuscate(ctx, src)
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(result.Source); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}

	switch {
	case errors.Is(result.Reason, obfuscator.ErrParseFailure):
		logger.Warn("copied unchanged", log.FieldReason, result.Reason)
	default:
		logger.Info("obfuscated",
			log.FieldMethods, result.Methods,
			log.FieldLocals, result.Locals,
			log.FieldBackend, obf.Backend().Name(),
		)
	}
	return nil
}
