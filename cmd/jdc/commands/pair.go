package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/java-dataset-converter/internal/log"
	"github.com/l3aro/java-dataset-converter/pkg/dataset"
)

// pairCmd represents the pair command
var pairCmd = &cobra.Command{
	Use:   "pair <original.java> <obfuscated.java> <output.jsonl>",
	Short: "Write the JSONL record for one original/obfuscated pair",
	Long: `Writes a single-line JSONL file holding {"prompt": <obfuscated>,
"response": <original>}. An existing output file is replaced.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		original, obfuscated, out := args[0], args[1], args[2]
		if !strings.HasSuffix(out, dataset.Ext) {
			return fmt.Errorf("output %s must end in %s", out, dataset.Ext)
		}
		if err := dataset.Pair(original, obfuscated, out); err != nil {
			return err
		}
		log.FromContext(cmd.Context()).Info("paired", log.FieldInput, original, log.FieldOutput, out)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(pairCmd)
}
