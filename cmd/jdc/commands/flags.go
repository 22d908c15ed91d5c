package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/java-dataset-converter/pkg/obfuscator"
	"github.com/l3aro/java-dataset-converter/pkg/syntax"
)

// addObfuscationFlags registers the renaming flags shared by convert and
// obfuscate. Unset flags leave the configured values alone.
func addObfuscationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("backend", "b", "", "Syntax backend: treesitter or lexical")
	cmd.Flags().String("func-prefix", "", "Prefix for renamed methods (default func_)")
	cmd.Flags().String("var-prefix", "", "Prefix for renamed parameters and locals (default var_)")
	cmd.Flags().Bool("allow-partial", false, "Rename files even when the parser reports syntax errors")
	cmd.Flags().Bool("avoid-collisions", true, "Skip synthetic names that already occur in the file")
}

// applyObfuscationFlags copies explicitly set flags onto cfg and validates it.
func applyObfuscationFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("func-prefix") {
		cfg.FuncPrefix, _ = flags.GetString("func-prefix")
	}
	if flags.Changed("var-prefix") {
		cfg.VarPrefix, _ = flags.GetString("var-prefix")
	}
	if flags.Changed("allow-partial") {
		cfg.AllowPartial, _ = flags.GetBool("allow-partial")
	}
	if flags.Changed("avoid-collisions") {
		cfg.AvoidCollisions, _ = flags.GetBool("avoid-collisions")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// newObfuscator builds an Obfuscator from the effective configuration.
func newObfuscator(cmd *cobra.Command) (*obfuscator.Obfuscator, error) {
	if err := applyObfuscationFlags(cmd); err != nil {
		return nil, err
	}
	backend, err := syntax.NewBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	return obfuscator.New(backend, cfg.ObfuscatorOptions()), nil
}
