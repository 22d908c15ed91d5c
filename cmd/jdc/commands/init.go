package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/java-dataset-converter/internal/config"
	"github.com/l3aro/java-dataset-converter/internal/healthcheck"
	"github.com/l3aro/java-dataset-converter/pkg/syntax"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a jdc configuration interactively",
	Long: `Guides you through the conversion settings and saves them to the global
(~/.jdc/config.yaml) or project (./.jdc/config.yaml) config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd)
	},
}

func runInit(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	c := config.DefaultConfig()
	workers := strconv.Itoa(c.Workers)

	backendOptions := make([]huh.Option[string], 0, 2)
	for _, name := range syntax.BackendNames() {
		label := name
		switch name {
		case syntax.BackendTreeSitter:
			label = "tree-sitter (full Java grammar)"
		case syntax.BackendLexical:
			label = "lexical (regex scanner, no grammar)"
		}
		backendOptions = append(backendOptions, huh.NewOption(label, name))
	}

	// === SECTION 1: Renaming ===
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Syntax backend").
				Description("How Java sources are parsed").
				Options(backendOptions...).
				Value(&c.Backend),
			huh.NewInput().
				Title("Method prefix").
				Placeholder("func_").
				Value(&c.FuncPrefix),
			huh.NewInput().
				Title("Parameter and local prefix").
				Placeholder("var_").
				Value(&c.VarPrefix),
			huh.NewConfirm().
				Title("Avoid names already used in a file?").
				Value(&c.AvoidCollisions),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Batch conversion ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Parallel workers").
				Value(&workers).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 {
						return fmt.Errorf("enter a number of at least 1")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Descend into subdirectories?").
				Value(&c.Recursive),
			huh.NewConfirm().
				Title("Write JSONL prompt/response records?").
				Value(&c.JSONL),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	c.Workers, _ = strconv.Atoi(workers)

	// === SECTION 3: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.jdc/config.yaml)", "project"),
					huh.NewOption("Global (~/.jdc/config.yaml)", "global"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectPath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalPath()
		if configPath == "" {
			return fmt.Errorf("cannot determine home directory")
		}
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Fprintln(out, "\n=== Configuration Preview ===")
	fmt.Fprintf(out, "Config path: %s\n", configPath)
	fmt.Fprintf(out, "Backend: %s\n", c.Backend)
	fmt.Fprintf(out, "Prefixes: %s / %s\n", c.FuncPrefix, c.VarPrefix)
	fmt.Fprintf(out, "Workers: %d\n", c.Workers)
	fmt.Fprintf(out, "Recursive: %t\n", c.Recursive)
	fmt.Fprintf(out, "JSONL: %t\n", c.JSONL)
	fmt.Fprintln(out, "================================")

	if err := c.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(out, "Configuration saved to: %s\n", configPath)

	// === SECTION 4: Health Check ===
	fmt.Fprintln(out, "\n=== Running Health Check ===")
	loaded, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading saved config: %w", err)
	}
	result, err := healthcheck.Check(cmd.Context(), loaded, configPath)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	displayDoctorResult(out, result)
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
