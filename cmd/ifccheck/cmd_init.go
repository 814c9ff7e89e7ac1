package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spboyer/ifccheck/internal/checks"
	"github.com/spboyer/ifccheck/internal/projectconfig"
	"github.com/spboyer/ifccheck/internal/reporting"
	"github.com/spboyer/ifccheck/internal/wizard"
)

const defaultModelGlob = "**/*.ifc"

func newInitCommand() *cobra.Command {
	var (
		yes    bool
		force  bool
		models []string
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a .ifccheck.yaml project configuration",
		Long: `Create a .ifccheck.yaml project configuration.

By default a short wizard asks for the model files, rules, report format,
worker count and caching. Use --yes to write the defaults instead.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return initCommandE(cmd, dir, yes, force, models)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the wizard and write defaults")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing "+projectconfig.FileName)
	cmd.Flags().StringArrayVar(&models, "model", nil, "Model path or glob to record (with --yes, can be repeated)")

	return cmd
}

func initCommandE(cmd *cobra.Command, dir string, yes, force bool, models []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	cfg := projectconfig.New()
	cfg.Models = models
	if len(cfg.Models) == 0 {
		cfg.Models = []string{defaultModelGlob}
	}

	if !yes {
		var rules []wizard.RuleChoice
		for _, r := range checks.DefaultRegistry().All() {
			rules = append(rules, wizard.RuleChoice{Name: r.Name(), Description: r.Description()})
		}
		formats := make([]string, len(reporting.Formats))
		for i, f := range reporting.Formats {
			formats[i] = string(f)
		}

		answered, err := wizard.RunInitWizard(cmd.InOrStdin(), cmd.OutOrStdout(), rules, formats, cfg)
		if err != nil {
			return err
		}
		cfg = answered
	}

	path, err := projectconfig.Write(dir, cfg, force)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path) //nolint:errcheck
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'ifccheck check' in %s to check %d model pattern(s).\n", dir, len(cfg.Models)) //nolint:errcheck
	return nil
}
