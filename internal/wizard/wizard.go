package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/spboyer/ifccheck/internal/projectconfig"
)

// Answers holds all fields collected during the init wizard.
type Answers struct {
	Models  string
	Rules   []string
	Format  string
	Workers string
	Cache   bool
}

// RuleChoice is one selectable rule.
type RuleChoice struct {
	Name        string
	Description string
}

// RunInitWizard runs an interactive huh form that collects the settings for
// a new .ifccheck.yaml. Fields start from defaults.
func RunInitWizard(in io.Reader, out io.Writer, rules []RuleChoice, formats []string, defaults *projectconfig.ProjectConfig) (*projectconfig.ProjectConfig, error) {
	a := Answers{
		Models:  strings.Join(defaults.Models, ", "),
		Rules:   defaults.Rules,
		Format:  defaults.Output.Format,
		Workers: strconv.Itoa(defaults.Workers),
		Cache:   defaults.Cache.Enabled != nil && *defaults.Cache.Enabled,
	}
	if a.Models == "" {
		a.Models = "**/*.ifc"
	}

	ruleOpts := make([]huh.Option[string], 0, len(rules))
	for _, r := range rules {
		ruleOpts = append(ruleOpts, huh.NewOption(fmt.Sprintf("%s: %s", r.Name, r.Description), r.Name))
	}
	formatOpts := make([]huh.Option[string], 0, len(formats))
	for _, f := range formats {
		formatOpts = append(formatOpts, huh.NewOption(f, f))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Model files").
				Description("Comma-separated paths or globs (** is supported)").
				Placeholder("models/**/*.ifc").
				Value(&a.Models).
				Validate(func(s string) error {
					if len(splitAndTrim(s)) == 0 {
						return fmt.Errorf("at least one model path is required")
					}
					return nil
				}),
			huh.NewMultiSelect[string]().
				Title("Rules").
				Description("Leave empty to run every rule").
				Options(ruleOpts...).
				Value(&a.Rules),
			huh.NewSelect[string]().
				Title("Report format").
				Options(formatOpts...).
				Value(&a.Format),
			huh.NewInput().
				Title("Workers").
				Description("How many models to check at once").
				Value(&a.Workers).
				Validate(validateWorkers),
			huh.NewConfirm().
				Title("Cache results between runs?").
				Value(&a.Cache),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	return BuildConfig(a, defaults)
}

// BuildConfig turns wizard answers into a config, keeping defaults for
// anything the wizard does not ask about.
func BuildConfig(a Answers, defaults *projectconfig.ProjectConfig) (*projectconfig.ProjectConfig, error) {
	models := splitAndTrim(a.Models)
	if len(models) == 0 {
		return nil, fmt.Errorf("at least one model path is required")
	}
	if err := validateWorkers(a.Workers); err != nil {
		return nil, err
	}
	workers, _ := strconv.Atoi(strings.TrimSpace(a.Workers))

	cfg := *defaults
	cfg.Models = models
	cfg.Rules = append([]string(nil), a.Rules...)
	if len(cfg.Rules) == 0 {
		cfg.Rules = nil
	}
	if a.Format != "" {
		cfg.Output.Format = a.Format
	}
	cfg.Workers = workers
	cache := a.Cache
	cfg.Cache.Enabled = &cache
	cfg.Dir = ""
	return &cfg, nil
}

func validateWorkers(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("workers must be a whole number of at least 1")
	}
	return nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
