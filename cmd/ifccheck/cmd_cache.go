package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spboyer/ifccheck/internal/cache"
	"github.com/spboyer/ifccheck/internal/projectconfig"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the check result cache",
		Long: `Manage the check result cache.

The cache stores rule results to speed up repeated checks of unchanged
models. Cached results are keyed by model file contents, rule name and
rule options.`,
	}

	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the check result cache",
		Long: `Clear all cached check results.

The next check re-runs every rule from scratch. Without --cache-dir the
directory configured in .ifccheck.yaml is cleared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cacheClearE(cmd, cacheDir)
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory to clear (default: "+projectconfig.DefaultCacheDir+")")

	return cmd
}

func cacheClearE(cmd *cobra.Command, cacheDir string) error {
	if cacheDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg, err := projectconfig.Load(wd)
		if err != nil {
			return err
		}
		cacheDir = cfg.Cache.Dir
		if cfg.Dir != "" && !filepath.IsAbs(cacheDir) {
			cacheDir = filepath.Join(cfg.Dir, cacheDir)
		}
	}

	absDir, err := filepath.Abs(cacheDir)
	if err != nil {
		return fmt.Errorf("resolving cache directory: %w", err)
	}

	c := cache.New(absDir)
	keys, err := c.Entries()
	if err != nil {
		return err
	}
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s (%d entries)\n", absDir, len(keys)) //nolint:errcheck
	return nil
}
