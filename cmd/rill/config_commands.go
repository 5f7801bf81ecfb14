package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rill/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", cfg.DatabasePath())
			fmt.Fprintf(out, "Scan cache: %s (enabled=%t, ttl=%ds)\n",
				cfg.ScanCacheDir(), cfg.Scanner.CacheEnabled, cfg.Scanner.CacheTTLSeconds)
			fmt.Fprintf(out, "Parse cache: %s (enabled=%t, ttl=%ds)\n",
				cfg.ParseCacheDir(), cfg.Parser.CacheEnabled, cfg.Parser.CacheTTLSeconds)
			fmt.Fprintf(out, "Download backend: %s\n", cfg.Downloads.Backend)
			if len(cfg.Providers) == 0 {
				fmt.Fprintln(out, "No providers configured")
				return nil
			}
			for name, p := range cfg.Providers {
				status := "enabled"
				if !cfg.ProviderEnabled(name) {
					status = "disabled"
				}
				fmt.Fprintf(out, "Provider %s: %s (%s)\n", name, p.URL, status)
			}
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}
