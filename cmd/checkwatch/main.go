package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/checkwatch/checkwatch/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "checkwatch",
	Short: "Periodic check runner with live status",
	Long: `Checkwatch runs the shell commands defined in your checkfiles on a
fixed interval, interprets their JSON output, and keeps a live status
(ok / failing / error) per check for a status UI to read.`,
	SilenceUsage: true,
}

// checkfileRoot is the --root flag; empty means the per-user default.
var checkfileRoot string

func init() {
	rootCmd.PersistentFlags().StringVar(&checkfileRoot, "root", "",
		"checkfile directory (default: ~/.checkwatch)")
}

// resolveRoot returns the effective checkfile root.
func resolveRoot() string {
	if checkfileRoot != "" {
		return checkfileRoot
	}
	return config.DefaultRoot()
}

// loadSettings reads checkwatch.yaml from the root, falling back to
// defaults when absent.
func loadSettings(root string) (*config.Config, error) {
	cfg, err := config.LoadFromRoot(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
