package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/checkwatch/checkwatch/internal/orchestrator"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the check daemon",
	Long: `Start watching the checkfile directory and running every defined
check on its interval. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := resolveRoot()
		cfg, err := loadSettings(root)
		if err != nil {
			return err
		}

		o, err := orchestrator.New(&orchestrator.Config{
			Root:              root,
			RunInterval:       cfg.RunInterval(),
			RunTimeout:        cfg.RunTimeout(),
			MaxConcurrentRuns: int64(cfg.MaxConcurrentRuns),
			ScriptsDir:        cfg.ScriptsDir,
			Debounce:          cfg.Debounce(),
		})
		if err != nil {
			return err
		}

		ctx := context.Background()
		if err := o.Start(ctx); err != nil {
			return err
		}

		fmt.Printf("checkwatch running on %s (interval %s). Press Ctrl+C to stop.\n",
			root, cfg.RunInterval())

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\nShutting down...")
		o.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
