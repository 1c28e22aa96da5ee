package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/checkwatch/checkwatch/internal/checkfile"
	"github.com/checkwatch/checkwatch/internal/contract"
	"github.com/checkwatch/checkwatch/internal/registry"
	"github.com/checkwatch/checkwatch/internal/runner"
	"github.com/checkwatch/checkwatch/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Run every check once and print the results",
	Long: `Run each configured check a single time, outside the daemon, and
print a colorized summary. Exits non-zero if any check is failing or
errored.`,
	Run: func(cmd *cobra.Command, args []string) {
		root := resolveRoot()
		cfg, err := loadSettings(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		files, err := checkfile.LoadDir(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		reg := registry.New()
		reg.Reconcile(files)
		defs := reg.Definitions()
		if len(defs) == 0 {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Printf("%s\n", gray(fmt.Sprintf("No checks defined under %s", root)))
			return
		}

		run := runner.NewExecRunner(&runner.Config{
			ScriptsDir: cfg.ScriptsDir,
			Timeout:    cfg.RunTimeout(),
		})

		type outcome struct {
			status types.Status
			report *types.Report
		}
		results := make(map[string]outcome, len(defs))
		var mu sync.Mutex

		g, ctx := errgroup.WithContext(context.Background())
		if cfg.MaxConcurrentRuns > 0 {
			g.SetLimit(cfg.MaxConcurrentRuns)
		}
		for _, def := range defs {
			def := def
			g.Go(func() error {
				status, report := contract.Evaluate(run.Run(ctx, def))
				mu.Lock()
				results[def.Name] = outcome{status: status, report: report}
				mu.Unlock()
				return nil
			})
		}
		g.Wait() //nolint:errcheck // goroutines never return errors

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		bad := 0
		section := ""
		for _, def := range defs {
			if def.Section != section && def.Section != "" {
				section = def.Section
				fmt.Printf("\n%s\n", yellow(section))
			}

			out := results[def.Name]
			icon, paint := "●", green
			switch out.status {
			case types.StatusFailing:
				icon, paint = "✗", red
				bad++
			case types.StatusError:
				icon, paint = "⚠", yellow
				bad++
			}
			suffix := ""
			if out.report.Changing {
				suffix = gray(" (changing)")
			}
			fmt.Printf("  %s %s%s\n", paint(icon), def.Name, suffix)
			for _, pair := range out.report.Info {
				if pair.Value == "" {
					fmt.Printf("      %s\n", gray(pair.Label))
					continue
				}
				fmt.Printf("      %s %s\n", gray(pair.Label+":"), pair.Value)
			}
		}

		fmt.Println()
		if bad > 0 {
			fmt.Printf("%s\n", red(fmt.Sprintf("%d of %d checks not ok", bad, len(defs))))
			os.Exit(1)
		}
		fmt.Printf("%s\n", green(fmt.Sprintf("All %d checks ok", len(defs))))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
