package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/checkwatch/checkwatch/internal/checkfile"
	"github.com/checkwatch/checkwatch/internal/registry"
)

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List the merged check registry",
	Run: func(cmd *cobra.Command, args []string) {
		root := resolveRoot()

		files, err := checkfile.LoadDir(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		reg := registry.New()
		reg.Reconcile(files)

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("%s\n", cyan(fmt.Sprintf("Checks under %s", root)))
		for _, def := range reg.Definitions() {
			fmt.Printf("  %s\n", def.Name)
			if def.Section != "" {
				fmt.Printf("    Section: %s\n", def.Section)
			}
			fmt.Printf("    Command: %s\n", def.Command)
			fmt.Printf("    %s\n", gray(def.SourceFile))
		}

		diags := reg.Diagnostics()
		if len(diags) > 0 {
			fmt.Printf("\n%s\n", yellow("Diagnostics:"))
			for _, d := range diags {
				fmt.Printf("  %s\n", d)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(checksCmd)
}
