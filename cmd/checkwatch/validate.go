package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/checkwatch/checkwatch/internal/checkfile"
	"github.com/checkwatch/checkwatch/internal/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse checkfiles and report problems",
	Long: `Parse every checkfile under the root and print parse and collision
diagnostics without running anything. Exits non-zero if any were found.`,
	Run: func(cmd *cobra.Command, args []string) {
		root := resolveRoot()

		files, err := checkfile.LoadDir(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		reg := registry.New()
		reg.Reconcile(files)
		diags := reg.Diagnostics()

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		if len(diags) == 0 {
			fmt.Printf("%s\n", green(fmt.Sprintf("%d checks across %d files, no problems", reg.Len(), len(files))))
			return
		}

		for _, d := range diags {
			fmt.Printf("%s %s\n", red("✗"), d)
		}
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
