// jenkins-status is the reference status adapter: it fetches one
// Jenkins job's status and prints the check result contract on stdout.
// A checkfile uses it like any other check command:
//
//	main build: jenkins-status http://ci.example.com main-build
//
// On upstream fetch or parse failure it exits non-zero with a
// diagnostic on stderr; the core turns that into an Error check state.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/checkwatch/checkwatch/internal/contract"
	"github.com/checkwatch/checkwatch/internal/jenkins"
)

var (
	rootAPI   bool
	prettyAPI bool
)

var rootCmd = &cobra.Command{
	Use:   "jenkins-status <jenkinsBaseUrl> <jobName>",
	Short: "Report a Jenkins job's status in the check contract",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, jobName := args[0], args[1]

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client := jenkins.NewClient(base, http.DefaultClient)
		job, err := client.FetchJob(ctx, jobName, jenkins.Options{
			RootAPI:   rootAPI,
			PrettyAPI: prettyAPI,
		})
		if err != nil {
			return err
		}

		out, err := contract.Render(jenkins.Translate(job))
		if err != nil {
			return fmt.Errorf("failed to render result: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.Flags().BoolVar(&rootAPI, "root-api", false,
		"query the aggregate /api/json endpoint and select the job by name")
	rootCmd.Flags().BoolVar(&prettyAPI, "pretty-api", false,
		"append pretty=true to the upstream URL for debugging")
	rootCmd.SilenceUsage = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
