// Command abalonectl synthesizes the abalone endpoint stack and works with the
// endpoint's data capture.
//
// Usage:
//
//	abalonectl stack synth -f yaml        Print the CloudFormation template
//	abalonectl stack graph -f mermaid     Print the resource dependency graph
//	abalonectl stack validate             Lint the template with cfn-lint
//	abalonectl capture list --hours 3     List captured invocations
//	abalonectl capture export             Export capture to Parquet
//	abalonectl groundtruth put --inference-id ID --rings 9
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"abalone/internal/config"
	"abalone/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, false)

	rootCmd := &cobra.Command{
		Use:          "abalonectl",
		Short:        "Deploy-time and monitoring tooling for the abalone endpoint",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newStackCmd(),
		newCaptureCmd(cfg, logger),
		newGroundTruthCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
