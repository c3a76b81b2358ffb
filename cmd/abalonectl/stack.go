package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"abalone/internal/stack"
)

const defaultModelName = "abalone"

func newStackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Synthesize, graph and lint the endpoint stack",
	}
	cmd.AddCommand(newSynthCmd(), newGraphCmd(), newValidateCmd())
	return cmd
}

func newSynthCmd() *cobra.Command {
	var (
		modelName string
		format    string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Print the CloudFormation template",
		Long: `Synthesize the endpoint stack as a CloudFormation template.

Deploy it with the parameters the pipeline produces:
    abalonectl stack synth -f yaml -o endpoint.yaml
    aws cloudformation deploy --template-file endpoint.yaml --stack-name abalone-endpoint \
        --parameter-overrides BucketName=... ExecutionId=... ModelUri=... ExecutionRole=... ImageUri=...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(cmd.OutOrStdout(), modelName, format, output)
		},
	}

	cmd.Flags().StringVarP(&modelName, "model-name", "m", defaultModelName, "Model name used to prefix resource names")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")

	return cmd
}

func runSynth(w io.Writer, modelName, format, output string) error {
	tmpl, err := stack.NewEndpointStack(stack.EndpointStackProps{ModelName: modelName}).Template()
	if err != nil {
		return err
	}
	body, err := stack.Render(tmpl, format)
	if err != nil {
		return err
	}
	if output != "" {
		return os.WriteFile(output, body, 0o644)
	}
	_, err = w.Write(body)
	if err == nil && !strings.HasSuffix(string(body), "\n") {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

func newGraphCmd() *cobra.Command {
	var (
		modelName         string
		outputFormat      string
		includeParameters bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the resource dependency graph",
		Long: `Generate a DOT or Mermaid graph of the stack's resources.

Render with Graphviz:
    abalonectl stack graph | dot -Tpng -o deps.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var format stack.GraphFormat
			switch outputFormat {
			case "dot":
				format = stack.GraphDOT
			case "mermaid":
				format = stack.GraphMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}
			s := stack.NewEndpointStack(stack.EndpointStackProps{ModelName: modelName})
			return s.WriteGraph(cmd.OutOrStdout(), stack.GraphOptions{Format: format, IncludeParameters: includeParameters})
		},
	}

	cmd.Flags().StringVarP(&modelName, "model-name", "m", defaultModelName, "Model name used to prefix resource names")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var (
		modelName string
		file      string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Lint the template with cfn-lint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res *stack.LintResult
				err error
			)
			if file != "" {
				res, err = stack.LintFile(file)
			} else {
				var tmpl *stack.Template
				tmpl, err = stack.NewEndpointStack(stack.EndpointStackProps{ModelName: modelName}).Template()
				if err == nil {
					res, err = stack.LintTemplate(tmpl)
				}
			}
			if err != nil {
				return err
			}
			return printLint(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&modelName, "model-name", "m", defaultModelName, "Model name used to prefix resource names")
	cmd.Flags().StringVar(&file, "file", "", "Lint an already rendered template instead")

	return cmd
}

func printLint(w io.Writer, res *stack.LintResult) error {
	for _, e := range res.Errors {
		fmt.Fprintf(w, "ERROR   %s\n", e)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "WARNING %s\n", warn)
	}
	for _, info := range res.Informational {
		fmt.Fprintf(w, "INFO    %s\n", info)
	}
	if !res.Passed {
		return fmt.Errorf("template has %d error(s)", len(res.Errors))
	}
	fmt.Fprintln(w, "template is valid")
	return nil
}
