package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"abalone/internal/capture"
	"abalone/internal/config"
	"abalone/internal/etl"
	"abalone/internal/inference"
)

// captureFlags overrides the capture location taken from the environment.
type captureFlags struct {
	bucket   string
	prefix   string
	endpoint string
	variant  string
	hours    int
}

func (f *captureFlags) register(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&f.bucket, "bucket", cfg.Capture.Bucket, "Bucket holding data capture")
	cmd.Flags().StringVar(&f.prefix, "prefix", cfg.Capture.Prefix, "Data capture key prefix")
	cmd.Flags().StringVar(&f.endpoint, "endpoint", cfg.Inference.EndpointName, "Endpoint name (resolved from SSM when empty)")
	cmd.Flags().StringVar(&f.variant, "variant", cfg.Capture.Variant, "Production variant name")
	cmd.Flags().IntVar(&f.hours, "hours", cfg.Capture.HoursBack, "Number of hours to look back")
}

var loadAWSConfig = func(ctx context.Context) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// resolve checks the flags, then fills in the endpoint name and returns the
// AWS config used for it.
func (f *captureFlags) resolve(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	if f.bucket == "" {
		return aws.Config{}, fmt.Errorf("--bucket is required")
	}
	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return aws.Config{}, err
	}
	if f.endpoint == "" {
		name, err := config.ResolveEndpointName(ctx, ssm.NewFromConfig(awsCfg), cfg.Inference)
		if err != nil {
			return awsCfg, err
		}
		f.endpoint = name
	}
	return awsCfg, nil
}

func newCaptureCmd(cfg *config.Config, log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Inspect and export endpoint data capture",
	}
	cmd.AddCommand(newCaptureListCmd(cfg), newCaptureExportCmd(cfg, log))
	return cmd
}

func newCaptureListCmd(cfg *config.Config) *cobra.Command {
	var f captureFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List captured invocations for the last hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			awsCfg, err := f.resolve(ctx, cfg)
			if err != nil {
				return err
			}
			store := capture.NewStore(awsCfg, f.bucket)

			var recs []capture.Record
			for _, hour := range capture.Hours(time.Now().UTC(), f.hours) {
				r, err := store.ReadHour(ctx, f.prefix, f.endpoint, f.variant, hour)
				if err != nil {
					return err
				}
				recs = append(recs, r...)
			}
			return printRecords(cmd.OutOrStdout(), recs)
		},
	}
	f.register(cmd, cfg)
	return cmd
}

func printRecords(w io.Writer, recs []capture.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tINFERENCE ID\tINPUT\tRINGS\tAGE")
	for _, r := range recs {
		in, err := r.CaptureData.EndpointInput.Text()
		if err != nil {
			return err
		}
		rings, age := "-", "-"
		if out, err := r.CaptureData.EndpointOutput.Text(); err == nil {
			if p, err := inference.ParsePrediction([]byte(out)); err == nil {
				rings = fmt.Sprint(p.Rings)
				age = fmt.Sprintf("%.1f", p.Age)
			}
		}
		id := r.EventMetadata.InferenceID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.EventMetadata.InferenceTime, id, in, rings, age)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d record(s)\n", len(recs))
	return nil
}

func newCaptureExportCmd(cfg *config.Config, log *logrus.Logger) *cobra.Command {
	var (
		f            captureFlags
		exportPrefix string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Convert recent capture to Parquet and refresh the Athena table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			awsCfg, err := f.resolve(ctx, cfg)
			if err != nil {
				return err
			}

			ec := etl.ExportConfigFrom(cfg, f.endpoint)
			ec.Bucket = f.bucket
			ec.CapturePrefix = f.prefix
			ec.Variant = f.variant
			ec.HoursBack = f.hours
			ec.ExportPrefix = exportPrefix

			res, err := etl.NewCaptureExport(awsCfg, ec, log.WithField("cmd", "capture-export")).Run(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	f.register(cmd, cfg)
	cmd.Flags().StringVar(&exportPrefix, "export-prefix", cfg.Capture.ExportPrefix, "Key prefix for Parquet output")
	return cmd
}
