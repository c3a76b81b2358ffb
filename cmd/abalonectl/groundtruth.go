package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"abalone/internal/capture"
	"abalone/internal/config"
)

func newGroundTruthCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groundtruth",
		Short: "Upload ring counts observed for past predictions",
	}
	cmd.AddCommand(newGroundTruthPutCmd(cfg))
	return cmd
}

func newGroundTruthPutCmd(cfg *config.Config) *cobra.Command {
	var (
		inferenceID string
		rings       int
		bucket      string
		prefix      string
	)

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Record the measured ring count for one inference id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inferenceID == "" {
				return fmt.Errorf("--inference-id is required")
			}
			if rings < 0 {
				return fmt.Errorf("--rings must not be negative")
			}
			if bucket == "" {
				return fmt.Errorf("--bucket is required")
			}

			ctx := cmd.Context()
			awsCfg, err := loadAWSConfig(ctx)
			if err != nil {
				return err
			}
			key, err := capture.NewStore(awsCfg, bucket).
				PutGroundTruth(ctx, prefix, time.Now().UTC(), capture.NewGroundTruth(inferenceID, rings))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s\n", bucket, key)
			return nil
		},
	}

	cmd.Flags().StringVar(&inferenceID, "inference-id", "", "Inference id sent with the prediction")
	cmd.Flags().IntVar(&rings, "rings", 0, "Measured ring count")
	cmd.Flags().StringVar(&bucket, "bucket", cfg.Capture.Bucket, "Bucket holding ground truth")
	cmd.Flags().StringVar(&prefix, "prefix", cfg.Capture.GroundTruthPrefix, "Ground truth key prefix")

	return cmd
}
