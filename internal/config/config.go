package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the Lambda functions and the CLI.
type Config struct {
	Environment string
	LogLevel    string
	Inference   InferenceConfig
	Contact     ContactConfig
	Capture     CaptureConfig
	Athena      AthenaConfig
}

// InferenceConfig targets the hosted SageMaker endpoint.
type InferenceConfig struct {
	EndpointName  string
	EndpointParam string // SSM parameter name, used when EndpointName is empty
}

// ContactConfig enables the optional contact form side effects.
type ContactConfig struct {
	TableName string
	TopicArn  string
}

// CaptureConfig locates endpoint data capture and its derived datasets.
type CaptureConfig struct {
	Bucket            string
	Prefix            string
	Variant           string
	ExportPrefix      string
	GroundTruthPrefix string
	HoursBack         int
	GlueDatabase      string
	Table             string
}

// AthenaConfig is used to refresh partitions after an export.
type AthenaConfig struct {
	Workgroup      string
	OutputLocation string // s3://bucket/prefix/
}

const maxHoursBack = 72

// Load reads configuration from the environment (and a .env file if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENVIRONMENT", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CAPTURE_PREFIX", "endpoint-data-capture")
	v.SetDefault("CAPTURE_VARIANT", "AllTraffic")
	v.SetDefault("CAPTURE_EXPORT_PREFIX", "capture_parquet/")
	v.SetDefault("CAPTURE_HOURS_BACK", 1)
	v.SetDefault("GROUND_TRUTH_PREFIX", "ground-truth")
	v.SetDefault("ATHENA_WORKGROUP", "primary")

	// The function has always been deployed with a camelCase variable.
	if err := v.BindEnv("endpoint_name", "sagemakerEndpoint", "SAGEMAKER_ENDPOINT"); err != nil {
		return nil, fmt.Errorf("bind endpoint env: %w", err)
	}

	cfg := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Inference: InferenceConfig{
			EndpointName:  strings.TrimSpace(v.GetString("endpoint_name")),
			EndpointParam: strings.TrimSpace(v.GetString("SAGEMAKER_ENDPOINT_PARAM")),
		},
		Contact: ContactConfig{
			TableName: strings.TrimSpace(v.GetString("CONTACT_TABLE")),
			TopicArn:  strings.TrimSpace(v.GetString("CONTACT_TOPIC_ARN")),
		},
		Capture: CaptureConfig{
			Bucket:            strings.TrimSpace(v.GetString("CAPTURE_BUCKET")),
			Prefix:            strings.Trim(v.GetString("CAPTURE_PREFIX"), "/ "),
			Variant:           strings.TrimSpace(v.GetString("CAPTURE_VARIANT")),
			ExportPrefix:      strings.TrimSpace(v.GetString("CAPTURE_EXPORT_PREFIX")),
			GroundTruthPrefix: strings.Trim(v.GetString("GROUND_TRUTH_PREFIX"), "/ "),
			HoursBack:         v.GetInt("CAPTURE_HOURS_BACK"),
			GlueDatabase:      strings.TrimSpace(v.GetString("GLUE_DATABASE")),
			Table:             strings.TrimSpace(v.GetString("CAPTURE_TABLE")),
		},
		Athena: AthenaConfig{
			Workgroup:      strings.TrimSpace(v.GetString("ATHENA_WORKGROUP")),
			OutputLocation: strings.TrimSpace(v.GetString("ATHENA_OUTPUT")),
		},
	}

	if cfg.Capture.HoursBack <= 0 || cfg.Capture.HoursBack > maxHoursBack {
		cfg.Capture.HoursBack = 1
	}
	if cfg.Athena.OutputLocation != "" && !strings.HasPrefix(cfg.Athena.OutputLocation, "s3://") {
		return nil, fmt.Errorf("ATHENA_OUTPUT must start with s3://")
	}

	return cfg, nil
}

// IsLambda reports whether the process runs inside AWS Lambda.
func IsLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}
