package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ErrNoEndpoint is returned when neither an endpoint name nor an SSM parameter is configured.
var ErrNoEndpoint = errors.New("missing env sagemakerEndpoint (or SAGEMAKER_ENDPOINT_PARAM)")

type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ResolveEndpointName returns the configured endpoint name, falling back to
// the SSM parameter. It runs once per cold start.
func ResolveEndpointName(ctx context.Context, c SSMClient, cfg InferenceConfig) (string, error) {
	if cfg.EndpointName != "" {
		return cfg.EndpointName, nil
	}
	if cfg.EndpointParam == "" {
		return "", ErrNoEndpoint
	}
	if c == nil {
		return "", fmt.Errorf("ssm client required to resolve %s", cfg.EndpointParam)
	}

	out, err := c.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(cfg.EndpointParam),
	})
	if err != nil {
		return "", fmt.Errorf("ssm GetParameter %s: %w", cfg.EndpointParam, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("ssm parameter %s has no value", cfg.EndpointParam)
	}
	name := strings.TrimSpace(aws.ToString(out.Parameter.Value))
	if name == "" {
		return "", fmt.Errorf("ssm parameter %s is empty", cfg.EndpointParam)
	}
	return name, nil
}
