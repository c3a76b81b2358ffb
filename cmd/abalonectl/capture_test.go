package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abalone/internal/config"
)

func stubAWSConfig(t *testing.T) *int {
	t.Helper()
	calls := 0
	orig := loadAWSConfig
	loadAWSConfig = func(context.Context) (aws.Config, error) {
		calls++
		return aws.Config{Region: "us-east-1"}, nil
	}
	t.Cleanup(func() { loadAWSConfig = orig })
	return &calls
}

func TestResolve_MissingBucketSkipsAWS(t *testing.T) {
	calls := stubAWSConfig(t)

	f := captureFlags{endpoint: "Abalone-Endpoint"}
	_, err := f.resolve(context.Background(), &config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--bucket")
	assert.Zero(t, *calls)
}

func TestResolve_KeepsExplicitEndpoint(t *testing.T) {
	calls := stubAWSConfig(t)

	f := captureFlags{bucket: "b", endpoint: "Abalone-Endpoint"}
	awsCfg, err := f.resolve(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", awsCfg.Region)
	assert.Equal(t, "Abalone-Endpoint", f.endpoint)
	assert.Equal(t, 1, *calls)
}

func TestGroundTruthPut_ValidatesBeforeAWS(t *testing.T) {
	calls := stubAWSConfig(t)

	for _, args := range [][]string{
		{"--rings", "9", "--bucket", "b"},
		{"--inference-id", "gt-1", "--rings", "-1", "--bucket", "b"},
		{"--inference-id", "gt-1", "--rings", "9", "--bucket", ""},
	} {
		cmd := newGroundTruthPutCmd(&config.Config{})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		assert.Error(t, cmd.Execute(), args)
	}
	assert.Zero(t, *calls)
}
