package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"

	"abalone/internal/config"
	"abalone/internal/etl"
	"abalone/internal/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger := logging.New(cfg.LogLevel, config.IsLambda())

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.WithError(err).Fatal("load aws config")
	}

	name, err := config.ResolveEndpointName(ctx, ssm.NewFromConfig(awsCfg), cfg.Inference)
	if err != nil {
		logger.WithError(err).Fatal("resolve endpoint name")
	}

	h := etl.NewCaptureExport(awsCfg, etl.ExportConfigFrom(cfg, name), logger.WithField("endpoint", name))
	lambda.Start(h.Handle)
}
