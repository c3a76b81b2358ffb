package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"abalone/internal/config"
)

type HealthResponse struct {
	OK          bool   `json:"ok"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
	Endpoint    bool   `json:"endpointConfigured"`
}

func newHealth(cfg *config.Config) HealthResponse {
	return HealthResponse{
		OK:          true,
		Service:     "abalone-form-handler",
		Environment: cfg.Environment,
		Endpoint:    cfg.Inference.EndpointName != "" || cfg.Inference.EndpointParam != "",
	}
}

func handler(h HealthResponse) func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, _ := json.Marshal(h)
	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return events.APIGatewayV2HTTPResponse{
			StatusCode: 200,
			Headers: map[string]string{
				"content-type":                "application/json",
				"access-control-allow-origin": "*",
			},
			Body: string(body),
		}, nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	lambda.Start(handler(newHealth(cfg)))
}
