// Package inference invokes the hosted abalone model and interprets its output.
package inference

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/aws/smithy-go"
)

const ContentTypeCSV = "text/csv"

// YearsPerRing converts a ring count to an age estimate.
const YearsPerRing = 1.5

var ErrBadPrediction = errors.New("endpoint returned a non-numeric prediction")

type Client interface {
	InvokeEndpoint(ctx context.Context, params *sagemakerruntime.InvokeEndpointInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
}

// Endpoint is a process-scoped handle to one SageMaker endpoint.
type Endpoint struct {
	client Client
	name   string
}

func NewEndpoint(cfg aws.Config, name string) *Endpoint {
	return NewEndpointWithClient(sagemakerruntime.NewFromConfig(cfg), name)
}

func NewEndpointWithClient(c Client, name string) *Endpoint {
	return &Endpoint{client: c, name: name}
}

func (e *Endpoint) Name() string { return e.name }

type Prediction struct {
	Rings int
	Age   float64
	Raw   string
}

// Predict sends a text/csv payload. inferenceID is forwarded as the ground
// truth correlation id when non-empty.
func (e *Endpoint) Predict(ctx context.Context, payload, inferenceID string) (*Prediction, error) {
	in := &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(e.name),
		ContentType:  aws.String(ContentTypeCSV),
		Body:         []byte(payload),
	}
	if inferenceID != "" {
		in.InferenceId = aws.String(inferenceID)
	}

	out, err := e.client.InvokeEndpoint(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("sagemaker InvokeEndpoint %s: %w", e.name, err)
	}
	return ParsePrediction(out.Body)
}

// ParsePrediction keeps the integer part of the model output, e.g. "9.123" is 9 rings.
func ParsePrediction(body []byte) (*Prediction, error) {
	raw := strings.TrimSpace(string(body))
	whole, _, _ := strings.Cut(raw, ".")
	rings, err := strconv.Atoi(strings.TrimSpace(whole))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadPrediction, raw)
	}
	return &Prediction{
		Rings: rings,
		Age:   float64(rings) * YearsPerRing,
		Raw:   raw,
	}, nil
}

// ClientErrorMessage reports whether err carries an error returned by the
// service, along with its message. Transport and credential failures are not
// service errors.
func ClientErrorMessage(err error) (string, bool) {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return "", false
	}
	msg := apiErr.ErrorMessage()
	if msg == "" {
		msg = apiErr.ErrorCode()
	}
	return msg, true
}
