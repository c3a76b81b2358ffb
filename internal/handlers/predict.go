package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"abalone/internal/inference"
)

const (
	headerInferenceID = "inference-id"

	msgUnavailable    = "<b>Age Calculator Unavailable!</b> Please try again later."
	msgUnsupportedSex = "Unsupported sex value."
)

func predictMessage(p *inference.Prediction) string {
	return fmt.Sprintf("We've calculated that the Abalone has <b>%d</b> rings and, is therefore approximately <b>%.1f</b> years old.", p.Rings, p.Age)
}

func (h *FormHandler) predict(ctx context.Context, req events.APIGatewayV2HTTPRequest, body []byte, log logrus.FieldLogger) (int, string, error) {
	features, err := inference.ParseFeatures(body)
	if err != nil {
		return 0, "", err
	}

	payload, err := features.Payload()
	if errors.Is(err, inference.ErrUnknownSex) {
		log.WithField("sex", features.Sex).Info("unsupported sex value")
		return http.StatusBadRequest, msgUnsupportedSex, nil
	}
	if err != nil {
		return 0, "", err
	}
	log.WithField("payload", payload).Info("sagemaker request payload")

	inferenceID := header(req.Headers, headerInferenceID)
	if inferenceID != "" {
		log = log.WithField("inferenceId", inferenceID)
	}

	p, err := h.predictor.Predict(ctx, payload, inferenceID)
	if err != nil {
		if msg, ok := inference.ClientErrorMessage(err); ok {
			log.WithError(err).Error(msg)
			return http.StatusOK, msgUnavailable, nil
		}
		return 0, "", err
	}
	log.WithFields(logrus.Fields{"rings": p.Rings, "raw": p.Raw}).Info("sagemaker prediction")

	return http.StatusOK, predictMessage(p), nil
}

// header looks a header up case-insensitively.
func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
