package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"abalone/internal/contact"
	"abalone/internal/inference"
)

const (
	PathContact = "/api/contact"
	PathPredict = "/api/predict"
)

const (
	msgUnsupportedMethod = "Unsupported method."
	msgUnsupportedPath   = "Unsupported path."
)

// Predictor is satisfied by *inference.Endpoint.
type Predictor interface {
	Predict(ctx context.Context, payload, inferenceID string) (*inference.Prediction, error)
}

// ContactRecorder is satisfied by *contact.Recorder.
type ContactRecorder interface {
	Enabled() bool
	Record(ctx context.Context, s contact.Submission) (*contact.Submission, error)
}

// FormHandler serves the website's contact and predict forms behind an HTTP API.
type FormHandler struct {
	predictor Predictor
	contacts  ContactRecorder
	log       logrus.FieldLogger
}

// NewFormHandler wires the handler. contacts may be nil when no contact
// side effects are configured.
func NewFormHandler(p Predictor, contacts ContactRecorder, log logrus.FieldLogger) *FormHandler {
	return &FormHandler{predictor: p, contacts: contacts, log: log}
}

// Handle is the Lambda entry point. Errors it returns are reported by the
// runtime as failed invocations.
func (h *FormHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	log := h.log.WithFields(logrus.Fields{
		"method":    req.RequestContext.HTTP.Method,
		"path":      req.RawPath,
		"requestId": req.RequestContext.RequestID,
	})
	log.Info("processing request")

	if req.RequestContext.HTTP.Method != http.MethodPost {
		log.Info("request is not using POST")
		return jsonResp(req, http.StatusBadRequest, msgUnsupportedMethod), nil
	}

	status, message, err := h.route(ctx, req, log)
	if err != nil {
		log.WithError(err).Error("request failed")
		return events.APIGatewayV2HTTPResponse{}, err
	}
	log.WithField("status", status).Info("responding")
	return jsonResp(req, status, message), nil
}

func (h *FormHandler) route(ctx context.Context, req events.APIGatewayV2HTTPRequest, log logrus.FieldLogger) (int, string, error) {
	switch req.RawPath {
	case PathContact:
		body, err := requestBody(req)
		if err != nil {
			return 0, "", err
		}
		return h.contact(ctx, req, body, log)
	case PathPredict:
		body, err := requestBody(req)
		if err != nil {
			return 0, "", err
		}
		return h.predict(ctx, req, body, log)
	default:
		log.Info("request outside of scope")
		return http.StatusBadRequest, msgUnsupportedPath, nil
	}
}

func requestBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, fmt.Errorf("decode base64 body: %w", err)
	}
	return b, nil
}
