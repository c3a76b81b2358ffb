package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"abalone/internal/contact"
)

var ErrMissingEmail = errors.New("contact body has no email")

type contactRequest struct {
	Email *string `json:"email"`
}

func contactMessage(email string) string {
	return fmt.Sprintf("<b>Thank you!</b> We've received your message from <b>%s</b> and, we will respond shortly.", email)
}

// contact acknowledges the form. Storing and announcing the submission is
// best effort and never changes the reply.
func (h *FormHandler) contact(ctx context.Context, req events.APIGatewayV2HTTPRequest, body []byte, log logrus.FieldLogger) (int, string, error) {
	var in contactRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return 0, "", fmt.Errorf("parse contact body: %w", err)
	}
	if in.Email == nil {
		return 0, "", ErrMissingEmail
	}
	email := *in.Email

	if h.contacts != nil && h.contacts.Enabled() {
		s, err := h.contacts.Record(ctx, contact.Submission{
			Email:     email,
			RequestID: req.RequestContext.RequestID,
			SourceIP:  req.RequestContext.HTTP.SourceIP,
		})
		if err != nil {
			log.WithError(err).Warn("contact side effects failed")
		} else {
			log.WithField("submissionId", s.ID).Info("contact submission recorded")
		}
	}

	return http.StatusOK, contactMessage(email), nil
}
