package handlers

import (
	"bytes"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
)

type messageBody struct {
	Message string `json:"message"`
}

// jsonResp wraps a {"message": ...} body. Markup in the message is sent as is.
// The request's headers and base64 flag are echoed back unchanged.
func jsonResp(req events.APIGatewayV2HTTPRequest, status int, message string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode:      status,
		Headers:         req.Headers,
		Body:            encodeMessage(message),
		IsBase64Encoded: req.IsBase64Encoded,
	}
}

func encodeMessage(message string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a plain struct of one string cannot fail.
	_ = enc.Encode(messageBody{Message: message})
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
