// Package httpx provides helper functions for creating HTTP responses.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// CORS headers sent on every response; any origin may call the functions.
const (
	AllowOrigin  = "*"
	AllowHeaders = "authorization, x-client-info, apikey, content-type"
)

// CORSHeaders returns a fresh copy of the CORS response headers.
func CORSHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  AllowOrigin,
		"Access-Control-Allow-Headers": AllowHeaders,
	}
}

// JSON creates a JSON HTTP response with the given status code and value.
func JSON(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(v)
	h := CORSHeaders()
	h["Content-Type"] = "application/json"
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    h,
		Body:       string(b),
	}, nil
}

// Error creates a JSON HTTP error response with the given status code and message.
func Error(status int, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return JSON(status, map[string]string{"error": msg})
}

// Preflight answers a CORS OPTIONS request with an empty body.
func Preflight() (events.APIGatewayV2HTTPResponse, error) {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusOK,
		Headers:    CORSHeaders(),
	}, nil
}
