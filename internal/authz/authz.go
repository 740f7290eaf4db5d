// Package authz resolves the calling user's id from a request.
package authz

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned when no user id can be resolved.
var ErrUnauthorized = errors.New("unauthorized")

// DevBypassHeader carries the user id directly when dev bypass is on.
const DevBypassHeader = "x-user-sub"

// --- small utils ---

// headerLookup returns the value of a header key from a map.
func headerLookup(h map[string]string, key string) string {
	if len(h) == 0 {
		return ""
	}
	lk := strings.ToLower(key)
	for k, v := range h {
		if strings.ToLower(k) == lk {
			return v
		}
	}
	return ""
}

// stringIf returns the string value of an interface{} if it is a non-empty string.
func stringIf(v any) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return ""
}

// BearerSubject extracts the "sub" claim from a token or an Authorization
// header value without verifying the signature. It returns "" when there is
// none.
func BearerSubject(auth string) string {
	if auth == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		auth = strings.TrimSpace(auth[len("bearer "):])
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(auth, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

// FromAPIGWv2 extracts the user id from an HTTP API (v2) request.
//
// Verified sources (JWT authorizer claims, Lambda authorizer context) are
// always honoured. The bypass header and the unverified bearer token are
// only read when devBypass is set.
func FromAPIGWv2(req events.APIGatewayV2HTTPRequest, devBypass bool) (string, error) {
	if a := req.RequestContext.Authorizer; a != nil {
		if a.JWT != nil {
			if sub := a.JWT.Claims["sub"]; sub != "" {
				return sub, nil
			}
		}
		if sub := stringIf(a.Lambda["sub"]); sub != "" {
			return sub, nil
		}
	}

	if devBypass {
		if sub := strings.TrimSpace(headerLookup(req.Headers, DevBypassHeader)); sub != "" {
			return sub, nil
		}
		if sub := BearerSubject(headerLookup(req.Headers, "Authorization")); sub != "" {
			return sub, nil
		}
	}
	return "", ErrUnauthorized
}

// FromHeader extracts the user id from plain HTTP headers. Used by the dev
// server, which has no authorizer in front of it, so devBypass must be on.
func FromHeader(h http.Header, devBypass bool) (string, error) {
	if !devBypass {
		return "", ErrUnauthorized
	}
	if sub := strings.TrimSpace(h.Get(DevBypassHeader)); sub != "" {
		return sub, nil
	}
	if sub := BearerSubject(h.Get("Authorization")); sub != "" {
		return sub, nil
	}
	return "", ErrUnauthorized
}
