package authz

import (
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// token signs with a throwaway key; the signature is never checked.
func token(t *testing.T, sub string) string {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte("k"))
	require.NoError(t, err)
	return "Bearer " + s
}

func TestFromAPIGWv2JWTClaims(t *testing.T) {
	req := events.APIGatewayV2HTTPRequest{}
	req.RequestContext.Authorizer = &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
		JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
			Claims: map[string]string{"sub": "u1"},
		},
	}
	sub, err := FromAPIGWv2(req, false)
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)
}

func TestFromAPIGWv2LambdaAuthorizer(t *testing.T) {
	req := events.APIGatewayV2HTTPRequest{}
	req.RequestContext.Authorizer = &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
		Lambda: map[string]interface{}{"sub": "u2"},
	}
	sub, err := FromAPIGWv2(req, false)
	require.NoError(t, err)
	assert.Equal(t, "u2", sub)
}

func TestFromAPIGWv2DevBypass(t *testing.T) {
	req := events.APIGatewayV2HTTPRequest{Headers: map[string]string{"X-User-Sub": "dev"}}

	_, err := FromAPIGWv2(req, false)
	assert.ErrorIs(t, err, ErrUnauthorized)

	sub, err := FromAPIGWv2(req, true)
	require.NoError(t, err)
	assert.Equal(t, "dev", sub)
}

func TestFromAPIGWv2BearerOnlyInDev(t *testing.T) {
	req := events.APIGatewayV2HTTPRequest{Headers: map[string]string{"authorization": token(t, "u3")}}

	_, err := FromAPIGWv2(req, false)
	assert.ErrorIs(t, err, ErrUnauthorized)

	sub, err := FromAPIGWv2(req, true)
	require.NoError(t, err)
	assert.Equal(t, "u3", sub)
}

func TestFromHeader(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", token(t, "u4"))

	_, err := FromHeader(h, false)
	assert.ErrorIs(t, err, ErrUnauthorized)

	sub, err := FromHeader(h, true)
	require.NoError(t, err)
	assert.Equal(t, "u4", sub)

	_, err = FromHeader(http.Header{"Authorization": {"Bearer garbage"}}, true)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestBearerSubject(t *testing.T) {
	raw := token(t, "u5")
	assert.Equal(t, "u5", BearerSubject(raw))
	assert.Equal(t, "u5", BearerSubject(raw[len("Bearer "):]))
	assert.Empty(t, BearerSubject(""))
	assert.Empty(t, BearerSubject("Bearer garbage"))
}
