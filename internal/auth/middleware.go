package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/devhub/devhub-api/pkg/util"
)

const bearerPrefix = "Bearer "

// Client-facing rejection messages. Every rejection shares the same status and shape.
const (
	MsgAuthorizationRequired = "authorization required"
	MsgInvalidFormat         = "invalid format"
	MsgTokenRequired         = "token required"
	MsgInvalidToken          = "invalid or expired token"
)

// AccessGate validates bearer tokens on protected routes. The request is
// passed through unmodified: the caller's identity is not attached.
type AccessGate struct {
	tokens TokenValidator
}

// NewAccessGate constructs middleware.
func NewAccessGate(tokens TokenValidator) *AccessGate {
	return &AccessGate{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (g *AccessGate) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized(MsgAuthorizationRequired)
	}

	token, err := BearerToken(authHeader)
	if err != nil {
		return err
	}

	if !g.tokens.Validate(c.UserContext(), token) {
		return apperrors.NewUnauthorized(MsgInvalidToken)
	}
	return c.Next()
}

// BearerToken extracts the token from "Bearer <token>". The scheme is case
// sensitive, separated by exactly one space, and the token may not contain spaces.
func BearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", apperrors.NewUnauthorized(MsgInvalidFormat)
	}
	token := header[len(bearerPrefix):]
	if token == "" {
		return "", apperrors.NewUnauthorized(MsgTokenRequired)
	}
	if strings.ContainsAny(token, " \t") {
		return "", apperrors.NewUnauthorized(MsgInvalidFormat)
	}
	return token, nil
}
