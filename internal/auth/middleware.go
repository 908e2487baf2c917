package auth

import (
	"strings"

	"backend-chirper/internal/apperr"
	"backend-chirper/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const identityKey = "identity"

// CookieNames lists the cookies a credential is read from, in precedence order.
// jwtToken is accepted for older clients.
var CookieNames = []string{"token", "jwtToken"}

// Credential extracts the raw token. A present Authorization header is the
// credential even when malformed; cookies are only read without one.
func Credential(c *fiber.Ctx) (string, error) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		token := bearerFromHeader(header)
		if token == "" {
			return "", ErrInvalid
		}
		return token, nil
	}
	for _, name := range CookieNames {
		if token := c.Cookies(name); token != "" {
			return token, nil
		}
	}
	return "", nil
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Middleware verifies the caller's credential and stores the Identity in locals.
// Every credential failure produces the same 401 body.
func Middleware(gate *Gate, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := Credential(c)
		var identity Identity
		if err == nil {
			identity, err = gate.Verify(c.Context(), token)
		}
		if err != nil {
			reason := Reason(err)
			if reason == "" {
				return err
			}
			metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
			log.Info("credential rejected",
				zap.String("reason", reason),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return apperr.E(apperr.KindUnauthorized, "unauthorized")
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

func IdentityFrom(c *fiber.Ctx) (Identity, bool) {
	identity, ok := c.Locals(identityKey).(Identity)
	return identity, ok
}

// Caller returns the verified identity or a 401 when the route was not guarded.
func Caller(c *fiber.Ctx) (Identity, error) {
	identity, ok := IdentityFrom(c)
	if !ok {
		return Identity{}, apperr.E(apperr.KindUnauthorized, "unauthorized")
	}
	return identity, nil
}
