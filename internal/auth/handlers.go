package auth

import (
	"time"

	"backend-chirper/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

type CookieOptions struct {
	Secure bool
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler, cookies CookieOptions) {
	r.Post("/register", func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Invalid("invalid payload")
		}
		account, err := svc.Register(c.Context(), req)
		if err != nil {
			return err
		}
		return c.JSON(account)
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Invalid("invalid payload")
		}
		resp, err := svc.Login(c.Context(), req)
		if err != nil {
			return err
		}
		c.Cookie(&fiber.Cookie{
			Name:     CookieNames[0],
			Value:    resp.Token,
			Path:     "/",
			Expires:  resp.ExpiresAt,
			HTTPOnly: true,
			Secure:   cookies.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(resp)
	})

	r.Post("/logout", func(c *fiber.Ctx) error {
		for _, name := range CookieNames {
			c.Cookie(&fiber.Cookie{
				Name:     name,
				Value:    "",
				Path:     "/",
				Expires:  time.Unix(0, 0),
				HTTPOnly: true,
				Secure:   cookies.Secure,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		return c.JSON(fiber.Map{"status": "logged out"})
	})

	r.Get("/me", authMiddleware, func(c *fiber.Ctx) error {
		identity, err := Caller(c)
		if err != nil {
			return err
		}
		account, err := svc.Me(c.Context(), identity)
		if err != nil {
			return err
		}
		return c.JSON(account)
	})
}
