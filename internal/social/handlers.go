package social

import (
	"backend-chirper/internal/auth"
	"backend-chirper/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the profile routes on users and the follow edge routes on follows.
func RegisterRoutes(users, follows fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	users.Get("/suggestions", authMiddleware, func(c *fiber.Ctx) error {
		identity, err := auth.Caller(c)
		if err != nil {
			return err
		}
		list, err := svc.Suggestions(c.Context(), identity.AccountID, c.QueryInt("limit", defaultSuggestions))
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	users.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		identity, err := auth.Caller(c)
		if err != nil {
			return err
		}
		id, err := validation.ID(c.Params("id"), "user")
		if err != nil {
			return err
		}
		profile, err := svc.Profile(c.Context(), identity.AccountID, id)
		if err != nil {
			return err
		}
		return c.JSON(profile)
	})

	users.Get("/:id/followers", authMiddleware, func(c *fiber.Ctx) error {
		id, err := validation.ID(c.Params("id"), "user")
		if err != nil {
			return err
		}
		list, err := svc.Followers(c.Context(), id)
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	users.Get("/:id/following", authMiddleware, func(c *fiber.Ctx) error {
		id, err := validation.ID(c.Params("id"), "user")
		if err != nil {
			return err
		}
		list, err := svc.Following(c.Context(), id)
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	follows.Post("/:id", authMiddleware, func(c *fiber.Ctx) error {
		identity, err := auth.Caller(c)
		if err != nil {
			return err
		}
		id, err := validation.ID(c.Params("id"), "user")
		if err != nil {
			return err
		}
		if err := svc.Follow(c.Context(), identity, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "followed"})
	})

	follows.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		identity, err := auth.Caller(c)
		if err != nil {
			return err
		}
		id, err := validation.ID(c.Params("id"), "user")
		if err != nil {
			return err
		}
		if err := svc.Unfollow(c.Context(), identity.AccountID, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "unfollowed"})
	})
}
