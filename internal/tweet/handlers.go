package tweet

import (
	"backend-chirper/internal/apperr"
	"backend-chirper/internal/auth"
	"backend-chirper/internal/validation"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/", func(c *fiber.Ctx) error {
		identity, err := auth.Caller(c)
		if err != nil {
			return err
		}
		var req TextRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Invalid("invalid payload")
		}
		post, err := svc.Create(c.Context(), identity, req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		identity, err := auth.Caller(c)
		if err != nil {
			return err
		}
		posts, err := svc.Mine(c.Context(), identity.AccountID)
		if err != nil {
			return err
		}
		return c.JSON(posts)
	})

	// registered ahead of /:id
	r.Get("/feed", func(c *fiber.Ctx) error {
		identity, err := auth.Caller(c)
		if err != nil {
			return err
		}
		posts, err := svc.Feed(c.Context(), identity.AccountID)
		if err != nil {
			return err
		}
		return c.JSON(posts)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		identity, postID, err := target(c)
		if err != nil {
			return err
		}
		post, err := svc.Get(c.Context(), identity.AccountID, postID)
		if err != nil {
			return err
		}
		return c.JSON(post)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		identity, postID, err := target(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.Context(), identity.AccountID, postID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "deleted"})
	})

	r.Post("/:id/like", func(c *fiber.Ctx) error {
		identity, postID, err := target(c)
		if err != nil {
			return err
		}
		result, err := svc.ToggleLike(c.Context(), identity, postID)
		if err != nil {
			return err
		}
		return c.JSON(result)
	})

	r.Get("/:id/likes", func(c *fiber.Ctx) error {
		identity, postID, err := target(c)
		if err != nil {
			return err
		}
		likers, err := svc.Likes(c.Context(), identity.AccountID, postID)
		if err != nil {
			return err
		}
		return c.JSON(likers)
	})

	r.Post("/:id/replies", func(c *fiber.Ctx) error {
		identity, postID, err := target(c)
		if err != nil {
			return err
		}
		var req TextRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Invalid("invalid payload")
		}
		reply, err := svc.Reply(c.Context(), identity, postID, req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(reply)
	})

	r.Get("/:id/replies", func(c *fiber.Ctx) error {
		identity, postID, err := target(c)
		if err != nil {
			return err
		}
		replies, err := svc.Replies(c.Context(), identity.AccountID, postID)
		if err != nil {
			return err
		}
		return c.JSON(replies)
	})
}

func target(c *fiber.Ctx) (auth.Identity, string, error) {
	identity, err := auth.Caller(c)
	if err != nil {
		return auth.Identity{}, "", err
	}
	postID, err := validation.ID(c.Params("id"), "tweet")
	if err != nil {
		return auth.Identity{}, "", err
	}
	return identity, postID, nil
}
