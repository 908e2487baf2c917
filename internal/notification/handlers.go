package notification

import (
	"backend-chirper/internal/auth"
	"backend-chirper/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const accountIDKey = "account_id"

func RegisterRoutes(r fiber.Router, svc *Service, hub *Hub, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		identity, err := auth.Caller(c)
		if err != nil {
			return err
		}
		list, err := svc.List(c.Context(), identity.AccountID, c.QueryBool("unread"))
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	r.Patch("/:id/read", authMiddleware, func(c *fiber.Ctx) error {
		identity, err := auth.Caller(c)
		if err != nil {
			return err
		}
		id, err := validation.ID(c.Params("id"), "notification")
		if err != nil {
			return err
		}
		if err := svc.MarkRead(c.Context(), id, identity.AccountID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "read"})
	})

	r.Post("/read-all", authMiddleware, func(c *fiber.Ctx) error {
		identity, err := auth.Caller(c)
		if err != nil {
			return err
		}
		if err := svc.MarkAllRead(c.Context(), identity.AccountID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "read"})
	})

	r.Get("/ws", upgradeOnly, authMiddleware, func(c *fiber.Ctx) error {
		identity, err := auth.Caller(c)
		if err != nil {
			return err
		}
		c.Locals(accountIDKey, identity.AccountID)
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		accountID, _ := c.Locals(accountIDKey).(string)
		client := hub.Register(accountID)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
