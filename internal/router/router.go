package router

import (
	"github.com/gofiber/fiber/v2"

	handlers "github.com/kunwarabhi7/car-rental/internal/http"
)

type Router struct {
	AuthHandler *handlers.AuthHandler
	AuthMW      fiber.Handler
	AuthLimiter fiber.Handler
}

func (r *Router) RegisterRoutes(app *fiber.App) {
	grp := app.Group("/api/auth")

	if r.AuthLimiter != nil {
		grp.Post("/signup", r.AuthLimiter, r.AuthHandler.Signup)
		grp.Post("/login", r.AuthLimiter, r.AuthHandler.Login)
	} else {
		grp.Post("/signup", r.AuthHandler.Signup)
		grp.Post("/login", r.AuthHandler.Login)
	}

	grp.Get("/google", r.AuthHandler.GoogleStart)
	grp.Get("/google/callback", r.AuthHandler.GoogleCallback)

	grp.Post("/refresh", r.AuthHandler.Refresh)
	grp.Post("/logout", r.AuthMW, r.AuthHandler.Logout)

	grp.Get("/me", r.AuthMW, r.AuthHandler.Me)
	grp.Get("/me/:id", r.AuthMW, r.AuthHandler.MeByID)
	grp.Put("/me/:id", r.AuthMW, r.AuthHandler.UpdateMe)
}
