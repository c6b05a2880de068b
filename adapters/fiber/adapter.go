// Package fiber exposes the store's operations over HTTP for the demo
// app edge. The core never depends on this package; it is one optional
// consumer of the engine boundary.
package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bodahq/boda"
)

// Adapter registers the boda routes on a Fiber app.
type Adapter struct {
	app *fiber.App
	db  *boda.Boda
}

func New(app *fiber.App, db *boda.Boda) *Adapter {
	return &Adapter{app: app, db: db}
}

// RegisterRoutes mounts every route group under basePath.
func (a *Adapter) RegisterRoutes(basePath string) {
	api := a.app.Group(basePath)

	users := api.Group("/users")
	users.Post("/register", a.registerUser)
	users.Post("/login", a.loginUser)
	users.Post("/logout", a.logoutUser)
	users.Get("/session", a.RequireUser, a.userSession)

	drivers := api.Group("/drivers")
	drivers.Post("/register", a.registerDriver)
	drivers.Post("/login", a.loginDriver)
	drivers.Post("/logout", a.logoutDriver)
	drivers.Get("/session", a.RequireDriver, a.driverSession)
	drivers.Post("/status", a.RequireDriver, a.setDriverStatus)
	drivers.Post("/location", a.RequireDriver, a.setDriverLocation)

	password := api.Group("/password")
	password.Post("/forgot", a.forgotPassword)
	password.Post("/reset", a.resetPassword)

	bookings := api.Group("/bookings", a.RequireUser)
	bookings.Get("/", a.listBookings)
	bookings.Post("/", a.addBooking)
	bookings.Get("/stats", a.bookingStats)
	bookings.Post("/:id/complete", a.completeBooking)
	bookings.Post("/:id/cancel", a.cancelBooking)
	bookings.Delete("/", a.clearBookings)

	admin := api.Group("/admin", a.RequireAdmin)
	admin.Get("/stats", a.stats)
	admin.Get("/backup", a.exportBackup)
	admin.Post("/restore", a.restoreBackup)
	admin.Post("/cleanup", a.cleanup)
}
