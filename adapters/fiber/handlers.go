package fiber

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bodahq/boda"
	"github.com/bodahq/boda/auth"
	"github.com/bodahq/boda/core"
	"github.com/bodahq/boda/history"
)

// ============================================
// RIDERS
// ============================================

func (a *Adapter) registerUser(c fiber.Ctx) error {
	var input auth.RegisterUserInput
	if err := c.Bind().Body(&input); err != nil {
		return badBody(c)
	}
	// Role assignment is not client-controlled.
	input.Role = ""

	result, err := a.db.Auth.RegisterUser(input, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return handleError(c, err)
	}

	sanitizeUserAuth(result)
	return c.Status(http.StatusCreated).JSON(result)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (a *Adapter) loginUser(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().Body(&req); err != nil {
		return badBody(c)
	}

	result, err := a.db.Auth.LoginUser(req.Identifier, req.Password, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return handleError(c, err)
	}

	sanitizeUserAuth(result)
	return c.Status(http.StatusOK).JSON(result)
}

func (a *Adapter) logoutUser(c fiber.Ctx) error {
	if err := a.db.Auth.LogoutUser(extractToken(c)); err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "logged out"})
}

func (a *Adapter) userSession(c fiber.Ctx) error {
	user := c.Locals("user").(*core.User)
	session := c.Locals("session").(*core.Session)
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user":    sanitizeUser(user),
		"session": sanitizeSession(session),
	})
}

// ============================================
// DRIVERS
// ============================================

func (a *Adapter) registerDriver(c fiber.Ctx) error {
	var input auth.RegisterDriverInput
	if err := c.Bind().Body(&input); err != nil {
		return badBody(c)
	}

	result, err := a.db.Auth.RegisterDriver(input, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return handleError(c, err)
	}

	sanitizeDriverAuth(result)
	return c.Status(http.StatusCreated).JSON(result)
}

func (a *Adapter) loginDriver(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().Body(&req); err != nil {
		return badBody(c)
	}

	result, err := a.db.Auth.LoginDriver(req.Identifier, req.Password, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return handleError(c, err)
	}

	sanitizeDriverAuth(result)
	return c.Status(http.StatusOK).JSON(result)
}

func (a *Adapter) logoutDriver(c fiber.Ctx) error {
	if err := a.db.Auth.LogoutDriver(extractToken(c)); err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "logged out"})
}

func (a *Adapter) driverSession(c fiber.Ctx) error {
	driver := c.Locals("driver").(*core.Driver)
	session := c.Locals("session").(*core.Session)
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"driver":  sanitizeDriver(driver),
		"session": sanitizeSession(session),
	})
}

type statusRequest struct {
	Status core.DriverStatus `json:"status"`
}

func (a *Adapter) setDriverStatus(c fiber.Ctx) error {
	driver := c.Locals("driver").(*core.Driver)

	var req statusRequest
	if err := c.Bind().Body(&req); err != nil {
		return badBody(c)
	}

	if err := a.db.Auth.SetDriverStatus(driver.ID, req.Status); err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": req.Status})
}

type locationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (a *Adapter) setDriverLocation(c fiber.Ctx) error {
	driver := c.Locals("driver").(*core.Driver)

	var req locationRequest
	if err := c.Bind().Body(&req); err != nil {
		return badBody(c)
	}

	if err := a.db.Auth.UpdateDriverLocation(driver.ID, req.Latitude, req.Longitude); err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "location updated"})
}

// ============================================
// PASSWORD RESET
// ============================================

type forgotRequest struct {
	Identifier string `json:"identifier"`
}

func (a *Adapter) forgotPassword(c fiber.Ctx) error {
	var req forgotRequest
	if err := c.Bind().Body(&req); err != nil {
		return badBody(c)
	}

	token, err := a.db.Auth.RequestPasswordReset(req.Identifier)
	if err != nil {
		return handleError(c, err)
	}

	// Constant response either way; the token rides along only because
	// this demo has no out-of-band delivery channel.
	resp := fiber.Map{"message": "if the account exists, a reset token has been issued"}
	if token != "" {
		resp["token"] = token
	}
	return c.Status(http.StatusOK).JSON(resp)
}

type resetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (a *Adapter) resetPassword(c fiber.Ctx) error {
	var req resetRequest
	if err := c.Bind().Body(&req); err != nil {
		return badBody(c)
	}

	if err := a.db.Auth.ResetPassword(req.Token, req.NewPassword); err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "password updated"})
}

// ============================================
// BOOKING HISTORY
// ============================================

func (a *Adapter) ledger(c fiber.Ctx) *history.Ledger {
	user := c.Locals("user").(*core.User)
	return a.db.History.ForUser(user.ID)
}

func (a *Adapter) listBookings(c fiber.Ctx) error {
	criteria := history.Criteria{
		Status:      core.BookingStatus(c.Query("status")),
		DriverQuery: c.Query("driver"),
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return badParam(c, "from")
		}
		criteria.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return badParam(c, "to")
		}
		criteria.To = &t
	}

	bookings, err := a.ledger(c).Filter(criteria)
	if err != nil {
		return handleError(c, err)
	}
	if bookings == nil {
		bookings = []core.Booking{}
	}
	return c.Status(http.StatusOK).JSON(bookings)
}

func (a *Adapter) addBooking(c fiber.Ctx) error {
	var input history.AddInput
	if err := c.Bind().Body(&input); err != nil {
		return badBody(c)
	}

	booking, err := a.ledger(c).Add(input)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(booking)
}

type completeRequest struct {
	DurationMin *int     `json:"durationMin,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Feedback    *string  `json:"feedback,omitempty"`
}

func (a *Adapter) completeBooking(c fiber.Ctx) error {
	var req completeRequest
	if err := c.Bind().Body(&req); err != nil {
		return badBody(c)
	}

	ok, err := a.ledger(c).Complete(c.Params("id"), history.CompleteOptions{
		DurationMin: req.DurationMin,
		Rating:      req.Rating,
		Feedback:    req.Feedback,
	})
	if err != nil {
		return handleError(c, err)
	}
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "booking not found"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "booking completed"})
}

func (a *Adapter) cancelBooking(c fiber.Ctx) error {
	ok, err := a.ledger(c).Cancel(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "booking not found"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "booking cancelled"})
}

func (a *Adapter) bookingStats(c fiber.Ctx) error {
	stats, err := a.ledger(c).Stats()
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(stats)
}

func (a *Adapter) clearBookings(c fiber.Ctx) error {
	if err := a.ledger(c).Clear(); err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "history cleared"})
}

// ============================================
// ADMIN
// ============================================

func (a *Adapter) stats(c fiber.Ctx) error {
	stats, err := a.db.Backup.Stats()
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(stats)
}

func (a *Adapter) exportBackup(c fiber.Ctx) error {
	doc, err := a.db.Backup.Export()
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(doc)
}

// restoreBackup wipes and replaces every account collection. The
// destructive-confirmation UI belongs to the caller; the API only
// insists the document itself is sound.
func (a *Adapter) restoreBackup(c fiber.Ctx) error {
	if err := a.db.Backup.Restore(c.Body()); err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "store restored"})
}

func (a *Adapter) cleanup(c fiber.Ctx) error {
	if err := a.db.Backup.CleanupExpired(); err != nil {
		return handleError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "cleanup finished"})
}

// ============================================
// SHARED
// ============================================

func badBody(c fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
}

func badParam(c fiber.Ctx, name string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid query parameter: " + name})
}

// handleError maps engine errors to HTTP status codes.
func handleError(c fiber.Ctx, err error) error {
	return c.Status(mapErrorToStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, boda.ErrInvalidCredentials),
		errors.Is(err, boda.ErrInvalidToken):
		return http.StatusUnauthorized

	case errors.Is(err, boda.ErrDuplicateIdentity):
		return http.StatusConflict

	case errors.Is(err, boda.ErrAccountNotFound):
		return http.StatusNotFound

	case core.IsInvalidInput(err), errors.Is(err, boda.ErrInvalidBackup):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// Responses re-use the storage structs, so secret-bearing fields are
// blanked on copies before they go out.

func sanitizeUser(u *core.User) *core.User {
	cp := *u
	cp.PasswordHash = ""
	return &cp
}

func sanitizeDriver(d *core.Driver) *core.Driver {
	cp := *d
	cp.PasswordHash = ""
	return &cp
}

func sanitizeSession(s *core.Session) *core.Session {
	cp := *s
	cp.TokenHash = ""
	return &cp
}

func sanitizeUserAuth(r *auth.UserAuth) {
	r.User = sanitizeUser(r.User)
	r.Session = sanitizeSession(r.Session)
}

func sanitizeDriverAuth(r *auth.DriverAuth) {
	r.Driver = sanitizeDriver(r.Driver)
	r.Session = sanitizeSession(r.Session)
}
