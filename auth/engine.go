// Package auth implements registration, credential login, session
// issuance and validation, and the password-reset lifecycle for the
// two identity realms: riders and drivers.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bodahq/boda/core"
	"github.com/bodahq/boda/pkg/crypto"
	"github.com/bodahq/boda/store"
)

// Engine is the authentication engine. It reads and writes exclusively
// through the record store; it has no storage of its own. Mutating
// operations run inside the store's Transact lock so concurrent calls
// serialize instead of losing updates.
type Engine struct {
	records    *store.Records
	passwords  crypto.PasswordHandler
	cache      core.Cache // optional, nil disables session caching
	sessionTTL time.Duration
	resetTTL   time.Duration
	log        *logrus.Logger
}

// Config wires an Engine.
type Config struct {
	Records    *store.Records
	Passwords  crypto.PasswordHandler // defaults to Argon2id
	Cache      core.Cache             // optional
	SessionTTL time.Duration          // defaults to 24h
	ResetTTL   time.Duration          // defaults to 1h
	Logger     *logrus.Logger
}

const (
	defaultSessionTTL = 24 * time.Hour
	defaultResetTTL   = time.Hour
	minPasswordLen    = 6
)

func New(cfg Config) *Engine {
	passwords := cfg.Passwords
	if passwords == nil {
		passwords = crypto.NewArgon2()
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	resetTTL := cfg.ResetTTL
	if resetTTL <= 0 {
		resetTTL = defaultResetTTL
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		records:    cfg.Records,
		passwords:  passwords,
		cache:      cfg.Cache,
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		log:        log,
	}
}

// ============================================
// RIDERS
// ============================================

// RegisterUserInput contains the profile fields for a new rider.
type RegisterUserInput struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Password string    `json:"password"`
	Role     core.Role `json:"role,omitempty"`
}

// UserAuth is returned by rider registration and login: the account,
// the stored session row and the raw bearer token (the only time the
// raw token is ever visible).
type UserAuth struct {
	User    *core.User    `json:"user"`
	Session *core.Session `json:"session"`
	Token   string        `json:"token"`
}

// UserSessionData is the validated view of a rider session.
type UserSessionData struct {
	User    *core.User    `json:"user"`
	Session *core.Session `json:"session"`
}

// RegisterUser creates a rider account and immediately signs it in.
// Registration and first login are one user-visible operation.
func (e *Engine) RegisterUser(input RegisterUserInput, ipAddress, userAgent string) (*UserAuth, error) {
	if err := validateProfile(input.Name, input.Email, input.Phone, input.Password); err != nil {
		return nil, err
	}

	// Hashing is the slow part; keep it outside the operation lock.
	hash, err := e.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := crypto.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	role := input.Role
	if role == "" {
		role = core.RoleUser
	}

	var result *UserAuth
	err = e.records.Transact(func() error {
		users, err := e.records.Users()
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		for _, u := range users {
			if identityMatch(u.Email, input.Email) || u.Phone == input.Phone {
				return core.ErrDuplicateIdentity
			}
		}

		now := time.Now()
		user := core.User{
			ID:           id,
			Name:         input.Name,
			Email:        input.Email,
			Phone:        input.Phone,
			PasswordHash: hash,
			Role:         role,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := e.records.SaveUsers(append(users, user)); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		session, token, err := e.issueSession(e.userRealm(), user.ID, ipAddress, userAgent)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		result = &UserAuth{User: &user, Session: session, Token: token}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithField("userId", result.User.ID).Info("rider account created")
	return result, nil
}

// LoginUser authenticates a rider by email or phone. The error never
// distinguishes a missing account from a wrong password.
func (e *Engine) LoginUser(identifier, password, ipAddress, userAgent string) (*UserAuth, error) {
	var result *UserAuth
	err := e.records.Transact(func() error {
		users, err := e.records.Users()
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}

		idx := -1
		for i, u := range users {
			if u.IsActive && (identityMatch(u.Email, identifier) || u.Phone == identifier) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return core.ErrInvalidCredentials
		}

		valid, err := e.passwords.Verify(password, users[idx].PasswordHash)
		if err != nil || !valid {
			return core.ErrInvalidCredentials
		}

		now := time.Now()
		users[idx].LastLoginAt = &now
		if err := e.records.SaveUsers(users); err != nil {
			return fmt.Errorf("failed to record login: %w", err)
		}

		session, token, err := e.issueSession(e.userRealm(), users[idx].ID, ipAddress, userAgent)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		user := users[idx]
		result = &UserAuth{User: &user, Session: session, Token: token}
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			e.log.WithField("realm", "user").Debug("login rejected")
		}
		return nil, err
	}
	return result, nil
}

// ValidateUserSession resolves a bearer token to the rider that owns
// it. Revoked, expired, unknown tokens and deactivated accounts all
// come back as ErrInvalidToken.
func (e *Engine) ValidateUserSession(token string) (*UserSessionData, error) {
	session, err := e.lookupSession(e.userRealm(), token)
	if err != nil {
		return nil, err
	}

	users, err := e.records.Users()
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		if u.ID == session.AccountID {
			if !u.IsActive {
				return nil, core.ErrInvalidToken
			}
			user := u
			return &UserSessionData{User: &user, Session: session}, nil
		}
	}
	return nil, core.ErrInvalidToken
}

// LogoutUser revokes the session behind the token. Idempotent; an
// unknown or already-revoked token is not an error.
func (e *Engine) LogoutUser(token string) error {
	return e.records.Transact(func() error {
		return e.revokeSession(e.userRealm(), token)
	})
}

// ============================================
// DRIVERS
// ============================================

// RegisterDriverInput contains the profile fields for a new driver.
type RegisterDriverInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Password      string `json:"password"`
	VehicleNumber string `json:"vehicleNumber"`
	LicenseNumber string `json:"licenseNumber"`
}

// DriverAuth mirrors UserAuth for the driver realm.
type DriverAuth struct {
	Driver  *core.Driver  `json:"driver"`
	Session *core.Session `json:"session"`
	Token   string        `json:"token"`
}

// DriverSessionData is the validated view of a driver session.
type DriverSessionData struct {
	Driver  *core.Driver  `json:"driver"`
	Session *core.Session `json:"session"`
}

// RegisterDriver creates a driver account and immediately signs it in.
// New drivers start offline, unverified, with a clean 5.0 rating.
func (e *Engine) RegisterDriver(input RegisterDriverInput, ipAddress, userAgent string) (*DriverAuth, error) {
	if err := validateProfile(input.Name, input.Email, input.Phone, input.Password); err != nil {
		return nil, err
	}
	if input.VehicleNumber == "" {
		return nil, core.ErrVehicleRequired
	}
	if input.LicenseNumber == "" {
		return nil, core.ErrLicenseRequired
	}

	hash, err := e.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := crypto.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	var result *DriverAuth
	err = e.records.Transact(func() error {
		drivers, err := e.records.Drivers()
		if err != nil {
			return fmt.Errorf("failed to load drivers: %w", err)
		}
		for _, d := range drivers {
			if identityMatch(d.Email, input.Email) || d.Phone == input.Phone ||
				d.VehicleNumber == input.VehicleNumber || d.LicenseNumber == input.LicenseNumber {
				return core.ErrDuplicateIdentity
			}
		}

		now := time.Now()
		driver := core.Driver{
			ID:            id,
			Name:          input.Name,
			Email:         input.Email,
			Phone:         input.Phone,
			PasswordHash:  hash,
			VehicleNumber: input.VehicleNumber,
			LicenseNumber: input.LicenseNumber,
			IsActive:      true,
			IsVerified:    false,
			Rating:        5.0,
			Status:        core.DriverOffline,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := e.records.SaveDrivers(append(drivers, driver)); err != nil {
			return fmt.Errorf("failed to create driver: %w", err)
		}

		session, token, err := e.issueSession(e.driverRealm(), driver.ID, ipAddress, userAgent)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		result = &DriverAuth{Driver: &driver, Session: session, Token: token}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithField("driverId", result.Driver.ID).Info("driver account created")
	return result, nil
}

// LoginDriver authenticates a driver by email or phone.
func (e *Engine) LoginDriver(identifier, password, ipAddress, userAgent string) (*DriverAuth, error) {
	var result *DriverAuth
	err := e.records.Transact(func() error {
		drivers, err := e.records.Drivers()
		if err != nil {
			return fmt.Errorf("failed to load drivers: %w", err)
		}

		idx := -1
		for i, d := range drivers {
			if d.IsActive && (identityMatch(d.Email, identifier) || d.Phone == identifier) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return core.ErrInvalidCredentials
		}

		valid, err := e.passwords.Verify(password, drivers[idx].PasswordHash)
		if err != nil || !valid {
			return core.ErrInvalidCredentials
		}

		now := time.Now()
		drivers[idx].LastLoginAt = &now
		if err := e.records.SaveDrivers(drivers); err != nil {
			return fmt.Errorf("failed to record login: %w", err)
		}

		session, token, err := e.issueSession(e.driverRealm(), drivers[idx].ID, ipAddress, userAgent)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		driver := drivers[idx]
		result = &DriverAuth{Driver: &driver, Session: session, Token: token}
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			e.log.WithField("realm", "driver").Debug("login rejected")
		}
		return nil, err
	}
	return result, nil
}

// ValidateDriverSession resolves a bearer token to the driver that
// owns it.
func (e *Engine) ValidateDriverSession(token string) (*DriverSessionData, error) {
	session, err := e.lookupSession(e.driverRealm(), token)
	if err != nil {
		return nil, err
	}

	drivers, err := e.records.Drivers()
	if err != nil {
		return nil, fmt.Errorf("failed to load drivers: %w", err)
	}
	for _, d := range drivers {
		if d.ID == session.AccountID {
			if !d.IsActive {
				return nil, core.ErrInvalidToken
			}
			driver := d
			return &DriverSessionData{Driver: &driver, Session: session}, nil
		}
	}
	return nil, core.ErrInvalidToken
}

// LogoutDriver revokes the session behind the token. Idempotent.
func (e *Engine) LogoutDriver(token string) error {
	return e.records.Transact(func() error {
		return e.revokeSession(e.driverRealm(), token)
	})
}

// ============================================
// SHARED VALIDATION
// ============================================

func validateProfile(name, email, phone, password string) error {
	if name == "" {
		return core.ErrNameRequired
	}
	if email == "" {
		return core.ErrEmailRequired
	}
	if phone == "" {
		return core.ErrPhoneRequired
	}
	if password == "" {
		return core.ErrPasswordRequired
	}
	if len(password) < minPasswordLen {
		return core.ErrPasswordTooShort
	}
	return nil
}

// identityMatch compares emails case-insensitively.
func identityMatch(stored, candidate string) bool {
	return candidate != "" && strings.EqualFold(stored, candidate)
}
