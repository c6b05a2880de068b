// Package boda is an embeddable data store for demo ride-hailing
// apps: durable typed collections over a pluggable key-value adapter,
// an authentication engine for rider and driver accounts, per-user
// booking history, and backup/restore with expiry cleanup.
package boda

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bodahq/boda/auth"
	"github.com/bodahq/boda/backup"
	"github.com/bodahq/boda/core"
	"github.com/bodahq/boda/history"
	"github.com/bodahq/boda/pkg/cache"
	"github.com/bodahq/boda/pkg/crypto"
	"github.com/bodahq/boda/store"
)

// interfaces
type (
	Storage = core.Storage
	Cache   = core.Cache

	PasswordHandler = crypto.PasswordHandler
)

// entities
type (
	User          = core.User
	Driver        = core.Driver
	Session       = core.Session
	PasswordReset = core.PasswordReset
	Booking       = core.Booking
	DriverSummary = core.DriverSummary
	DatabaseStats = core.DatabaseStats
)

// engine inputs and results
type (
	RegisterUserInput   = auth.RegisterUserInput
	RegisterDriverInput = auth.RegisterDriverInput
	UserAuth            = auth.UserAuth
	DriverAuth          = auth.DriverAuth
	BackupDocument      = backup.Document
	BookingCriteria     = history.Criteria
	BookingStats        = history.Stats
)

// Constructors & helpers (convenience re-exports)
var (
	NewMemoryCache = cache.NewMemory
	NewArgon2      = crypto.NewArgon2
)

var (
	ErrDuplicateIdentity  = core.ErrDuplicateIdentity
	ErrAccountNotFound    = core.ErrAccountNotFound
	ErrInvalidCredentials = core.ErrInvalidCredentials
	ErrInvalidToken       = core.ErrInvalidToken
	ErrInvalidInput       = core.ErrInvalidInput
	ErrPasswordTooShort   = core.ErrPasswordTooShort
	ErrInvalidBackup      = core.ErrInvalidBackup
	ErrStorageFailure     = core.ErrStorageFailure
	ErrStorageRequired    = core.ErrStorageRequired
)

const (
	defaultSessionTTL = 24 * time.Hour
	defaultResetTTL   = time.Hour
)

// Config wires a store instance. Storage is the only required field.
type Config struct {
	Storage core.Storage

	// Optional config
	SessionTTL     time.Duration // bearer session lifetime, default 24h
	ResetTTL       time.Duration // password reset token lifetime, default 1h
	Logger         *logrus.Logger
	CacheAdapter   core.Cache // session cache; built automatically unless disabled
	DisableCache   bool
	PasswordHasher crypto.PasswordHandler
}

// Boda bundles the engines over one record store. One instance per
// storage adapter; there is no process-wide singleton.
type Boda struct {
	Records *store.Records
	Auth    *auth.Engine
	Backup  *backup.Engine
	History *history.Store
}

// New validates the config and wires the engines.
func New(config Config) (*Boda, error) {
	if config.Storage == nil {
		return nil, ErrStorageRequired
	}

	log := config.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	sessionTTL := config.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	resetTTL := config.ResetTTL
	if resetTTL <= 0 {
		resetTTL = defaultResetTTL
	}

	cacheAdapter := config.CacheAdapter
	if cacheAdapter == nil && !config.DisableCache {
		cacheAdapter = cache.NewMemory(core.CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 500,
		})
	}

	records := store.New(config.Storage, log)

	return &Boda{
		Records: records,
		Auth: auth.New(auth.Config{
			Records:    records,
			Passwords:  config.PasswordHasher,
			Cache:      cacheAdapter,
			SessionTTL: sessionTTL,
			ResetTTL:   resetTTL,
			Logger:     log,
		}),
		Backup:  backup.New(records, log),
		History: history.New(records),
	}, nil
}
