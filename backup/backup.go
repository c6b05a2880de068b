// Package backup implements full-store export/import, expiry cleanup
// and on-demand store statistics.
package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bodahq/boda/core"
	"github.com/bodahq/boda/store"
)

// FormatVersion is stamped into every exported document.
const FormatVersion = 1

// Document is the single portable snapshot of all account collections.
// Booking history ledgers are deliberately not part of it; they belong
// to individual users, not to the account database.
type Document struct {
	Version        int                  `json:"version"`
	ExportedAt     time.Time            `json:"exportedAt"`
	Users          []core.User          `json:"users"`
	Drivers        []core.Driver        `json:"drivers"`
	UserSessions   []core.Session       `json:"userSessions"`
	DriverSessions []core.Session       `json:"driverSessions"`
	PasswordResets []core.PasswordReset `json:"passwordResets"`
}

// Engine performs backup, restore and maintenance against the record
// store.
type Engine struct {
	records *store.Records
	log     *logrus.Logger
}

func New(records *store.Records, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{records: records, log: log}
}

// Export snapshots every collection into one document and records the
// backup time. There is no incremental form; this is the whole unit of
// disaster recovery.
func (e *Engine) Export() (*Document, error) {
	var doc *Document
	err := e.records.Transact(func() error {
		users, err := e.records.Users()
		if err != nil {
			return err
		}
		drivers, err := e.records.Drivers()
		if err != nil {
			return err
		}
		userSessions, err := e.records.UserSessions()
		if err != nil {
			return err
		}
		driverSessions, err := e.records.DriverSessions()
		if err != nil {
			return err
		}
		resets, err := e.records.PasswordResets()
		if err != nil {
			return err
		}

		now := time.Now()
		doc = &Document{
			Version:        FormatVersion,
			ExportedAt:     now,
			Users:          emptyNotNil(users),
			Drivers:        emptyNotNil(drivers),
			UserSessions:   emptyNotNil(userSessions),
			DriverSessions: emptyNotNil(driverSessions),
			PasswordResets: emptyNotNil(resets),
		}

		return e.records.SetLastBackup(now)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ExportJSON is Export rendered to the wire format.
func (e *Engine) ExportJSON() ([]byte, error) {
	doc, err := e.Export()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// restoreShadow distinguishes a missing collection from an empty one:
// a nil pointer means the array key was absent. Unknown extra fields
// are ignored for forward compatibility.
type restoreShadow struct {
	Users          *[]core.User          `json:"users"`
	Drivers        *[]core.Driver        `json:"drivers"`
	UserSessions   *[]core.Session       `json:"userSessions"`
	DriverSessions *[]core.Session       `json:"driverSessions"`
	PasswordResets *[]core.PasswordReset `json:"passwordResets"`
}

// Restore imports a backup document, replacing ALL five account
// collections. This is destructive by contract: current state is gone
// once it succeeds, and callers owe their users a warning before
// invoking it. Booking history keys are untouched.
//
// Every collection is validated before the first write, so a bad
// document is rejected whole and never leaves the store half replaced.
func (e *Engine) Restore(data []byte) error {
	var shadow restoreShadow
	if err := json.Unmarshal(data, &shadow); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidBackup, err)
	}

	if shadow.Users == nil || shadow.Drivers == nil || shadow.UserSessions == nil ||
		shadow.DriverSessions == nil || shadow.PasswordResets == nil {
		return fmt.Errorf("%w: missing collection arrays", core.ErrInvalidBackup)
	}

	if err := validateDocument(&shadow); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidBackup, err)
	}

	err := e.records.Transact(func() error {
		if err := e.records.SaveUsers(*shadow.Users); err != nil {
			return err
		}
		if err := e.records.SaveDrivers(*shadow.Drivers); err != nil {
			return err
		}
		if err := e.records.SaveUserSessions(*shadow.UserSessions); err != nil {
			return err
		}
		if err := e.records.SaveDriverSessions(*shadow.DriverSessions); err != nil {
			return err
		}
		return e.records.SavePasswordResets(*shadow.PasswordResets)
	})
	if err != nil {
		return err
	}

	e.log.WithFields(logrus.Fields{
		"users":   len(*shadow.Users),
		"drivers": len(*shadow.Drivers),
	}).Info("store restored from backup")

	return nil
}

// validateDocument runs the store's uniqueness checks over every
// collection without writing anything.
func validateDocument(shadow *restoreShadow) error {
	if err := store.ValidateUsers(*shadow.Users); err != nil {
		return fmt.Errorf("users: %w", err)
	}
	if err := store.ValidateDrivers(*shadow.Drivers); err != nil {
		return fmt.Errorf("drivers: %w", err)
	}
	if err := store.ValidateSessions(*shadow.UserSessions); err != nil {
		return fmt.Errorf("user sessions: %w", err)
	}
	if err := store.ValidateSessions(*shadow.DriverSessions); err != nil {
		return fmt.Errorf("driver sessions: %w", err)
	}
	if err := store.ValidatePasswordResets(*shadow.PasswordResets); err != nil {
		return fmt.Errorf("password resets: %w", err)
	}
	return nil
}

// RestoreDocument restores from an already-decoded document.
func (e *Engine) RestoreDocument(doc *Document) error {
	if doc == nil {
		return core.ErrInvalidBackup
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidBackup, err)
	}
	return e.Restore(data)
}

// CleanupExpired physically removes session rows past their deadline
// and reset rows that are used or expired. Accounts and booking
// history are never touched. Idempotent: a second pass removes
// nothing.
func (e *Engine) CleanupExpired() error {
	now := time.Now()
	removed := 0

	err := e.records.Transact(func() error {
		userSessions, err := e.records.UserSessions()
		if err != nil {
			return err
		}
		kept := userSessions[:0]
		for _, s := range userSessions {
			if s.Expired(now) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		if err := e.records.SaveUserSessions(kept); err != nil {
			return err
		}

		driverSessions, err := e.records.DriverSessions()
		if err != nil {
			return err
		}
		kept = driverSessions[:0]
		for _, s := range driverSessions {
			if s.Expired(now) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		if err := e.records.SaveDriverSessions(kept); err != nil {
			return err
		}

		resets, err := e.records.PasswordResets()
		if err != nil {
			return err
		}
		keptResets := resets[:0]
		for _, pr := range resets {
			if pr.IsUsed || now.After(pr.ExpiresAt) {
				removed++
				continue
			}
			keptResets = append(keptResets, pr)
		}
		return e.records.SavePasswordResets(keptResets)
	})
	if err != nil {
		return err
	}

	e.log.WithField("removed", removed).Debug("expired data cleanup finished")
	return nil
}

// Stats computes store statistics on demand; nothing here is cached.
func (e *Engine) Stats() (*core.DatabaseStats, error) {
	users, err := e.records.Users()
	if err != nil {
		return nil, err
	}
	drivers, err := e.records.Drivers()
	if err != nil {
		return nil, err
	}
	userSessions, err := e.records.UserSessions()
	if err != nil {
		return nil, err
	}
	driverSessions, err := e.records.DriverSessions()
	if err != nil {
		return nil, err
	}
	lastBackup, err := e.records.LastBackup()
	if err != nil {
		return nil, err
	}

	active := 0
	for _, u := range users {
		if u.IsActive {
			active++
		}
	}

	return &core.DatabaseStats{
		TotalUsers:    len(users),
		ActiveUsers:   active,
		TotalDrivers:  len(drivers),
		TotalSessions: len(userSessions) + len(driverSessions),
		LastBackup:    lastBackup,
	}, nil
}

func emptyNotNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
