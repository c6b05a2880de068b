package auth

import (
	"fmt"
	"time"

	"github.com/bodahq/boda/core"
)

// UserPatch is a partial rider profile update; nil fields are left
// untouched.
type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// UpdateUserProfile applies a patch to a rider account, re-checking
// identity uniqueness for any changed field, and stamps UpdatedAt.
func (e *Engine) UpdateUserProfile(accountID string, patch UserPatch) (*core.User, error) {
	var user core.User
	err := e.records.Transact(func() error {
		users, err := e.records.Users()
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}

		idx := -1
		for i := range users {
			if users[i].ID == accountID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return core.ErrAccountNotFound
		}

		if patch.Email != nil {
			if *patch.Email == "" {
				return core.ErrEmailRequired
			}
			for i, u := range users {
				if i != idx && identityMatch(u.Email, *patch.Email) {
					return core.ErrDuplicateIdentity
				}
			}
			users[idx].Email = *patch.Email
		}
		if patch.Phone != nil {
			if *patch.Phone == "" {
				return core.ErrPhoneRequired
			}
			for i, u := range users {
				if i != idx && u.Phone == *patch.Phone {
					return core.ErrDuplicateIdentity
				}
			}
			users[idx].Phone = *patch.Phone
		}
		if patch.Name != nil {
			if *patch.Name == "" {
				return core.ErrNameRequired
			}
			users[idx].Name = *patch.Name
		}

		users[idx].UpdatedAt = time.Now()
		if err := e.records.SaveUsers(users); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		user = users[idx]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DriverPatch is a partial driver profile update; nil fields are left
// untouched. Vehicle and licence numbers are fixed at registration.
type DriverPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// UpdateDriverProfile is the driver-realm counterpart of
// UpdateUserProfile.
func (e *Engine) UpdateDriverProfile(accountID string, patch DriverPatch) (*core.Driver, error) {
	var driver core.Driver
	err := e.records.Transact(func() error {
		drivers, err := e.records.Drivers()
		if err != nil {
			return fmt.Errorf("failed to load drivers: %w", err)
		}

		idx := -1
		for i := range drivers {
			if drivers[i].ID == accountID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return core.ErrAccountNotFound
		}

		if patch.Email != nil {
			if *patch.Email == "" {
				return core.ErrEmailRequired
			}
			for i, d := range drivers {
				if i != idx && identityMatch(d.Email, *patch.Email) {
					return core.ErrDuplicateIdentity
				}
			}
			drivers[idx].Email = *patch.Email
		}
		if patch.Phone != nil {
			if *patch.Phone == "" {
				return core.ErrPhoneRequired
			}
			for i, d := range drivers {
				if i != idx && d.Phone == *patch.Phone {
					return core.ErrDuplicateIdentity
				}
			}
			drivers[idx].Phone = *patch.Phone
		}
		if patch.Name != nil {
			if *patch.Name == "" {
				return core.ErrNameRequired
			}
			drivers[idx].Name = *patch.Name
		}

		drivers[idx].UpdatedAt = time.Now()
		if err := e.records.SaveDrivers(drivers); err != nil {
			return fmt.Errorf("failed to update driver: %w", err)
		}

		driver = drivers[idx]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

// DeactivateUser soft-deletes a rider: the row stays, logins stop
// working and every session is revoked. The core never hard-deletes
// accounts.
func (e *Engine) DeactivateUser(accountID string) error {
	return e.records.Transact(func() error {
		users, err := e.records.Users()
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}

		found := false
		for i := range users {
			if users[i].ID == accountID {
				users[i].IsActive = false
				users[i].UpdatedAt = time.Now()
				found = true
			}
		}
		if !found {
			return core.ErrAccountNotFound
		}

		if err := e.records.SaveUsers(users); err != nil {
			return fmt.Errorf("failed to deactivate user: %w", err)
		}
		return e.revokeAccountSessions(e.userRealm(), accountID)
	})
}

// DeactivateDriver is the driver-realm counterpart of DeactivateUser.
func (e *Engine) DeactivateDriver(accountID string) error {
	return e.records.Transact(func() error {
		drivers, err := e.records.Drivers()
		if err != nil {
			return fmt.Errorf("failed to load drivers: %w", err)
		}

		found := false
		for i := range drivers {
			if drivers[i].ID == accountID {
				drivers[i].IsActive = false
				drivers[i].Status = core.DriverOffline
				drivers[i].UpdatedAt = time.Now()
				found = true
			}
		}
		if !found {
			return core.ErrAccountNotFound
		}

		if err := e.records.SaveDrivers(drivers); err != nil {
			return fmt.Errorf("failed to deactivate driver: %w", err)
		}
		return e.revokeAccountSessions(e.driverRealm(), accountID)
	})
}

// SetDriverStatus moves a driver between available, busy and offline.
func (e *Engine) SetDriverStatus(accountID string, status core.DriverStatus) error {
	switch status {
	case core.DriverAvailable, core.DriverBusy, core.DriverOffline:
	default:
		return fmt.Errorf("%w: unknown driver status %q", core.ErrInvalidInput, status)
	}

	return e.updateDriver(accountID, func(d *core.Driver) {
		d.Status = status
	})
}

// UpdateDriverLocation records the driver's last known position.
func (e *Engine) UpdateDriverLocation(accountID string, latitude, longitude float64) error {
	return e.updateDriver(accountID, func(d *core.Driver) {
		d.Location = &core.Location{
			Latitude:  latitude,
			Longitude: longitude,
			UpdatedAt: time.Now(),
		}
	})
}

// VerifyDriver marks a driver as admin-verified.
func (e *Engine) VerifyDriver(accountID string) error {
	return e.updateDriver(accountID, func(d *core.Driver) {
		d.IsVerified = true
	})
}

func (e *Engine) updateDriver(accountID string, apply func(*core.Driver)) error {
	return e.records.Transact(func() error {
		drivers, err := e.records.Drivers()
		if err != nil {
			return fmt.Errorf("failed to load drivers: %w", err)
		}

		for i := range drivers {
			if drivers[i].ID == accountID {
				apply(&drivers[i])
				drivers[i].UpdatedAt = time.Now()
				if err := e.records.SaveDrivers(drivers); err != nil {
					return fmt.Errorf("failed to update driver: %w", err)
				}
				return nil
			}
		}
		return core.ErrAccountNotFound
	})
}
