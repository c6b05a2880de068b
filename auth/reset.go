package auth

import (
	"fmt"
	"time"

	"github.com/bodahq/boda/core"
	"github.com/bodahq/boda/pkg/crypto"
)

// RequestPasswordReset creates a one-shot recovery token for the
// account matching the identifier (email or phone), searching riders
// first, then drivers.
//
// Anti-enumeration: an identifier with no account behind it returns an
// empty token and a nil error, so the caller-visible outcome never
// reveals whether the account exists. Delivering the token to its
// owner is the caller's problem.
func (e *Engine) RequestPasswordReset(identifier string) (string, error) {
	if identifier == "" {
		return "", core.ErrInvalidInput
	}

	pair, err := crypto.NewTokenPair(crypto.DefaultTokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	id, err := crypto.NewID()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}

	var token string
	err = e.records.Transact(func() error {
		accountID, err := e.findAccountID(identifier)
		if err != nil {
			return err
		}
		if accountID == "" {
			return nil
		}

		now := time.Now()
		reset := core.PasswordReset{
			ID:        id,
			AccountID: accountID,
			TokenHash: pair.Hash,
			IsUsed:    false,
			CreatedAt: now,
			ExpiresAt: now.Add(e.resetTTL),
		}

		resets, err := e.records.PasswordResets()
		if err != nil {
			return fmt.Errorf("failed to load password resets: %w", err)
		}
		if err := e.records.SavePasswordResets(append(resets, reset)); err != nil {
			return fmt.Errorf("failed to store password reset: %w", err)
		}

		token = pair.Token
		return nil
	})
	if err != nil {
		return "", err
	}

	e.log.WithField("matched", token != "").Debug("password reset requested")
	return token, nil
}

// ResetPassword consumes a recovery token and replaces the owning
// account's password hash. The token dies on first use, expired or
// not; unknown, used and expired tokens are indistinguishable to the
// caller. All of the account's sessions are revoked.
func (e *Engine) ResetPassword(token, newPassword string) error {
	if newPassword == "" {
		return core.ErrPasswordRequired
	}
	if len(newPassword) < minPasswordLen {
		return core.ErrPasswordTooShort
	}
	if token == "" {
		return core.ErrInvalidToken
	}

	hash, err := e.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tokenHash := crypto.HashToken(token)

	var accountID string
	err = e.records.Transact(func() error {
		resets, err := e.records.PasswordResets()
		if err != nil {
			return fmt.Errorf("failed to load password resets: %w", err)
		}

		idx := -1
		for i := range resets {
			if resets[i].TokenHash == tokenHash {
				idx = i
				break
			}
		}
		if idx < 0 || resets[idx].IsUsed || time.Now().After(resets[idx].ExpiresAt) {
			return core.ErrInvalidToken
		}

		if err := e.applyPasswordChange(resets[idx].AccountID, hash); err != nil {
			return err
		}

		resets[idx].IsUsed = true
		if err := e.records.SavePasswordResets(resets); err != nil {
			return fmt.Errorf("failed to consume password reset: %w", err)
		}

		accountID = resets[idx].AccountID
		return nil
	})
	if err != nil {
		return err
	}

	e.log.WithField("accountId", accountID).Info("password reset completed")
	return nil
}

// findAccountID resolves an identifier across both realms, riders
// first. Disjoint NanoID spaces make the shared reset collection safe.
func (e *Engine) findAccountID(identifier string) (string, error) {
	users, err := e.records.Users()
	if err != nil {
		return "", fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		if u.IsActive && (identityMatch(u.Email, identifier) || u.Phone == identifier) {
			return u.ID, nil
		}
	}

	drivers, err := e.records.Drivers()
	if err != nil {
		return "", fmt.Errorf("failed to load drivers: %w", err)
	}
	for _, d := range drivers {
		if d.IsActive && (identityMatch(d.Email, identifier) || d.Phone == identifier) {
			return d.ID, nil
		}
	}

	return "", nil
}

// applyPasswordChange writes the new hash onto whichever realm owns
// the account and revokes its sessions. Runs inside the caller's
// transaction.
func (e *Engine) applyPasswordChange(accountID, passwordHash string) error {
	now := time.Now()

	users, err := e.records.Users()
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	for i := range users {
		if users[i].ID == accountID {
			users[i].PasswordHash = passwordHash
			users[i].UpdatedAt = now
			if err := e.records.SaveUsers(users); err != nil {
				return fmt.Errorf("failed to update password: %w", err)
			}
			return e.revokeAccountSessions(e.userRealm(), accountID)
		}
	}

	drivers, err := e.records.Drivers()
	if err != nil {
		return fmt.Errorf("failed to load drivers: %w", err)
	}
	for i := range drivers {
		if drivers[i].ID == accountID {
			drivers[i].PasswordHash = passwordHash
			drivers[i].UpdatedAt = now
			if err := e.records.SaveDrivers(drivers); err != nil {
				return fmt.Errorf("failed to update password: %w", err)
			}
			return e.revokeAccountSessions(e.driverRealm(), accountID)
		}
	}

	// Account deleted between request and reset; treat the token as
	// dead rather than leaking that the account is gone.
	return core.ErrInvalidToken
}
