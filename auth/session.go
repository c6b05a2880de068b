package auth

import (
	"fmt"
	"time"

	"github.com/bodahq/boda/core"
	"github.com/bodahq/boda/pkg/crypto"
)

// sessionRealm binds the shared session logic to one of the two
// session collections. Rider and driver sessions share a shape but
// never share rows.
type sessionRealm struct {
	name string
	load func() ([]core.Session, error)
	save func([]core.Session) error
}

func (e *Engine) userRealm() sessionRealm {
	return sessionRealm{
		name: "user",
		load: e.records.UserSessions,
		save: e.records.SaveUserSessions,
	}
}

func (e *Engine) driverRealm() sessionRealm {
	return sessionRealm{
		name: "driver",
		load: e.records.DriverSessions,
		save: e.records.SaveDriverSessions,
	}
}

// cacheKey namespaces cache entries by realm so a rider token can
// never satisfy a driver lookup through the cache.
func (r sessionRealm) cacheKey(tokenHash string) string {
	return r.name + ":" + tokenHash
}

// issueSession mints a fresh session row for an account and returns it
// together with the raw bearer token. Existing sessions for the
// account are left alone: concurrent sessions are allowed.
func (e *Engine) issueSession(realm sessionRealm, accountID, ipAddress, userAgent string) (*core.Session, string, error) {
	pair, err := crypto.NewTokenPair(crypto.DefaultTokenLength)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	id, err := crypto.NewID()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate ID: %w", err)
	}

	now := time.Now()
	session := core.Session{
		ID:        id,
		AccountID: accountID,
		TokenHash: pair.Hash,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		IsActive:  true,
		CreatedAt: now,
		ExpiresAt: now.Add(e.sessionTTL),
	}

	sessions, err := realm.load()
	if err != nil {
		return nil, "", err
	}
	if err := realm.save(append(sessions, session)); err != nil {
		return nil, "", err
	}

	if e.cache != nil {
		e.cache.Set(realm.cacheKey(pair.Hash), &session)
	}

	return &session, pair.Token, nil
}

// lookupSession resolves a raw token to a live session row. The expiry
// predicate runs on every path, cache hits included; the stored
// IsActive flag alone is never trusted for expiry.
func (e *Engine) lookupSession(realm sessionRealm, token string) (*core.Session, error) {
	if token == "" {
		return nil, core.ErrInvalidToken
	}

	tokenHash := crypto.HashToken(token)

	if e.cache != nil {
		if session, err := e.cache.Get(realm.cacheKey(tokenHash)); err == nil && session != nil {
			if session.IsActive && !session.Expired(time.Now()) {
				return session, nil
			}
			e.cache.Delete(realm.cacheKey(tokenHash))
		}
	}

	sessions, err := realm.load()
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		if sessions[i].TokenHash != tokenHash {
			continue
		}

		valid, err := crypto.VerifyToken(token, sessions[i].TokenHash)
		if err != nil || !valid {
			return nil, core.ErrInvalidToken
		}
		if !sessions[i].IsActive {
			return nil, core.ErrInvalidToken
		}
		// Lazy expiry: the row stays in storage untouched; only the
		// cleanup pass physically removes it.
		if sessions[i].Expired(time.Now()) {
			return nil, core.ErrInvalidToken
		}

		session := sessions[i]
		if e.cache != nil {
			e.cache.Set(realm.cacheKey(tokenHash), &session)
		}
		return &session, nil
	}

	return nil, core.ErrInvalidToken
}

// revokeSession flips IsActive on the matching row. Revocation is the
// only explicit session state transition; repeating it is a no-op.
func (e *Engine) revokeSession(realm sessionRealm, token string) error {
	if token == "" {
		return nil
	}

	tokenHash := crypto.HashToken(token)

	if e.cache != nil {
		e.cache.Delete(realm.cacheKey(tokenHash))
	}

	sessions, err := realm.load()
	if err != nil {
		return err
	}

	changed := false
	for i := range sessions {
		if sessions[i].TokenHash == tokenHash && sessions[i].IsActive {
			sessions[i].IsActive = false
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return realm.save(sessions)
}

// revokeAccountSessions revokes every session owned by an account.
// Used on deactivation and password reset.
func (e *Engine) revokeAccountSessions(realm sessionRealm, accountID string) error {
	sessions, err := realm.load()
	if err != nil {
		return err
	}

	changed := false
	for i := range sessions {
		if sessions[i].AccountID == accountID && sessions[i].IsActive {
			sessions[i].IsActive = false
			changed = true
			if e.cache != nil {
				e.cache.Delete(realm.cacheKey(sessions[i].TokenHash))
			}
		}
	}
	if !changed {
		return nil
	}
	return realm.save(sessions)
}
