package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bodahq/boda/core"
)

// Records is the typed collection layer over the raw key-value port.
// Every collection is one JSON document; every mutation is load full
// collection, edit in memory, write full collection back. Uniqueness
// constraints are checked here, not by the storage adapter.
type Records struct {
	storage core.Storage
	log     *logrus.Logger

	// mu guards individual document reads and writes; opMu serializes
	// whole read-modify-write operations (Transact).
	mu   sync.RWMutex
	opMu sync.Mutex
}

// New wires a Records layer over a storage adapter. A nil logger falls
// back to the logrus standard logger.
func New(storage core.Storage, log *logrus.Logger) *Records {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Records{storage: storage, log: log}
}

// Transact runs fn under the store's operation lock. Every engine
// operation that reads a collection, modifies it in memory and writes
// it back runs inside Transact, so two concurrent operations can never
// interleave between the read and the write.
func (r *Records) Transact(fn func() error) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	return fn()
}

// load decodes the collection under key. A missing key is an empty
// collection. A present-but-corrupt document is ALSO an empty
// collection: the store downgrades corruption to a warning so one bad
// document cannot take the whole system down.
func load[T any](r *Records, key string) ([]T, error) {
	r.mu.RLock()
	raw, ok, err := r.storage.Get(key)
	r.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %v", core.ErrStorageFailure, key, err)
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		r.log.WithFields(logrus.Fields{
			"key":   key,
			"error": err,
		}).Warn("corrupt collection document, treating as empty")
		return nil, nil
	}
	return items, nil
}

// save overwrites the collection under key with the full item set.
func save[T any](r *Records, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.storage.Set(key, raw); err != nil {
		return fmt.Errorf("%w: writing %q: %v", core.ErrStorageFailure, key, err)
	}
	return nil
}

// ============================================
// USERS
// ============================================

func (r *Records) Users() ([]core.User, error) {
	return load[core.User](r, KeyUsers)
}

// ValidateUsers checks the rider collection's uniqueness invariants
// without writing anything.
func ValidateUsers(users []core.User) error {
	seen := newIdentitySet()
	for _, u := range users {
		if !seen.add(u.Email, u.Phone) {
			return core.ErrDuplicateIdentity
		}
	}
	return nil
}

// SaveUsers persists the rider collection after re-checking its
// uniqueness invariants.
func (r *Records) SaveUsers(users []core.User) error {
	if err := ValidateUsers(users); err != nil {
		return err
	}
	return save(r, KeyUsers, users)
}

// ============================================
// DRIVERS
// ============================================

func (r *Records) Drivers() ([]core.Driver, error) {
	return load[core.Driver](r, KeyDrivers)
}

// ValidateDrivers checks the driver collection's uniqueness invariants.
// Drivers are additionally unique on vehicle and licence number.
func ValidateDrivers(drivers []core.Driver) error {
	seen := newIdentitySet()
	for _, d := range drivers {
		if !seen.add(d.Email, d.Phone, d.VehicleNumber, d.LicenseNumber) {
			return core.ErrDuplicateIdentity
		}
	}
	return nil
}

// SaveDrivers persists the driver collection after re-checking its
// uniqueness invariants.
func (r *Records) SaveDrivers(drivers []core.Driver) error {
	if err := ValidateDrivers(drivers); err != nil {
		return err
	}
	return save(r, KeyDrivers, drivers)
}

// ============================================
// SESSIONS
// ============================================

func (r *Records) UserSessions() ([]core.Session, error) {
	return load[core.Session](r, KeyUserSessions)
}

func (r *Records) SaveUserSessions(sessions []core.Session) error {
	if err := ValidateSessions(sessions); err != nil {
		return err
	}
	return save(r, KeyUserSessions, sessions)
}

func (r *Records) DriverSessions() ([]core.Session, error) {
	return load[core.Session](r, KeyDriverSessions)
}

func (r *Records) SaveDriverSessions(sessions []core.Session) error {
	if err := ValidateSessions(sessions); err != nil {
		return err
	}
	return save(r, KeyDriverSessions, sessions)
}

// identitySet tracks claimed identity values per field position. Empty
// values never collide; restored legacy rows may lack some fields.
type identitySet struct {
	fields []map[string]bool
}

func newIdentitySet() *identitySet {
	return &identitySet{}
}

// add claims each value in its field slot and reports false when any
// non-empty value was already claimed.
func (s *identitySet) add(values ...string) bool {
	for len(s.fields) < len(values) {
		s.fields = append(s.fields, make(map[string]bool))
	}
	for i, v := range values {
		if v != "" && s.fields[i][v] {
			return false
		}
	}
	for i, v := range values {
		if v != "" {
			s.fields[i][v] = true
		}
	}
	return true
}

// ValidateSessions enforces at most one session row per token hash.
func ValidateSessions(sessions []core.Session) error {
	seen := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		if seen[s.TokenHash] {
			return core.ErrDuplicateIdentity
		}
		seen[s.TokenHash] = true
	}
	return nil
}

// ============================================
// PASSWORD RESETS
// ============================================

func (r *Records) PasswordResets() ([]core.PasswordReset, error) {
	return load[core.PasswordReset](r, KeyPasswordResets)
}

// ValidatePasswordResets enforces at most one reset row per token hash.
func ValidatePasswordResets(resets []core.PasswordReset) error {
	seen := make(map[string]bool, len(resets))
	for _, pr := range resets {
		if seen[pr.TokenHash] {
			return core.ErrDuplicateIdentity
		}
		seen[pr.TokenHash] = true
	}
	return nil
}

func (r *Records) SavePasswordResets(resets []core.PasswordReset) error {
	if err := ValidatePasswordResets(resets); err != nil {
		return err
	}
	return save(r, KeyPasswordResets, resets)
}

// ============================================
// BOOKING HISTORY
// ============================================

func (r *Records) Bookings(userID string) ([]core.Booking, error) {
	return load[core.Booking](r, BookingHistoryKey(userID))
}

func (r *Records) SaveBookings(userID string, bookings []core.Booking) error {
	return save(r, BookingHistoryKey(userID), bookings)
}

// ClearBookings drops one user's ledger key entirely.
func (r *Records) ClearBookings(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := BookingHistoryKey(userID)
	if err := r.storage.Delete(key); err != nil {
		return fmt.Errorf("%w: removing %q: %v", core.ErrStorageFailure, key, err)
	}
	return nil
}

// ============================================
// BACKUP METADATA
// ============================================

// LastBackup returns the recorded time of the most recent export, nil
// if none has happened.
func (r *Records) LastBackup() (*time.Time, error) {
	r.mu.RLock()
	raw, ok, err := r.storage.Get(KeyLastBackup)
	r.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %v", core.ErrStorageFailure, KeyLastBackup, err)
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		r.log.WithField("key", KeyLastBackup).Warn("corrupt backup timestamp, treating as never")
		return nil, nil
	}
	return &t, nil
}

func (r *Records) SetLastBackup(t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.storage.Set(KeyLastBackup, []byte(t.Format(time.RFC3339Nano))); err != nil {
		return fmt.Errorf("%w: writing %q: %v", core.ErrStorageFailure, KeyLastBackup, err)
	}
	return nil
}
