// Package history keeps the per-user ledger of past ride bookings and
// its derived statistics. Every ledger is isolated under its own
// storage key; nothing ever reads across user boundaries.
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bodahq/boda/core"
	"github.com/bodahq/boda/store"
)

// Store hands out per-user ledgers. It holds no per-user state itself;
// scoping is explicit via ForUser, never an ambient "current user".
type Store struct {
	records *store.Records
}

func New(records *store.Records) *Store {
	return &Store{records: records}
}

// ForUser binds a ledger to one user's history key. The empty id binds
// the legacy shared key kept for data written before histories were
// namespaced.
func (s *Store) ForUser(userID string) *Ledger {
	return &Ledger{records: s.records, userID: userID}
}

// Ledger is one user's booking history, newest first.
type Ledger struct {
	records *store.Records
	userID  string
}

// AddInput is a booking before the ledger stamps identity and time.
type AddInput struct {
	Pickup      string             `json:"pickup"`
	Destination string             `json:"destination"`
	DistanceKm  float64            `json:"distanceKm"`
	Fare        float64            `json:"fare"`
	Driver      core.DriverSummary `json:"driver"`
	Status      core.BookingStatus `json:"status,omitempty"`
}

// Add assigns an id and booking date and prepends the record, keeping
// the ledger newest-first.
func (l *Ledger) Add(input AddInput) (*core.Booking, error) {
	if input.Pickup == "" || input.Destination == "" {
		return nil, fmt.Errorf("%w: pickup and destination are required", core.ErrInvalidInput)
	}

	status := input.Status
	if status == "" {
		status = core.BookingInProgress
	}

	booking := core.Booking{
		ID:          uuid.NewString(),
		Pickup:      input.Pickup,
		Destination: input.Destination,
		DistanceKm:  input.DistanceKm,
		Fare:        input.Fare,
		Driver:      input.Driver,
		Status:      status,
		BookingDate: time.Now(),
	}

	err := l.records.Transact(func() error {
		bookings, err := l.records.Bookings(l.userID)
		if err != nil {
			return err
		}
		return l.records.SaveBookings(l.userID, append([]core.Booking{booking}, bookings...))
	})
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

// Patch is a partial booking update; nil fields are left untouched.
type Patch struct {
	Status        *core.BookingStatus `json:"status,omitempty"`
	Fare          *float64            `json:"fare,omitempty"`
	CompletedDate *time.Time          `json:"completedDate,omitempty"`
	DurationMin   *int                `json:"durationMin,omitempty"`
	Rating        *float64            `json:"rating,omitempty"`
	Feedback      *string             `json:"feedback,omitempty"`
}

// Update applies a patch to the booking with the given id. Returns
// false when the id is not in this ledger.
func (l *Ledger) Update(id string, patch Patch) (bool, error) {
	found := false
	err := l.records.Transact(func() error {
		bookings, err := l.records.Bookings(l.userID)
		if err != nil {
			return err
		}

		idx := -1
		for i := range bookings {
			if bookings[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}

		b := &bookings[idx]
		if patch.Status != nil {
			b.Status = *patch.Status
		}
		if patch.Fare != nil {
			b.Fare = *patch.Fare
		}
		if patch.CompletedDate != nil {
			b.CompletedDate = patch.CompletedDate
		}
		if patch.DurationMin != nil {
			b.DurationMin = patch.DurationMin
		}
		if patch.Rating != nil {
			b.Rating = patch.Rating
		}
		if patch.Feedback != nil {
			b.Feedback = patch.Feedback
		}

		if err := l.records.SaveBookings(l.userID, bookings); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// CompleteOptions carries the optional trip outcome fields.
type CompleteOptions struct {
	DurationMin *int
	Rating      *float64
	Feedback    *string
}

// Complete marks a booking completed and stamps the completion time.
func (l *Ledger) Complete(id string, opts CompleteOptions) (bool, error) {
	status := core.BookingCompleted
	now := time.Now()
	return l.Update(id, Patch{
		Status:        &status,
		CompletedDate: &now,
		DurationMin:   opts.DurationMin,
		Rating:        opts.Rating,
		Feedback:      opts.Feedback,
	})
}

// Cancel marks a booking cancelled.
func (l *Ledger) Cancel(id string) (bool, error) {
	status := core.BookingCancelled
	return l.Update(id, Patch{Status: &status})
}

// All returns the full ledger, stored order (newest first).
func (l *Ledger) All() ([]core.Booking, error) {
	return l.records.Bookings(l.userID)
}

// Clear removes this user's history only.
func (l *Ledger) Clear() error {
	return l.records.ClearBookings(l.userID)
}
