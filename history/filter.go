package history

import (
	"math"
	"strings"
	"time"

	"github.com/bodahq/boda/core"
)

// Criteria narrows a ledger. Zero-valued fields don't filter; set
// fields combine with AND. The date range is inclusive on both ends
// and applies to the booking date.
type Criteria struct {
	Status      core.BookingStatus
	From        *time.Time
	To          *time.Time
	DriverQuery string // case-insensitive substring of driver name or vehicle number
}

func (c Criteria) matches(b core.Booking) bool {
	if c.Status != "" && b.Status != c.Status {
		return false
	}
	if c.From != nil && b.BookingDate.Before(*c.From) {
		return false
	}
	if c.To != nil && b.BookingDate.After(*c.To) {
		return false
	}
	if c.DriverQuery != "" {
		q := strings.ToLower(c.DriverQuery)
		if !strings.Contains(strings.ToLower(b.Driver.Name), q) &&
			!strings.Contains(strings.ToLower(b.Driver.VehicleNumber), q) {
			return false
		}
	}
	return true
}

// Filter returns the bookings matching the criteria, preserving the
// ledger's stored order.
func (l *Ledger) Filter(criteria Criteria) ([]core.Booking, error) {
	bookings, err := l.records.Bookings(l.userID)
	if err != nil {
		return nil, err
	}

	var out []core.Booking
	for _, b := range bookings {
		if criteria.matches(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Stats summarises one user's ledger. Spend, distance and ratings
// count completed bookings only.
type Stats struct {
	TotalBookings     int     `json:"totalBookings"`
	CompletedBookings int     `json:"completedBookings"`
	CancelledBookings int     `json:"cancelledBookings"`
	TotalSpent        float64 `json:"totalSpent"`
	TotalDistanceKm   float64 `json:"totalDistanceKm"`
	AverageRating     float64 `json:"averageRating"`
}

// Stats computes ledger aggregates on demand.
func (l *Ledger) Stats() (*Stats, error) {
	bookings, err := l.records.Bookings(l.userID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalBookings: len(bookings)}

	ratingSum := 0.0
	rated := 0
	for _, b := range bookings {
		switch b.Status {
		case core.BookingCompleted:
			stats.CompletedBookings++
			stats.TotalSpent += b.Fare
			stats.TotalDistanceKm += b.DistanceKm
			if b.Rating != nil {
				ratingSum += *b.Rating
				rated++
			}
		case core.BookingCancelled:
			stats.CancelledBookings++
		}
	}

	stats.TotalDistanceKm = round1(stats.TotalDistanceKm)
	if rated > 0 {
		stats.AverageRating = round1(ratingSum / float64(rated))
	}

	return stats, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
