package core

import "time"

// Role classifies rider accounts. Drivers have no role field; being in
// the drivers collection is the role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DriverStatus is the driver's live availability.
type DriverStatus string

const (
	DriverAvailable DriverStatus = "available"
	DriverBusy      DriverStatus = "busy"
	DriverOffline   DriverStatus = "offline"
)

// User is a rider account.
//
// This is the "identity" - who someone is. Credentials live on the same
// record because riders and drivers are disjoint collections and each
// collection is the authority for its own logins.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	PasswordHash string     `json:"passwordHash,omitempty"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// Location is a driver's last reported position.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Driver is a driver account. Same identity shape as User plus vehicle
// and presence fields; unique on email, phone, vehicle number and
// licence number within the drivers collection.
type Driver struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	PasswordHash  string       `json:"passwordHash,omitempty"`
	VehicleNumber string       `json:"vehicleNumber"`
	LicenseNumber string       `json:"licenseNumber"`
	IsActive      bool         `json:"isActive"`
	IsVerified    bool         `json:"isVerified"`
	Rating        float64      `json:"rating"`
	TotalRides    int          `json:"totalRides"`
	Status        DriverStatus `json:"status"`
	Location      *Location    `json:"location,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	LastLoginAt   *time.Time   `json:"lastLoginAt,omitempty"`
}

// Session is a bearer-token-backed proof of authentication tied to one
// account. Rider and driver sessions share this shape but live in
// separate collections.
//
// IsActive only records explicit revocation. Expiry is a predicate on
// ExpiresAt evaluated at read time; a row can sit in storage with
// IsActive=true long after it expired and must still fail validation.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	TokenHash string    `json:"tokenHash,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session's deadline has passed at the
// given instant. Stored rows are never mutated for expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// PasswordReset is a one-shot recovery token. Once IsUsed is set the
// token is permanently dead, expired or not.
type PasswordReset struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	TokenHash string    `json:"tokenHash,omitempty"`
	IsUsed    bool      `json:"isUsed"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DriverSummary is the denormalized driver snapshot embedded in a
// booking. It is a copy taken at booking time, not a live reference;
// later driver profile edits do not rewrite history.
type DriverSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	VehicleNumber string `json:"vehicleNumber"`
}

// BookingStatus is the lifecycle state of one booking.
type BookingStatus string

const (
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

// Booking is one ride record in a user's history ledger.
type Booking struct {
	ID            string        `json:"id"`
	Pickup        string        `json:"pickup"`
	Destination   string        `json:"destination"`
	DistanceKm    float64       `json:"distanceKm"`
	Fare          float64       `json:"fare"`
	Driver        DriverSummary `json:"driver"`
	Status        BookingStatus `json:"status"`
	BookingDate   time.Time     `json:"bookingDate"`
	CompletedDate *time.Time    `json:"completedDate,omitempty"`
	DurationMin   *int          `json:"durationMin,omitempty"`
	Rating        *float64      `json:"rating,omitempty"`
	Feedback      *string       `json:"feedback,omitempty"`
}

// DatabaseStats is computed on demand from the collections; nothing
// here is stored except the last backup timestamp.
type DatabaseStats struct {
	TotalUsers    int        `json:"totalUsers"`
	ActiveUsers   int        `json:"activeUsers"`
	TotalDrivers  int        `json:"totalDrivers"`
	TotalSessions int        `json:"totalSessions"`
	LastBackup    *time.Time `json:"lastBackup,omitempty"`
}
