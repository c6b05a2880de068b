package store

// Persisted keyspace. One JSON-encoded array per key, except
// KeyLastBackup which holds a single RFC 3339 timestamp.
const (
	KeyUsers          = "users"
	KeyDrivers        = "drivers"
	KeyUserSessions   = "user_sessions"
	KeyDriverSessions = "driver_sessions"
	KeyPasswordResets = "password_resets"
	KeyBookingHistory = "booking_history"
	KeyLastBackup     = "last_backup"
)

// BookingHistoryKey returns the per-user ledger key. The empty user id
// maps to the legacy shared key.
func BookingHistoryKey(userID string) string {
	if userID == "" {
		return KeyBookingHistory
	}
	return KeyBookingHistory + "_" + userID
}
