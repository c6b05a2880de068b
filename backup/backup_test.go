package backup

import (
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bodahq/boda/adapters/memory"
	"github.com/bodahq/boda/core"
	"github.com/bodahq/boda/store"
)

func testEngine(t *testing.T) (*Engine, *store.Records) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	records := store.New(memory.New(), log)
	return New(records, log), records
}

func seedAccounts(t *testing.T, records *store.Records) {
	t.Helper()
	now := time.Now()
	users := []core.User{
		{ID: "u1", Name: "Amina", Email: "amina@example.com", Phone: "0712345678", Role: core.RoleUser, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "u2", Name: "Juma", Email: "juma@example.com", Phone: "0798765432", Role: core.RoleUser, IsActive: false, CreatedAt: now, UpdatedAt: now},
	}
	drivers := []core.Driver{
		{ID: "d1", Name: "Brian", Email: "brian@example.com", Phone: "0700000001", VehicleNumber: "KMDB 123X", LicenseNumber: "DL-1", IsActive: true, Rating: 5, Status: core.DriverOffline, CreatedAt: now, UpdatedAt: now},
	}
	sessions := []core.Session{
		{ID: "s1", AccountID: "u1", TokenHash: "hash-1", IsActive: true, CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
	}
	if err := records.SaveUsers(users); err != nil {
		t.Fatalf("SaveUsers() error = %v", err)
	}
	if err := records.SaveDrivers(drivers); err != nil {
		t.Fatalf("SaveDrivers() error = %v", err)
	}
	if err := records.SaveUserSessions(sessions); err != nil {
		t.Fatalf("SaveUserSessions() error = %v", err)
	}
}

// Requirement: export captures every collection, renders absent ones
// as empty arrays, and stamps the last-backup time.
func TestExport(t *testing.T) {
	engine, records := testEngine(t)
	seedAccounts(t, records)

	// Act
	doc, err := engine.Export()

	// Assert
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if doc.Version != FormatVersion {
		t.Errorf("version = %d, want %d", doc.Version, FormatVersion)
	}
	if len(doc.Users) != 2 || len(doc.Drivers) != 1 || len(doc.UserSessions) != 1 {
		t.Errorf("unexpected collection sizes: %d users, %d drivers, %d sessions",
			len(doc.Users), len(doc.Drivers), len(doc.UserSessions))
	}
	if doc.DriverSessions == nil || doc.PasswordResets == nil {
		t.Error("absent collections must export as empty arrays, not null")
	}

	stamp, err := records.LastBackup()
	if err != nil {
		t.Fatalf("LastBackup() error = %v", err)
	}
	if stamp == nil {
		t.Error("export should record the backup time")
	}

	// The wire form must carry [] for empty collections.
	data, err := engine.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("exported document is not valid JSON: %v", err)
	}
	if string(raw["passwordResets"]) != "[]" {
		t.Errorf("passwordResets = %s, want []", raw["passwordResets"])
	}
}

// Requirement: restore of an exported document reproduces the exact
// account state.
func TestRestore_RoundTrip(t *testing.T) {
	source, sourceRecords := testEngine(t)
	seedAccounts(t, sourceRecords)
	data, err := source.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	target, targetRecords := testEngine(t)
	// Pre-existing state that the restore must wipe.
	if err := targetRecords.SaveUsers([]core.User{{ID: "old", Email: "old@example.com", Phone: "0711111111"}}); err != nil {
		t.Fatalf("SaveUsers() error = %v", err)
	}

	// Act
	if err := target.Restore(data); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	// Assert
	users, _ := targetRecords.Users()
	if len(users) != 2 {
		t.Fatalf("expected 2 restored users, got %d", len(users))
	}
	for _, u := range users {
		if u.ID == "old" {
			t.Error("restore must replace, not merge: old row survived")
		}
	}
	drivers, _ := targetRecords.Drivers()
	if len(drivers) != 1 || drivers[0].VehicleNumber != "KMDB 123X" {
		t.Errorf("drivers not restored faithfully: %+v", drivers)
	}
	sessions, _ := targetRecords.UserSessions()
	if len(sessions) != 1 || sessions[0].TokenHash != "hash-1" {
		t.Errorf("sessions not restored faithfully: %+v", sessions)
	}
}

// Requirement: a document missing any collection array is rejected
// outright, before anything is written.
func TestRestore_RejectsIncompleteDocuments(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{nope"},
		{name: "empty object", data: "{}"},
		{
			name: "missing passwordResets",
			data: `{"users":[],"drivers":[],"userSessions":[],"driverSessions":[]}`,
		},
		{
			name: "null collection",
			data: `{"users":null,"drivers":[],"userSessions":[],"driverSessions":[],"passwordResets":[]}`,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			engine, records := testEngine(t)
			seedAccounts(t, records)

			if err := engine.Restore([]byte(test.data)); !errors.Is(err, core.ErrInvalidBackup) {
				t.Fatalf("Restore() error = %v, want ErrInvalidBackup", err)
			}

			// Current state survives a rejected restore.
			users, _ := records.Users()
			if len(users) != 2 {
				t.Errorf("rejected restore must not touch state, got %d users", len(users))
			}
		})
	}
}

// Requirement: unknown top-level fields in a backup are ignored.
func TestRestore_IgnoresUnknownFields(t *testing.T) {
	engine, records := testEngine(t)
	data := `{"users":[],"drivers":[],"userSessions":[],"driverSessions":[],"passwordResets":[],"futureField":{"a":1}}`

	if err := engine.Restore([]byte(data)); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	users, _ := records.Users()
	if len(users) != 0 {
		t.Errorf("expected empty restored store, got %d users", len(users))
	}
}

// Requirement: restore leaves booking history ledgers alone.
func TestRestore_LeavesBookingHistory(t *testing.T) {
	engine, records := testEngine(t)
	booking := core.Booking{ID: "b1", Pickup: "A", Destination: "B", Status: core.BookingCompleted}
	if err := records.SaveBookings("u1", []core.Booking{booking}); err != nil {
		t.Fatalf("SaveBookings() error = %v", err)
	}

	data := `{"users":[],"drivers":[],"userSessions":[],"driverSessions":[],"passwordResets":[]}`
	if err := engine.Restore([]byte(data)); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	bookings, _ := records.Bookings("u1")
	if len(bookings) != 1 {
		t.Errorf("booking ledger should survive restore, got %d rows", len(bookings))
	}
}

// Requirement: cleanup removes exactly the expired sessions and the
// used-or-expired resets; everything else survives. Running it twice
// changes nothing.
func TestCleanupExpired(t *testing.T) {
	engine, records := testEngine(t)
	seedAccounts(t, records)
	now := time.Now()

	if err := records.SaveUserSessions([]core.Session{
		{ID: "live", AccountID: "u1", TokenHash: "h1", IsActive: true, ExpiresAt: now.Add(time.Hour)},
		{ID: "revoked-live", AccountID: "u1", TokenHash: "h2", IsActive: false, ExpiresAt: now.Add(time.Hour)},
		{ID: "expired", AccountID: "u1", TokenHash: "h3", IsActive: true, ExpiresAt: now.Add(-time.Hour)},
	}); err != nil {
		t.Fatalf("SaveUserSessions() error = %v", err)
	}
	if err := records.SaveDriverSessions([]core.Session{
		{ID: "d-expired", AccountID: "d1", TokenHash: "h4", IsActive: true, ExpiresAt: now.Add(-time.Minute)},
	}); err != nil {
		t.Fatalf("SaveDriverSessions() error = %v", err)
	}
	if err := records.SavePasswordResets([]core.PasswordReset{
		{ID: "fresh", AccountID: "u1", TokenHash: "r1", ExpiresAt: now.Add(time.Hour)},
		{ID: "used", AccountID: "u1", TokenHash: "r2", IsUsed: true, ExpiresAt: now.Add(time.Hour)},
		{ID: "stale", AccountID: "u1", TokenHash: "r3", ExpiresAt: now.Add(-time.Hour)},
	}); err != nil {
		t.Fatalf("SavePasswordResets() error = %v", err)
	}

	// Act
	if err := engine.CleanupExpired(); err != nil {
		t.Fatalf("CleanupExpired() error = %v", err)
	}

	// Assert
	userSessions, _ := records.UserSessions()
	if len(userSessions) != 2 {
		t.Fatalf("user sessions after cleanup = %d, want 2", len(userSessions))
	}
	for _, s := range userSessions {
		if s.ID == "expired" {
			t.Error("expired session survived cleanup")
		}
	}
	driverSessions, _ := records.DriverSessions()
	if len(driverSessions) != 0 {
		t.Errorf("driver sessions after cleanup = %d, want 0", len(driverSessions))
	}
	resets, _ := records.PasswordResets()
	if len(resets) != 1 || resets[0].ID != "fresh" {
		t.Errorf("resets after cleanup = %+v, want only the fresh one", resets)
	}
	users, _ := records.Users()
	if len(users) != 2 {
		t.Errorf("accounts must never be cleaned up, got %d", len(users))
	}

	// Idempotence.
	if err := engine.CleanupExpired(); err != nil {
		t.Fatalf("second CleanupExpired() error = %v", err)
	}
	userSessions, _ = records.UserSessions()
	if len(userSessions) != 2 {
		t.Errorf("second pass removed live rows, %d left", len(userSessions))
	}
}

// Requirement: stats are computed fresh from the collections.
func TestStats(t *testing.T) {
	engine, records := testEngine(t)
	seedAccounts(t, records)

	stats, err := engine.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalUsers != 2 {
		t.Errorf("TotalUsers = %d, want 2", stats.TotalUsers)
	}
	if stats.ActiveUsers != 1 {
		t.Errorf("ActiveUsers = %d, want 1", stats.ActiveUsers)
	}
	if stats.TotalDrivers != 1 {
		t.Errorf("TotalDrivers = %d, want 1", stats.TotalDrivers)
	}
	if stats.TotalSessions != 1 {
		t.Errorf("TotalSessions = %d, want 1", stats.TotalSessions)
	}
	if stats.LastBackup != nil {
		t.Errorf("LastBackup = %v, want nil before any export", stats.LastBackup)
	}

	if _, err := engine.Export(); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	stats, err = engine.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.LastBackup == nil {
		t.Error("LastBackup should be set after an export")
	}
}

// Requirement: a document that violates a collection invariant is
// rejected as an invalid backup before anything is written; the
// current store survives intact.
func TestRestore_RejectsInvalidCollections(t *testing.T) {
	engine, records := testEngine(t)
	seedAccounts(t, records)

	now := time.Now()
	doc := Document{
		Version:    FormatVersion,
		ExportedAt: now,
		Users: []core.User{
			{ID: "x1", Name: "One", Email: "dup@example.com", Phone: "0711111111", IsActive: true, CreatedAt: now, UpdatedAt: now},
			{ID: "x2", Name: "Two", Email: "dup@example.com", Phone: "0722222222", IsActive: true, CreatedAt: now, UpdatedAt: now},
		},
		Drivers:        []core.Driver{},
		UserSessions:   []core.Session{},
		DriverSessions: []core.Session{},
		PasswordResets: []core.PasswordReset{},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	// Act
	err = engine.Restore(data)

	// Assert
	if !errors.Is(err, core.ErrInvalidBackup) {
		t.Fatalf("Restore() error = %v, want ErrInvalidBackup", err)
	}

	users, err := records.Users()
	if err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	if len(users) != 2 || users[0].ID != "u1" {
		t.Errorf("store modified by rejected restore: %d users", len(users))
	}
	sessions, err := records.UserSessions()
	if err != nil {
		t.Fatalf("UserSessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("sessions modified by rejected restore: %d rows", len(sessions))
	}
}
