package model

import "time"

// TimeEntry is one worked shift. A row with a null ClockOut is an "open"
// shift; a user has at most one open entry at any moment. Entries are
// created and closed exclusively as a side effect of successful token
// consumption.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who worked the shift.
//  OrganizationID  – owning organization.
//  ClockIn         – shift start.
//  ClockOut        – shift end (null while the shift is open).
//  DurationMinutes – whole minutes between clock-in and clock-out, set on close.
//  Notes           – free text; scanner station locations are appended here.
//  CreatedAt       – timestamp of creation.
type TimeEntry struct {
	ID              uint64     // time_entries.id
	UserID          uint64     // time_entries.user_id
	OrganizationID  uint64     // time_entries.organization_id
	ClockIn         time.Time  // time_entries.clock_in
	ClockOut        *time.Time // time_entries.clock_out (nullable)
	DurationMinutes *int64     // time_entries.duration_minutes (nullable)
	Notes           string     // time_entries.notes
	CreatedAt       time.Time  // time_entries.created_at
}
