package model

import "time"

// Organization represents a tenant. All attendance data (tokens, time
// entries, schedules, stations, scan logs) is partitioned by organization
// and cross-organization access is rejected at the handler/service layer.
//
// Fields:
//  ID                        – primary key identifier.
//  Name                      – organization display name.
//  RequireScheduleForClockIn – when true, a clock_in token can only be
//                              issued (and consumed) for a user with a
//                              non-cancelled schedule on the current day.
//  CreatedAt                 – timestamp of creation.
type Organization struct {
	ID                        uint64    // organizations.id
	Name                      string    // organizations.name
	RequireScheduleForClockIn bool      // organizations.require_schedule_for_clock_in
	CreatedAt                 time.Time // organizations.created_at
}
