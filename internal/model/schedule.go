package model

import "time"

// Schedule statuses. Only ScheduleStatusScheduled counts as an active
// schedule for the clock-in precondition; cancelled or completed rows do not.
const (
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusCancelled = "cancelled"
	ScheduleStatusCompleted = "completed"
)

// EmployeeSchedule mirrors the `employee_schedules` table. This service
// only reads schedules (to enforce the organization's schedule-required
// rule); schedule management lives elsewhere.
type EmployeeSchedule struct {
	ID                 uint64    // employee_schedules.id
	EmployeeID         uint64    // employee_schedules.employee_id
	OrganizationID     uint64    // employee_schedules.organization_id
	ScheduledDate      time.Time // employee_schedules.scheduled_date (date only)
	ScheduledStartTime string    // employee_schedules.scheduled_start_time (HH:MM:SS)
	ScheduledEndTime   string    // employee_schedules.scheduled_end_time (HH:MM:SS)
	Status             string    // employee_schedules.status
}
