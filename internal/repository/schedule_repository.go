package repository

import (
	"context"
	"database/sql"
	"time"
)

// ScheduleRepo reads the employee_schedules table. Schedules are managed
// by a different system; this service only checks whether a user has an
// active shift scheduled on a given day.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo returns a repo bound to the provided database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// HasActiveSchedule reports whether the employee has a schedule row with
// status "scheduled" on the calendar day of the given instant (UTC).
func (r *ScheduleRepo) HasActiveSchedule(ctx context.Context, employeeID uint64, day time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM employee_schedules
		 WHERE employee_id=? AND scheduled_date=? AND status='scheduled'`,
		employeeID, day.UTC().Format("2006-01-02")).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
