package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/attendance-qr/internal/model"
)

type OrganizationRepo struct{ DB *sql.DB }

func NewOrganizationRepo(db *sql.DB) *OrganizationRepo { return &OrganizationRepo{DB: db} }

// Create inserts an organization and returns its ID. New organizations do
// not require schedules for clock-in until an admin enables the flag.
func (r *OrganizationRepo) Create(ctx context.Context, name string) (uint64, error) {
	name = strings.TrimSpace(name)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO organizations (name, require_schedule_for_clock_in) VALUES (?, FALSE)",
		name)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches an organization by id.
func (r *OrganizationRepo) GetByID(ctx context.Context, id uint64) (model.Organization, error) {
	var o model.Organization
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,require_schedule_for_clock_in,created_at FROM organizations WHERE id=? LIMIT 1",
		id).Scan(&o.ID, &o.Name, &o.RequireScheduleForClockIn, &o.CreatedAt)
	return o, err
}

// SetRequireSchedule flips the schedule-required rule for an organization.
func (r *OrganizationRepo) SetRequireSchedule(ctx context.Context, id uint64, required bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE organizations SET require_schedule_for_clock_in=? WHERE id=?",
		required, id)
	return err
}
