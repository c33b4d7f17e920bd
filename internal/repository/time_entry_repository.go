package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/attendance-qr/internal/model"
)

// TimeEntryRepo provides data access to the time_entries table. Entry
// creation and closing happen only inside AttendanceStore transactions;
// this repo additionally serves the read-only listing endpoints.
type TimeEntryRepo struct {
	db *sql.DB
}

// NewTimeEntryRepo returns a repo bound to the provided database.
func NewTimeEntryRepo(db *sql.DB) *TimeEntryRepo { return &TimeEntryRepo{db: db} }

// OpenEntryByUser returns the user's currently open shift. sql.ErrNoRows
// means the user is not clocked in.
func (r *TimeEntryRepo) OpenEntryByUser(ctx context.Context, userID uint64) (model.TimeEntry, error) {
	return scanEntry(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, organization_id, clock_in, clock_out, duration_minutes, notes, created_at
		 FROM time_entries
		 WHERE user_id=? AND clock_out IS NULL
		 ORDER BY clock_in DESC LIMIT 1`,
		userID))
}

// RecentByUser lists the user's most recent entries, open shift first.
func (r *TimeEntryRepo) RecentByUser(ctx context.Context, userID uint64, limit int) ([]model.TimeEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, organization_id, clock_in, clock_out, duration_minutes, notes, created_at
		 FROM time_entries
		 WHERE user_id=?
		 ORDER BY clock_in DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []model.TimeEntry
	for rows.Next() {
		e, err := scanEntryRows(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// createTx inserts an open entry (clock_out NULL) within the transaction
// and returns the new entry id.
func (r *TimeEntryRepo) createTx(ctx context.Context, tx *sql.Tx, userID, orgID uint64, clockIn time.Time, notes string) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO time_entries (user_id, organization_id, clock_in, notes) VALUES (?,?,?,?)`,
		userID, orgID, clockIn.UTC(), notes)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// openEntryIDTx locks and returns the id of the user's open entry inside
// the transaction. sql.ErrNoRows when the user has no open shift.
func (r *TimeEntryRepo) openEntryIDTx(ctx context.Context, tx *sql.Tx, userID uint64) (uint64, error) {
	var id uint64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM time_entries
		 WHERE user_id=? AND clock_out IS NULL
		 ORDER BY clock_in DESC LIMIT 1
		 FOR UPDATE`,
		userID).Scan(&id)
	return id, err
}

// closeTx sets clock_out and duration on the entry, appending the note.
// The clock_out IS NULL guard keeps a raced double-close from overwriting
// an already closed shift; false means nothing was closed.
func (r *TimeEntryRepo) closeTx(ctx context.Context, tx *sql.Tx, entryID uint64, clockOut time.Time, note string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE time_entries
		 SET clock_out=?,
		     duration_minutes=TIMESTAMPDIFF(MINUTE, clock_in, ?),
		     notes=CASE WHEN notes IS NULL OR notes='' THEN ? ELSE CONCAT(notes, '\n', ?) END
		 WHERE id=? AND clock_out IS NULL`,
		clockOut.UTC(), clockOut.UTC(), note, note, entryID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// scanEntry reads one entry from a QueryRow result.
func scanEntry(row *sql.Row) (model.TimeEntry, error) {
	var (
		e        model.TimeEntry
		clockOut sql.NullTime
		duration sql.NullInt64
		notes    sql.NullString
	)
	err := row.Scan(&e.ID, &e.UserID, &e.OrganizationID, &e.ClockIn, &clockOut, &duration, &notes, &e.CreatedAt)
	if err != nil {
		return model.TimeEntry{}, err
	}
	applyNullable(&e, clockOut, duration, notes)
	return e, nil
}

// scanEntryRows reads one entry from a Query result set.
func scanEntryRows(rows *sql.Rows) (model.TimeEntry, error) {
	var (
		e        model.TimeEntry
		clockOut sql.NullTime
		duration sql.NullInt64
		notes    sql.NullString
	)
	err := rows.Scan(&e.ID, &e.UserID, &e.OrganizationID, &e.ClockIn, &clockOut, &duration, &notes, &e.CreatedAt)
	if err != nil {
		return model.TimeEntry{}, err
	}
	applyNullable(&e, clockOut, duration, notes)
	return e, nil
}

func applyNullable(e *model.TimeEntry, clockOut sql.NullTime, duration sql.NullInt64, notes sql.NullString) {
	if clockOut.Valid {
		t := clockOut.Time
		e.ClockOut = &t
	}
	if duration.Valid {
		d := duration.Int64
		e.DurationMinutes = &d
	}
	if notes.Valid {
		e.Notes = notes.String
	}
}
