package repository

import (
	"context"
	"database/sql"
	"time"
)

// AttendanceStore bundles the token and time-entry repositories behind the
// two transactional consume operations. Marking a token used and mutating
// the time entry commit together: a token is never marked used without the
// mutation, and a mutation never survives without the token being marked
// used. The conditional update on attendance_tokens.used decides the
// winner when two scans race on the same token.
type AttendanceStore struct {
	db      *sql.DB
	tokens  *AttendanceTokenRepo
	entries *TimeEntryRepo
}

// NewAttendanceStore constructs the store over a shared database handle.
func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{
		db:      db,
		tokens:  NewAttendanceTokenRepo(db),
		entries: NewTimeEntryRepo(db),
	}
}

// Tokens exposes the token repository for issuance and lookup.
func (s *AttendanceStore) Tokens() *AttendanceTokenRepo { return s.tokens }

// Entries exposes the time-entry repository for the read endpoints.
func (s *AttendanceStore) Entries() *TimeEntryRepo { return s.entries }

// ConsumeClockIn atomically consumes the token and opens a new time entry.
// It returns the new entry id. ErrTokenAlreadyUsed means a concurrent scan
// consumed the token first and no entry was created.
func (s *AttendanceStore) ConsumeClockIn(ctx context.Context, tokenID string, userID, orgID uint64, at time.Time, location, note string) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	ok, err := s.tokens.markUsedTx(ctx, tx, tokenID, at, location)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrTokenAlreadyUsed
	}
	entryID, err := s.entries.createTx(ctx, tx, userID, orgID, at, note)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return entryID, nil
}

// ConsumeClockOut atomically consumes the token and closes the user's open
// time entry. It returns the closed entry id. ErrTokenAlreadyUsed means a
// concurrent scan won; ErrNoOpenEntry means there was no shift to close
// (the token is not consumed in that case because the transaction rolls
// back).
func (s *AttendanceStore) ConsumeClockOut(ctx context.Context, tokenID string, userID uint64, at time.Time, location, note string) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	ok, err := s.tokens.markUsedTx(ctx, tx, tokenID, at, location)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrTokenAlreadyUsed
	}
	entryID, err := s.entries.openEntryIDTx(ctx, tx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNoOpenEntry
		}
		return 0, err
	}
	closed, err := s.entries.closeTx(ctx, tx, entryID, at, note)
	if err != nil {
		return 0, err
	}
	if !closed {
		// the row was closed between the locking select and the update
		return 0, ErrNoOpenEntry
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return entryID, nil
}
