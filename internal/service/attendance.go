// Package service implements the attendance token exchange: issuing
// single-use, short-lived QR tokens and consuming them exactly once to
// open or close a time entry. Handlers stay thin; all preconditions,
// rejection shaping and best-effort logging live here, behind small store
// interfaces so the logic is testable without a database.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/attendance-qr/internal/model"
	"github.com/iliyamo/attendance-qr/internal/queue"
	"github.com/iliyamo/attendance-qr/internal/repository"
	"github.com/iliyamo/attendance-qr/internal/utils"
)

// Store interfaces. The repository package provides the production
// implementations; tests substitute in-memory fakes.

// TokenStore persists and looks up attendance tokens.
type TokenStore interface {
	Create(ctx context.Context, t model.AttendanceToken) error
	ByValue(ctx context.Context, value string) (model.AttendanceToken, error)
}

// ConsumeStore performs the atomic consume-and-mutate operations. Both
// return repository.ErrTokenAlreadyUsed when a concurrent scan wins the
// conditional consume; ConsumeClockOut additionally returns
// repository.ErrNoOpenEntry when there is no shift to close.
type ConsumeStore interface {
	ConsumeClockIn(ctx context.Context, tokenID string, userID, orgID uint64, at time.Time, location, note string) (uint64, error)
	ConsumeClockOut(ctx context.Context, tokenID string, userID uint64, at time.Time, location, note string) (uint64, error)
}

// EntryStore reads time entries for the issuance preconditions.
type EntryStore interface {
	OpenEntryByUser(ctx context.Context, userID uint64) (model.TimeEntry, error)
}

// UserStore resolves users.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// OrgStore resolves organizations and their attendance settings.
type OrgStore interface {
	GetByID(ctx context.Context, id uint64) (model.Organization, error)
}

// ScheduleStore answers the schedule-required precondition.
type ScheduleStore interface {
	HasActiveSchedule(ctx context.Context, employeeID uint64, day time.Time) (bool, error)
}

// StationStore resolves scanner stations for location attribution.
type StationStore interface {
	ByID(ctx context.Context, id string) (model.ScannerStation, error)
}

// ScanLogStore appends scan log rows.
type ScanLogStore interface {
	Insert(ctx context.Context, l model.ScanLog) error
}

// TokenTTLBounds clamp the requested expiration window.
type TokenTTLBounds struct {
	Default int // seconds applied when the request omits a window
	Min     int
	Max     int
}

// Issuance precondition errors. Each maps to a distinct user-facing
// message so the UI can give targeted guidance.
var (
	ErrBadTokenType       = errors.New("token type must be clock_in or clock_out")
	ErrUnauthorizedTarget = errors.New("not allowed to generate tokens for other users")
	ErrCrossOrgTarget     = errors.New("target user belongs to a different organization")
	ErrTargetNotFound     = errors.New("target user not found")
	ErrAlreadyClockedIn   = errors.New("Already clocked in. Clock out before starting a new shift.")
	ErrNotClockedIn       = errors.New("No active time entry. Clock in before clocking out.")
	ErrNoActiveSchedule   = errors.New("No active schedule for today. Contact your manager.")
)

// ScanRejection is a terminal validation failure returned to the scanner
// station. Status is one of the model.Scan* categories and doubles as the
// scan_logs outcome; HTTPStatus is the handler's response code.
type ScanRejection struct {
	Status     string
	Message    string
	HTTPStatus int
}

func (e *ScanRejection) Error() string { return e.Message }

// Attendance wires the token exchange together. PublishScan is optional;
// when set it is called fire-and-forget after every attempt. Now is
// injectable for tests and defaults to time.Now.
type Attendance struct {
	Tokens    TokenStore
	Consumer  ConsumeStore
	Entries   EntryStore
	Users     UserStore
	Orgs      OrgStore
	Schedules ScheduleStore
	Stations  StationStore
	ScanLogs  ScanLogStore

	PublishScan func(ctx context.Context, ev queue.ScanEvent) error
	TTL         TokenTTLBounds
	Now         func() time.Time
}

func (s *Attendance) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// IssueRequest carries the authenticated caller identity (from JWT claims)
// and the requested token parameters. TargetUserID zero means "for
// myself".
type IssueRequest struct {
	CallerID          uint64
	CallerRole        string
	CallerOrgID       uint64
	TokenType         string
	ExpirationSeconds int
	TargetUserID      uint64
}

// IssueResult echoes what was minted so the caller can render the QR code
// and its countdown.
type IssueResult struct {
	TokenID           string
	Token             string
	ExpiresAt         time.Time
	TokenType         string
	UserID            uint64
	UserName          string
	ExpirationSeconds int
}

// Issue mints a single-use attendance token after checking the issuance
// preconditions in order: target authorization, schedule requirement,
// open-shift uniqueness. Issuance only reserves intent; no time entry is
// touched here.
func (s *Attendance) Issue(ctx context.Context, req IssueRequest) (IssueResult, error) {
	if !model.ValidTokenType(req.TokenType) {
		return IssueResult{}, ErrBadTokenType
	}

	// Resolve the target user. Issuing for someone else requires a
	// privileged role and the target must be in the caller's organization.
	targetID := req.CallerID
	if req.TargetUserID != 0 && req.TargetUserID != req.CallerID {
		if !model.IsPrivileged(req.CallerRole) {
			return IssueResult{}, ErrUnauthorizedTarget
		}
		targetID = req.TargetUserID
	}
	target, err := s.Users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return IssueResult{}, ErrTargetNotFound
		}
		return IssueResult{}, err
	}
	if target.OrganizationID != req.CallerOrgID {
		return IssueResult{}, ErrCrossOrgTarget
	}

	now := s.now()

	if req.TokenType == model.TokenClockIn {
		// Schedule requirement is an organization-level setting.
		org, err := s.Orgs.GetByID(ctx, req.CallerOrgID)
		if err != nil {
			return IssueResult{}, err
		}
		if org.RequireScheduleForClockIn {
			ok, err := s.Schedules.HasActiveSchedule(ctx, target.ID, now)
			if err != nil {
				return IssueResult{}, err
			}
			if !ok {
				return IssueResult{}, ErrNoActiveSchedule
			}
		}
		// At most one open shift per user, enforced here so the failure
		// happens at issuance time rather than at the scanner.
		_, err = s.Entries.OpenEntryByUser(ctx, target.ID)
		if err == nil {
			return IssueResult{}, ErrAlreadyClockedIn
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return IssueResult{}, err
		}
	} else {
		_, err := s.Entries.OpenEntryByUser(ctx, target.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return IssueResult{}, ErrNotClockedIn
		}
		if err != nil {
			return IssueResult{}, err
		}
	}

	ttl := s.clampTTL(req.ExpirationSeconds)
	value, err := utils.NewAttendanceTokenValue(target.ID, req.CallerOrgID, req.TokenType, now)
	if err != nil {
		return IssueResult{}, err
	}
	token := model.AttendanceToken{
		ID:             uuid.NewString(),
		TokenValue:     value,
		UserID:         target.ID,
		OrganizationID: req.CallerOrgID,
		TokenType:      req.TokenType,
		ExpiresAt:      now.Add(time.Duration(ttl) * time.Second),
	}
	if err := s.Tokens.Create(ctx, token); err != nil {
		return IssueResult{}, err
	}
	return IssueResult{
		TokenID:           token.ID,
		Token:             token.TokenValue,
		ExpiresAt:         token.ExpiresAt,
		TokenType:         token.TokenType,
		UserID:            target.ID,
		UserName:          target.Name,
		ExpirationSeconds: ttl,
	}, nil
}

func (s *Attendance) clampTTL(requested int) int {
	ttl := requested
	if ttl == 0 {
		ttl = s.TTL.Default
	}
	if s.TTL.Min > 0 && ttl < s.TTL.Min {
		ttl = s.TTL.Min
	}
	if s.TTL.Max > 0 && ttl > s.TTL.Max {
		ttl = s.TTL.Max
	}
	return ttl
}

// ValidateRequest is what a scanner station submits: the raw scanned value
// and, optionally, which station it is and where it hangs.
type ValidateRequest struct {
	Token           string
	StationID       string
	StationLocation string
}

// ValidateResult describes a successful consumption.
type ValidateResult struct {
	Message     string
	UserName    string
	Timestamp   time.Time
	TokenType   string
	TimeEntryID uint64
}

// Validate consumes a token exactly once and performs the attendance
// mutation it authorizes. Every attempt, accepted or rejected, produces a
// best-effort scan log row and queue event; failures of either never fail
// the scan. Rejections are returned as *ScanRejection; any other error is
// a store failure the handler reports as a generic 500.
func (s *Attendance) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	now := s.now()
	location := s.resolveLocation(ctx, req)

	token, err := s.Tokens.ByValue(ctx, req.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No user/org is resolvable from an unknown value; the log row
			// carries only the station reference.
			rej := &ScanRejection{Status: model.ScanInvalid, Message: "Invalid QR code.", HTTPStatus: 400}
			s.recordScan(ctx, scanRecord{station: req.StationID, location: location, status: rej.Status, errMsg: rej.Message, at: now})
			return ValidateResult{}, rej
		}
		return ValidateResult{}, err
	}

	rec := scanRecord{
		token:    token.ID,
		kind:     token.TokenType,
		user:     token.UserID,
		org:      token.OrganizationID,
		station:  req.StationID,
		location: location,
		at:       now,
	}

	if token.Used {
		rej := &ScanRejection{Status: model.ScanAlreadyUsed, Message: "QR code already used.", HTTPStatus: 400}
		rec.status, rec.errMsg = rej.Status, rej.Message
		s.recordScan(ctx, rec)
		return ValidateResult{}, rej
	}
	if !now.Before(token.ExpiresAt) {
		// Rejection is read-only: the token row keeps used=false.
		rej := &ScanRejection{Status: model.ScanExpired, Message: "QR code expired. Please generate a new one.", HTTPStatus: 400}
		rec.status, rec.errMsg = rej.Status, rej.Message
		s.recordScan(ctx, rec)
		return ValidateResult{}, rej
	}

	user, err := s.Users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			rej := &ScanRejection{Status: model.ScanError, Message: "User not found.", HTTPStatus: 404}
			rec.status, rec.errMsg = rej.Status, rej.Message
			s.recordScan(ctx, rec)
			return ValidateResult{}, rej
		}
		return ValidateResult{}, err
	}

	// Re-verify the schedule requirement at scan time; the rule may have
	// been enabled, or the schedule cancelled, since issuance.
	if token.TokenType == model.TokenClockIn {
		org, err := s.Orgs.GetByID(ctx, token.OrganizationID)
		if err != nil {
			return ValidateResult{}, err
		}
		if org.RequireScheduleForClockIn {
			ok, err := s.Schedules.HasActiveSchedule(ctx, user.ID, now)
			if err != nil {
				return ValidateResult{}, err
			}
			if !ok {
				rej := &ScanRejection{Status: model.ScanScheduleMismatch, Message: "No active schedule for today. Contact your manager.", HTTPStatus: 400}
				rec.status, rec.errMsg = rej.Status, rej.Message
				s.recordScan(ctx, rec)
				return ValidateResult{}, rej
			}
		}
	}

	var (
		entryID uint64
		message string
	)
	if token.TokenType == model.TokenClockIn {
		note := clockNote("Clocked in", location)
		entryID, err = s.Consumer.ConsumeClockIn(ctx, token.ID, user.ID, token.OrganizationID, now, location, note)
		message = "Clocked in successfully."
	} else {
		note := clockNote("Clocked out", location)
		entryID, err = s.Consumer.ConsumeClockOut(ctx, token.ID, user.ID, now, location, note)
		message = "Clocked out successfully."
	}
	if err != nil {
		if errors.Is(err, repository.ErrTokenAlreadyUsed) {
			// A concurrent scan consumed the token between lookup and
			// consume; the loser is rejected without a second mutation.
			rej := &ScanRejection{Status: model.ScanAlreadyUsed, Message: "QR code already used.", HTTPStatus: 400}
			rec.status, rec.errMsg = rej.Status, rej.Message
			s.recordScan(ctx, rec)
			return ValidateResult{}, rej
		}
		if errors.Is(err, repository.ErrNoOpenEntry) {
			rej := &ScanRejection{Status: model.ScanError, Message: "No active time entry to clock out of.", HTTPStatus: 400}
			rec.status, rec.errMsg = rej.Status, rej.Message
			s.recordScan(ctx, rec)
			return ValidateResult{}, rej
		}
		verb := "clock in"
		if token.TokenType == model.TokenClockOut {
			verb = "clock out"
		}
		rej := &ScanRejection{Status: model.ScanError, Message: "Failed to " + verb + ".", HTTPStatus: 500}
		rec.status, rec.errMsg = rej.Status, err.Error()
		s.recordScan(ctx, rec)
		return ValidateResult{}, rej
	}

	rec.status = model.ScanSuccess
	rec.userName = user.Name
	rec.entryID = entryID
	s.recordScan(ctx, rec)

	return ValidateResult{
		Message:     message,
		UserName:    user.Name,
		Timestamp:   now,
		TokenType:   token.TokenType,
		TimeEntryID: entryID,
	}, nil
}

// resolveLocation prefers the label sent by the station and falls back to
// the registered station record. Lookup failures are ignored; location is
// diagnostic only.
func (s *Attendance) resolveLocation(ctx context.Context, req ValidateRequest) string {
	if req.StationLocation != "" {
		return req.StationLocation
	}
	if req.StationID == "" || s.Stations == nil {
		return ""
	}
	station, err := s.Stations.ByID(ctx, req.StationID)
	if err != nil {
		return ""
	}
	return station.Location
}

func clockNote(action, location string) string {
	if location == "" {
		return action + " via QR scan"
	}
	return action + " via QR scan at " + location
}

// scanRecord collects everything one validation attempt knows about
// itself; zero values mean "unknown" and become NULLs in the log row.
type scanRecord struct {
	token    string
	kind     string
	user     uint64
	userName string
	org      uint64
	station  string
	location string
	status   string
	errMsg   string
	entryID  uint64
	at       time.Time
}

// recordScan writes the scan log row and publishes the queue event, both
// best effort. Errors are logged once to stderr and dropped; logging is
// diagnostic, the token row and time entry are authoritative.
func (s *Attendance) recordScan(ctx context.Context, rec scanRecord) {
	if s.ScanLogs != nil {
		l := model.ScanLog{
			Status:       rec.status,
			ErrorMessage: rec.errMsg,
			ScannedAt:    rec.at,
		}
		if rec.user != 0 {
			u := rec.user
			l.UserID = &u
		}
		if rec.org != 0 {
			o := rec.org
			l.OrganizationID = &o
		}
		if rec.token != "" {
			t := rec.token
			l.TokenID = &t
		}
		if rec.station != "" {
			st := rec.station
			l.StationID = &st
		}
		if err := s.ScanLogs.Insert(ctx, l); err != nil {
			log.Printf("scan log insert failed (status=%s): %v", rec.status, err)
		}
	}
	if s.PublishScan != nil {
		ev := queue.ScanEvent{
			Status:       rec.status,
			TokenID:      rec.token,
			TokenType:    rec.kind,
			UserID:       rec.user,
			UserName:     rec.userName,
			OrgID:        rec.org,
			StationID:    rec.station,
			Location:     rec.location,
			TimeEntryID:  rec.entryID,
			ErrorMessage: rec.errMsg,
			ScannedAt:    rec.at.Format(time.RFC3339),
		}
		if err := s.PublishScan(ctx, ev); err != nil {
			log.Printf("scan event publish failed (status=%s): %v", rec.status, err)
		}
	}
}
