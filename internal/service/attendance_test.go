package service_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/attendance-qr/internal/model"
	"github.com/iliyamo/attendance-qr/internal/queue"
	"github.com/iliyamo/attendance-qr/internal/repository"
	"github.com/iliyamo/attendance-qr/internal/service"
)

// fakeWorld implements every store interface the service depends on and
// mirrors the transactional consume semantics of the real store: the token
// flag flips before the entry mutation, and a failed clock-out rolls the
// flag back.
type fakeWorld struct {
	now time.Time

	users     map[uint64]model.User
	orgs      map[uint64]model.Organization
	schedules map[uint64]bool
	stations  map[string]model.ScannerStation
	tokens    map[string]model.AttendanceToken // keyed by token value
	entries   []*model.TimeEntry
	nextEntry uint64
	logs      []model.ScanLog
	events    []queue.ScanEvent

	consumeErr error // forces ConsumeClockIn/Out to fail
}

func newWorld() *fakeWorld {
	return &fakeWorld{
		now: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
		users: map[uint64]model.User{
			1: {ID: 1, OrganizationID: 1, Name: "Dana Field", Role: model.RoleEmployee, IsActive: true},
			2: {ID: 2, OrganizationID: 1, Name: "Mori Lane", Role: model.RoleManager, IsActive: true},
			3: {ID: 3, OrganizationID: 2, Name: "Out Sider", Role: model.RoleEmployee, IsActive: true},
		},
		orgs: map[uint64]model.Organization{
			1: {ID: 1, Name: "Acme"},
			2: {ID: 2, Name: "Other"},
		},
		schedules: map[uint64]bool{},
		stations:  map[string]model.ScannerStation{},
		tokens:    map[string]model.AttendanceToken{},
	}
}

func (w *fakeWorld) Create(_ context.Context, t model.AttendanceToken) error {
	w.tokens[t.TokenValue] = t
	return nil
}

func (w *fakeWorld) ByValue(_ context.Context, value string) (model.AttendanceToken, error) {
	t, ok := w.tokens[value]
	if !ok {
		return model.AttendanceToken{}, sql.ErrNoRows
	}
	return t, nil
}

func (w *fakeWorld) tokenByID(id string) (string, model.AttendanceToken, bool) {
	for v, t := range w.tokens {
		if t.ID == id {
			return v, t, true
		}
	}
	return "", model.AttendanceToken{}, false
}

func (w *fakeWorld) markUsed(id string, at time.Time, location string) bool {
	v, t, ok := w.tokenByID(id)
	if !ok || t.Used {
		return false
	}
	t.Used = true
	t.UsedAt = &at
	t.UsedLocation = location
	w.tokens[v] = t
	return true
}

func (w *fakeWorld) unmarkUsed(id string) {
	if v, t, ok := w.tokenByID(id); ok {
		t.Used = false
		t.UsedAt = nil
		t.UsedLocation = ""
		w.tokens[v] = t
	}
}

func (w *fakeWorld) ConsumeClockIn(_ context.Context, tokenID string, userID, orgID uint64, at time.Time, location, note string) (uint64, error) {
	if w.consumeErr != nil {
		return 0, w.consumeErr
	}
	if !w.markUsed(tokenID, at, location) {
		return 0, repository.ErrTokenAlreadyUsed
	}
	w.nextEntry++
	e := &model.TimeEntry{ID: w.nextEntry, UserID: userID, OrganizationID: orgID, ClockIn: at, Notes: note}
	w.entries = append(w.entries, e)
	return e.ID, nil
}

func (w *fakeWorld) ConsumeClockOut(_ context.Context, tokenID string, userID uint64, at time.Time, location, note string) (uint64, error) {
	if w.consumeErr != nil {
		return 0, w.consumeErr
	}
	if !w.markUsed(tokenID, at, location) {
		return 0, repository.ErrTokenAlreadyUsed
	}
	for _, e := range w.entries {
		if e.UserID == userID && e.ClockOut == nil {
			out := at
			e.ClockOut = &out
			mins := int64(at.Sub(e.ClockIn) / time.Minute)
			e.DurationMinutes = &mins
			if e.Notes != "" {
				e.Notes += "\n" + note
			} else {
				e.Notes = note
			}
			return e.ID, nil
		}
	}
	w.unmarkUsed(tokenID)
	return 0, repository.ErrNoOpenEntry
}

func (w *fakeWorld) OpenEntryByUser(_ context.Context, userID uint64) (model.TimeEntry, error) {
	for _, e := range w.entries {
		if e.UserID == userID && e.ClockOut == nil {
			return *e, nil
		}
	}
	return model.TimeEntry{}, sql.ErrNoRows
}

func (w *fakeWorld) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := w.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

// orgStore adapts fakeWorld to OrgStore; the user lookup above already
// claims the GetByID method name on fakeWorld itself.
type orgStore struct{ w *fakeWorld }

func (o orgStore) GetByID(_ context.Context, id uint64) (model.Organization, error) {
	org, ok := o.w.orgs[id]
	if !ok {
		return model.Organization{}, sql.ErrNoRows
	}
	return org, nil
}

func (w *fakeWorld) HasActiveSchedule(_ context.Context, employeeID uint64, _ time.Time) (bool, error) {
	return w.schedules[employeeID], nil
}

func (w *fakeWorld) ByID(_ context.Context, id string) (model.ScannerStation, error) {
	s, ok := w.stations[id]
	if !ok {
		return model.ScannerStation{}, sql.ErrNoRows
	}
	return s, nil
}

func (w *fakeWorld) Insert(_ context.Context, l model.ScanLog) error {
	w.logs = append(w.logs, l)
	return nil
}

func newService(w *fakeWorld) *service.Attendance {
	return &service.Attendance{
		Tokens:    w,
		Consumer:  w,
		Entries:   w,
		Users:     w,
		Orgs:      orgStore{w},
		Schedules: w,
		Stations:  w,
		ScanLogs:  w,
		PublishScan: func(_ context.Context, ev queue.ScanEvent) error {
			w.events = append(w.events, ev)
			return nil
		},
		TTL: service.TokenTTLBounds{Default: 45, Min: 15, Max: 300},
		Now: func() time.Time { return w.now },
	}
}

func issueFor(t *testing.T, s *service.Attendance, req service.IssueRequest) service.IssueResult {
	t.Helper()
	res, err := s.Issue(context.Background(), req)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return res
}

func selfIssue(tokenType string) service.IssueRequest {
	return service.IssueRequest{CallerID: 1, CallerRole: model.RoleEmployee, CallerOrgID: 1, TokenType: tokenType}
}

func TestIssueRejectsBadTokenType(t *testing.T) {
	s := newService(newWorld())
	_, err := s.Issue(context.Background(), service.IssueRequest{CallerID: 1, CallerRole: model.RoleEmployee, CallerOrgID: 1, TokenType: "lunch_break"})
	if !errors.Is(err, service.ErrBadTokenType) {
		t.Fatalf("err = %v, want ErrBadTokenType", err)
	}
}

func TestIssueClampsTTL(t *testing.T) {
	w := newWorld()
	s := newService(w)
	cases := []struct {
		requested int
		want      int
	}{
		{0, 45},
		{5, 15},
		{60, 60},
		{7200, 300},
	}
	for _, tc := range cases {
		req := selfIssue(model.TokenClockIn)
		req.ExpirationSeconds = tc.requested
		res := issueFor(t, s, req)
		if res.ExpirationSeconds != tc.want {
			t.Errorf("requested %d: ExpirationSeconds = %d, want %d", tc.requested, res.ExpirationSeconds, tc.want)
		}
		wantExp := w.now.Add(time.Duration(tc.want) * time.Second)
		if !res.ExpiresAt.Equal(wantExp) {
			t.Errorf("requested %d: ExpiresAt = %v, want %v", tc.requested, res.ExpiresAt, wantExp)
		}
	}
}

func TestIssueTargetAuthorization(t *testing.T) {
	w := newWorld()
	s := newService(w)

	// An employee cannot mint for someone else.
	_, err := s.Issue(context.Background(), service.IssueRequest{
		CallerID: 1, CallerRole: model.RoleEmployee, CallerOrgID: 1,
		TokenType: model.TokenClockIn, TargetUserID: 2,
	})
	if !errors.Is(err, service.ErrUnauthorizedTarget) {
		t.Fatalf("employee for other: err = %v, want ErrUnauthorizedTarget", err)
	}

	// A manager can, within the same organization.
	res := issueFor(t, s, service.IssueRequest{
		CallerID: 2, CallerRole: model.RoleManager, CallerOrgID: 1,
		TokenType: model.TokenClockIn, TargetUserID: 1,
	})
	if res.UserID != 1 || res.UserName != "Dana Field" {
		t.Fatalf("manager for employee: got user %d %q", res.UserID, res.UserName)
	}

	// But not across organizations.
	_, err = s.Issue(context.Background(), service.IssueRequest{
		CallerID: 2, CallerRole: model.RoleManager, CallerOrgID: 1,
		TokenType: model.TokenClockIn, TargetUserID: 3,
	})
	if !errors.Is(err, service.ErrCrossOrgTarget) {
		t.Fatalf("cross-org target: err = %v, want ErrCrossOrgTarget", err)
	}

	// Unknown target.
	_, err = s.Issue(context.Background(), service.IssueRequest{
		CallerID: 2, CallerRole: model.RoleManager, CallerOrgID: 1,
		TokenType: model.TokenClockIn, TargetUserID: 99,
	})
	if !errors.Is(err, service.ErrTargetNotFound) {
		t.Fatalf("missing target: err = %v, want ErrTargetNotFound", err)
	}
}

func TestIssueClockInBlockedWhileClockedIn(t *testing.T) {
	w := newWorld()
	s := newService(w)
	w.entries = append(w.entries, &model.TimeEntry{ID: 7, UserID: 1, OrganizationID: 1, ClockIn: w.now.Add(-2 * time.Hour)})

	_, err := s.Issue(context.Background(), selfIssue(model.TokenClockIn))
	if !errors.Is(err, service.ErrAlreadyClockedIn) {
		t.Fatalf("err = %v, want ErrAlreadyClockedIn", err)
	}
	if len(w.tokens) != 0 {
		t.Fatalf("token was persisted despite open shift")
	}
}

func TestIssueClockOutRequiresOpenEntry(t *testing.T) {
	s := newService(newWorld())
	_, err := s.Issue(context.Background(), selfIssue(model.TokenClockOut))
	if !errors.Is(err, service.ErrNotClockedIn) {
		t.Fatalf("err = %v, want ErrNotClockedIn", err)
	}
}

func TestIssueScheduleRequirement(t *testing.T) {
	w := newWorld()
	s := newService(w)
	org := w.orgs[1]
	org.RequireScheduleForClockIn = true
	w.orgs[1] = org

	_, err := s.Issue(context.Background(), selfIssue(model.TokenClockIn))
	if !errors.Is(err, service.ErrNoActiveSchedule) {
		t.Fatalf("no schedule: err = %v, want ErrNoActiveSchedule", err)
	}

	w.schedules[1] = true
	if _, err := s.Issue(context.Background(), selfIssue(model.TokenClockIn)); err != nil {
		t.Fatalf("scheduled: %v", err)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	w := newWorld()
	s := newService(w)

	_, err := s.Validate(context.Background(), service.ValidateRequest{Token: "not-a-token"})
	var rej *service.ScanRejection
	if !errors.As(err, &rej) {
		t.Fatalf("err = %v, want *ScanRejection", err)
	}
	if rej.Status != model.ScanInvalid || rej.HTTPStatus != 400 {
		t.Fatalf("rejection = %+v", rej)
	}
	if rej.Message != "Invalid QR code." {
		t.Fatalf("message = %q", rej.Message)
	}
	if len(w.logs) != 1 || w.logs[0].Status != model.ScanInvalid {
		t.Fatalf("scan log not recorded: %+v", w.logs)
	}
	if w.logs[0].UserID != nil || w.logs[0].TokenID != nil {
		t.Fatalf("unknown token must not be attributed: %+v", w.logs[0])
	}
}

func TestValidateExpiredTokenIsReadOnly(t *testing.T) {
	w := newWorld()
	s := newService(w)
	res := issueFor(t, s, selfIssue(model.TokenClockIn))

	w.now = res.ExpiresAt // boundary instant counts as expired

	_, err := s.Validate(context.Background(), service.ValidateRequest{Token: res.Token})
	var rej *service.ScanRejection
	if !errors.As(err, &rej) || rej.Status != model.ScanExpired {
		t.Fatalf("err = %v, want expired rejection", err)
	}
	if rej.Message != "QR code expired. Please generate a new one." {
		t.Fatalf("message = %q", rej.Message)
	}
	if tok := w.tokens[res.Token]; tok.Used {
		t.Fatalf("expired rejection mutated the token row")
	}
	if len(w.entries) != 0 {
		t.Fatalf("expired rejection created a time entry")
	}
}

func TestValidateClockInRoundTrip(t *testing.T) {
	w := newWorld()
	s := newService(w)
	w.stations["st-1"] = model.ScannerStation{ID: "st-1", OrganizationID: 1, Location: "Front Desk", IsActive: true}
	res := issueFor(t, s, selfIssue(model.TokenClockIn))

	out, err := s.Validate(context.Background(), service.ValidateRequest{Token: res.Token, StationID: "st-1"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if out.Message != "Clocked in successfully." || out.UserName != "Dana Field" || out.TokenType != model.TokenClockIn {
		t.Fatalf("result = %+v", out)
	}
	if out.TimeEntryID == 0 {
		t.Fatalf("no time entry id returned")
	}

	tok := w.tokens[res.Token]
	if !tok.Used || tok.UsedAt == nil || tok.UsedLocation != "Front Desk" {
		t.Fatalf("token not consumed with station location: %+v", tok)
	}
	if len(w.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(w.entries))
	}
	e := w.entries[0]
	if e.ClockOut != nil || !e.ClockIn.Equal(w.now) {
		t.Fatalf("entry = %+v", e)
	}
	if !strings.Contains(e.Notes, "Front Desk") {
		t.Fatalf("notes missing station location: %q", e.Notes)
	}

	if len(w.events) != 1 || w.events[0].Status != model.ScanSuccess {
		t.Fatalf("queue event not published: %+v", w.events)
	}
	last := w.logs[len(w.logs)-1]
	if last.Status != model.ScanSuccess || last.UserID == nil || *last.UserID != 1 {
		t.Fatalf("success not logged: %+v", last)
	}
}

func TestValidateSecondScanIsAlreadyUsed(t *testing.T) {
	w := newWorld()
	s := newService(w)
	res := issueFor(t, s, selfIssue(model.TokenClockIn))

	if _, err := s.Validate(context.Background(), service.ValidateRequest{Token: res.Token}); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	_, err := s.Validate(context.Background(), service.ValidateRequest{Token: res.Token})
	var rej *service.ScanRejection
	if !errors.As(err, &rej) || rej.Status != model.ScanAlreadyUsed {
		t.Fatalf("second scan: err = %v, want already_used", err)
	}
	if rej.Message != "QR code already used." {
		t.Fatalf("message = %q", rej.Message)
	}
	if len(w.entries) != 1 {
		t.Fatalf("second scan mutated entries: %d", len(w.entries))
	}
}

func TestValidateClockOutRoundTrip(t *testing.T) {
	w := newWorld()
	s := newService(w)

	in := issueFor(t, s, selfIssue(model.TokenClockIn))
	if _, err := s.Validate(context.Background(), service.ValidateRequest{Token: in.Token}); err != nil {
		t.Fatalf("clock in: %v", err)
	}

	w.now = w.now.Add(95 * time.Minute)
	out := issueFor(t, s, selfIssue(model.TokenClockOut))
	res, err := s.Validate(context.Background(), service.ValidateRequest{Token: out.Token, StationLocation: "Back Door"})
	if err != nil {
		t.Fatalf("clock out: %v", err)
	}
	if res.Message != "Clocked out successfully." || res.TokenType != model.TokenClockOut {
		t.Fatalf("result = %+v", res)
	}

	e := w.entries[0]
	if e.ClockOut == nil || !e.ClockOut.Equal(w.now) {
		t.Fatalf("entry not closed: %+v", e)
	}
	if e.DurationMinutes == nil || *e.DurationMinutes != 95 {
		t.Fatalf("duration = %v, want 95", e.DurationMinutes)
	}
	if !strings.Contains(e.Notes, "Back Door") {
		t.Fatalf("notes missing location: %q", e.Notes)
	}
}

func TestValidateClockOutWithoutOpenEntry(t *testing.T) {
	w := newWorld()
	s := newService(w)

	// Mint a clock-out token by seeding an open entry, then close it behind
	// the token's back so consumption finds nothing to close.
	w.entries = append(w.entries, &model.TimeEntry{ID: 1, UserID: 1, OrganizationID: 1, ClockIn: w.now.Add(-time.Hour)})
	res := issueFor(t, s, selfIssue(model.TokenClockOut))
	closed := w.now
	w.entries[0].ClockOut = &closed

	_, err := s.Validate(context.Background(), service.ValidateRequest{Token: res.Token})
	var rej *service.ScanRejection
	if !errors.As(err, &rej) || rej.Status != model.ScanError || rej.HTTPStatus != 400 {
		t.Fatalf("err = %v, want error rejection", err)
	}
	// The rollback leaves the token spendable again.
	if w.tokens[res.Token].Used {
		t.Fatalf("token stayed consumed after rolled-back clock out")
	}
}

func TestValidateScheduleRecheckAtScanTime(t *testing.T) {
	w := newWorld()
	s := newService(w)
	res := issueFor(t, s, selfIssue(model.TokenClockIn))

	// The rule flips on between issuance and scan.
	org := w.orgs[1]
	org.RequireScheduleForClockIn = true
	w.orgs[1] = org

	_, err := s.Validate(context.Background(), service.ValidateRequest{Token: res.Token})
	var rej *service.ScanRejection
	if !errors.As(err, &rej) || rej.Status != model.ScanScheduleMismatch {
		t.Fatalf("err = %v, want schedule_mismatch", err)
	}
	if rej.Message != "No active schedule for today. Contact your manager." {
		t.Fatalf("message = %q", rej.Message)
	}
	if w.tokens[res.Token].Used {
		t.Fatalf("schedule rejection consumed the token")
	}
}

func TestValidateStoreFailureIsGeneric(t *testing.T) {
	w := newWorld()
	s := newService(w)
	res := issueFor(t, s, selfIssue(model.TokenClockIn))

	w.consumeErr = errors.New("deadlock found when trying to get lock")
	_, err := s.Validate(context.Background(), service.ValidateRequest{Token: res.Token})
	var rej *service.ScanRejection
	if !errors.As(err, &rej) || rej.Status != model.ScanError || rej.HTTPStatus != 500 {
		t.Fatalf("err = %v, want 500 error rejection", err)
	}
	if rej.Message != "Failed to clock in." {
		t.Fatalf("message = %q", rej.Message)
	}
	last := w.logs[len(w.logs)-1]
	if !strings.Contains(last.ErrorMessage, "deadlock") {
		t.Fatalf("log row lost the store error: %+v", last)
	}
}

func TestValidateUserGone(t *testing.T) {
	w := newWorld()
	s := newService(w)
	res := issueFor(t, s, selfIssue(model.TokenClockIn))
	delete(w.users, 1)

	_, err := s.Validate(context.Background(), service.ValidateRequest{Token: res.Token})
	var rej *service.ScanRejection
	if !errors.As(err, &rej) || rej.HTTPStatus != 404 || rej.Message != "User not found." {
		t.Fatalf("err = %v, want 404 user-not-found rejection", err)
	}
}
