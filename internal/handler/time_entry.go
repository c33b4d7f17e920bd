package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/attendance-qr/internal/model"
	"github.com/iliyamo/attendance-qr/internal/repository"
)

// TimeEntryHandler serves the read-only time entry views. Entries are
// only ever created or closed through token validation; these endpoints
// let an employee see their own history and current status.
type TimeEntryHandler struct {
	Entries *repository.TimeEntryRepo
}

// NewTimeEntryHandler constructs the handler; the repo must be non-nil.
func NewTimeEntryHandler(entries *repository.TimeEntryRepo) *TimeEntryHandler {
	if entries == nil {
		panic("nil repository passed to NewTimeEntryHandler")
	}
	return &TimeEntryHandler{Entries: entries}
}

type timeEntryResp struct {
	ID              uint64  `json:"id"`
	ClockIn         string  `json:"clock_in"`
	ClockOut        *string `json:"clock_out"`
	DurationMinutes *int64  `json:"duration_minutes"`
	Notes           string  `json:"notes,omitempty"`
}

func toEntryResp(e model.TimeEntry) timeEntryResp {
	r := timeEntryResp{
		ID:              e.ID,
		ClockIn:         e.ClockIn.UTC().Format(time.RFC3339),
		DurationMinutes: e.DurationMinutes,
		Notes:           e.Notes,
	}
	if e.ClockOut != nil {
		s := e.ClockOut.UTC().Format(time.RFC3339)
		r.ClockOut = &s
	}
	return r
}

// List handles GET /v1/time-entries. Optional ?limit= caps the result.
func (h *TimeEntryHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Entries.RecentByUser(ctx, userID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	resp := make([]timeEntryResp, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResp(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": resp})
}

// Current handles GET /v1/time-entries/current. Returns the open shift or
// 404 when the user is not clocked in.
func (h *TimeEntryHandler) Current(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entry, err := h.Entries.OpenEntryByUser(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not clocked in"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toEntryResp(entry))
}
