package handler

import (
	"context"  // timeout contexts around service calls
	"errors"   // errors.Is/As for service error mapping
	"net/http" // HTTP status codes
	"strings"  // request trimming
	"time"     // timestamps and timeouts

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/attendance-qr/internal/service" // attendance token exchange
)

// AttendanceHandler exposes the QR token exchange over HTTP: issuing a
// token for the authenticated user (or, for privileged roles, a target
// user) and validating a scanned token from a station. The wire shape
// uses camelCase keys because the scanner stations and the QR generator
// dialog speak that contract.
type AttendanceHandler struct {
	Svc *service.Attendance
}

// NewAttendanceHandler constructs the handler; the service must be non-nil.
func NewAttendanceHandler(svc *service.Attendance) *AttendanceHandler {
	if svc == nil {
		panic("nil service passed to NewAttendanceHandler")
	}
	return &AttendanceHandler{Svc: svc}
}

type issueReq struct {
	TokenType         string `json:"tokenType"`
	ExpirationSeconds int    `json:"expirationSeconds"`
	TargetUserID      uint64 `json:"targetUserId"`
}

type validateReq struct {
	Token           string `json:"token"`
	StationID       string `json:"stationId"`
	StationLocation string `json:"stationLocation"`
}

// Issue handles POST /v1/attendance/tokens. Every precondition violation
// maps to its own status and message so the requesting UI can show
// targeted guidance ("clock out first" vs "no schedule today").
func (h *AttendanceHandler) Issue(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orgID, err := getOrgID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, err := getRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req issueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.TokenType = strings.TrimSpace(req.TokenType)
	if req.TokenType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tokenType is required"})
	}
	if req.ExpirationSeconds < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expirationSeconds must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Issue(ctx, service.IssueRequest{
		CallerID:          userID,
		CallerRole:        role,
		CallerOrgID:       orgID,
		TokenType:         req.TokenType,
		ExpirationSeconds: req.ExpirationSeconds,
		TargetUserID:      req.TargetUserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadTokenType):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrUnauthorizedTarget), errors.Is(err, service.ErrCrossOrgTarget):
			return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrTargetNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyClockedIn),
			errors.Is(err, service.ErrNotClockedIn),
			errors.Is(err, service.ErrNoActiveSchedule):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to generate QR token",
			"details": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":           true,
		"token":             res.Token,
		"expiresAt":         res.ExpiresAt.UTC().Format(time.RFC3339),
		"tokenType":         res.TokenType,
		"userName":          res.UserName,
		"userId":            res.UserID,
		"expirationSeconds": res.ExpirationSeconds,
	})
}

// Validate handles POST /v1/attendance/scan. The endpoint is public —
// scanner stations do not authenticate — and rate limited upstream.
// Rejections carry a stable scanStatus so a station can tell a stale code
// from a forged one.
func (h *AttendanceHandler) Validate(c echo.Context) error {
	var req validateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "token is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.Validate(ctx, service.ValidateRequest{
		Token:           req.Token,
		StationID:       strings.TrimSpace(req.StationID),
		StationLocation: strings.TrimSpace(req.StationLocation),
	})
	if err != nil {
		var rej *service.ScanRejection
		if errors.As(err, &rej) {
			return c.JSON(rej.HTTPStatus, echo.Map{
				"success":    false,
				"error":      rej.Message,
				"scanStatus": rej.Status,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Scan validation failed",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"message":     res.Message,
		"userName":    res.UserName,
		"timestamp":   res.Timestamp.UTC().Format(time.RFC3339),
		"tokenType":   res.TokenType,
		"timeEntryId": res.TimeEntryID,
	})
}
