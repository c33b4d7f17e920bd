package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/attendance-qr/internal/model"
	"github.com/iliyamo/attendance-qr/internal/repository"
)

// AdminHandler groups the org-scoped management endpoints: scanner station
// registration, the schedule-required setting, and scan log review. All
// routes behind it carry the privileged-role middleware; the handlers
// still scope every query by the caller's organization.
type AdminHandler struct {
	Stations *repository.StationRepo
	Orgs     *repository.OrganizationRepo
	ScanLogs *repository.ScanLogRepo
}

// NewAdminHandler constructs the handler with its repositories.
func NewAdminHandler(stations *repository.StationRepo, orgs *repository.OrganizationRepo, scanLogs *repository.ScanLogRepo) *AdminHandler {
	if stations == nil || orgs == nil || scanLogs == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Stations: stations, Orgs: orgs, ScanLogs: scanLogs}
}

type stationResp struct {
	ID          string `json:"id"`
	StationName string `json:"station_name"`
	Location    string `json:"location"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

func toStationResp(s model.ScannerStation) stationResp {
	return stationResp{
		ID:          s.ID,
		StationName: s.StationName,
		Location:    s.Location,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ListStations handles GET /v1/stations.
func (h *AdminHandler) ListStations(c echo.Context) error {
	orgID, err := getOrgID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stations, err := h.Stations.ListByOrg(ctx, orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	resp := make([]stationResp, 0, len(stations))
	for _, s := range stations {
		resp = append(resp, toStationResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"stations": resp})
}

// CreateStation handles POST /v1/stations.
func (h *AdminHandler) CreateStation(c echo.Context) error {
	orgID, err := getOrgID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		StationName string `json:"station_name"`
		Location    string `json:"location"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(body.StationName) == "" || strings.TrimSpace(body.Location) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "station_name and location required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	station, err := h.Stations.Create(ctx, orgID, body.StationName, body.Location)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create station failed"})
	}
	return c.JSON(http.StatusCreated, toStationResp(station))
}

// UpdateStation handles PATCH /v1/stations/:id, toggling is_active.
func (h *AdminHandler) UpdateStation(c echo.Context) error {
	orgID, err := getOrgID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
	}
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil || body.IsActive == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Stations.SetActive(ctx, orgID, id, *body.IsActive)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update station failed"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "is_active": *body.IsActive})
}

// UpdateSettings handles PATCH /v1/organization/settings. The only
// setting today is the schedule-required rule for clock-in tokens.
func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	orgID, err := getOrgID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		RequireScheduleForClockIn *bool `json:"require_schedule_for_clock_in"`
	}
	if err := c.Bind(&body); err != nil || body.RequireScheduleForClockIn == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "require_schedule_for_clock_in required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Orgs.SetRequireSchedule(ctx, orgID, *body.RequireScheduleForClockIn); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update settings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"require_schedule_for_clock_in": *body.RequireScheduleForClockIn})
}

// ListScanLogs handles GET /v1/scan-logs. Most recent first; optional
// ?limit= caps the result.
func (h *AdminHandler) ListScanLogs(c echo.Context) error {
	orgID, err := getOrgID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	logs, err := h.ScanLogs.RecentByOrg(ctx, orgID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	type scanLogResp struct {
		ID           uint64  `json:"id"`
		UserID       *uint64 `json:"user_id"`
		TokenID      *string `json:"token_id"`
		StationID    *string `json:"station_id"`
		Status       string  `json:"status"`
		ErrorMessage string  `json:"error_message,omitempty"`
		ScannedAt    string  `json:"scanned_at"`
	}
	resp := make([]scanLogResp, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, scanLogResp{
			ID:           l.ID,
			UserID:       l.UserID,
			TokenID:      l.TokenID,
			StationID:    l.StationID,
			Status:       l.Status,
			ErrorMessage: l.ErrorMessage,
			ScannedAt:    l.ScannedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"scan_logs": resp})
}
