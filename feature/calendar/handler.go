package calendar

import (
	"errors"
	"fmt"

	"clinic-manager/core/logger"
	"clinic-manager/core/reconcile"
	"clinic-manager/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for calendar synchronization.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SyncRequest is the body of POST /calendar/sync.
type SyncRequest struct {
	Month  int  `json:"month"`
	Year   int  `json:"year"`
	DryRun bool `json:"dry_run"`
}

// PurgeRequest is the body of POST /calendar/purge.
type PurgeRequest struct {
	CalendarID string `json:"calendarId"`
}

// RegisterRoutes registers the calendar routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/calendar")
	group.Get("/list", h.HandleListCalendars)
	group.Post("/sync", h.HandleStartSync)
	group.Get("/sync/:id", h.HandleSyncStatus)
	group.Post("/purge", h.HandleStartPurge)
	group.Get("/purge/:id", h.HandlePurgeStatus)
	group.Get("/export.ics", h.HandleExport)
}

// HandleListCalendars lists the managed calendars.
// @Summary List Calendars
// @Description List the remote calendars this service writes to.
// @Tags calendar
// @Produce json
// @Param refresh query bool false "Bypass the calendar cache"
// @Success 200 {array} calendar.CalendarInfo "Calendars"
// @Failure 502 {object} map[string]string "Remote calendar error"
// @Router /calendar/list [get]
func (h *Handler) HandleListCalendars(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	list := h.service.Calendars
	if utils.ToBool(c.Query("refresh")) {
		list = h.service.RefreshCalendars
	}
	cals, err := list(c.Context())
	if err != nil {
		l.Error("Calendar listing failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(cals)
}

// HandleStartSync starts a synchronization job.
// @Summary Start Sync
// @Description Synchronize the appointments of a month to the studio calendars. Defaults to the current month.
// @Tags calendar
// @Accept json
// @Produce json
// @Param request body SyncRequest false "Period"
// @Success 202 {object} map[string]string "Job id"
// @Failure 400 {object} map[string]string "Invalid period"
// @Failure 409 {object} map[string]string "Sync already running"
// @Router /calendar/sync [post]
func (h *Handler) HandleStartSync(c *fiber.Ctx) error {
	var req SyncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	month, year := h.service.CurrentPeriod()
	if req.Month == 0 {
		req.Month = month
	}
	if req.Year == 0 {
		req.Year = year
	}

	id, err := h.service.StartSync(c.Context(), req.Month, req.Year, req.DryRun)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	logger.WithRayID(h.service.logger, c).Info("Sync job started",
		zap.String("job_id", id), zap.Int("month", req.Month), zap.Int("year", req.Year))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": id})
}

// HandleSyncStatus returns a sync job.
// @Summary Sync Status
// @Description Poll the status and result of a synchronization job.
// @Tags calendar
// @Produce json
// @Param id path string true "Job id"
// @Success 200 {object} jobs.Job "Job"
// @Failure 404 {object} map[string]string "Unknown job"
// @Router /calendar/sync/{id} [get]
func (h *Handler) HandleSyncStatus(c *fiber.Ctx) error {
	job, err := h.service.SyncStatus(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(job)
}

// HandleStartPurge starts a purge job.
// @Summary Start Purge
// @Description Delete every event of a managed calendar.
// @Tags calendar
// @Accept json
// @Produce json
// @Param request body PurgeRequest true "Calendar"
// @Success 202 {object} map[string]string "Job id"
// @Failure 400 {object} map[string]string "Unmanaged calendar"
// @Failure 502 {object} map[string]string "Remote calendar error"
// @Router /calendar/purge [post]
func (h *Handler) HandleStartPurge(c *fiber.Ctx) error {
	var req PurgeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	id, err := h.service.StartPurge(c.Context(), req.CalendarID)
	if err != nil {
		if !errors.Is(err, ErrUnmanagedCalendar) {
			logger.WithRayID(h.service.logger, c).Error("Purge not started", zap.Error(err))
		}
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	logger.WithRayID(h.service.logger, c).Info("Purge job started",
		zap.String("job_id", id), zap.String("calendar_id", req.CalendarID))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": id})
}

// HandlePurgeStatus returns a purge job.
// @Summary Purge Status
// @Description Poll the status and result of a purge job.
// @Tags calendar
// @Produce json
// @Param id path string true "Job id"
// @Success 200 {object} jobs.Job "Job"
// @Failure 404 {object} map[string]string "Unknown job"
// @Router /calendar/purge/{id} [get]
func (h *Handler) HandlePurgeStatus(c *fiber.Ctx) error {
	job, err := h.service.PurgeStatus(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(job)
}

// HandleExport exports appointments as iCalendar.
// @Summary Export ICS
// @Description Export the appointments of a month as an .ics file, optionally for one studio.
// @Tags calendar
// @Produce text/calendar
// @Param month query int false "Month (1-12)"
// @Param year query int false "Year"
// @Param studio query int false "Studio, 0 for all"
// @Success 200 {string} string "iCalendar document"
// @Failure 400 {object} map[string]string "Invalid period"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /calendar/export.ics [get]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	month, year := h.service.CurrentPeriod()
	month = c.QueryInt("month", month)
	year = c.QueryInt("year", year)
	studio := c.QueryInt("studio", 0)

	doc, err := h.service.ExportICS(c.Context(), month, year, studio)
	if err != nil {
		if statusFor(err) == fiber.StatusInternalServerError {
			logger.WithRayID(h.service.logger, c).Error("Export failed", zap.Error(err))
		}
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="appointments-%d-%02d.ics"`, year, month))
	return c.SendString(doc)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, reconcile.ErrConfiguration), errors.Is(err, ErrUnmanagedCalendar):
		return fiber.StatusBadRequest
	case errors.Is(err, reconcile.ErrRunInProgress):
		return fiber.StatusConflict
	case errors.Is(err, ErrJobNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, reconcile.ErrSourceRead):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadGateway
	}
}
