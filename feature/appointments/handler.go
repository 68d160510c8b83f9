package appointments

import (
	"errors"

	"clinic-manager/core/logger"
	"clinic-manager/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the appointments routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/appointments", h.HandleList)
	app.Get("/appointments/year", h.HandleYearCounts)
}

// HandleList lists the appointments of a month.
// @Summary List Appointments
// @Description List the legacy appointments of a month as read by the sync engine.
// @Tags appointments
// @Produce json
// @Param month query int false "Month (1-12), defaults to the current month"
// @Param year query int false "Year, defaults to the current year"
// @Success 200 {object} Listing "Appointments"
// @Failure 400 {object} map[string]string "Invalid period"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /appointments [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	month, year := h.service.CurrentPeriod()
	month = c.QueryInt("month", month)
	year = c.QueryInt("year", year)

	l := logger.WithRayID(h.service.logger, c)

	listing, err := h.service.List(c.Context(), month, year)
	if err != nil {
		if errors.Is(err, reconcile.ErrConfiguration) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Appointments listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(listing)
}

// HandleYearCounts returns monthly appointment counts of the last three years.
// @Summary Yearly Appointment Counts
// @Description Appointment counts per month for the current year and the two before it.
// @Tags appointments
// @Produce json
// @Success 200 {object} map[string]interface{} "Counts keyed by year"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /appointments/year [get]
func (h *Handler) HandleYearCounts(c *fiber.Ctx) error {
	counts, err := h.service.YearCounts(c.Context())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Appointment counts failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": counts})
}
