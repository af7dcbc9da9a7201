package handlers

import (
	"errors"
	"net/http"
	"time"

	"powersense/internal/models"
	"powersense/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
	errTipsBusy        = "tips are already being generated"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// PageRequest is the payload for switching the current view.
type PageRequest struct {
	// One of schedule, devices, usage, automation, ai, premium
	Page string `json:"page" binding:"required" example:"usage"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Dashboard state
// @Description  Current page, devices, rules and the last tips of the caller's session
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  models.DashboardState
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/dashboard [get]
// @Security     BearerAuth
func (h *Handler) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Dashboard.State(c.Request.Context(), currentUser(c)))
}

// @Summary      Switch page
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body      PageRequest  true  "Page payload"
// @Success      200   {object}  models.DashboardState
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/dashboard/page [put]
// @Security     BearerAuth
func (h *Handler) setPage(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	st, err := h.services.Dashboard.Navigate(c.Request.Context(), currentUser(c), models.Page(req.Page))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Load-shedding schedule
// @Description  Slots plus the countdown to the next one, evaluated at request time
// @Tags         schedule
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "slots, countdown, stage, next, upcoming"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/schedule [get]
// @Security     BearerAuth
func (h *Handler) getSchedule(c *gin.Context) {
	view := h.services.Schedule.View(time.Now())
	c.JSON(http.StatusOK, gin.H{
		"slots":     h.services.Schedule.Slots(),
		"countdown": view.Countdown,
		"stage":     view.Stage,
		"next":      view.Next,
		"upcoming":  view.Upcoming,
	})
}

// @Summary      Devices
// @Tags         devices
// @Produce      json
// @Success      200  {object}  service.DeviceSummary
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) getDevices(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Dashboard.Devices(c.Request.Context(), currentUser(c)))
}

// @Summary      Toggle device
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device id"
// @Success      200  {object}  map[string]interface{}  "device, summary"
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{id}/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggleDevice(c *gin.Context) {
	ctx := c.Request.Context()
	uid := currentUser(c)
	d, err := h.services.Dashboard.ToggleDevice(ctx, uid, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to toggle device", "device_toggle_failed", err, "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"device":  d,
		"summary": h.services.Dashboard.Devices(ctx, uid),
	})
}

// @Summary      Automation rules
// @Tags         automation
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "rules"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/rules [get]
// @Security     BearerAuth
func (h *Handler) getRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": h.services.Dashboard.Rules(c.Request.Context(), currentUser(c))})
}

// @Summary      Toggle rule
// @Tags         automation
// @Produce      json
// @Param        id   path      string  true  "Rule id"
// @Success      200  {object}  models.AutomationRule
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/rules/{id}/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggleRule(c *gin.Context) {
	r, err := h.services.Dashboard.ToggleRule(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to toggle rule", "rule_toggle_failed", err, "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary      Live usage window
// @Description  The shared rolling buffer with min/max/mean/std-dev
// @Tags         usage
// @Produce      json
// @Success      200  {object}  service.UsageSnapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/usage [get]
// @Security     BearerAuth
func (h *Handler) getUsage(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Telemetry.Snapshot())
}

// @Summary      Generate power-saving tips
// @Description  Always answers with a non-empty list; offline and error fallbacks are served as 200
// @Tags         ai
// @Produce      json
// @Success      200  {object}  map[string][]string
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/tips [post]
// @Security     BearerAuth
func (h *Handler) requestTips(c *gin.Context) {
	tips, err := h.services.Tips.Request(c.Request.Context(), currentUser(c))
	if err != nil {
		if errors.Is(err, service.ErrTipsInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": errTipsBusy})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to generate tips", "tips_request_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tips": tips})
}

// @Summary      Premium features
// @Tags         premium
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "features"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/premium [get]
// @Security     BearerAuth
func (h *Handler) getPremium(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": models.PremiumFeatures()})
}
