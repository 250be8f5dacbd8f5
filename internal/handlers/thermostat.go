package handlers

import (
	"errors"
	"net/http"
	"time"

	"thermostat_control/internal/service"
	"thermostat_control/internal/thermostat"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusAccepted  = "accepted"
	statusHeld      = "held"
	statusConfigSet = "config_set"

	errGetState        = "failed to load state"
	errApplySample     = "failed to apply sample"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status and include current state if available (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	st, err := h.services.Monitoring.GetState(ctx)
	if err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// Request DTO for replacing the configuration.
type configRequest struct {
	Mode     string  `json:"mode" binding:"required"` // OFF | HEAT | COOL | AUTO | FAN_ONLY
	HeatTo   float64 `json:"heat_to,omitempty"`       // required for HEAT and AUTO
	CoolTo   float64 `json:"cool_to,omitempty"`       // required for COOL and AUTO
	Deadband float64 `json:"deadband,omitempty"`
}

// SetConfigRequest is an exported model for Swagger docs of the putConfig payload.
type SetConfigRequest struct {
	// Mode to set. Allowed: OFF, HEAT, COOL, AUTO, FAN_ONLY
	Mode string `json:"mode" example:"AUTO"`
	// Heat setpoint in Celsius (required when mode=HEAT or AUTO)
	HeatTo float64 `json:"heat_to,omitempty" example:"18.5"`
	// Cool setpoint in Celsius (required when mode=COOL or AUTO)
	CoolTo float64 `json:"cool_to,omitempty" example:"24.0"`
	// Hysteresis width in Celsius
	Deadband float64 `json:"deadband,omitempty" example:"0.5"`
}

// Request DTO for pushing a sensor reading.
type sampleRequest struct {
	Timestamp   time.Time `json:"timestamp" binding:"required"` // RFC3339, must not regress
	Temperature *float64  `json:"temperature" binding:"required"`
	Humidity    *float64  `json:"humidity,omitempty"`
}

// SampleRequest is an exported model for Swagger docs of the postSample payload.
type SampleRequest struct {
	// Sensor timestamp, RFC3339. Rejected if older than the previous sample.
	Timestamp time.Time `json:"timestamp" example:"2025-08-27T15:04:05Z"`
	// Measured temperature in Celsius
	Temperature float64 `json:"temperature" example:"21.4"`
	// Relative humidity percentage, optional
	Humidity *float64 `json:"humidity,omitempty" example:"48.5"`
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

// @Summary      Get thermostat state
// @Tags         thermostat
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/thermostat/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Monitoring.GetState(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "thermostat_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Replace configuration
// @Description  Full replacement of mode, setpoints and deadband. AUTO requires heat_to < cool_to. An invalid payload leaves the previous configuration active.
// @Tags         thermostat
// @Accept       json
// @Produce      json
// @Param        body  body   SetConfigRequest  true  "Configuration payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/thermostat/config [put]
// @Security     BearerAuth
func (h *Handler) putConfig(c *gin.Context) {
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	params := service.ConfigParams{
		Mode:     req.Mode,
		HeatTo:   req.HeatTo,
		CoolTo:   req.CoolTo,
		Deadband: req.Deadband,
	}
	if err := h.services.Control.Configure(ctx, params); err != nil {
		if errors.Is(err, thermostat.ErrInvalidConfiguration) {
			if h.log != nil {
				h.log.Infow("thermostat_config_rejected", "err", err, "mode", req.Mode)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to apply configuration", "thermostat_config_failed", err, "mode", req.Mode)
		return
	}
	h.respondWithStatusAndState(c, statusConfigSet, gin.H{"mode": req.Mode})
}

// @Summary      Submit sensor sample
// @Description  Feeds one reading to the controller. At most one equipment transition is emitted per sample; status 'held' with a null 'transition' means no command was emitted, whether because nothing changed or because an interlock deferred the change.
// @Tags         thermostat
// @Accept       json
// @Produce      json
// @Param        body  body   SampleRequest  true  "Sensor reading"
// @Success      200   {object}  map[string]interface{}  "status, transition, state"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string  "sample older than a previously accepted one"
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/thermostat/sample [post]
// @Security     BearerAuth
func (h *Handler) postSample(c *gin.Context) {
	var req sampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	tr, err := h.services.Control.ApplySample(ctx, service.SampleParams{
		At:          req.Timestamp,
		Temperature: *req.Temperature,
		Humidity:    req.Humidity,
	})
	if err != nil {
		if errors.Is(err, thermostat.ErrOutOfOrderSample) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errApplySample, "thermostat_sample_failed", err, "at", req.Timestamp)
		return
	}
	extra := gin.H{"transition": tr}
	status := statusAccepted
	if tr == nil {
		// No demand, or a change deferred by an interlock; the controller
		// does not distinguish them and either way nothing was commanded.
		status = statusHeld
	}
	h.respondWithStatusAndState(c, status, extra)
}
