package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/outfit-wizard/internal/config"
	"github.com/vzahanych/outfit-wizard/internal/geo"
	"github.com/vzahanych/outfit-wizard/internal/server/utils"
	"github.com/vzahanych/outfit-wizard/internal/session"
	"github.com/vzahanych/outfit-wizard/internal/stage"
	"github.com/vzahanych/outfit-wizard/internal/wizard"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type WizardHandler struct {
	manager    *session.Manager
	logger     *zap.Logger
	cookieName string
	cookieTTL  int
}

func NewWizardHandler(manager *session.Manager, cfg config.SessionConfig, logger *zap.Logger) *WizardHandler {
	name := cfg.CookieName
	if name == "" {
		name = "wizard_session"
	}
	return &WizardHandler{
		manager:    manager,
		logger:     logger,
		cookieName: name,
		cookieTTL:  cfg.TTL,
	}
}

func (h *WizardHandler) GetWizard(c *gin.Context) {
	rec, err := h.manager.Get(utils.GetContextFromGinContext(c), h.sessionID(c))
	h.respond(c, rec, err)
}

func (h *WizardHandler) SubmitLocation(c *gin.Context) {
	var req LocationRequest
	if !h.bind(c, &req) {
		return
	}

	rec, err := h.manager.SubmitLocation(utils.GetContextFromGinContext(c), h.sessionID(c), req.Location, req.Preset)
	h.respond(c, rec, err)
}

func (h *WizardHandler) SubmitCurrentLocation(c *gin.Context) {
	var req CurrentLocationRequest
	if !h.bind(c, &req) {
		return
	}

	report := geo.Report{Error: req.Error}
	if req.Error == "" {
		report.Position = &geo.Position{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	rec, err := h.manager.SubmitCurrentLocation(utils.GetContextFromGinContext(c), h.sessionID(c), report)
	h.respond(c, rec, err)
}

func (h *WizardHandler) ConfirmWeather(c *gin.Context) {
	rec, err := h.manager.ConfirmWeather(utils.GetContextFromGinContext(c), h.sessionID(c))
	h.respond(c, rec, err)
}

func (h *WizardHandler) ConfirmOutfit(c *gin.Context) {
	rec, err := h.manager.ConfirmOutfit(utils.GetContextFromGinContext(c), h.sessionID(c))
	h.respond(c, rec, err)
}

func (h *WizardHandler) SelectBottomColor(c *gin.Context) {
	var req BottomColorRequest
	if !h.bind(c, &req) {
		return
	}

	rec, err := h.manager.SelectBottomColor(utils.GetContextFromGinContext(c), h.sessionID(c), req.BottomColor)
	h.respond(c, rec, err)
}

func (h *WizardHandler) Back(c *gin.Context) {
	rec, err := h.manager.Back(utils.GetContextFromGinContext(c), h.sessionID(c))
	h.respond(c, rec, err)
}

func (h *WizardHandler) Reset(c *gin.Context) {
	rec, err := h.manager.Reset(utils.GetContextFromGinContext(c), h.sessionID(c))
	h.respond(c, rec, err)
}

func (h *WizardHandler) sessionID(c *gin.Context) string {
	id, err := c.Cookie(h.cookieName)
	if err != nil {
		return ""
	}
	return id
}

// bind decodes and validates the JSON body, answering 400 on failure.
func (h *WizardHandler) bind(c *gin.Context, req interface{}) bool {
	reqLogger := utils.GetLoggerFromGinContext(c, h.logger)

	if err := c.ShouldBindJSON(req); err != nil {
		reqLogger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return false
	}

	if fields := utils.ValidateStruct(req); len(fields) > 0 {
		reqLogger.Warn("Request validation failed", zap.Int("fields", len(fields)))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "Invalid request parameters",
			Code:   "INVALID_PARAMS",
			Fields: fields,
		})
		return false
	}
	return true
}

func (h *WizardHandler) respond(c *gin.Context, rec session.Record, err error) {
	reqLogger := utils.GetLoggerFromGinContext(c, h.logger)

	if rec.ID != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.cookieName, rec.ID, h.cookieTTL, "/", "", false, true)
		utils.GetSpanFromGinContext(c).SetAttributes(
			attribute.String("session.id", rec.ID),
			attribute.String("wizard.stage", rec.Wizard.Stage.String()),
		)
	}

	if err == nil {
		view := stage.Render(rec.Wizard, rec.Local, utils.GetPrinterFromGinContext(c))
		c.JSON(http.StatusOK, view)
		return
	}

	status, code := errorStatus(err)
	resp := ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Details: err.Error(),
	}
	if rec.ID != "" {
		view := stage.Render(rec.Wizard, rec.Local, utils.GetPrinterFromGinContext(c))
		resp.View = &view
	}

	if status >= http.StatusInternalServerError {
		reqLogger.Error("Wizard action failed", zap.Error(err))
		_ = c.Error(err)
	} else {
		reqLogger.Info("Wizard action rejected", zap.String("code", code), zap.Error(err))
	}
	c.JSON(status, resp)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, wizard.ErrEmptyLocation):
		return http.StatusBadRequest, "EMPTY_LOCATION"
	case errors.Is(err, geo.ErrUnsupported):
		return http.StatusUnprocessableEntity, "GEOLOCATION_UNSUPPORTED"
	case errors.Is(err, geo.ErrPermissionDenied):
		return http.StatusUnprocessableEntity, "GEOLOCATION_FAILED"
	case errors.Is(err, session.ErrNotReady):
		return http.StatusConflict, "NOT_READY"
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "BUSY"
	case errors.Is(err, wizard.ErrWrongStage):
		return http.StatusConflict, "WRONG_STAGE"
	case errors.Is(err, wizard.ErrStaleTicket):
		return http.StatusConflict, "STALE_TICKET"
	case errors.Is(err, wizard.ErrNoPreviousStage):
		return http.StatusConflict, "NO_PREVIOUS_STAGE"
	case errors.Is(err, wizard.ErrMissingPayload):
		return http.StatusConflict, "MISSING_PAYLOAD"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
