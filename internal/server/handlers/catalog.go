package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/outfit-wizard/internal/outfit"
	"github.com/vzahanych/outfit-wizard/internal/palette"
	"github.com/vzahanych/outfit-wizard/internal/server/utils"
	"github.com/vzahanych/outfit-wizard/internal/stage"
	"github.com/vzahanych/outfit-wizard/internal/weather"
	"go.uber.org/zap"
)

// CatalogHandler serves the stateless outfit and color lookups.
type CatalogHandler struct {
	logger *zap.Logger
}

func NewCatalogHandler(logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{logger: logger}
}

// GetColors answers the pairing for a bottom color key. Unknown keys get the
// fallback suggestion.
func (h *CatalogHandler) GetColors(c *gin.Context) {
	key := c.Param("key")

	resp := ColorsResponse{
		Key:         key,
		Name:        key,
		Swatch:      palette.Swatch(key),
		Suggestions: stage.Suggestions(key),
	}
	if opt, ok := palette.Option(key); ok {
		resp.Name = opt.Name
		resp.Swatch = opt.Swatch
	}
	c.JSON(http.StatusOK, resp)
}

// DecideOutfit maps a posted weather snapshot to an outfit.
func (h *CatalogHandler) DecideOutfit(c *gin.Context) {
	reqLogger := utils.GetLoggerFromGinContext(c, h.logger)

	var snapshot weather.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		reqLogger.Warn("Invalid snapshot", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}
	if fields := utils.ValidateStruct(snapshot); len(fields) > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "Invalid request parameters",
			Code:   "INVALID_PARAMS",
			Fields: fields,
		})
		return
	}

	c.JSON(http.StatusOK, outfit.Decide(snapshot))
}
