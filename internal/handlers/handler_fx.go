package handlers

import (
	"net/http"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/dto"
	"github.com/SscSPs/artist_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

type fxHandler struct {
	fxService          portssvc.PayoutFXSvc
	settlementCurrency string
}

// RegisterFXRoutes registers the payout quote route.
func RegisterFXRoutes(rg *gin.RouterGroup, fxService portssvc.PayoutFXSvc, settlementCurrency string) {
	h := &fxHandler{fxService: fxService, settlementCurrency: settlementCurrency}
	rg.POST("/payouts/quote", h.quotePayout)
}

// quotePayout godoc
// @Summary Quote a cross-currency payout
// @Description Returns the source amount needed to deliver a target amount, backed by a locked quote or marked as an estimate
// @Tags payouts
// @Accept  json
// @Produce  json
// @Param   request body dto.PayoutQuoteRequest true "Target amount and currencies"
// @Success 200 {object} domain.ConversionResult
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 502 {object} map[string]string "FX provider error"
// @Security BearerAuth
// @Router /payouts/quote [post]
func (h *fxHandler) quotePayout(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PayoutQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err := domain.RequireLevel(actor, domain.LevelViewer); err != nil {
		respondWithError(c, logger, err, "Forbidden")
		return
	}

	source := req.SourceCurrency
	if source == "" {
		source = h.settlementCurrency
	}
	result, err := h.fxService.QuoteAndConvert(c.Request.Context(), req.TargetAmount, req.TargetCurrency, source)
	if err != nil {
		respondWithError(c, logger, err, "Failed to quote payout")
		return
	}
	c.JSON(http.StatusOK, result)
}
