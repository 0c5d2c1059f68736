package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

type balanceHandler struct {
	balanceService portssvc.BalanceSvcFacade
}

// RegisterBalanceRoutes registers the balance and statement routes of an artist.
func RegisterBalanceRoutes(rg *gin.RouterGroup, balanceService portssvc.BalanceSvcFacade) {
	h := &balanceHandler{balanceService: balanceService}

	artist := rg.Group("/artists/:profileID")
	{
		artist.GET("/balance", h.getBalance)
		artist.GET("/statement", h.getStatement)
	}
}

// getBalance godoc
// @Summary Get an artist's balance
// @Description Computes the outstanding balance across the artist's merged and phone-matched profiles
// @Tags balances
// @Produce  json
// @Param   profileID path string true "Artist profile ID"
// @Success 200 {object} domain.BalanceResult
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Artist profile not found"
// @Failure 500 {object} map[string]string "Failed to compute balance"
// @Security BearerAuth
// @Router /artists/{profileID}/balance [get]
func (h *balanceHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	balance, err := h.balanceService.GetBalance(c.Request.Context(), actor, c.Param("profileID"))
	if err != nil {
		respondWithError(c, logger, err, "Failed to compute balance")
		return
	}
	c.JSON(http.StatusOK, balance)
}

// getStatement godoc
// @Summary Get an artist's statement
// @Description Returns the chronological account history with a running balance per currency
// @Tags balances
// @Produce  json
// @Param   profileID path string true "Artist profile ID"
// @Success 200 {object} domain.Statement
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Artist profile not found"
// @Failure 500 {object} map[string]string "Failed to build statement"
// @Security BearerAuth
// @Router /artists/{profileID}/statement [get]
func (h *balanceHandler) getStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	statement, err := h.balanceService.GetStatement(c.Request.Context(), actor, c.Param("profileID"))
	if err != nil {
		respondWithError(c, logger, err, "Failed to build statement")
		return
	}
	c.JSON(http.StatusOK, statement)
}
