package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/dto"
	"github.com/SscSPs/artist_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// identityHandler handles artist resolution and identity merges.
type identityHandler struct {
	resolver   portssvc.AliasResolverSvc
	reconciler portssvc.IdentityReconcilerSvc
}

func newIdentityHandler(resolver portssvc.AliasResolverSvc, reconciler portssvc.IdentityReconcilerSvc) *identityHandler {
	return &identityHandler{resolver: resolver, reconciler: reconciler}
}

// RegisterIdentityRoutes registers routes related to artist identities.
func RegisterIdentityRoutes(rg *gin.RouterGroup, resolver portssvc.AliasResolverSvc, reconciler portssvc.IdentityReconcilerSvc) {
	h := newIdentityHandler(resolver, reconciler)

	artists := rg.Group("/artists")
	{
		artists.POST("/resolve", h.resolveArtists)
		artists.POST("/merge", h.mergeIdentities)
	}
}

// resolveArtists godoc
// @Summary Resolve artist identifiers
// @Description Resolves external artist numbers and phone numbers to artist profiles, following aliases and merges
// @Tags artists
// @Accept  json
// @Produce  json
// @Param   request body dto.ResolveArtistsRequest true "Identifiers to resolve"
// @Success 200 {object} dto.ResolveArtistsResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Failed to resolve artists"
// @Security BearerAuth
// @Router /artists/resolve [post]
func (h *identityHandler) resolveArtists(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ResolveArtistsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ResolveArtists", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.resolver.Resolve(c.Request.Context(), actor, req.Identifiers)
	if err != nil {
		respondWithError(c, logger, err, "Failed to resolve artists")
		return
	}

	logger.Info("Artists resolved",
		slog.Int("requested", len(req.Identifiers)),
		slog.Int("found", len(result.Profiles)),
		slog.Int("batch_errors", len(result.BatchErrors)))
	c.JSON(http.StatusOK, dto.ToResolveArtistsResponse(result))
}

// mergeIdentities godoc
// @Summary Merge duplicate identities
// @Description Supersedes every non-canonical person and artist profile of the set in one transaction
// @Tags artists
// @Accept  json
// @Produce  json
// @Param   request body dto.MergeIdentitiesRequest true "Merge set"
// @Success 200 {object} domain.MergeResult
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Person or profile not found"
// @Failure 409 {object} map[string]string "Another merge is in flight"
// @Failure 500 {object} map[string]interface{} "Merge did not complete, with step status"
// @Security BearerAuth
// @Router /artists/merge [post]
func (h *identityHandler) mergeIdentities(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.MergeIdentitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for MergeIdentities", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.reconciler.Merge(c.Request.Context(), actor, req.ToMergeRequest())
	if err != nil {
		respondWithError(c, logger, err, "Failed to merge identities")
		return
	}
	c.JSON(http.StatusOK, result)
}
