package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/dto"
	"github.com/SscSPs/artist_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// paymentHandler handles HTTP requests related to payments and manual adjustments.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

func newPaymentHandler(ps portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{paymentService: ps}
}

// RegisterPaymentRoutes registers routes related to payments.
func RegisterPaymentRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade) {
	h := newPaymentHandler(paymentService)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.createPayment)
		payments.GET("", h.listPayments)
		payments.GET("/stats", h.paymentStats)
		payments.POST("/execute-pending", h.executePending)
		payments.GET("/:paymentID", h.getPayment)
		payments.POST("/:paymentID/begin", h.beginPayment)
		payments.POST("/:paymentID/complete", h.completePayment)
		payments.POST("/:paymentID/fail", h.failPayment)
		payments.POST("/:paymentID/execute", h.executePayment)
	}

	rg.POST("/artists/:profileID/adjustments", h.recordAdjustment)
}

// createPayment godoc
// @Summary Create a payment
// @Description Creates a pending payment to an artist after checking the available balance
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.CreatePaymentRequest true "Payment details"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Invalid input or amount exceeds balance"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Artist profile not found"
// @Failure 409 {object} map[string]string "Duplicate payment in flight"
// @Failure 500 {object} map[string]string "Failed to create payment"
// @Security BearerAuth
// @Router /payments [post]
func (h *paymentHandler) createPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreatePayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payment, err := h.paymentService.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create payment")
		return
	}

	logger.Info("Payment created", slog.String("payment_id", payment.PaymentID))
	c.JSON(http.StatusCreated, dto.ToPaymentResponse(payment))
}

// getPayment godoc
// @Summary Get a payment
// @Tags payments
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 500 {object} map[string]string "Failed to retrieve payment"
// @Security BearerAuth
// @Router /payments/{paymentID} [get]
func (h *paymentHandler) getPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), actor, c.Param("paymentID"))
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// listPayments godoc
// @Summary List payments
// @Description Lists payments newest first with token-based pagination
// @Tags payments
// @Produce  json
// @Param   artistProfileID query string false "Filter by artist profile"
// @Param   status query string false "Filter by status"
// @Param   currency query string false "Filter by currency"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Token for the next page"
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list payments"
// @Security BearerAuth
// @Router /payments [get]
func (h *paymentHandler) listPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListPaymentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListPayments", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	resp, err := h.paymentService.ListPayments(c.Request.Context(), actor, params)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list payments")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// paymentStats godoc
// @Summary Payment statistics
// @Description Aggregates payment counts and totals by status and currency
// @Tags payments
// @Produce  json
// @Param   artistProfileID query string false "Filter by artist profile"
// @Param   currency query string false "Filter by currency"
// @Success 200 {array} domain.PaymentStatRow
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to compute payment statistics"
// @Security BearerAuth
// @Router /payments/stats [get]
func (h *paymentHandler) paymentStats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.PaymentStatsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	stats, err := h.paymentService.Stats(c.Request.Context(), actor, params)
	if err != nil {
		respondWithError(c, logger, err, "Failed to compute payment statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// beginPayment godoc
// @Summary Begin processing a payment
// @Tags payments
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 409 {object} map[string]string "Payment not pending or another payment is processing"
// @Failure 500 {object} map[string]string "Failed to begin payment"
// @Security BearerAuth
// @Router /payments/{paymentID}/begin [post]
func (h *paymentHandler) beginPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payment, err := h.paymentService.Begin(c.Request.Context(), actor, c.Param("paymentID"))
	if err != nil {
		respondWithError(c, logger, err, "Failed to begin payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// completePayment godoc
// @Summary Complete a payment
// @Description Marks a processing payment completed and records its ledger debit
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Param   request body dto.CompletePaymentRequest true "Transfer reference"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 409 {object} map[string]string "Payment is not processing"
// @Failure 500 {object} map[string]string "Failed to complete payment"
// @Security BearerAuth
// @Router /payments/{paymentID}/complete [post]
func (h *paymentHandler) completePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payment, err := h.paymentService.Complete(c.Request.Context(), actor, c.Param("paymentID"), req.TransferReference)
	if err != nil {
		respondWithError(c, logger, err, "Failed to complete payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// failPayment godoc
// @Summary Fail a payment
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Param   request body dto.FailPaymentRequest true "Failure reason"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 409 {object} map[string]string "Payment is not processing"
// @Failure 500 {object} map[string]string "Failed to fail payment"
// @Security BearerAuth
// @Router /payments/{paymentID}/fail [post]
func (h *paymentHandler) failPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.FailPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payment, err := h.paymentService.Fail(c.Request.Context(), actor, c.Param("paymentID"), req.Reason)
	if err != nil {
		respondWithError(c, logger, err, "Failed to fail payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// executePayment godoc
// @Summary Execute a payment on the transfer rail
// @Description Sends the transfer with the payment ID as idempotency key. An unknown outcome leaves the payment processing and returns 504 with its state.
// @Tags payments
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Payout destination not ready"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 409 {object} map[string]string "Payment state does not allow execution"
// @Failure 502 {object} map[string]string "Transfer rail error"
// @Failure 504 {object} map[string]interface{} "Transfer outcome unknown"
// @Security BearerAuth
// @Router /payments/{paymentID}/execute [post]
func (h *paymentHandler) executePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payment, err := h.paymentService.Execute(c.Request.Context(), actor, c.Param("paymentID"))
	if err != nil {
		if errors.Is(err, apperrors.ErrUnknownOutcome) && payment != nil {
			logger.Error("Transfer outcome unknown", slog.String("payment_id", payment.PaymentID), slog.String("error", err.Error()))
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error(), "payment": dto.ToPaymentResponse(payment)})
			return
		}
		respondWithError(c, logger, err, "Failed to execute payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// executePending godoc
// @Summary Execute pending payments
// @Description Executes up to limit pending payments oldest first. Payments whose artist has no usable payout account or another payment processing are reported as blocked. With dryRun nothing is sent.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   request body dto.ExecutePendingRequest false "Batch options"
// @Success 200 {object} dto.ExecutePendingResult
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 502 {object} map[string]string "Transfer rail not configured"
// @Security BearerAuth
// @Router /payments/execute-pending [post]
func (h *paymentHandler) executePending(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ExecutePendingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind JSON for ExecutePending", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.paymentService.ExecutePending(c.Request.Context(), actor, req.Limit, req.DryRun)
	if err != nil {
		respondWithError(c, logger, err, "Failed to execute pending payments")
		return
	}
	c.JSON(http.StatusOK, result)
}

// recordAdjustment godoc
// @Summary Record a manual adjustment
// @Description Appends a manual credit, debit or off-rail payment to an artist's ledger
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   profileID path string true "Artist profile ID"
// @Param   request body dto.ManualAdjustmentRequest true "Adjustment"
// @Success 201 {object} dto.ManualAdjustmentResult
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Artist profile not found"
// @Failure 500 {object} map[string]string "Failed to record adjustment"
// @Security BearerAuth
// @Router /artists/{profileID}/adjustments [post]
func (h *paymentHandler) recordAdjustment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ManualAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	req.ArtistProfileID = c.Param("profileID")

	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.paymentService.RecordManual(c.Request.Context(), actor, req)
	if err != nil {
		respondWithError(c, logger, err, "Failed to record adjustment")
		return
	}

	logger.Info("Manual adjustment recorded",
		slog.String("entry_id", result.Entry.EntryID),
		slog.String("category", string(result.Entry.Category)))
	c.JSON(http.StatusCreated, result)
}
