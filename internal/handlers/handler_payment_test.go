package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/dto"
	"github.com/SscSPs/artist_ledger_app/internal/handlers"
	"github.com/SscSPs/artist_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock PaymentService ---
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Create(ctx context.Context, actor domain.Actor, req dto.CreatePaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) Begin(ctx context.Context, actor domain.Actor, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, actor, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) Complete(ctx context.Context, actor domain.Actor, paymentID string, transferReference string) (*domain.Payment, error) {
	args := m.Called(ctx, actor, paymentID, transferReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) Fail(ctx context.Context, actor domain.Actor, paymentID string, reason string) (*domain.Payment, error) {
	args := m.Called(ctx, actor, paymentID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) RecordManual(ctx context.Context, actor domain.Actor, req dto.ManualAdjustmentRequest) (*dto.ManualAdjustmentResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ManualAdjustmentResult), args.Error(1)
}

func (m *MockPaymentService) Execute(ctx context.Context, actor domain.Actor, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, actor, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) ExecutePending(ctx context.Context, actor domain.Actor, limit int, dryRun bool) (*dto.ExecutePendingResult, error) {
	args := m.Called(ctx, actor, limit, dryRun)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ExecutePendingResult), args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, actor domain.Actor, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, actor, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) ListPayments(ctx context.Context, actor domain.Actor, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListPaymentsResponse), args.Error(1)
}

func (m *MockPaymentService) Stats(ctx context.Context, actor domain.Actor, params dto.PaymentStatsParams) ([]domain.PaymentStatRow, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentStatRow), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.PaymentSvcFacade = (*MockPaymentService)(nil)

// --- Test Suite ---
type PaymentHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockPaymentService *MockPaymentService
	jwtSecret          string
}

// generateTestToken creates a signed JWT for the given operator.
func (suite *PaymentHandlerTestSuite) generateTestToken(userID string, level domain.AdminLevel) string {
	claims := middleware.AdminClaims{
		AdminLevel: string(level),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "artist-ledger-test",
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *PaymentHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockPaymentService = new(MockPaymentService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterPaymentRoutes(v1, suite.mockPaymentService)
}

func (suite *PaymentHandlerTestSuite) do(method, url string, body any, userID string, level domain.AdminLevel) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID, level))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func newPayment(status domain.PaymentStatus) *domain.Payment {
	return &domain.Payment{
		PaymentID:       uuid.NewString(),
		ArtistProfileID: "artist-1",
		Amount:          decimal.RequireFromString("39.90"),
		Currency:        "USD",
		Status:          status,
		AuditFields:     domain.AuditFields{CreatedAt: time.Now(), LastUpdatedAt: time.Now()},
	}
}

// --- Test Cases ---

func (suite *PaymentHandlerTestSuite) TestCreatePayment_Success() {
	userID := uuid.NewString()
	expected := newPayment(domain.PaymentPending)

	suite.mockPaymentService.On("Create",
		mock.Anything,
		domain.Actor{UserID: userID, Level: domain.LevelAdmin},
		mock.MatchedBy(func(r dto.CreatePaymentRequest) bool {
			return r.ArtistProfileID == "artist-1" && r.Amount.Equal(decimal.RequireFromString("39.90")) && r.Currency == "USD"
		}),
	).Return(expected, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/payments", map[string]any{
		"artistProfileID": "artist-1",
		"amount":          "39.90",
		"currency":        "USD",
	}, userID, domain.LevelAdmin)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.PaymentResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(expected.PaymentID, resp.PaymentID)
	suite.Equal("pending", resp.Status)
	suite.mockPaymentService.AssertExpectations(suite.T())
}

func (suite *PaymentHandlerTestSuite) TestCreatePayment_InvalidBody() {
	w := suite.do(http.MethodPost, "/api/v1/payments", map[string]any{"amount": "1"}, uuid.NewString(), domain.LevelAdmin)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockPaymentService.AssertNotCalled(suite.T(), "Create")
}

func (suite *PaymentHandlerTestSuite) TestErrorMapping() {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: amount exceeds balance", apperrors.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: admin level required", apperrors.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: payment", apperrors.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: another payment is processing", apperrors.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: stripe down", apperrors.ErrExternalService), http.StatusBadGateway},
		{apperrors.NewAppError(500, "db", fmt.Errorf("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		paymentID := uuid.NewString()
		suite.mockPaymentService.On("Begin", mock.Anything, mock.Anything, paymentID).Return(nil, tc.err).Once()
		w := suite.do(http.MethodPost, "/api/v1/payments/"+paymentID+"/begin", nil, uuid.NewString(), domain.LevelAdmin)
		suite.Equal(tc.status, w.Code, tc.err.Error())
	}
	suite.mockPaymentService.AssertExpectations(suite.T())
}

func (suite *PaymentHandlerTestSuite) TestExecutePayment_UnknownOutcome() {
	processing := newPayment(domain.PaymentProcessing)
	suite.mockPaymentService.On("Execute", mock.Anything, mock.Anything, processing.PaymentID).
		Return(processing, fmt.Errorf("%w: %w: transfer timed out", apperrors.ErrExternalService, apperrors.ErrUnknownOutcome)).Once()

	w := suite.do(http.MethodPost, "/api/v1/payments/"+processing.PaymentID+"/execute", nil, uuid.NewString(), domain.LevelAdmin)

	suite.Equal(http.StatusGatewayTimeout, w.Code)
	var body struct {
		Error   string              `json:"error"`
		Payment dto.PaymentResponse `json:"payment"`
	}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("processing", body.Payment.Status)
	suite.Contains(body.Error, "outcome unknown")
}

func (suite *PaymentHandlerTestSuite) TestExecutePending() {
	cases := []struct {
		name       string
		body       any
		wantLimit  int
		wantDryRun bool
		wantStatus int
	}{
		{name: "empty body uses defaults", body: nil, wantLimit: 0, wantDryRun: false, wantStatus: http.StatusOK},
		{name: "dry run with limit", body: map[string]any{"limit": 5, "dryRun": true}, wantLimit: 5, wantDryRun: true, wantStatus: http.StatusOK},
		{name: "limit above the cap", body: map[string]any{"limit": 500}, wantStatus: http.StatusBadRequest},
	}
	for _, tc := range cases {
		suite.Run(tc.name, func() {
			suite.SetupTest()
			result := &dto.ExecutePendingResult{
				DryRun: tc.wantDryRun, Processed: 1, Blocked: 1,
				Payments: []dto.ExecutePendingItem{{PaymentID: "pay-1", Outcome: dto.OutcomeBlocked, Reason: "artist profile artist-1 has no payout account"}},
			}
			if tc.wantStatus == http.StatusOK {
				suite.mockPaymentService.On("ExecutePending", mock.Anything, mock.Anything, tc.wantLimit, tc.wantDryRun).Return(result, nil).Once()
			}

			w := suite.do(http.MethodPost, "/api/v1/payments/execute-pending", tc.body, uuid.NewString(), domain.LevelAdmin)

			suite.Equal(tc.wantStatus, w.Code)
			if tc.wantStatus != http.StatusOK {
				suite.mockPaymentService.AssertNotCalled(suite.T(), "ExecutePending")
				return
			}
			var resp dto.ExecutePendingResult
			suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
			suite.Equal(1, resp.Blocked)
			suite.Require().Len(resp.Payments, 1)
			suite.Equal(dto.OutcomeBlocked, resp.Payments[0].Outcome)
			suite.mockPaymentService.AssertExpectations(suite.T())
		})
	}
}

func (suite *PaymentHandlerTestSuite) TestRecordAdjustment_UsesPathProfile() {
	result := &dto.ManualAdjustmentResult{
		Entry:          domain.LedgerEntry{EntryID: "e1", ArtistProfileID: "artist-7", Category: domain.CategoryPrize},
		CurrentBalance: decimal.NewFromInt(25),
		Currency:       "USD",
	}
	suite.mockPaymentService.On("RecordManual", mock.Anything, mock.Anything,
		mock.MatchedBy(func(r dto.ManualAdjustmentRequest) bool { return r.ArtistProfileID == "artist-7" }),
	).Return(result, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/artists/artist-7/adjustments", map[string]any{
		"amount":      "25",
		"category":    "prize",
		"description": "festival bonus",
	}, uuid.NewString(), domain.LevelAdmin)

	suite.Equal(http.StatusCreated, w.Code)
	suite.mockPaymentService.AssertExpectations(suite.T())
}

func (suite *PaymentHandlerTestSuite) TestListPayments_PassesQuery() {
	token := "abc"
	suite.mockPaymentService.On("ListPayments", mock.Anything, mock.Anything,
		mock.MatchedBy(func(p dto.ListPaymentsParams) bool {
			return p.Limit == 10 && p.Status == "completed" && p.NextToken != nil && *p.NextToken == token
		}),
	).Return(&dto.ListPaymentsResponse{Payments: []dto.PaymentResponse{}}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/payments?limit=10&status=completed&nextToken="+token, nil, uuid.NewString(), domain.LevelViewer)
	suite.Equal(http.StatusOK, w.Code)
	suite.mockPaymentService.AssertExpectations(suite.T())
}

func (suite *PaymentHandlerTestSuite) TestMissingToken() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

// --- Run Test Suite ---
func TestPaymentHandler(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}
