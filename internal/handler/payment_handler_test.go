package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
	"github.com/solcredito/prestamos-backend/internal/service"
	"github.com/solcredito/prestamos-backend/internal/testutil"
)

func newPaymentHandlerForTest(t *testing.T) (*PaymentHandler, *testutil.MockLoanRepository, *testutil.MockPaymentRepository) {
	t.Helper()

	loanRepo := testutil.NewMockLoanRepository()
	paymentRepo := testutil.NewMockPaymentRepository()
	scheduleRepo := testutil.NewMockScheduleRepository()

	policy := domain.LateFeePolicy{
		Kind:            domain.LateFeePercentageDaily,
		Value:           decimal.NewFromInt(1),
		GracePeriodDays: 0,
	}
	paymentService := service.NewPaymentService(testutil.NewMockTxManager(), loanRepo, paymentRepo, scheduleRepo, policy)

	// Seed a flat-rate loan of 5000 with 4 weekly installments of 1375.
	charge := decimal.NewFromInt(500)
	firstDue := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	loan, err := loanRepo.CreateTx(nil, &domain.Loan{
		ClientID:           1,
		Structure:          domain.StructureFlatRate,
		PrincipalAmount:    decimal.NewFromInt(5000),
		TotalFinanceCharge: &charge,
		PaymentFrequency:   domain.FrequencyWeekly,
		TermCount:          4,
		InstallmentAmount:  decimal.NewFromInt(1375),
		RemainingCapital:   decimal.NewFromInt(5000),
		Status:             domain.StatusActive,
		NextDueDate:        &firstDue,
	})
	if err != nil {
		t.Fatalf("Failed to seed loan: %v", err)
	}

	entries := make([]*domain.ScheduleEntry, 4)
	for i := range entries {
		entries[i] = &domain.ScheduleEntry{
			LoanID:            loan.ID,
			InstallmentNumber: int32(i + 1),
			DueDate:           firstDue.AddDate(0, 0, 7*i),
			ExpectedAmount:    decimal.NewFromInt(1375),
			Status:            domain.SchedulePending,
		}
	}
	if err := scheduleRepo.CreateBatchTx(nil, entries); err != nil {
		t.Fatalf("Failed to seed schedule: %v", err)
	}

	return NewPaymentHandler(paymentService), loanRepo, paymentRepo
}

func applyPaymentRequest(e *echo.Echo, body string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/1/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	return rec, c
}

func TestApplyPayment_Success(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerForTest(t)

	rec, c := applyPaymentRequest(e, `{
		"totalAmount": "1375.00",
		"type": "REGULAR",
		"paymentDate": "2026-01-05",
		"createdById": 9
	}`)

	if err := handler.ApplyPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response ApplyPaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Payment.CapitalApplied != "1250.00" {
		t.Errorf("Expected capital '1250.00', got %s", response.Payment.CapitalApplied)
	}
	if response.Payment.InterestApplied != "125.00" {
		t.Errorf("Expected interest '125.00', got %s", response.Payment.InterestApplied)
	}
	if response.NewBalance != "3750.00" {
		t.Errorf("Expected balance '3750.00', got %s", response.NewBalance)
	}
	if response.LoanStatus != "ACTIVE" {
		t.Errorf("Expected status 'ACTIVE', got %s", response.LoanStatus)
	}
	if response.Payment.Reference == "" {
		t.Error("Expected a payment reference")
	}
}

func TestApplyPayment_ZeroAmount(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerForTest(t)

	rec, c := applyPaymentRequest(e, `{"totalAmount": "0", "type": "REGULAR", "createdById": 9}`)

	if err := handler.ApplyPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestApplyPayment_MalformedAmount(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerForTest(t)

	rec, c := applyPaymentRequest(e, `{"totalAmount": "lots", "type": "REGULAR", "createdById": 9}`)

	if err := handler.ApplyPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestApplyPayment_PartialComponentsRejected(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerForTest(t)

	rec, c := applyPaymentRequest(e, `{
		"totalAmount": "1375.00",
		"type": "REGULAR",
		"capitalApplied": "1250.00",
		"createdById": 9
	}`)

	if err := handler.ApplyPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestApplyPayment_LoanNotFound(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerForTest(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/999/payments",
		strings.NewReader(`{"totalAmount": "100", "type": "REGULAR", "createdById": 9}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")

	if err := handler.ApplyPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestApplyPayment_ConflictOnCanceledLoan(t *testing.T) {
	e := echo.New()
	handler, loanRepo, _ := newPaymentHandlerForTest(t)
	loanRepo.Loans[1].Status = domain.StatusCanceled

	rec, c := applyPaymentRequest(e, `{"totalAmount": "100", "type": "REGULAR", "createdById": 9}`)

	if err := handler.ApplyPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestReversePayment_Success(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerForTest(t)

	rec, c := applyPaymentRequest(e, `{
		"totalAmount": "1375.00",
		"type": "REGULAR",
		"paymentDate": "2026-01-05",
		"createdById": 9
	}`)
	if err := handler.ApplyPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var applied ApplyPaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &applied); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/1/reverse",
		strings.NewReader(`{"reversedById": 9, "reason": "duplicate entry"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := handler.ReversePayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var reversed ApplyPaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &reversed); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if reversed.Payment.TotalAmount != "-1375.00" {
		t.Errorf("Expected total '-1375.00', got %s", reversed.Payment.TotalAmount)
	}
	if reversed.NewBalance != "5000.00" {
		t.Errorf("Expected balance '5000.00', got %s", reversed.NewBalance)
	}
	if reversed.Payment.ReversesPaymentID == nil || *reversed.Payment.ReversesPaymentID != 1 {
		t.Errorf("Expected reversesPaymentId 1, got %v", reversed.Payment.ReversesPaymentID)
	}
	if reversed.Payment.ReversalReason == nil || *reversed.Payment.ReversalReason != "duplicate entry" {
		t.Errorf("Expected reversalReason 'duplicate entry', got %v", reversed.Payment.ReversalReason)
	}
}

func TestReversePayment_NotFound(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerForTest(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/404/reverse",
		strings.NewReader(`{"reversedById": 9}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("404")

	if err := handler.ReversePayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetPayments_Success(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerForTest(t)

	rec, c := applyPaymentRequest(e, `{
		"totalAmount": "1375.00",
		"type": "REGULAR",
		"paymentDate": "2026-01-05",
		"createdById": 9
	}`)
	if err := handler.ApplyPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/1/payments", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := handler.GetPayments(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var payments []PaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payments); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(payments) != 1 {
		t.Errorf("Expected 1 payment, got %d", len(payments))
	}
}

func TestGetSummary_Success(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerForTest(t)

	rec, c := applyPaymentRequest(e, `{
		"totalAmount": "1375.00",
		"type": "REGULAR",
		"paymentDate": "2026-01-05",
		"createdById": 9
	}`)
	if err := handler.ApplyPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/1/summary", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := handler.GetSummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var summary map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if summary["capitalPaid"] != "1250.00" {
		t.Errorf("Expected capitalPaid '1250.00', got %v", summary["capitalPaid"])
	}
	if summary["progress"] != 25.0 {
		t.Errorf("Expected progress 25, got %v", summary["progress"])
	}
}
