package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/solcredito/prestamos-backend/internal/domain"
	"github.com/solcredito/prestamos-backend/internal/service"
)

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ApplyPaymentRequest represents the apply payment request body. Components
// may be supplied explicitly instead of relying on the allocation waterfall.
type ApplyPaymentRequest struct {
	TotalAmount     string  `json:"totalAmount"`
	Type            string  `json:"type"`
	PaymentDate     *string `json:"paymentDate,omitempty"` // YYYY-MM-DD
	CapitalApplied  *string `json:"capitalApplied,omitempty"`
	InterestApplied *string `json:"interestApplied,omitempty"`
	LateFeeApplied  *string `json:"lateFeeApplied,omitempty"`
	CreatedByID     int32   `json:"createdById"`
}

// ReversePaymentRequest represents the reverse payment request body
type ReversePaymentRequest struct {
	ReversedByID int32   `json:"reversedById"`
	Reason       *string `json:"reason,omitempty"`
}

// PaymentResponse represents a ledger row in API responses
type PaymentResponse struct {
	ID                int32   `json:"id"`
	LoanID            int32   `json:"loanId"`
	Reference         string  `json:"reference"`
	TotalAmount       string  `json:"totalAmount"`
	CapitalApplied    string  `json:"capitalApplied"`
	InterestApplied   string  `json:"interestApplied"`
	LateFeeApplied    string  `json:"lateFeeApplied"`
	Type              string  `json:"type"`
	PaymentDate       string  `json:"paymentDate"`
	ReversesPaymentID *int32  `json:"reversesPaymentId,omitempty"`
	ReversalReason    *string `json:"reversalReason,omitempty"`
	CreatedAt         string  `json:"createdAt"`
}

// ApplyPaymentResponse wraps the payment row with the loan outcome
type ApplyPaymentResponse struct {
	Payment       PaymentResponse `json:"payment"`
	NewBalance    string          `json:"newBalance"`
	LoanStatus    string          `json:"loanStatus"`
	StatusChanged bool            `json:"statusChanged"`
}

// ApplyPayment handles POST /api/v1/loans/:id/payments
func (h *PaymentHandler) ApplyPayment(c echo.Context) error {
	loanID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req ApplyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	total, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "totalAmount", Message: "Must be a valid decimal number"},
		})
	}

	input := service.ApplyPaymentInput{
		LoanID:      int32(loanID),
		TotalAmount: total,
		Type:        domain.PaymentType(req.Type),
		CreatedBy:   req.CreatedByID,
	}

	if req.PaymentDate != nil {
		date, err := time.Parse("2006-01-02", *req.PaymentDate)
		if err != nil {
			return NewValidationError(c, "Invalid payment date", []ValidationError{
				{Field: "paymentDate", Message: "Must be formatted YYYY-MM-DD"},
			})
		}
		input.PaymentDate = &date
	}

	components, err := parseComponents(req)
	if err != nil {
		return NewValidationError(c, "Invalid payment components", nil)
	}
	input.Components = components

	result, err := h.paymentService.ApplyPayment(c.Request().Context(), input)
	if err != nil {
		return h.mapPaymentError(c, err, loanID)
	}

	return c.JSON(http.StatusCreated, toApplyPaymentResponse(result))
}

// GetPayments handles GET /api/v1/loans/:id/payments
func (h *PaymentHandler) GetPayments(c echo.Context) error {
	loanID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	payments, err := h.paymentService.GetPayments(int32(loanID))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int("loan_id", loanID).Msg("Failed to get payments")
		return NewInternalError(c, "Failed to get payments")
	}

	response := make([]PaymentResponse, len(payments))
	for i, payment := range payments {
		response[i] = toPaymentResponse(payment)
	}
	return c.JSON(http.StatusOK, response)
}

// GetSummary handles GET /api/v1/loans/:id/summary
func (h *PaymentHandler) GetSummary(c echo.Context) error {
	loanID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	summary, err := h.paymentService.GetLoanSummary(int32(loanID))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int("loan_id", loanID).Msg("Failed to get loan summary")
		return NewInternalError(c, "Failed to get loan summary")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"loanId":           summary.LoanID,
		"status":           string(summary.Status),
		"principalAmount":  summary.PrincipalAmount.StringFixed(2),
		"remainingCapital": summary.RemainingCapital.StringFixed(2),
		"capitalPaid":      summary.CapitalPaid.StringFixed(2),
		"interestPaid":     summary.InterestPaid.StringFixed(2),
		"lateFeePaid":      summary.LateFeePaid.StringFixed(2),
		"progress":         summary.Progress,
	})
}

// ReversePayment handles POST /api/v1/payments/:id/reverse
func (h *PaymentHandler) ReversePayment(c echo.Context) error {
	paymentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	var req ReversePaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	result, err := h.paymentService.ReversePayment(c.Request().Context(), service.ReversePaymentInput{
		PaymentID:  int32(paymentID),
		ReversedBy: req.ReversedByID,
		Reason:     req.Reason,
	})
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return NewNotFoundError(c, "Payment not found")
		}
		if errors.Is(err, domain.ErrPaymentNotAllowed) {
			return NewConflictError(c, "Payment cannot be reversed")
		}
		log.Error().Err(err).Int("payment_id", paymentID).Msg("Failed to reverse payment")
		return NewInternalError(c, "Failed to reverse payment")
	}

	return c.JSON(http.StatusCreated, toApplyPaymentResponse(result))
}

func (h *PaymentHandler) mapPaymentError(c echo.Context, err error, loanID int) error {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound):
		return NewNotFoundError(c, "Loan not found")
	case errors.Is(err, domain.ErrPaymentNotAllowed):
		return NewConflictError(c, "Loan status does not allow payments")
	case errors.Is(err, domain.ErrInvalidPaymentAmount):
		return NewValidationError(c, "Invalid payment amount or component split", nil)
	case errors.Is(err, domain.ErrPaymentTypeInvalid):
		return NewValidationError(c, "Invalid payment type", nil)
	}
	log.Error().Err(err).Int("loan_id", loanID).Msg("Failed to apply payment")
	return NewInternalError(c, "Failed to apply payment")
}

// parseComponents returns the explicit split when all three components are
// present, nil when none are, and an error on a partial split.
func parseComponents(req ApplyPaymentRequest) (*domain.PaymentComponents, error) {
	provided := 0
	for _, v := range []*string{req.CapitalApplied, req.InterestApplied, req.LateFeeApplied} {
		if v != nil {
			provided++
		}
	}
	if provided == 0 {
		return nil, nil
	}
	if provided != 3 {
		return nil, errors.New("capitalApplied, interestApplied and lateFeeApplied must all be provided together")
	}

	capital, err := decimal.NewFromString(*req.CapitalApplied)
	if err != nil {
		return nil, err
	}
	interest, err := decimal.NewFromString(*req.InterestApplied)
	if err != nil {
		return nil, err
	}
	lateFee, err := decimal.NewFromString(*req.LateFeeApplied)
	if err != nil {
		return nil, err
	}
	return &domain.PaymentComponents{
		CapitalApplied:  capital,
		InterestApplied: interest,
		LateFeeApplied:  lateFee,
	}, nil
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                payment.ID,
		LoanID:            payment.LoanID,
		Reference:         payment.Reference.String(),
		TotalAmount:       payment.TotalAmount.StringFixed(2),
		CapitalApplied:    payment.CapitalApplied.StringFixed(2),
		InterestApplied:   payment.InterestApplied.StringFixed(2),
		LateFeeApplied:    payment.LateFeeApplied.StringFixed(2),
		Type:              string(payment.Type),
		PaymentDate:       payment.PaymentDate.Format(time.RFC3339),
		ReversesPaymentID: payment.ReversesPaymentID,
		ReversalReason:    payment.ReversalReason,
		CreatedAt:         payment.CreatedAt.Format(time.RFC3339),
	}
}

func toApplyPaymentResponse(result *service.ApplyPaymentResult) ApplyPaymentResponse {
	return ApplyPaymentResponse{
		Payment:       toPaymentResponse(result.Payment),
		NewBalance:    result.NewBalance.StringFixed(2),
		LoanStatus:    string(result.LoanStatus),
		StatusChanged: result.StatusChanged,
	}
}
