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

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService *service.LoanService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// CreateLoanRequest represents the create loan request body
type CreateLoanRequest struct {
	ClientID           int32   `json:"clientId"`
	Structure          string  `json:"structure"`
	PrincipalAmount    string  `json:"principalAmount"`
	AnnualInterestRate *string `json:"annualInterestRate,omitempty"`
	TotalFinanceCharge *string `json:"totalFinanceCharge,omitempty"`
	PaymentFrequency   string  `json:"paymentFrequency"`
	TermCount          int32   `json:"termCount"`
	StartDate          *string `json:"startDate,omitempty"` // YYYY-MM-DD
	Guarantees         *string `json:"guarantees,omitempty"`
	CreatedByID        int32   `json:"createdById"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID                 int32   `json:"id"`
	ClientID           int32   `json:"clientId"`
	Structure          string  `json:"structure"`
	PrincipalAmount    string  `json:"principalAmount"`
	AnnualInterestRate *string `json:"annualInterestRate,omitempty"`
	TotalFinanceCharge *string `json:"totalFinanceCharge,omitempty"`
	PaymentFrequency   string  `json:"paymentFrequency"`
	TermCount          int32   `json:"termCount"`
	InstallmentAmount  string  `json:"installmentAmount"`
	RemainingCapital   string  `json:"remainingCapital"`
	Status             string  `json:"status"`
	NextDueDate        *string `json:"nextDueDate,omitempty"`
	Guarantees         *string `json:"guarantees,omitempty"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// ScheduleLineResponse represents one amortization table row
type ScheduleLineResponse struct {
	Number       int    `json:"number"`
	DueDate      string `json:"dueDate"`
	TotalPayment string `json:"totalPayment"`
	Interest     string `json:"interest"`
	Capital      string `json:"capital"`
	Balance      string `json:"balance"`
}

// ScheduleEntryResponse represents one persisted installment row
type ScheduleEntryResponse struct {
	ID                int32  `json:"id"`
	LoanID            int32  `json:"loanId"`
	InstallmentNumber int32  `json:"installmentNumber"`
	DueDate           string `json:"dueDate"`
	ExpectedAmount    string `json:"expectedAmount"`
	Status            string `json:"status"`
}

func (r CreateLoanRequest) toInput() (service.CreateLoanInput, error) {
	input := service.CreateLoanInput{
		ClientID:         r.ClientID,
		Structure:        domain.LoanStructure(r.Structure),
		PaymentFrequency: domain.PaymentFrequency(r.PaymentFrequency),
		TermCount:        r.TermCount,
		Guarantees:       r.Guarantees,
		CreatedBy:        r.CreatedByID,
	}

	principal, err := decimal.NewFromString(r.PrincipalAmount)
	if err != nil {
		return input, err
	}
	input.PrincipalAmount = principal

	if r.AnnualInterestRate != nil {
		rate, err := decimal.NewFromString(*r.AnnualInterestRate)
		if err != nil {
			return input, err
		}
		input.AnnualInterestRate = &rate
	}
	if r.TotalFinanceCharge != nil {
		charge, err := decimal.NewFromString(*r.TotalFinanceCharge)
		if err != nil {
			return input, err
		}
		input.TotalFinanceCharge = &charge
	}
	if r.StartDate != nil {
		start, err := time.Parse("2006-01-02", *r.StartDate)
		if err != nil {
			return input, err
		}
		input.StartDate = &start
	}
	return input, nil
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, err := req.toInput()
	if err != nil {
		return NewValidationError(c, "Invalid numeric or date field", nil)
	}

	loan, err := h.loanService.CreateLoan(c.Request().Context(), input)
	if err != nil {
		if isLoanValidationError(err) {
			return NewValidationError(c, err.Error(), nil)
		}
		log.Error().Err(err).Int32("client_id", req.ClientID).Msg("Failed to create loan")
		return NewInternalError(c, "Failed to create loan")
	}

	return c.JSON(http.StatusCreated, toLoanResponse(loan))
}

// PreviewLoan handles POST /api/v1/loans/preview
func (h *LoanHandler) PreviewLoan(c echo.Context) error {
	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, err := req.toInput()
	if err != nil {
		return NewValidationError(c, "Invalid numeric or date field", nil)
	}

	installment, lines, err := h.loanService.PreviewSchedule(input)
	if err != nil {
		if isLoanValidationError(err) {
			return NewValidationError(c, err.Error(), nil)
		}
		log.Error().Err(err).Msg("Failed to preview loan")
		return NewInternalError(c, "Failed to preview loan")
	}

	response := make([]ScheduleLineResponse, len(lines))
	for i, line := range lines {
		response[i] = toScheduleLineResponse(line)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"installmentAmount": installment.StringFixed(2),
		"schedule":          response,
	})
}

// GetLoan handles GET /api/v1/loans/:id
func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.GetLoan(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int("loan_id", id).Msg("Failed to get loan")
		return NewInternalError(c, "Failed to get loan")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// GetSchedule handles GET /api/v1/loans/:id/schedule
func (h *LoanHandler) GetSchedule(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	entries, err := h.loanService.GetSchedule(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int("loan_id", id).Msg("Failed to get schedule")
		return NewInternalError(c, "Failed to get schedule")
	}

	response := make([]ScheduleEntryResponse, len(entries))
	for i, entry := range entries {
		response[i] = toScheduleEntryResponse(entry)
	}
	return c.JSON(http.StatusOK, response)
}

// CancelLoan handles POST /api/v1/loans/:id/cancel
func (h *LoanHandler) CancelLoan(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.CancelLoan(c.Request().Context(), int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrPaymentNotAllowed) {
			return NewConflictError(c, "Loan cannot be canceled in its current status")
		}
		log.Error().Err(err).Int("loan_id", id).Msg("Failed to cancel loan")
		return NewInternalError(c, "Failed to cancel loan")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

func isLoanValidationError(err error) bool {
	return errors.Is(err, domain.ErrLoanClientRequired) ||
		errors.Is(err, domain.ErrLoanPrincipalInvalid) ||
		errors.Is(err, domain.ErrLoanTermInvalid) ||
		errors.Is(err, domain.ErrLoanStructureInvalid) ||
		errors.Is(err, domain.ErrLoanFrequencyInvalid) ||
		errors.Is(err, domain.ErrLoanRateRequired) ||
		errors.Is(err, domain.ErrLoanChargeRequired)
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	response := LoanResponse{
		ID:                loan.ID,
		ClientID:          loan.ClientID,
		Structure:         string(loan.Structure),
		PrincipalAmount:   loan.PrincipalAmount.StringFixed(2),
		PaymentFrequency:  string(loan.PaymentFrequency),
		TermCount:         loan.TermCount,
		InstallmentAmount: loan.InstallmentAmount.StringFixed(2),
		RemainingCapital:  loan.RemainingCapital.StringFixed(2),
		Status:            string(loan.Status),
		Guarantees:        loan.Guarantees,
		CreatedAt:         loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         loan.UpdatedAt.Format(time.RFC3339),
	}
	if loan.AnnualInterestRate != nil {
		rate := loan.AnnualInterestRate.String()
		response.AnnualInterestRate = &rate
	}
	if loan.TotalFinanceCharge != nil {
		charge := loan.TotalFinanceCharge.StringFixed(2)
		response.TotalFinanceCharge = &charge
	}
	if loan.NextDueDate != nil {
		due := loan.NextDueDate.Format("2006-01-02")
		response.NextDueDate = &due
	}
	return response
}

func toScheduleLineResponse(line service.ScheduleLine) ScheduleLineResponse {
	return ScheduleLineResponse{
		Number:       line.Number,
		DueDate:      line.DueDate.Format("2006-01-02"),
		TotalPayment: line.TotalPayment.StringFixed(2),
		Interest:     line.Interest.StringFixed(2),
		Capital:      line.Capital.StringFixed(2),
		Balance:      line.Balance.StringFixed(2),
	}
}

func toScheduleEntryResponse(entry *domain.ScheduleEntry) ScheduleEntryResponse {
	return ScheduleEntryResponse{
		ID:                entry.ID,
		LoanID:            entry.LoanID,
		InstallmentNumber: entry.InstallmentNumber,
		DueDate:           entry.DueDate.Format("2006-01-02"),
		ExpectedAmount:    entry.ExpectedAmount.StringFixed(2),
		Status:            string(entry.Status),
	}
}
