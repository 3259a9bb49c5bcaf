package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/solcredito/prestamos-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, sweepAuth *middleware.SweepAuthMiddleware, loanHandler *LoanHandler, paymentHandler *PaymentHandler, sweepHandler *SweepHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Loan routes
	loans := api.Group("/loans")
	loans.POST("", loanHandler.CreateLoan)
	loans.POST("/preview", loanHandler.PreviewLoan)
	loans.GET("/:id", loanHandler.GetLoan)
	loans.GET("/:id/schedule", loanHandler.GetSchedule)
	loans.POST("/:id/cancel", loanHandler.CancelLoan)

	// Payment routes (the ledger)
	loans.POST("/:id/payments", paymentHandler.ApplyPayment)
	loans.GET("/:id/payments", paymentHandler.GetPayments)
	loans.GET("/:id/summary", paymentHandler.GetSummary)
	api.POST("/payments/:id/reverse", paymentHandler.ReversePayment)

	// Sweep trigger for the external scheduler (shared-secret guarded)
	sweep := api.Group("/sweep")
	sweep.Use(sweepAuth.Authenticate())
	sweep.POST("", sweepHandler.Sweep)
}
