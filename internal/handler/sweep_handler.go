package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/solcredito/prestamos-backend/internal/service"
)

// SweepHandler exposes the overdue sweep to the external scheduler.
type SweepHandler struct {
	sweeper *service.SweeperService
}

// NewSweepHandler creates a new SweepHandler
func NewSweepHandler(sweeper *service.SweeperService) *SweepHandler {
	return &SweepHandler{sweeper: sweeper}
}

// Sweep handles POST /api/v1/sweep
func (h *SweepHandler) Sweep(c echo.Context) error {
	result, err := h.sweeper.Sweep()
	if err != nil {
		log.Error().Err(err).Msg("Overdue sweep failed")
		return NewInternalError(c, "Sweep failed")
	}

	log.Info().Int64("affected", result.Affected).Msg("Overdue sweep completed")
	return c.JSON(http.StatusOK, result)
}
