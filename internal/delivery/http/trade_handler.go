package http

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"tradearena/internal/delivery/http/dto"
	"tradearena/internal/middleware"
	"tradearena/internal/usecase"
)

// TradeHandler handles trade requests
type TradeHandler struct {
	tradeService *usecase.TradeService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(tradeService *usecase.TradeService) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
	}
}

// List returns all trades of a participation the caller owns
// GET /api/participations/:id/trades
func (h *TradeHandler) List(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	participationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid participation ID")
	}

	trades, err := h.tradeService.ListTrades(c.Request().Context(), userID, participationID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, trades)
}

// Open opens a simulated position on a participation
// POST /api/participations/:id/trades
func (h *TradeHandler) Open(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	participationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid participation ID")
	}

	var req dto.OpenTradeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	trade, err := h.tradeService.OpenTrade(c.Request().Context(), userID, participationID,
		req.Symbol, req.Type, req.Volume, req.OpenPrice)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return CreatedResponse(c, trade)
}

// Close closes an open trade and settles the profit
// PATCH /api/trades/:id/close
func (h *TradeHandler) Close(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid trade ID")
	}

	var req dto.CloseTradeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	trade, err := h.tradeService.CloseTrade(c.Request().Context(), userID, tradeID, req.ClosePrice)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, trade)
}
