package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tradearena/internal/service"
)

// MarketHandler serves simulated market quotes over REST and websocket
type MarketHandler struct {
	quotes   *service.MarketQuoteService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(quotes *service.MarketQuoteService, logger *zap.Logger) *MarketHandler {
	return &MarketHandler{
		quotes: quotes,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Quotes returns the latest quote snapshot for every symbol
// GET /api/market/quotes
func (h *MarketHandler) Quotes(c echo.Context) error {
	return SuccessResponse(c, h.quotes.Quotes())
}

// Stream upgrades the connection and pushes quote batches on every tick
// GET /ws/quotes
func (h *MarketHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := h.quotes.Subscribe()
	defer h.quotes.Unsubscribe(sub)

	// Drain reads so close frames are processed; any read error ends the stream.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Initial snapshot so clients render before the first tick
	if err := conn.WriteJSON(h.quotes.Quotes()); err != nil {
		return nil
	}

	for {
		select {
		case <-done:
			return nil
		case <-c.Request().Context().Done():
			return nil
		case batch, ok := <-sub:
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(batch); err != nil {
				h.logger.Debug("quote stream write failed", zap.Error(err))
				return nil
			}
		}
	}
}
