package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/escrow-engine/internal/api/dto"
	"github.com/olyamironova/escrow-engine/internal/core"
	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/olyamironova/escrow-engine/internal/middleware"
)

const defaultPageSize = 50

type HTTPServer struct {
	Market *core.Market
	Lobby  *core.LobbyEngine
}

func NewHTTPServer(market *core.Market, lobby *core.LobbyEngine) *HTTPServer {
	return &HTTPServer{Market: market, Lobby: lobby}
}

func (s *HTTPServer) Router() *gin.Engine {
	r := gin.Default()

	rl := middleware.NewRateLimiter(time.Millisecond * 100)
	writes := r.Group("/", middleware.RequireActor(), rl.Middleware())

	writes.POST("/orders", s.createOrder)
	writes.POST("/orders/update", s.updateOrder)
	writes.POST("/orders/cancel", s.cancelOrder)
	writes.POST("/orders/buy", s.buyOrder)

	writes.POST("/lobbies", s.createLobby)
	writes.POST("/lobbies/start-time", s.updateStartTime)
	writes.POST("/lobbies/cancel", s.cancelLobby)
	writes.POST("/lobbies/join", s.joinLobby)
	writes.POST("/lobbies/unjoin", s.unjoinLobby)
	writes.POST("/lobbies/valve", s.toggleValve)

	r.GET("/orders/:id", s.getOrder)
	r.GET("/accounts/:address/orders/owned", s.ownedOrders)
	r.GET("/accounts/:address/orders/bought", s.boughtOrders)
	r.GET("/lobbies/:id", s.getLobby)
	r.GET("/lobbies/:id/brewery", s.getBrewery)

	return r
}

func (s *HTTPServer) Run(addr string) error {
	return s.Router().Run(addr)
}

func actor(c *gin.Context) domain.Address {
	return domain.Address(c.GetString(middleware.ActorKey))
}

// statusFromErr maps the precondition taxonomy onto HTTP statuses.
func statusFromErr(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrAlreadyInState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTimingViolation), errors.Is(err, domain.ErrAmountMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFromErr(err), gin.H{"error": err.Error()})
}

func (s *HTTPServer) createOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be > 0"})
		return
	}
	o, err := s.Market.CreateOrder(c.Request.Context(), actor(c), req.AssetID, req.Price)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderResponse{Order: convertOrder(o)})
}

func (s *HTTPServer) updateOrder(c *gin.Context) {
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be > 0"})
		return
	}
	o, err := s.Market.UpdateOrder(c.Request.Context(), actor(c), req.OrderID, req.Price)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderResponse{Order: convertOrder(o)})
}

func (s *HTTPServer) cancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := s.Market.CancelOrder(c.Request.Context(), actor(c), req.OrderID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderResponse{Order: convertOrder(o)})
}

func (s *HTTPServer) buyOrder(c *gin.Context) {
	var req dto.BuyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := s.Market.BuyOrder(c.Request.Context(), actor(c), req.OrderID, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderResponse{Order: convertOrder(o)})
}

func (s *HTTPServer) getOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	o, err := s.Market.GetOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderResponse{Order: convertOrder(o)})
}

func (s *HTTPServer) ownedOrders(c *gin.Context) {
	addr := domain.Address(c.Param("address"))
	cursor, limit, err := pageParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ids, newCursor := s.Market.FetchOwnedOrders(c.Request.Context(), addr, cursor, limit)
	c.JSON(http.StatusOK, dto.OrderPageResponse{
		Address:   string(addr),
		OrderIDs:  ids,
		NewCursor: newCursor,
		Total:     s.Market.CountOwnedOrders(c.Request.Context(), addr),
	})
}

func (s *HTTPServer) boughtOrders(c *gin.Context) {
	addr := domain.Address(c.Param("address"))
	cursor, limit, err := pageParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ids, newCursor := s.Market.FetchBoughtOrders(c.Request.Context(), addr, cursor, limit)
	c.JSON(http.StatusOK, dto.OrderPageResponse{
		Address:   string(addr),
		OrderIDs:  ids,
		NewCursor: newCursor,
		Total:     s.Market.CountBoughtOrders(c.Request.Context(), addr),
	})
}

func (s *HTTPServer) createLobby(c *gin.Context) {
	var req dto.CreateLobbyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.BetAmount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bet_amount must be > 0"})
		return
	}
	l, err := s.Lobby.CreateLobby(c.Request.Context(), actor(c), req.StartTime, req.BetAmount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LobbyResponse{Lobby: convertLobby(l)})
}

func (s *HTTPServer) updateStartTime(c *gin.Context) {
	var req dto.UpdateStartTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := s.Lobby.UpdateStartTime(c.Request.Context(), actor(c), req.LobbyID, req.StartTime)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LobbyResponse{Lobby: convertLobby(l)})
}

func (s *HTTPServer) cancelLobby(c *gin.Context) {
	var req dto.LobbyIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := s.Lobby.CancelLobby(c.Request.Context(), actor(c), req.LobbyID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LobbyResponse{Lobby: convertLobby(l)})
}

func (s *HTTPServer) joinLobby(c *gin.Context) {
	var req dto.LobbyIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := s.Lobby.JoinLobby(c.Request.Context(), actor(c), req.LobbyID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LobbyResponse{Lobby: convertLobby(l)})
}

func (s *HTTPServer) unjoinLobby(c *gin.Context) {
	var req dto.LobbyIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := s.Lobby.UnjoinLobby(c.Request.Context(), actor(c), req.LobbyID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LobbyResponse{Lobby: convertLobby(l)})
}

func (s *HTTPServer) toggleValve(c *gin.Context) {
	var req dto.ToggleValveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := s.Lobby.ToggleValve(c.Request.Context(), actor(c), req.LobbyID, *req.Open)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BreweryResponse{Brewery: convertBrewery(b)})
}

func (s *HTTPServer) getLobby(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lobby id"})
		return
	}
	l, err := s.Lobby.GetLobby(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LobbyResponse{Lobby: convertLobby(l)})
}

func (s *HTTPServer) getBrewery(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lobby id"})
		return
	}
	addr := c.Query("address")
	if addr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address query parameter required"})
		return
	}
	b, err := s.Lobby.GetBreweryStatus(c.Request.Context(), id, domain.Address(addr))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BreweryResponse{Brewery: convertBrewery(b)})
}

func pageParams(c *gin.Context) (cursor, limit uint64, err error) {
	cursor, err = parseUintQuery(c, "cursor", 0)
	if err != nil {
		return 0, 0, err
	}
	limit, err = parseUintQuery(c, "limit", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	return cursor, limit, nil
}

func parseUintQuery(c *gin.Context, name string, def uint64) (uint64, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func convertOrder(o *domain.Order) dto.Order {
	return dto.Order{
		ID:        o.ID,
		AssetID:   o.AssetID,
		Seller:    string(o.Seller),
		Buyer:     string(o.Buyer),
		Price:     o.Price,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func convertLobby(l *domain.Lobby) dto.Lobby {
	return dto.Lobby{
		ID:                l.ID,
		Creator:           string(l.Creator),
		Joiner:            string(l.Joiner),
		Canceled:          l.Canceled,
		StartTime:         l.StartTime,
		BetAmount:         l.BetAmount,
		CreatorMeadInLand: l.CreatorMeadInLand,
		JoinerMeadInLand:  l.JoinerMeadInLand,
		CreatedAt:         l.CreatedAt,
	}
}

func convertBrewery(b *domain.BreweryStatus) dto.Brewery {
	return dto.Brewery{
		LobbyID:       b.LobbyID,
		Address:       string(b.Address),
		Mead:          b.Mead,
		Points:        b.Points,
		ValveOpen:     b.ValveOpen,
		LastUpdatedAt: b.LastUpdatedAt,
		MeadPerSecond: b.MeadPerSecond,
	}
}
