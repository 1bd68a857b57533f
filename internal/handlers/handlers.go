package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tinyuno/internal/chat"
	"tinyuno/internal/game"
	"tinyuno/internal/logging"
	"tinyuno/internal/room"
	"tinyuno/internal/storage"
)

// Options configures a Handler.
type Options struct {
	// Origins allowed to open a websocket or call the API. Empty allows any.
	Origins     []string
	SendTimeout time.Duration
	// Defaults are applied to rooms created without explicit settings.
	Defaults  game.Settings
	Commit    string
	BuildDate string
	Logger    *zap.Logger
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Registry *room.Registry
	Rooms    storage.Directory

	opts    Options
	origins map[string]struct{}
	log     *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(reg *room.Registry, rooms storage.Directory, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logging.L()
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 5 * time.Second
	}
	if opts.Defaults == (game.Settings{}) {
		opts.Defaults = game.DefaultSettings()
	}
	origins := make(map[string]struct{}, len(opts.Origins))
	for _, o := range opts.Origins {
		if o != "" {
			origins[o] = struct{}{}
		}
	}
	return &Handler{Registry: reg, Rooms: rooms, opts: opts, origins: origins, log: opts.Logger}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger(), h.cors())

	r.GET("/ws", h.ServeWS)
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.GET("/rooms", h.ListRooms)
	api.POST("/rooms", h.CreateRoom)
	api.GET("/rooms/:id", h.GetRoom)
	api.DELETE("/rooms/:id", h.DeleteRoom)
	api.GET("/game/:roomId", h.GameState)
	api.GET("/chat/:roomId", h.ChatLog)
	api.GET("/users/:id/stats", h.UserStats)
	return r
}

type createRoomRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	Password string `json:"password" binding:"max=100"`
	// Settings is decoded over the server defaults so omitted fields keep them.
	Settings json.RawMessage `json:"settings"`
}

type roomResponse struct {
	storage.RoomInfo
	Connected []string `json:"connected"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness and the running build. When the room directory
// is backed by a database it is pinged and an outage returns 503.
func (h *Handler) Health(c *gin.Context) {
	code, status := http.StatusOK, "ok"
	resp := gin.H{
		"commit":    h.opts.Commit,
		"buildDate": h.opts.BuildDate,
		"rooms":     h.Registry.Len(),
	}
	if p, ok := h.Rooms.(pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			h.log.Warn("database ping", zap.Error(err))
			code, status = http.StatusServiceUnavailable, "degraded"
			resp["database"] = "unreachable"
		} else {
			resp["database"] = "ok"
		}
	}
	resp["status"] = status
	c.JSON(code, resp)
}

// ListRooms returns every active room.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.Rooms.ListRooms(c.Request.Context())
	if err != nil {
		h.internalError(c, "list rooms", err)
		return
	}
	if rooms == nil {
		rooms = []storage.RoomInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// CreateRoom adds a room to the directory.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room name is required (max 50 characters)"})
		return
	}
	settings := h.opts.Defaults
	if len(req.Settings) > 0 && !bytes.Equal(req.Settings, []byte("null")) {
		if err := json.Unmarshal(req.Settings, &settings); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings"})
			return
		}
	}
	if settings.MaxPlayers < 2 || settings.MaxPlayers > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxPlayers must be between 2 and 10"})
		return
	}
	if settings.TournamentMode && settings.TournamentTarget < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tournamentTarget must be at least 1"})
		return
	}

	info, err := h.Rooms.CreateRoom(c.Request.Context(), storage.NewRoom{
		Name:     req.Name,
		Password: req.Password,
		Settings: settings,
	})
	if err != nil {
		h.internalError(c, "create room", err)
		return
	}
	h.log.Info("room created", zap.String("room", info.ID), zap.String("ip", ClientIP(c.Request)))
	c.JSON(http.StatusCreated, info)
}

// GetRoom returns one room's directory entry along with the players
// currently connected to it.
func (h *Handler) GetRoom(c *gin.Context) {
	info, err := h.Rooms.GetRoom(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	if err != nil {
		h.internalError(c, "get room", err)
		return
	}
	resp := roomResponse{RoomInfo: info, Connected: []string{}}
	if rm, ok := h.Registry.Get(info.ID); ok {
		resp.Connected = rm.Connected()
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteRoom removes a room from the directory and tears down its live state.
func (h *Handler) DeleteRoom(c *gin.Context) {
	id := c.Param("id")
	err := h.Rooms.DeleteRoom(c.Request.Context(), id)
	if err != nil && !errors.Is(err, storage.ErrRoomNotFound) {
		h.internalError(c, "delete room", err)
		return
	}
	open := h.Registry.Delete(id)
	if err != nil && !open {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GameState returns the spectator view of a room's game.
func (h *Handler) GameState(c *gin.Context) {
	rm, ok := h.Registry.Get(c.Param("roomId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	snap, ok := rm.SpectatorSnapshot()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ChatLog returns a room's chat history.
func (h *Handler) ChatLog(c *gin.Context) {
	msgs := h.Registry.ChatLog(c.Param("roomId"))
	if msgs == nil {
		msgs = []chat.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// UserStats returns a player's lifetime counters.
func (h *Handler) UserStats(c *gin.Context) {
	totals, err := h.Rooms.PlayerTotals(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.internalError(c, "player totals", err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.log.Error(op, zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
