package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anicoll/acinfinity-integration/internal/pkg/entity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
	"github.com/anicoll/acinfinity-integration/pkg/sockets"
)

const redacted = "**********"

type coordinator interface {
	Entry() *model.Entry
	Entities() []*entity.Entity
	States() []model.EntityState
	Reload()
}

type entryStore interface {
	LoadEntry(ctx context.Context, id string) (*model.Entry, error)
	SaveEntry(ctx context.Context, entry *model.Entry) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type server struct {
	coordinator coordinator
	entries     entryStore
	db          pinger
	metrics     http.Handler
	origins     []string
	hub         *sockets.Hub
	logger      *zap.Logger
	now         func() time.Time
}

// New builds the HTTP surface. allowedOrigins applies to both the API and
// the websocket; empty allows any origin.
func New(c coordinator, entries entryStore, db pinger, metrics http.Handler, allowedOrigins []string) *server {
	s := &server{
		coordinator: c,
		entries:     entries,
		db:          db,
		metrics:     metrics,
		origins:     allowedOrigins,
		logger:      zap.L(),
		now:         time.Now,
	}
	s.hub = sockets.New(
		sockets.WithOnConnected(s.sendSnapshot),
		sockets.WithCheckOrigin(func(r *http.Request) bool {
			return s.allowOrigin(r.Header.Get("Origin"))
		}),
	)
	return s
}

// allowOrigin reports whether a browser at origin may use the API. Requests
// without an Origin header are not cross-origin and always pass.
func (s *server) allowOrigin(origin string) bool {
	if origin == "" || len(s.origins) == 0 {
		return true
	}
	return slices.Contains(s.origins, origin)
}

func (s *server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(recoveryMiddleware(s.logger), loggingMiddleware(s.logger), corsMiddleware(s.allowOrigin))

	router.GET("/healthz", s.healthz)
	router.GET("/metrics", gin.WrapH(s.metrics))
	router.GET("/ws", gin.WrapH(s.hub))

	api := router.Group("/api")
	{
		api.GET("/entities", s.listEntities)
		api.GET("/config", s.getConfig)
		api.PUT("/config/entities/:controllerID", s.putEntityConfig)
	}
	return router
}

// Close drops every websocket client.
func (s *server) Close() {
	s.hub.Close()
}

// Write broadcasts changed states to websocket clients. It satisfies the
// publisher registry.
func (s *server) Write(_ context.Context, states []model.EntityState) error {
	data, err := json.Marshal(states)
	if err != nil {
		return err
	}
	s.hub.Broadcast(data)
	return nil
}

func (s *server) sendSnapshot(c *sockets.Conn) {
	data, err := json.Marshal(s.coordinator.States())
	if err != nil {
		s.logger.Error("failed to marshal state snapshot", zap.Error(err))
		return
	}
	if err := c.Send(data); err != nil {
		s.logger.Warn("failed to send state snapshot", zap.Error(err))
	}
}

func (s *server) healthz(c *gin.Context) {
	if err := s.db.Ping(c.Request.Context()); err != nil {
		handleError(c, http.StatusServiceUnavailable, err)
		return
	}
	if s.coordinator.Entry() == nil {
		handleError(c, http.StatusServiceUnavailable, errNotLoaded)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type entityView struct {
	*entity.Entity
	State     *string   `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *server) listEntities(c *gin.Context) {
	now := s.now()
	entities := s.coordinator.Entities()
	out := make([]entityView, 0, len(entities))
	for _, e := range entities {
		state := e.State(now)
		out = append(out, entityView{Entity: e, State: state.Value, UpdatedAt: now})
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) getConfig(c *gin.Context) {
	entry := s.coordinator.Entry()
	if entry == nil {
		handleError(c, http.StatusServiceUnavailable, errNotLoaded)
		return
	}
	out := entry.Clone()
	out.Data.Password = redacted
	c.JSON(http.StatusOK, out)
}

// putEntityConfig merges the posted keys into one controller's entity
// configuration and reloads the entry.
func (s *server) putEntityConfig(c *gin.Context) {
	current := s.coordinator.Entry()
	if current == nil {
		handleError(c, http.StatusServiceUnavailable, errNotLoaded)
		return
	}
	controllerID := c.Param("controllerID")

	var update model.DeviceConfig
	if err := c.ShouldBindJSON(&update); err != nil {
		handleError(c, http.StatusBadRequest, err)
		return
	}
	if err := update.Validate(); err != nil {
		handleError(c, http.StatusBadRequest, err)
		return
	}

	entry, err := s.entries.LoadEntry(c.Request.Context(), current.ID)
	if err != nil {
		handleError(c, http.StatusInternalServerError, err)
		return
	}
	existing, ok := entry.Data.Entities[controllerID]
	if !ok {
		handleError(c, http.StatusNotFound, errUnknownController)
		return
	}
	if err := update.ValidatePorts(existing.PortCount()); err != nil {
		handleError(c, http.StatusBadRequest, err)
		return
	}

	updated := entry.Clone()
	cfg := updated.Data.Entities[controllerID]
	for key, value := range update {
		cfg[key] = value
	}
	updated.Touch(s.now())
	if err := s.entries.SaveEntry(c.Request.Context(), updated); err != nil {
		handleError(c, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("updated entity configuration", zap.String("controller", controllerID), zap.Any("config", update))
	s.coordinator.Reload()
	c.JSON(http.StatusOK, cfg)
}

var (
	errNotLoaded         = errors.New("config entry not loaded yet")
	errUnknownController = errors.New("unknown controller")
)

func handleError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
