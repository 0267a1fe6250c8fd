// Package api exposes the combat engine over HTTP+JSON with gin.
package api

import (
	"net/http"

	"github.com/KirkDiggler/dm-table/internal/services/combat"
	"github.com/KirkDiggler/dm-table/internal/services/narration"
	"github.com/KirkDiggler/dm-table/internal/services/session"
	"github.com/gin-gonic/gin"
)

// Handler serves every HTTP route
type Handler struct {
	combatService  combat.Service
	sessionService session.Service
	dispatcher     *narration.Dispatcher
}

// HandlerConfig holds configuration for the HTTP handler
type HandlerConfig struct {
	CombatService  combat.Service  // Required
	SessionService session.Service // Required
}

// NewHandler creates a new HTTP handler
func NewHandler(cfg *HandlerConfig) *Handler {
	if cfg.CombatService == nil {
		panic("combat service is required")
	}
	if cfg.SessionService == nil {
		panic("session service is required")
	}

	return &Handler{
		combatService:  cfg.CombatService,
		sessionService: cfg.SessionService,
		dispatcher:     narration.NewDispatcher(cfg.CombatService),
	}
}

// NewRouter builds a gin engine with recovery, optional request logging and
// every route registered
func NewRouter(h *Handler, mode string) *gin.Engine {
	gin.SetMode(mode)

	r := gin.New()
	r.Use(RecoverMiddleware())
	if mode == gin.DebugMode {
		r.Use(gin.Logger())
	}

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API on r
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", h.CreateSession)
			sessions.GET("/:id", h.GetSession)
			sessions.GET("/:id/characters", h.ListCharacters)
			sessions.PUT("/:id/characters/:characterId", h.AssignCharacter)
			sessions.POST("/:id/pause", h.PauseSession)
			sessions.POST("/:id/resume", h.ResumeSession)
		}

		c := api.Group("/combat")
		{
			c.POST("/init", h.StartCombat)
			c.POST("/initiative", h.RecordInitiative)
			c.POST("/initiative/roll", h.RollEnemyInitiative)
			c.POST("/update", h.ApplyCombatUpdate)
			c.POST("/end", h.EndCombat)
			c.GET("/:sessionId", h.GetCombat)
		}

		api.POST("/narration", h.Narrate)
	}
}
