package api

import (
	"net/http"
	"time"

	domain "github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	"github.com/KirkDiggler/dm-table/internal/repositories/gamestate"
	"github.com/KirkDiggler/dm-table/internal/services/session"
	"github.com/gin-gonic/gin"
)

type createSessionRequest struct {
	SessionID string `json:"session_id"`
}

type assignCharacterRequest struct {
	Name      string `json:"name" binding:"required"`
	CurrentHP *int   `json:"current_hp"` // defaults to max_hp
	MaxHP     int    `json:"max_hp" binding:"required,min=1"`
	AC        int    `json:"ac" binding:"min=0"`
}

type sessionResponse struct {
	SessionID   string        `json:"session_id"`
	CombatState *domain.State `json:"combat_state"`
	Version     int64         `json:"version"`
	Paused      bool          `json:"paused"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func newSessionResponse(snap *gamestate.Snapshot) sessionResponse {
	return sessionResponse{
		SessionID:   snap.SessionID,
		CombatState: snap.Combat,
		Version:     snap.Version,
		Paused:      snap.Paused,
		UpdatedAt:   snap.UpdatedAt,
	}
}

// CreateSession handles POST /api/sessions. An empty body is allowed.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	snap, err := h.sessionService.CreateSession(c.Request.Context(), &session.CreateSessionInput{SessionID: req.SessionID})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newSessionResponse(snap))
}

// GetSession handles GET /api/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	snap, err := h.sessionService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSessionResponse(snap))
}

// ListCharacters handles GET /api/sessions/:id/characters
func (h *Handler) ListCharacters(c *gin.Context) {
	roster, err := h.sessionService.ListCharacters(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"characters": roster})
}

// AssignCharacter handles PUT /api/sessions/:id/characters/:characterId
func (h *Handler) AssignCharacter(c *gin.Context) {
	var req assignCharacterRequest
	if !bindJSON(c, &req) {
		return
	}

	member := &gamestate.RosterMember{
		CharacterID: c.Param("characterId"),
		Name:        req.Name,
		CurrentHP:   req.MaxHP,
		MaxHP:       req.MaxHP,
		AC:          req.AC,
	}
	if req.CurrentHP != nil {
		member.CurrentHP = *req.CurrentHP
	}

	if err := h.sessionService.AssignCharacter(c.Request.Context(), c.Param("id"), member); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "character": member})
}

// PauseSession handles POST /api/sessions/:id/pause
func (h *Handler) PauseSession(c *gin.Context) {
	if err := h.sessionService.PauseSession(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "paused": true})
}

// ResumeSession handles POST /api/sessions/:id/resume
func (h *Handler) ResumeSession(c *gin.Context) {
	if err := h.sessionService.ResumeSession(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "paused": false})
}
