package api

import (
	"net/http"

	domain "github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	"github.com/KirkDiggler/dm-table/internal/services/combat"
	"github.com/gin-gonic/gin"
)

type sessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type startCombatRequest struct {
	SessionID string             `json:"session_id" binding:"required"`
	Enemies   []domain.EnemySpec `json:"enemies" binding:"required,min=1"`
}

type initiativeRequest struct {
	SessionID   string                   `json:"session_id" binding:"required"`
	Initiatives []domain.InitiativeEntry `json:"initiatives" binding:"required,min=1"`
}

type combatUpdateRequest struct {
	SessionID   string          `json:"session_id" binding:"required"`
	Changes     *domain.Changes `json:"changes"`
	AdvanceTurn bool            `json:"advance_turn"`
}

type initiativeResponse struct {
	Success            bool                    `json:"success"`
	CombatState        *domain.State           `json:"combat_state"`
	Version            int64                   `json:"version"`
	InitiativeComplete bool                    `json:"initiative_complete"`
	TurnOrder          []domain.ParticipantRef `json:"turn_order"` // null until complete
	Rolls              map[string]int          `json:"rolls,omitempty"`
}

func newInitiativeResponse(result *combat.RecordInitiativeResult) initiativeResponse {
	resp := initiativeResponse{
		Success:            true,
		CombatState:        result.State,
		Version:            result.Version,
		InitiativeComplete: result.InitiativeComplete,
		Rolls:              result.Rolls,
	}
	if result.InitiativeComplete {
		resp.TurnOrder = result.TurnOrder
	}
	return resp
}

// StartCombat handles POST /api/combat/init
func (h *Handler) StartCombat(c *gin.Context) {
	var req startCombatRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.combatService.StartCombat(c.Request.Context(), &combat.StartCombatInput{
		SessionID: req.SessionID,
		Enemies:   req.Enemies,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"combat_state": result.State,
		"version":      result.Version,
		"message":      result.Message,
	})
}

// RecordInitiative handles POST /api/combat/initiative
func (h *Handler) RecordInitiative(c *gin.Context) {
	var req initiativeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.combatService.RecordInitiative(c.Request.Context(), &combat.RecordInitiativeInput{
		SessionID: req.SessionID,
		Entries:   req.Initiatives,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newInitiativeResponse(result))
}

// RollEnemyInitiative handles POST /api/combat/initiative/roll
func (h *Handler) RollEnemyInitiative(c *gin.Context) {
	var req sessionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.combatService.RollEnemyInitiative(c.Request.Context(), req.SessionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newInitiativeResponse(result))
}

// ApplyCombatUpdate handles POST /api/combat/update
func (h *Handler) ApplyCombatUpdate(c *gin.Context) {
	var req combatUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.combatService.ApplyCombatUpdate(c.Request.Context(), &combat.ApplyCombatUpdateInput{
		SessionID:   req.SessionID,
		Changes:     req.Changes,
		AdvanceTurn: req.AdvanceTurn,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"combat_state":    result.State,
		"version":         result.Version,
		"combat_ended":    result.CombatEnded,
		"ignored_targets": result.IgnoredTargets,
	})
}

// EndCombat handles POST /api/combat/end
func (h *Handler) EndCombat(c *gin.Context) {
	var req sessionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.combatService.EndCombat(c.Request.Context(), req.SessionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": result.Success, "message": result.Message})
}

// GetCombat handles GET /api/combat/:sessionId
func (h *Handler) GetCombat(c *gin.Context) {
	state, err := h.combatService.GetCombat(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"combat_state": state, "phase": state.Phase()})
}
