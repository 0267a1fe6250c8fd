package api

import (
	"net/http"

	"github.com/KirkDiggler/dm-table/internal/services/narration"
	"github.com/gin-gonic/gin"
)

type narrationRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Response  string `json:"response" binding:"required"`
}

// Narrate handles POST /api/narration. The oracle response is parsed and any
// combat changes it carries go through the same engine operations as every
// other caller.
func (h *Handler) Narrate(c *gin.Context) {
	var req narrationRequest
	if !bindJSON(c, &req) {
		return
	}

	suggestion, err := narration.ParseSuggestion(req.Response)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), req.SessionID, suggestion)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := gin.H{
		"success":      true,
		"narrative":    suggestion.Narrative,
		"request_roll": suggestion.RequestRoll,
		"dm_rolls":     suggestion.DMRolls,
	}
	if result.Started != nil {
		resp["combat_state"] = result.Started.State
		resp["message"] = result.Started.Message
	}
	if result.Updated != nil {
		resp["combat_state"] = result.Updated.State
		resp["combat_ended"] = result.Updated.CombatEnded
	}
	if result.Skipped != "" {
		resp["skipped"] = result.Skipped
	}

	c.JSON(http.StatusOK, resp)
}
