package narration

import (
	"context"
	"log"

	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/KirkDiggler/dm-table/internal/services/combat"
)

// DispatchResult reports what a suggestion did to the encounter
type DispatchResult struct {
	Suggestion *Suggestion
	Started    *combat.StartCombatResult
	Updated    *combat.ApplyCombatUpdateResult
	// Skipped explains a combat update that was not applied. The narrative is
	// still delivered.
	Skipped string
}

// Dispatcher applies oracle suggestions through the public combat contract
type Dispatcher struct {
	combat combat.Service
}

// NewDispatcher creates a dispatcher over the combat service
func NewDispatcher(combatService combat.Service) *Dispatcher {
	if combatService == nil {
		panic("combat service is required")
	}
	return &Dispatcher{combat: combatService}
}

// Dispatch starts combat and/or applies the update the suggestion carries.
// A start runs before the update, so a response may open an encounter and
// act in it at once.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID string, s *Suggestion) (*DispatchResult, error) {
	if s == nil {
		return nil, dnderr.InvalidArgument("suggestion cannot be nil")
	}

	result := &DispatchResult{Suggestion: s}

	if len(s.StartCombat) > 0 {
		started, err := d.combat.StartCombat(ctx, &combat.StartCombatInput{
			SessionID: sessionID,
			Enemies:   s.StartCombat,
		})
		if err != nil {
			return nil, dnderr.Wrap(err, "failed to start suggested combat").
				WithMeta("session_id", sessionID)
		}
		result.Started = started
	}

	if !s.HasCombatUpdate() {
		return result, nil
	}

	updated, err := d.combat.ApplyCombatUpdate(ctx, &combat.ApplyCombatUpdateInput{
		SessionID:   sessionID,
		Changes:     s.Changes,
		AdvanceTurn: s.AdvanceTurn,
	})
	switch {
	case dnderr.IsNoActiveCombat(err):
		log.Printf("Narration: Dropping combat update for session %s, no active combat", sessionID)
		result.Skipped = "no active combat"
	case err != nil:
		return nil, dnderr.Wrap(err, "failed to apply suggested combat update").
			WithMeta("session_id", sessionID)
	default:
		result.Updated = updated
	}

	return result, nil
}
