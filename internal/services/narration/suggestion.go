// Package narration turns narration-oracle responses into engine calls. The
// oracle is treated like any other untrusted client: malformed pieces of a
// suggestion are dropped rather than failing the whole response.
package narration

import (
	"strings"

	domain "github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/tidwall/gjson"
)

// Roll types the oracle may ask a player for
const (
	RollInitiative = "initiative"
	RollAttack     = "attack"
	RollDamage     = "damage"
)

// RollRequest asks a player to roll
type RollRequest struct {
	Character string `json:"character"`
	Type      string `json:"type"`
	Reason    string `json:"reason"`
}

// DMRoll is a roll the oracle made on behalf of an enemy
type DMRoll struct {
	Name   string `json:"name"`
	Dice   string `json:"dice"`
	Result int    `json:"result"`
}

// Suggestion is a parsed oracle response
type Suggestion struct {
	Narrative   string             `json:"narrative"`
	RequestRoll *RollRequest       `json:"request_roll,omitempty"`
	DMRolls     []DMRoll           `json:"dm_rolls,omitempty"`
	StartCombat []domain.EnemySpec `json:"start_combat,omitempty"`
	Changes     *domain.Changes    `json:"changes,omitempty"`
	AdvanceTurn bool               `json:"advance_turn,omitempty"`
}

// HasCombatUpdate reports whether the suggestion mutates an encounter
func (s *Suggestion) HasCombatUpdate() bool {
	return s.AdvanceTurn || !s.Changes.IsEmpty()
}

// ParseSuggestion reads an oracle response. The JSON may be wrapped in a
// markdown code fence. Only the narrative is required.
func ParseSuggestion(raw string) (*Suggestion, error) {
	text := stripFence(raw)
	if !gjson.Valid(text) {
		return nil, dnderr.InvalidArgument("oracle response is not valid JSON")
	}

	doc := gjson.Parse(text)
	narrative := doc.Get("narrative")
	if narrative.Type != gjson.String || strings.TrimSpace(narrative.Str) == "" {
		return nil, dnderr.InvalidArgument("oracle response is missing a narrative")
	}

	s := &Suggestion{
		Narrative:   narrative.Str,
		RequestRoll: parseRollRequest(doc.Get("request_roll")),
		DMRolls:     parseDMRolls(doc.Get("dm_rolls")),
	}

	update := doc.Get("combat_update")
	if !update.IsObject() {
		return s, nil
	}

	s.StartCombat = parseEnemies(update.Get("start_combat.enemies"))

	changes := &domain.Changes{
		Damage:            parseHPChanges(firstOf(update, "damage", "damage_dealt")),
		Healing:           parseHPChanges(update.Get("healing")),
		ConditionsAdded:   parseConditionChanges(update.Get("conditions_added")),
		ConditionsRemoved: parseConditionChanges(update.Get("conditions_removed")),
		EnemiesKilled:     parseIDs(firstOf(update, "deaths", "enemies_killed")),
	}
	if !changes.IsEmpty() {
		s.Changes = changes
	}
	s.AdvanceTurn = firstOf(update, "advance_turn", "turn_complete").Bool()

	return s, nil
}

func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// Drop the language tag line, if any
	if i := strings.IndexByte(text, '\n'); i >= 0 && !strings.HasPrefix(text, "{") {
		text = text[i+1:]
	}
	text = strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimSuffix(text, "```"))
}

func firstOf(obj gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := obj.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func parseRollRequest(r gjson.Result) *RollRequest {
	if !r.IsObject() {
		return nil
	}
	req := &RollRequest{
		Character: r.Get("character").String(),
		Type:      r.Get("type").String(),
		Reason:    r.Get("reason").String(),
	}
	if req.Character == "" || req.Reason == "" {
		return nil
	}
	switch req.Type {
	case RollInitiative, RollAttack, RollDamage:
		return req
	default:
		return nil
	}
}

func parseDMRolls(r gjson.Result) []DMRoll {
	var out []DMRoll
	for _, item := range r.Array() {
		name, dice, result := item.Get("name"), item.Get("dice"), item.Get("result")
		if name.String() == "" || dice.String() == "" || result.Type != gjson.Number {
			continue
		}
		out = append(out, DMRoll{Name: name.String(), Dice: dice.String(), Result: int(result.Int())})
	}
	return out
}

func parseEnemies(r gjson.Result) []domain.EnemySpec {
	var out []domain.EnemySpec
	for _, item := range r.Array() {
		spec := domain.EnemySpec{
			Name:        item.Get("name").String(),
			Count:       int(item.Get("count").Int()),
			HP:          int(item.Get("hp").Int()),
			AC:          int(item.Get("ac").Int()),
			AttackBonus: int(item.Get("attack_bonus").Int()),
			DamageDice:  item.Get("damage_dice").String(),
			MonsterRef:  item.Get("monster_ref").String(),
		}
		if spec.Name == "" || spec.Count <= 0 || spec.HP <= 0 || spec.AC <= 0 {
			continue
		}
		if spec.DamageDice == "" {
			spec.DamageDice = domain.DefaultDamageDice
		}
		out = append(out, spec)
	}
	return out
}

func parseHPChanges(r gjson.Result) []domain.HPChange {
	var out []domain.HPChange
	for _, item := range r.Array() {
		target, amount := item.Get("target_id"), item.Get("amount")
		if target.String() == "" || amount.Type != gjson.Number || amount.Int() < 0 {
			continue
		}
		out = append(out, domain.HPChange{TargetID: target.String(), Amount: int(amount.Int())})
	}
	return out
}

func parseConditionChanges(r gjson.Result) []domain.ConditionChange {
	var out []domain.ConditionChange
	for _, item := range r.Array() {
		target := item.Get("target_id").String()
		if target == "" {
			continue
		}
		var conditions []string
		for _, c := range item.Get("conditions").Array() {
			if c.Type == gjson.String && strings.TrimSpace(c.Str) != "" {
				conditions = append(conditions, c.Str)
			}
		}
		if len(conditions) == 0 {
			continue
		}
		out = append(out, domain.ConditionChange{TargetID: target, Conditions: conditions})
	}
	return out
}

func parseIDs(r gjson.Result) []string {
	var out []string
	for _, item := range r.Array() {
		if id := item.String(); id != "" {
			out = append(out, id)
		}
	}
	return out
}
