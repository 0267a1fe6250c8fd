package combat

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/KirkDiggler/dm-table/internal/dice"
)

// DefaultDamageDice is used when a template omits its damage expression
const DefaultDamageDice = "1d4"

// EnemySpec is a template expanded into Count individual enemies
type EnemySpec struct {
	Name        string `json:"name"`
	Count       int    `json:"count"`
	HP          int    `json:"hp"`
	AC          int    `json:"ac"`
	AttackBonus int    `json:"attack_bonus"`
	DamageDice  string `json:"damage_dice"`
	MonsterRef  string `json:"monster_ref,omitempty"` // SRD key used to fill missing stats
}

// Validate checks a single template
func (spec *EnemySpec) Validate() error {
	if strings.TrimSpace(spec.Name) == "" {
		return fmt.Errorf("enemy name is required")
	}
	if spec.Count <= 0 {
		return fmt.Errorf("enemy %q count must be positive, got %d", spec.Name, spec.Count)
	}
	if spec.HP <= 0 {
		return fmt.Errorf("enemy %q hp must be positive, got %d", spec.Name, spec.HP)
	}
	if spec.AC < 0 {
		return fmt.Errorf("enemy %q ac cannot be negative", spec.Name)
	}
	if spec.DamageDice != "" {
		if _, err := dice.ParseNotation(spec.DamageDice); err != nil {
			return fmt.Errorf("enemy %q: %w", spec.Name, err)
		}
	}
	return nil
}

// BuildEnemies expands templates into enemies with ids of the form
// "<slug>_<n>". The sequence is per slug across the whole call, so two
// templates with the same name never collide.
func BuildEnemies(specs []EnemySpec) ([]*EnemyCombatant, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one enemy is required")
	}
	for i := range specs {
		if err := specs[i].Validate(); err != nil {
			return nil, err
		}
	}

	seq := make(map[string]int)
	var enemies []*EnemyCombatant
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		slug := Slug(name)
		damage := DefaultDamageDice
		if spec.DamageDice != "" {
			n, _ := dice.ParseNotation(spec.DamageDice)
			damage = n.String()
		}

		for i := 0; i < spec.Count; i++ {
			seq[slug]++
			n := seq[slug]
			enemies = append(enemies, &EnemyCombatant{
				ID:          fmt.Sprintf("%s_%d", slug, n),
				Name:        fmt.Sprintf("%s #%d", name, n),
				CurrentHP:   spec.HP,
				MaxHP:       spec.HP,
				AC:          spec.AC,
				AttackBonus: spec.AttackBonus,
				DamageDice:  damage,
				IsAlive:     true,
				Conditions:  []string{},
			})
		}
	}

	return enemies, nil
}

// Slug lowercases a display name and joins words with underscores
func Slug(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	slug := strings.TrimRight(b.String(), "_")
	if slug == "" {
		return "enemy"
	}
	return slug
}
