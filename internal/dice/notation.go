package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Notation is a parsed dice expression such as "2d6+3"
type Notation struct {
	Count int `json:"count"`
	Sides int `json:"sides"`
	Bonus int `json:"bonus"`
}

// String renders the notation in the canonical NdS+B form
func (n Notation) String() string {
	switch {
	case n.Bonus > 0:
		return fmt.Sprintf("%dd%d+%d", n.Count, n.Sides, n.Bonus)
	case n.Bonus < 0:
		return fmt.Sprintf("%dd%d%d", n.Count, n.Sides, n.Bonus)
	default:
		return fmt.Sprintf("%dd%d", n.Count, n.Sides)
	}
}

// ParseNotation parses "NdS", "NdS+B", "NdS-B" and "dS" (count defaults to 1).
func ParseNotation(input string) (Notation, error) {
	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(input), " ", ""))
	if s == "" {
		return Notation{}, fmt.Errorf("invalid dice string %q", input)
	}

	var n Notation
	dice := s
	if i := strings.IndexAny(s, "+-"); i >= 0 {
		bonus, err := strconv.Atoi(s[i:])
		if err != nil {
			return Notation{}, fmt.Errorf("invalid dice string %q", input)
		}
		n.Bonus = bonus
		dice = s[:i]
	}

	parts := strings.Split(dice, "d")
	if len(parts) != 2 {
		return Notation{}, fmt.Errorf("invalid dice string %q", input)
	}

	n.Count = 1
	if parts[0] != "" {
		count, err := strconv.Atoi(parts[0])
		if err != nil {
			return Notation{}, fmt.Errorf("invalid dice string %q", input)
		}
		n.Count = count
	}

	sides, err := strconv.Atoi(parts[1])
	if err != nil {
		return Notation{}, fmt.Errorf("invalid dice string %q", input)
	}
	n.Sides = sides

	if n.Count < 1 || n.Sides < 1 {
		return Notation{}, fmt.Errorf("invalid dice string %q", input)
	}

	return n, nil
}
