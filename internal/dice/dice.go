// Package dice evaluates dice formulas such as "1d20+5" or "4d6dl1" and
// produces the per-component breakdown that is persisted with every roll.
package dice

import (
	"fmt"
	"strings"
)

// Kind distinguishes the two component variants.
type Kind string

const (
	KindDice     Kind = "dice"
	KindModifier Kind = "modifier"
)

// Component is the evaluated result of a single formula term.
//
// For KindModifier only Formula, Value and Total are meaningful. For KindDice,
// RetainedRolls and DroppedRolls partition Rolls and Total == sum(RetainedRolls).
type Component struct {
	Kind    Kind
	Formula string
	// Negated reports whether the term was subtracted. It is not persisted.
	Negated bool

	Value int

	Rolls         []int
	DropKeep      string
	DroppedRolls  []int
	RetainedRolls []int
	ExpectedAvg   float64
	RollRange     float64

	Total int
}

// SignedTotal returns Total, negated when the term was subtracted.
func (c Component) SignedTotal() int {
	if c.Negated {
		return -c.Total
	}
	return c.Total
}

// IsDice reports whether c is a dice component.
func (c Component) IsDice() bool {
	return c.Kind == KindDice
}

// RollResult is the full breakdown of one formula evaluation.
//
// Postcondition: FinalResult == sum of SignedTotal() over Components.
type RollResult struct {
	FormulaNormalized string      `json:"formula_normalized"`
	FinalResult       int         `json:"final_result"`
	Components        []Component `json:"components"`
	LuckIndex         float64     `json:"luck_index"`
}

// String returns a human-readable audit string in the format:
//
//	"1d20+5 → [4] +5 = 9"
//
// Precondition: r.FormulaNormalized is non-empty.
func (r RollResult) String() string {
	if r.FormulaNormalized == "" {
		panic("dice: RollResult.String() precondition violated: FormulaNormalized must be non-empty")
	}
	parts := make([]string, 0, len(r.Components))
	for i, c := range r.Components {
		switch c.Kind {
		case KindModifier:
			parts = append(parts, fmt.Sprintf("%+d", c.SignedTotal()))
		default:
			sign := ""
			if c.Negated {
				sign = "-"
			} else if i > 0 {
				sign = "+"
			}
			parts = append(parts, fmt.Sprintf("%s%v", sign, c.RetainedRolls))
		}
	}
	return fmt.Sprintf("%s → %s = %d", r.FormulaNormalized, strings.Join(parts, " "), r.FinalResult)
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
