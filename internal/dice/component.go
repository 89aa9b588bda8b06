package dice

import (
	"encoding/json"
	"fmt"
)

// diceWire and modifierWire are the persisted shapes of a Component.
type diceWire struct {
	Kind          Kind    `json:"component_type"`
	Formula       string  `json:"formula"`
	Rolls         []int   `json:"rolls"`
	DropKeep      string  `json:"drop_keep,omitempty"`
	DroppedRolls  []int   `json:"dropped_rolls"`
	RetainedRolls []int   `json:"retained_rolls"`
	Total         int     `json:"total"`
	ExpectedAvg   float64 `json:"expected_avg"`
	RollRange     float64 `json:"roll_range"`
}

type modifierWire struct {
	Kind    Kind   `json:"component_type"`
	Formula string `json:"formula"`
	Value   int    `json:"value"`
	Total   int    `json:"total"`
}

// looseWire accepts both current and legacy stored components, where
// modifiers may lack "total" and dice may lack the retained/expected fields.
type looseWire struct {
	Kind          Kind     `json:"component_type"`
	Formula       string   `json:"formula"`
	Value         *int     `json:"value"`
	Rolls         []int    `json:"rolls"`
	DropKeep      string   `json:"drop_keep"`
	DroppedRolls  []int    `json:"dropped_rolls"`
	RetainedRolls []int    `json:"retained_rolls"`
	Total         *int     `json:"total"`
	ExpectedAvg   *float64 `json:"expected_avg"`
	RollRange     *float64 `json:"roll_range"`
}

// MarshalJSON encodes c in its persisted shape.
func (c Component) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindModifier:
		return json.Marshal(modifierWire{
			Kind:    c.Kind,
			Formula: c.Formula,
			Value:   c.Value,
			Total:   c.Total,
		})
	case KindDice:
		return json.Marshal(diceWire{
			Kind:          c.Kind,
			Formula:       c.Formula,
			Rolls:         nonNil(c.Rolls),
			DropKeep:      c.DropKeep,
			DroppedRolls:  nonNil(c.DroppedRolls),
			RetainedRolls: nonNil(c.RetainedRolls),
			Total:         c.Total,
			ExpectedAvg:   c.ExpectedAvg,
			RollRange:     c.RollRange,
		})
	default:
		return nil, fmt.Errorf("dice: cannot encode component of kind %q", c.Kind)
	}
}

// UnmarshalJSON decodes a persisted component, filling fields that legacy
// records omit.
func (c *Component) UnmarshalJSON(data []byte) error {
	var w looseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Component{
		Kind:     w.Kind,
		Formula:  w.Formula,
		Rolls:    w.Rolls,
		DropKeep: w.DropKeep,
	}

	switch w.Kind {
	case KindModifier:
		switch {
		case w.Value != nil:
			out.Value = *w.Value
		case w.Total != nil:
			out.Value = *w.Total
		}
		out.Total = out.Value
		if w.Total != nil {
			out.Total = *w.Total
		}
	case KindDice:
		out.RetainedRolls = w.RetainedRolls
		if out.RetainedRolls == nil && out.DropKeep == "" {
			out.RetainedRolls = append([]int(nil), w.Rolls...)
		}
		out.DroppedRolls = nonNil(w.DroppedRolls)
		if w.Total != nil {
			out.Total = *w.Total
		} else {
			out.Total = sum(out.RetainedRolls)
		}
		if w.ExpectedAvg != nil {
			out.ExpectedAvg = *w.ExpectedAvg
		}
		if w.RollRange != nil {
			out.RollRange = *w.RollRange
		}
	default:
		if w.Total != nil {
			out.Total = *w.Total
		}
	}

	*c = out
	return nil
}

func nonNil(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

func sum(s []int) int {
	total := 0
	for _, v := range s {
		total += v
	}
	return total
}
