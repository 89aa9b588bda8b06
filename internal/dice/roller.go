package dice

import (
	"slices"
	"strconv"
	"strings"
)

// Evaluate parses formula, rolls every dice term against src, and returns the
// full breakdown.
//
// Dice are drawn left to right, and within a term in order over its Count
// dice, so a fixed draw sequence always yields the same result.
//
// Precondition: src must be non-nil.
// Postcondition: on success, FinalResult == sum of SignedTotal() over
// Components and Components preserve term order. On failure, the error is a
// *FormulaError and no partial result is returned.
func Evaluate(formula string, src Source) (RollResult, error) {
	normalized, err := Normalize(formula)
	if err != nil {
		return RollResult{}, err
	}
	terms, err := Tokenize(normalized)
	if err != nil {
		return RollResult{}, err
	}

	// Validate every term before drawing so a bad term late in the formula
	// does not consume randomness.
	specs := make([]*DiceSpec, len(terms))
	modifiers := make([]int, len(terms))
	for i, term := range terms {
		switch {
		case isInteger(term.Text):
			value, err := strconv.Atoi(term.Text)
			if err != nil {
				return RollResult{}, malformedTerm(term.Text, "Unrecognized term: "+term.Text)
			}
			modifiers[i] = value
		case strings.ContainsAny(term.Text, "dD"):
			spec, err := ParseDice(term.Text)
			if err != nil {
				return RollResult{}, err
			}
			specs[i] = &spec
		default:
			return RollResult{}, malformedTerm(term.Text, "Unrecognized term: "+term.Text)
		}
	}

	var (
		final       int
		actual      float64
		theoretical float64
		rollRange   float64
	)
	components := make([]Component, 0, len(terms))
	for i, term := range terms {
		var c Component
		if specs[i] == nil {
			value := modifiers[i]
			c = Component{Kind: KindModifier, Formula: term.Text, Value: value, Total: value}
		} else {
			c = Roll(*specs[i], src)
			sign := 1.0
			if term.Negated {
				sign = -1.0
			}
			actual += sign * float64(c.Total)
			theoretical += sign * c.ExpectedAvg
			rollRange += c.RollRange
		}
		c.Negated = term.Negated
		final += c.SignedTotal()
		components = append(components, c)
	}

	luck := 0.0
	if rollRange != 0 {
		luck = (actual - theoretical) / rollRange
	}

	return RollResult{
		FormulaNormalized: strings.TrimPrefix(normalized, "+"),
		FinalResult:       final,
		Components:        components,
		LuckIndex:         luck,
	}, nil
}

// Roll draws spec.Count dice from src and applies the drop/keep selector.
//
// Precondition: spec comes from ParseDice; src must be non-nil.
// Postcondition: len(Rolls) == spec.Count; RetainedRolls and DroppedRolls
// partition Rolls; Total == sum(RetainedRolls).
func Roll(spec DiceSpec, src Source) Component {
	rolls := make([]int, spec.Count)
	for i := range rolls {
		rolls[i] = src.Intn(spec.Size) + 1
	}

	retained, dropped := selectDice(rolls, spec.DropKeep)
	kept := float64(len(retained))

	return Component{
		Kind:          KindDice,
		Formula:       spec.Raw,
		Rolls:         rolls,
		DropKeep:      spec.DropKeep.String(),
		DroppedRolls:  dropped,
		RetainedRolls: retained,
		Total:         sum(retained),
		ExpectedAvg:   kept * (float64(spec.Size) + 1) / 2,
		RollRange:     kept * (float64(spec.Size) - 1),
	}
}

// selectDice partitions rolls according to dk. Without a selector every die
// is retained in draw order; with one, both halves come from the ascending
// sort of rolls.
func selectDice(rolls []int, dk DropKeep) (retained, dropped []int) {
	if dk.Op == "" {
		return slices.Clone(rolls), []int{}
	}

	sorted := slices.Clone(rolls)
	slices.Sort(sorted)
	k := dk.Amount
	n := len(sorted)

	split := func(lo, hi []int) ([]int, []int) {
		return slices.Clone(lo), slices.Clone(hi)
	}
	switch dk.Op {
	case "dl":
		return split(sorted[k:], sorted[:k])
	case "kl":
		return split(sorted[:k], sorted[k:])
	case "dh":
		return split(sorted[:n-k], sorted[n-k:])
	case "kh":
		return split(sorted[n-k:], sorted[:n-k])
	}
	panic("dice: unknown drop/keep selector " + dk.Op)
}

// MustEvaluate evaluates formula and panics on error. Useful for fixtures.
//
// Precondition: formula must be valid.
func MustEvaluate(formula string, src Source) RollResult {
	r, err := Evaluate(formula, src)
	if err != nil {
		panic("dice: MustEvaluate failed for formula " + formula + ": " + err.Error())
	}
	return r
}
