package dice

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// MaxDiceCount bounds the number of dice in a single term so evaluation time
// stays proportional to the formula rather than to the numbers inside it.
const MaxDiceCount = 10000

// MaxDieSize bounds the faces of a single die. MaxDiceCount*MaxDieSize fits
// in an int, so a term's total cannot wrap.
const MaxDieSize = 1000000

var (
	// tokenPattern matches one signed term: a dice term with an optional
	// lower-case drop/keep selector, or a bare positive integer.
	tokenPattern = regexp.MustCompile(`([+-])?([1-9][0-9]*[dD][1-9][0-9]*(?:(?:dl|dh|kl|kh)[1-9][0-9]*)?|[1-9][0-9]*)`)

	dicePattern = regexp.MustCompile(`^([1-9][0-9]*)d([1-9][0-9]*)(?:(dl|dh|kl|kh)([1-9][0-9]*))?$`)
)

// Term is one signed token of a normalized formula.
type Term struct {
	Negated bool
	// Text is the term without its sign, e.g. "4d6dl1" or "5".
	Text string
	// Offset is the byte offset of the term's sign in the normalized formula.
	Offset int
}

// DropKeep is a parsed drop/keep selector.
type DropKeep struct {
	Op     string // one of "dl", "dh", "kl", "kh"
	Amount int
}

// String returns the selector in formula notation, e.g. "dl1".
func (d DropKeep) String() string {
	if d.Op == "" {
		return ""
	}
	return d.Op + strconv.Itoa(d.Amount)
}

// DiceSpec is a validated dice term ready to be rolled.
//
// Invariant: Count in [1, MaxDiceCount]; Size in [1, MaxDieSize]; when
// DropKeep.Op is set, 0 < DropKeep.Amount < Count.
type DiceSpec struct {
	Raw      string
	Count    int
	Size     int
	DropKeep DropKeep
}

// Normalize strips all whitespace from formula and prefixes a '+' when the
// first character is not a sign.
//
// Postcondition: Normalize(Normalize(f)) == Normalize(f) for every f that
// normalizes without error.
func Normalize(formula string) (string, error) {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, formula)
	if stripped == "" {
		return "", emptyFormula()
	}
	if stripped[0] != '+' && stripped[0] != '-' {
		stripped = "+" + stripped
	}
	return stripped, nil
}

// Tokenize splits a normalized formula into signed terms.
//
// Precondition: normalized comes from Normalize.
// Postcondition: the returned terms cover normalized contiguously; any gap
// between or after matches is reported verbatim as CodeUnrecognizedSyntax.
func Tokenize(normalized string) ([]Term, error) {
	if normalized == "" {
		return nil, emptyFormula()
	}

	matches := tokenPattern.FindAllStringSubmatchIndex(normalized, -1)
	terms := make([]Term, 0, len(matches))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > last {
			return nil, unrecognizedSyntax(normalized[last:start])
		}
		negated := m[2] >= 0 && normalized[m[2]:m[3]] == "-"
		terms = append(terms, Term{
			Negated: negated,
			Text:    normalized[m[4]:m[5]],
			Offset:  start,
		})
		last = end
	}
	if last < len(normalized) {
		return nil, unrecognizedSyntax(normalized[last:])
	}
	return terms, nil
}

// ParseDice validates a single dice term such as "3d6" or "4d20kh1".
// Matching is case-insensitive.
//
// Postcondition: returns a DiceSpec satisfying its invariant, or a *FormulaError.
func ParseDice(term string) (DiceSpec, error) {
	m := dicePattern.FindStringSubmatch(strings.ToLower(term))
	if m == nil {
		return DiceSpec{}, malformedTerm(term, "Invalid dice format in: "+term)
	}

	count, err := strconv.Atoi(m[1])
	if err != nil || count < 1 || count > MaxDiceCount {
		return DiceSpec{}, invalidDiceSpec(term,
			"Dice count must be between 1 and "+strconv.Itoa(MaxDiceCount)+" in: "+term)
	}
	size, err := strconv.Atoi(m[2])
	if err != nil || size < 1 || size > MaxDieSize {
		return DiceSpec{}, invalidDiceSpec(term,
			"Die size must be between 1 and "+strconv.Itoa(MaxDieSize)+" in: "+term)
	}

	spec := DiceSpec{Raw: term, Count: count, Size: size}
	if m[3] == "" {
		return spec, nil
	}

	// On overflow Atoi returns the saturated value alongside the error.
	amount, err := strconv.Atoi(m[4])
	if err != nil || amount <= 0 || amount >= count {
		return DiceSpec{}, invalidDropKeepAmount(term, m[3], m[4], amount, count)
	}
	spec.DropKeep = DropKeep{Op: m[3], Amount: amount}
	return spec, nil
}

// isInteger reports whether term consists only of ASCII digits.
func isInteger(term string) bool {
	if term == "" {
		return false
	}
	for i := 0; i < len(term); i++ {
		if term[i] < '0' || term[i] > '9' {
			return false
		}
	}
	return true
}
