package dice

import (
	"errors"
	"fmt"
)

// ErrorCode classifies why a formula was rejected.
type ErrorCode string

const (
	CodeEmptyFormula          ErrorCode = "EmptyFormula"
	CodeMalformedTerm         ErrorCode = "MalformedTerm"
	CodeUnrecognizedSyntax    ErrorCode = "UnrecognizedSyntax"
	CodeInvalidDiceSpec       ErrorCode = "InvalidDiceSpec"
	CodeInvalidDropKeepAmount ErrorCode = "InvalidDropKeepAmount"
)

// Sentinels matched by FormulaError via errors.Is.
var (
	ErrEmptyFormula          = errors.New("dice: empty formula")
	ErrMalformedTerm         = errors.New("dice: malformed term")
	ErrUnrecognizedSyntax    = errors.New("dice: unrecognized syntax")
	ErrInvalidDiceSpec       = errors.New("dice: invalid dice specification")
	ErrInvalidDropKeepAmount = errors.New("dice: invalid drop/keep amount")
)

// FormulaError reports a formula that cannot be evaluated. Its Error text is
// meant to be shown to the end user verbatim.
type FormulaError struct {
	Code ErrorCode
	// Text is the offending substring, or the offending term.
	Text   string
	Reason string

	// Populated for CodeInvalidDropKeepAmount only.
	DropKeepKey string
	Amount      int
	Count       int
}

// Error returns the user-facing message.
func (e *FormulaError) Error() string {
	return e.Reason
}

// Is matches the sentinel for e.Code.
func (e *FormulaError) Is(target error) bool {
	switch e.Code {
	case CodeEmptyFormula:
		return target == ErrEmptyFormula
	case CodeMalformedTerm:
		return target == ErrMalformedTerm
	case CodeUnrecognizedSyntax:
		return target == ErrUnrecognizedSyntax
	case CodeInvalidDiceSpec:
		return target == ErrInvalidDiceSpec
	case CodeInvalidDropKeepAmount:
		return target == ErrInvalidDropKeepAmount
	}
	return false
}

func emptyFormula() error {
	return &FormulaError{Code: CodeEmptyFormula, Reason: "Formula cannot be empty."}
}

func unrecognizedSyntax(text string) error {
	return &FormulaError{
		Code:   CodeUnrecognizedSyntax,
		Text:   text,
		Reason: fmt.Sprintf("Formula contains invalid syntax: '%s'", text),
	}
}

func malformedTerm(term, reason string) error {
	return &FormulaError{Code: CodeMalformedTerm, Text: term, Reason: reason}
}

func invalidDiceSpec(term, reason string) error {
	return &FormulaError{Code: CodeInvalidDiceSpec, Text: term, Reason: reason}
}

// invalidDropKeepAmount reports amountText as written in the formula.
func invalidDropKeepAmount(term, key, amountText string, amount, count int) error {
	return &FormulaError{
		Code:        CodeInvalidDropKeepAmount,
		Text:        term,
		DropKeepKey: key,
		Amount:      amount,
		Count:       count,
		Reason: fmt.Sprintf(
			"Drop/Keep amount (%s) must be greater than 0 and less than the number of dice rolled (%d).",
			amountText, count),
	}
}
