package dice

import (
	"errors"

	"go.uber.org/zap"
)

// Roller wraps a Source and logger to provide logged formula evaluation.
// Successful evaluations are logged at debug level, rejected formulas at info.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each
// evaluation to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Evaluate evaluates formula and logs the outcome.
//
// Postcondition: returns the same result or error as Evaluate(formula, src).
func (r *Roller) Evaluate(formula string) (RollResult, error) {
	result, err := Evaluate(formula, r.src)
	if err != nil {
		fields := []zap.Field{zap.String("formula", formula), zap.Error(err)}
		var fe *FormulaError
		if errors.As(err, &fe) {
			fields = append(fields, zap.String("code", string(fe.Code)), zap.String("text", fe.Text))
		}
		r.logger.Info("formula rejected", fields...)
		return RollResult{}, err
	}

	dice := 0
	for _, c := range result.Components {
		dice += len(c.Rolls)
	}
	r.logger.Debug("dice roll",
		zap.String("formula", result.FormulaNormalized),
		zap.Int("components", len(result.Components)),
		zap.Int("dice", dice),
		zap.Int("final_result", result.FinalResult),
		zap.Float64("luck_index", result.LuckIndex),
	)
	return result, nil
}
