package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger. Every draw the battle engine makes goes
// through a Roller so that a debug log can replay why an action hit or missed.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll evaluates expr and logs the result at debug level.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	if !expr.IsConstant() {
		r.logger.Debug("dice roll",
			zap.String("expression", result.Expression),
			zap.Ints("dice", result.Dice),
			zap.Int("modifier", result.Modifier),
			zap.Int("total", result.Total()),
		)
	}
	return result
}

// Chance rolls a percentile against probability and logs the outcome.
//
// Precondition: 0 <= probability <= 1.
func (r *Roller) Chance(reason string, probability float64) bool {
	ok, roll := Chance(probability, r.src)
	r.logger.Debug("chance roll",
		zap.String("reason", reason),
		zap.Float64("probability", probability),
		zap.Int("roll", roll),
		zap.Bool("success", ok),
	)
	return ok
}

// CoinFlip returns true on heads.
func (r *Roller) CoinFlip(reason string) bool {
	heads := r.src.Intn(2) == 0
	r.logger.Debug("coin flip", zap.String("reason", reason), zap.Bool("heads", heads))
	return heads
}

// Intn returns a value in [0, n) from the underlying Source.
//
// Precondition: n > 0.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}
