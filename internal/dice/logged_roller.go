package dice

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoggedRoller wraps a Source and logger to provide audited dice rolling.
// Every roll is stamped with a fresh roll id and logged at debug level with
// the expression, total, and reason.
type LoggedRoller struct {
	src    Source
	logger *zap.Logger
	opts   []Option
}

// NewLoggedRoller creates a LoggedRoller that rolls with src and logs to logger.
// opts apply to every expression parsed through RollExpr.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger, opts ...Option) *LoggedRoller {
	return &LoggedRoller{src: src, logger: logger, opts: opts}
}

// Roll evaluates r and logs the result.
//
// Postcondition: on success result.ID is a new uuid and one debug entry was
// written; on failure the error is logged and returned.
func (l *LoggedRoller) Roll(r *Roller) (*RollResult, error) {
	id := uuid.NewString()
	result, err := r.Roll(l.src)
	if err != nil {
		l.logger.Debug("dice roll failed",
			zap.String("roll_id", id),
			zap.String("expression", r.String()),
			zap.Error(err),
		)
		return nil, err
	}
	result.ID = id

	fields := []zap.Field{
		zap.String("roll_id", id),
		zap.String("expression", result.Expression),
	}
	switch {
	case result.Single != nil:
		fields = append(fields,
			zap.String("total", result.Single.Total.String()),
			zap.Bool("successes", result.Single.Total.Kind == TotalSuccess),
			zap.Int("dice_terms", len(result.Single.History.Rolls())),
		)
	case result.Repeated != nil:
		fields = append(fields, zap.Int("repetitions", len(result.Repeated.Rolls)))
		if result.Repeated.Sum != nil {
			fields = append(fields, zap.String("sum", result.Repeated.Sum.String()))
		}
	}
	if result.HasReason {
		fields = append(fields, zap.String("reason", result.Reason))
	}
	l.logger.Debug("dice roll", fields...)
	return result, nil
}

// RollExpr parses expr and rolls it, logging the result.
//
// Postcondition: Returns a RollResult or a parse/validation/arithmetic error.
func (l *LoggedRoller) RollExpr(expr string) (*RollResult, error) {
	r, err := New(expr, l.opts...)
	if err != nil {
		l.logger.Debug("dice expression rejected",
			zap.String("expression", expr),
			zap.Error(err),
		)
		return nil, err
	}
	return l.Roll(r)
}

// Parse parses expr with the options this LoggedRoller was built with.
func (l *LoggedRoller) Parse(expr string) (*Roller, error) {
	return New(expr, l.opts...)
}
