package dice

import (
	"github.com/shopspring/decimal"
)

// fracDigits is the fixed-point precision kept through every intermediate step.
const fracDigits = 2

// evaluation carries the per-call state of one pass over an expression.
type evaluation struct {
	src          Source
	history      RollHistory
	diceTerms    int
	successTerms int
}

// evalSingle evaluates expr once against src.
//
// Precondition: expr came from build; src is non-nil.
// Postcondition: the result's History lists every leaf and operator of expr
// in source order.
func evalSingle(expr Expr, src Source) (*SingleResult, error) {
	ev := &evaluation{src: src}
	v, err := ev.eval(expr)
	if err != nil {
		return nil, err
	}
	total := valueTotal(v)
	if ev.diceTerms > 0 && ev.diceTerms == ev.successTerms && v.IsInteger() {
		n := v.BigInt()
		if !n.IsInt64() {
			return nil, &ArithmeticError{Op: OpAdd, Message: "success count overflows int64"}
		}
		total = successTotal(n.Int64())
	}
	return &SingleResult{Expression: expr.String(), History: ev.history, Total: total}, nil
}

func (ev *evaluation) eval(e Expr) (decimal.Decimal, error) {
	switch n := e.(type) {
	case *BinaryOp:
		left, err := ev.eval(n.Left)
		if err != nil {
			return decimal.Zero, err
		}
		ev.history = append(ev.history, HistoryEntry{Kind: HistoryOperator, Text: string(n.Op)})
		right, err := ev.eval(n.Right)
		if err != nil {
			return decimal.Zero, err
		}
		return apply(n.Op, left, right)
	case *Group:
		ev.history = append(ev.history, HistoryEntry{Kind: HistoryGroupOpen, Text: "("})
		v, err := ev.eval(n.Inner)
		if err != nil {
			return decimal.Zero, err
		}
		ev.history = append(ev.history, HistoryEntry{Kind: HistoryGroupClose, Text: ")"})
		return v, nil
	case *IntLiteral:
		ev.history = append(ev.history, HistoryEntry{Kind: HistoryLiteral, Text: n.String()})
		return decimal.NewFromInt(n.Value), nil
	case *FloatLiteral:
		ev.history = append(ev.history, HistoryEntry{Kind: HistoryLiteral, Text: n.String()})
		return n.Value, nil
	case *DiceTerm:
		roll := evaluateTerm(n, ev.src)
		ev.diceTerms++
		if roll.Total.Kind == TotalSuccess {
			ev.successTerms++
		}
		ev.history = append(ev.history, HistoryEntry{Kind: HistoryDice, Roll: roll})
		return roll.Total.Decimal(), nil
	}
	panic("dice: unknown expression node")
}

// apply combines two values, rounding the result to fracDigits.
func apply(op Operator, l, r decimal.Decimal) (decimal.Decimal, error) {
	var out decimal.Decimal
	switch op {
	case OpAdd:
		out = l.Add(r)
	case OpSub:
		out = l.Sub(r)
	case OpMul:
		out = l.Mul(r)
	case OpDiv:
		if r.IsZero() {
			return decimal.Zero, &ArithmeticError{Op: op, Message: "division by zero"}
		}
		out = l.DivRound(r, fracDigits)
	default:
		return decimal.Zero, &ArithmeticError{Op: op, Message: "unknown operator"}
	}
	return out.Round(fracDigits), nil
}
