package dice

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Operator is one of the four arithmetic operators of the notation.
type Operator byte

// Supported operators. All share one precedence level and associate left.
const (
	OpAdd Operator = '+'
	OpSub Operator = '-'
	OpMul Operator = '*'
	OpDiv Operator = '/'
)

// Expr is a node of a parsed dice expression: *BinaryOp, *Group, *DiceTerm,
// *IntLiteral or *FloatLiteral.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// BinaryOp applies Op to the values of Left and Right.
// Chains are left-leaning: "a + b * c" is ((a + b) * c).
type BinaryOp struct {
	Op    Operator
	Left  Expr
	Right Expr
}

// Group is a parenthesized sub-expression evaluated as a single leaf.
type Group struct {
	Inner Expr
}

// IntLiteral is a signed integer constant.
type IntLiteral struct {
	Value int64
}

// FloatLiteral is a signed decimal constant with one or two fractional digits.
type FloatLiteral struct {
	Value decimal.Decimal
}

// Sides is the face count of a die, or the fudge marker.
type Sides struct {
	N     int
	Fudge bool
}

func (s Sides) String() string {
	if s.Fudge {
		return "F"
	}
	return strconv.Itoa(s.N)
}

// DiceTerm is "<count>d<sides>" with its modifiers and scoring clauses.
//
// Invariant: 1 <= Count <= MaxDice; 1 <= Sides.N <= MaxSides unless Sides.Fudge.
// Fudge terms never carry Modifiers or a Target.
type DiceTerm struct {
	Count     int
	Sides     Sides
	Modifiers []Modifier
	Target    *TargetSpec
}

// ModifierKind identifies a dice modifier.
type ModifierKind int

const (
	Explode ModifierKind = iota + 1
	IndefiniteExplode
	Reroll
	IndefiniteReroll
	KeepHigh
	KeepLow
	DropHigh
	DropLow
)

var modifierPrefix = map[ModifierKind]string{
	Explode:           "e",
	IndefiniteExplode: "ie",
	Reroll:            "r",
	IndefiniteReroll:  "ir",
	KeepHigh:          "K",
	KeepLow:           "k",
	DropHigh:          "D",
	DropLow:           "d",
}

func (k ModifierKind) String() string {
	switch k {
	case Explode:
		return "explode"
	case IndefiniteExplode:
		return "indefinite explode"
	case Reroll:
		return "reroll"
	case IndefiniteReroll:
		return "indefinite reroll"
	case KeepHigh:
		return "keep highest"
	case KeepLow:
		return "keep lowest"
	case DropHigh:
		return "drop highest"
	case DropLow:
		return "drop lowest"
	default:
		return "unknown"
	}
}

// Modifier is one option attached to a dice term. HasValue is false only for
// explosions written without a threshold, which then default to the max face.
type Modifier struct {
	Kind     ModifierKind
	Value    int
	HasValue bool
}

func (m Modifier) String() string {
	if !m.HasValue {
		return modifierPrefix[m.Kind]
	}
	return modifierPrefix[m.Kind] + strconv.Itoa(m.Value)
}

func (m Modifier) threshold(sides int) int {
	if m.HasValue {
		return m.Value
	}
	return sides
}

// TargetSpec switches a dice term from summing to success counting.
// A zero threshold means the clause is absent.
type TargetSpec struct {
	// Target counts one success per die >= Target.
	Target int
	// Values counts one success per die whose value is listed.
	Values []int
	// Double counts two successes per die >= Double.
	Double int
	// Failure subtracts one per die <= Failure.
	Failure int
}

func (t *TargetSpec) String() string {
	var parts []string
	switch {
	case len(t.Values) > 0:
		vals := make([]string, len(t.Values))
		for i, v := range t.Values {
			vals[i] = strconv.Itoa(v)
		}
		parts = append(parts, "t["+strings.Join(vals, ",")+"]")
	case t.Target > 0:
		parts = append(parts, "t"+strconv.Itoa(t.Target))
	}
	if t.Double > 0 {
		parts = append(parts, "tt"+strconv.Itoa(t.Double))
	}
	if t.Failure > 0 {
		parts = append(parts, "f"+strconv.Itoa(t.Failure))
	}
	return strings.Join(parts, " ")
}

func (t *TargetSpec) active() bool {
	return t != nil && (t.Target > 0 || len(t.Values) > 0 || t.Double > 0 || t.Failure > 0)
}

// RepeatMode selects how repeated results are combined.
type RepeatMode int

const (
	RepeatPlain RepeatMode = iota
	RepeatSum
	RepeatSort
)

// Repeat is the "^" suffix of a command.
type Repeat struct {
	Times int
	Mode  RepeatMode
}

func (r Repeat) String() string {
	switch r.Mode {
	case RepeatSum:
		return "^+ " + strconv.Itoa(r.Times)
	case RepeatSort:
		return "^# " + strconv.Itoa(r.Times)
	default:
		return "^ " + strconv.Itoa(r.Times)
	}
}

// Command is a fully parsed and validated input line.
type Command struct {
	Expr      Expr
	Repeat    *Repeat
	Reason    string
	HasReason bool
}

func (c *Command) String() string {
	s := c.Expr.String()
	if c.Repeat != nil {
		s += " " + c.Repeat.String()
	}
	if c.HasReason {
		s += " : " + c.Reason
	}
	return s
}

func (*BinaryOp) isExpr()     {}
func (*Group) isExpr()        {}
func (*IntLiteral) isExpr()   {}
func (*FloatLiteral) isExpr() {}
func (*DiceTerm) isExpr()     {}

func (b *BinaryOp) String() string {
	return b.Left.String() + " " + string(b.Op) + " " + b.Right.String()
}

func (g *Group) String() string { return "(" + g.Inner.String() + ")" }

func (i *IntLiteral) String() string { return strconv.FormatInt(i.Value, 10) }

func (f *FloatLiteral) String() string { return f.Value.String() }

func (d *DiceTerm) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(d.Count))
	b.WriteByte('d')
	b.WriteString(d.Sides.String())
	for _, m := range d.Modifiers {
		b.WriteByte(' ')
		b.WriteString(m.String())
	}
	if d.Target.active() {
		b.WriteByte(' ')
		b.WriteString(d.Target.String())
	}
	return b.String()
}

// diceTerms returns every dice term of e, left to right.
func diceTerms(e Expr) []*DiceTerm {
	var out []*DiceTerm
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *BinaryOp:
			walk(n.Left)
			walk(n.Right)
		case *Group:
			walk(n.Inner)
		case *DiceTerm:
			out = append(out, n)
		}
	}
	walk(e)
	return out
}
