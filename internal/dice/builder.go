package dice

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds enforced before any die is rolled.
const (
	// MaxDice is the largest dice count a single term may roll.
	MaxDice = 5000
	// MaxSides is the largest face count a die may have.
	MaxSides = 5000
	// MaxExplosions caps the bonus dice an indefinite explosion adds to one term.
	MaxExplosions = 100
	// MaxRerolls caps the replacements an indefinite reroll makes for one die.
	MaxRerolls = 100
	// DefaultMaxRepeat is the repetition ceiling when none is configured.
	DefaultMaxRepeat = 5000
	// maxClauses is the number of target/failure clauses a term may carry.
	maxClauses = 3
)

var optionKinds = map[string]ModifierKind{
	"e":  Explode,
	"ie": IndefiniteExplode,
	"!":  IndefiniteExplode,
	"r":  Reroll,
	"ir": IndefiniteReroll,
	"K":  KeepHigh,
	"k":  KeepLow,
	"D":  DropHigh,
	"d":  DropLow,
}

// build converts a parse tree into a validated Command.
//
// Precondition: tree came from parseTree; maxRepeat >= 1.
// Postcondition: Returns a Command whose every DiceTerm satisfies the DiceTerm
// invariant, or a *ParseError / *ValidationError.
func build(tree *commandNode, maxRepeat int) (*Command, error) {
	expr, err := buildExpr(tree.Expr)
	if err != nil {
		return nil, err
	}
	cmd := &Command{Expr: expr}

	if tree.Repeat != nil {
		if _, ok := expr.(*Group); !ok {
			return nil, parseErrorAt(tree.Repeat.Pos, `"(" expr ")"`,
				"repetition applies only to a single parenthesized expression")
		}
		times, err := strconv.Atoi(tree.Repeat.Times)
		if err != nil || times < 1 || times > maxRepeat {
			return nil, invalid("repeat count", tree.Repeat.Times, "must be between 1 and %d", maxRepeat)
		}
		rep := &Repeat{Times: times}
		switch tree.Repeat.Mode {
		case "+":
			rep.Mode = RepeatSum
		case "#":
			rep.Mode = RepeatSort
		}
		cmd.Repeat = rep
	}

	if tree.Reason != nil {
		cmd.Reason = strings.TrimSpace(strings.TrimPrefix(*tree.Reason, ":"))
		cmd.HasReason = true
	}
	return cmd, nil
}

func buildExpr(n *exprNode) (Expr, error) {
	left, err := buildLeaf(n.Head)
	if err != nil {
		return nil, err
	}
	for _, op := range n.Tail {
		right, err := buildLeaf(op.Leaf)
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: Operator(op.Op[0]), Left: left, Right: right}
	}
	return left, nil
}

func buildLeaf(n *leafNode) (Expr, error) {
	switch {
	case n.Group != nil:
		inner, err := buildExpr(n.Group)
		if err != nil {
			return nil, err
		}
		return &Group{Inner: inner}, nil
	case n.Signed != nil:
		if n.Signed.Float != nil {
			return buildFloat(n.Signed.Sign + *n.Signed.Float)
		}
		return buildInt(n.Signed.Sign + *n.Signed.Int)
	case n.Float != nil:
		return buildFloat(*n.Float)
	case n.Int != nil:
		return buildInt(*n.Int)
	case n.Dice != nil:
		return buildDice(n.Dice)
	}
	return nil, parseErrorAt(n.Pos, "dice, number or \"(\"", "empty operand")
}

func buildInt(s string) (Expr, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, invalid("integer", s, "out of range")
	}
	return &IntLiteral{Value: v}, nil
}

func buildFloat(s string) (Expr, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, invalid("float", s, "%v", err)
	}
	return &FloatLiteral{Value: v}, nil
}

func buildDice(n *diceNode) (Expr, error) {
	term := &DiceTerm{Count: 1}

	if n.Count != nil {
		if strings.HasPrefix(*n.Count, "0") {
			return nil, parseErrorAt(n.Pos, "nonzero dice count", "dice count %q must not start with 0", *n.Count)
		}
		count, err := strconv.Atoi(*n.Count)
		if err != nil || count > MaxDice {
			return nil, invalid("dice count", *n.Count, "must be between 1 and %d", MaxDice)
		}
		term.Count = count
	}

	if n.Fudge {
		// Fudge dice accept modifiers and clauses syntactically but ignore them.
		term.Sides = Sides{Fudge: true}
		if len(n.Clauses) > maxClauses {
			return nil, parseErrorAt(n.Clauses[maxClauses].Pos, "", "at most %d target/failure clauses", maxClauses)
		}
		return term, nil
	}

	sides, err := strconv.Atoi(*n.Sides)
	if err != nil || sides < 1 || sides > MaxSides {
		return nil, invalid("dice sides", *n.Sides, "must be between 1 and %d", MaxSides)
	}
	term.Sides = Sides{N: sides}

	for _, o := range n.Options {
		kind := optionKinds[o.Kind]
		mod := Modifier{Kind: kind}
		if o.Value != nil {
			v, err := strconv.Atoi(*o.Value)
			if err != nil {
				return nil, invalid(kind.String()+" value", *o.Value, "out of range")
			}
			mod.Value, mod.HasValue = v, true
		} else if kind != Explode && kind != IndefiniteExplode {
			return nil, parseErrorAt(o.Pos, "number", "%q requires a number", o.Kind)
		}
		term.Modifiers = append(term.Modifiers, mod)
	}

	target, err := buildClauses(n.Clauses)
	if err != nil {
		return nil, err
	}
	if target.active() {
		term.Target = target
	}
	return term, nil
}

func buildClauses(clauses []*clauseNode) (*TargetSpec, error) {
	if len(clauses) > maxClauses {
		return nil, parseErrorAt(clauses[maxClauses].Pos, "", "at most %d target/failure clauses", maxClauses)
	}
	spec := &TargetSpec{}
	var seenTarget, seenDouble, seenFailure bool
	for _, c := range clauses {
		if c.List != nil && c.Kind != "t" {
			return nil, parseErrorAt(c.Pos, "number", "%q takes a single threshold", c.Kind)
		}
		switch c.Kind {
		case "t":
			if seenTarget {
				return nil, invalid("target", clauseText(c), "only one target clause is allowed")
			}
			seenTarget = true
			if c.List != nil {
				if len(c.List.Values) == 0 {
					return nil, invalid("target list", "[]", "must list at least one value")
				}
				for _, s := range c.List.Values {
					v, err := strconv.Atoi(s)
					if err != nil {
						return nil, invalid("target list", s, "out of range")
					}
					spec.Values = append(spec.Values, v)
				}
				continue
			}
			v, err := clauseValue(c)
			if err != nil {
				return nil, err
			}
			spec.Target = v
		case "tt":
			if seenDouble {
				return nil, invalid("double target", clauseText(c), "only one double target clause is allowed")
			}
			seenDouble = true
			v, err := clauseValue(c)
			if err != nil {
				return nil, err
			}
			spec.Double = v
		case "f":
			if seenFailure {
				return nil, invalid("failure", clauseText(c), "only one failure clause is allowed")
			}
			seenFailure = true
			v, err := clauseValue(c)
			if err != nil {
				return nil, err
			}
			spec.Failure = v
		}
	}
	return spec, nil
}

func clauseValue(c *clauseNode) (int, error) {
	v, err := strconv.Atoi(*c.Value)
	if err != nil {
		return 0, invalid(c.Kind+" threshold", *c.Value, "out of range")
	}
	return v, nil
}

func clauseText(c *clauseNode) string {
	if c.List != nil {
		return c.Kind + "[" + strings.Join(c.List.Values, ",") + "]"
	}
	return c.Kind + *c.Value
}
