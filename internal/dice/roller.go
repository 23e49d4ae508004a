// Package dice parses and evaluates tabletop dice notation such as
// "4d6 K3 + 2", "6d10 t7 f1" or "(2d6 + 6) ^# 8 : stats".
//
// New parses and validates an expression into a Roller; Roller.Roll evaluates
// it against a Source. Parsing never consumes randomness.
package dice

import "strings"

// Option configures a Roller.
type Option func(*options)

type options struct {
	maxRepeat int
}

// WithMaxRepeat sets the largest accepted "^" repetition count.
//
// Precondition: n >= 1; smaller values are ignored.
func WithMaxRepeat(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.maxRepeat = n
		}
	}
}

// Roller is a parsed, validated dice command ready to be rolled any number
// of times. A Roller is immutable and safe for concurrent use.
type Roller struct {
	input string
	cmd   *Command
}

// New parses and validates input.
//
// Postcondition: Returns a Roller, or a *ParseError / *ValidationError. No
// randomness is consumed either way.
func New(input string, opts ...Option) (*Roller, error) {
	o := options{maxRepeat: DefaultMaxRepeat}
	for _, opt := range opts {
		opt(&o)
	}
	tree, err := parseTree(input)
	if err != nil {
		return nil, err
	}
	cmd, err := build(tree, o.maxRepeat)
	if err != nil {
		return nil, err
	}
	return &Roller{input: input, cmd: cmd}, nil
}

// MustParse parses input and panics on error. Useful for package-level values.
//
// Precondition: input must be a valid dice command.
func MustParse(input string) *Roller {
	r, err := New(input)
	if err != nil {
		panic("dice: MustParse failed for expression " + input + ": " + err.Error())
	}
	return r
}

// Roll evaluates the command with src, or with a crypto-backed source when
// src is nil.
//
// Postcondition: Returns a RollResult with exactly one of Single and Repeated
// set, or an *ArithmeticError.
func (r *Roller) Roll(src Source) (*RollResult, error) {
	if src == nil {
		src = NewCryptoSource()
	}
	res := &RollResult{
		Expression: r.input,
		Reason:     r.cmd.Reason,
		HasReason:  r.cmd.HasReason,
	}
	if r.cmd.Repeat != nil {
		rep, err := evalRepeated(r.cmd.Expr, r.cmd.Repeat, src)
		if err != nil {
			return nil, err
		}
		res.Repeated = rep
		return res, nil
	}
	single, err := evalSingle(r.cmd.Expr, src)
	if err != nil {
		return nil, err
	}
	res.Single = single
	return res, nil
}

// RollExpr parses input and rolls it with src in a single call.
func RollExpr(input string, src Source) (*RollResult, error) {
	r, err := New(input)
	if err != nil {
		return nil, err
	}
	return r.Roll(src)
}

// Command returns the parsed command. Callers must not modify it.
func (r *Roller) Command() *Command { return r.cmd }

// String returns the input the Roller was built from.
func (r *Roller) String() string { return r.input }

// Dice returns the canonical text of every dice term, left to right.
func (r *Roller) Dice() []string {
	terms := diceTerms(r.cmd.Expr)
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.String()
	}
	return out
}

// WithoutReason returns a Roller for the same command minus its reason.
func (r *Roller) WithoutReason() *Roller {
	if !r.cmd.HasReason {
		return r
	}
	cmd := *r.cmd
	cmd.Reason, cmd.HasReason = "", false
	input := r.input
	if i := strings.IndexByte(input, ':'); i >= 0 {
		input = strings.TrimRight(input[:i], " \t")
	}
	return &Roller{input: input, cmd: &cmd}
}
