package dice

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Origin records why a die was rolled.
type Origin int

const (
	// OriginInitial dice are the Count dice rolled first.
	OriginInitial Origin = iota
	// OriginExploded dice were added by an explosion.
	OriginExploded
	// OriginReroll dice replaced a rerolled die.
	OriginReroll
)

// Fate records whether a die still counts toward the result.
type Fate int

const (
	// Kept dice are live and count toward the total.
	Kept Fate = iota
	// Dropped dice were removed by a keep or drop modifier.
	Dropped
	// Rerolled dice were replaced by a reroll.
	Rerolled
)

// Crit flags a die that landed on an extreme face.
type Crit int

const (
	CritNone Crit = iota
	CritMin
	CritMax
)

// Die is one entry of a DiceRoll arena.
type Die struct {
	Value  int
	Origin Origin
	Fate   Fate
	Crit   Crit
}

// Live reports whether the die still counts toward the result.
func (d Die) Live() bool { return d.Fate == Kept }

// DiceRoll is the complete record of one evaluated dice term. Dice holds every
// die in roll order, including dropped and replaced ones.
type DiceRoll struct {
	Term  *DiceTerm
	Dice  []Die
	Total Total
}

// Live returns the dice that count toward the total, in roll order.
func (r *DiceRoll) Live() []Die {
	out := make([]Die, 0, len(r.Dice))
	for _, d := range r.Dice {
		if d.Live() {
			out = append(out, d)
		}
	}
	return out
}

// TotalKind distinguishes summed results from success counts.
type TotalKind int

const (
	TotalValue TotalKind = iota
	TotalSuccess
)

// Total is either a decimal value or a success count.
type Total struct {
	Kind      TotalKind
	Value     decimal.Decimal
	Successes int64
}

func valueTotal(d decimal.Decimal) Total { return Total{Kind: TotalValue, Value: d} }

func successTotal(n int64) Total { return Total{Kind: TotalSuccess, Successes: n} }

// Decimal returns the total as a decimal, success counts included.
func (t Total) Decimal() decimal.Decimal {
	if t.Kind == TotalSuccess {
		return decimal.NewFromInt(t.Successes)
	}
	return t.Value
}

func (t Total) String() string {
	if t.Kind == TotalSuccess {
		return strconv.FormatInt(t.Successes, 10)
	}
	return t.Value.String()
}

// HistoryKind tags a HistoryEntry.
type HistoryKind int

const (
	HistoryDice HistoryKind = iota
	HistoryLiteral
	HistoryOperator
	HistoryGroupOpen
	HistoryGroupClose
)

// HistoryEntry is one step of a RollHistory. Roll is set for HistoryDice;
// Text holds the literal, operator or parenthesis otherwise.
type HistoryEntry struct {
	Kind HistoryKind
	Roll *DiceRoll
	Text string
}

// RollHistory is the left-to-right trace of an evaluated expression.
type RollHistory []HistoryEntry

// Rolls returns the dice rolls of the history in order.
func (h RollHistory) Rolls() []*DiceRoll {
	var out []*DiceRoll
	for _, e := range h {
		if e.Kind == HistoryDice {
			out = append(out, e.Roll)
		}
	}
	return out
}

// SingleResult is the outcome of evaluating an expression once.
type SingleResult struct {
	Expression string
	History    RollHistory
	Total      Total
}

// RepeatedResult is the outcome of a "^" command. Sum is set for "^+".
type RepeatedResult struct {
	Rolls  []SingleResult
	Sum    *decimal.Decimal
	Sorted bool
}

// RollResult is what Roller.Roll returns: exactly one of Single and Repeated
// is set.
type RollResult struct {
	// ID is set by LoggedRoller to correlate the result with its log entry.
	ID         string
	Expression string
	Single     *SingleResult
	Repeated   *RepeatedResult
	Reason     string
	HasReason  bool
}

// Total returns the headline value of the result: the single total, the sum
// of a summed repetition, or false for a plain or sorted repetition.
func (r *RollResult) Total() (decimal.Decimal, bool) {
	switch {
	case r.Single != nil:
		return r.Single.Total.Decimal(), true
	case r.Repeated != nil && r.Repeated.Sum != nil:
		return *r.Repeated.Sum, true
	}
	return decimal.Zero, false
}
