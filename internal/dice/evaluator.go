package dice

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Modifier stages. Within a stage, modifiers apply in the order written.
const (
	stageReroll = iota
	stageExplode
	stageSelect
)

func stageOf(k ModifierKind) int {
	switch k {
	case Reroll, IndefiniteReroll:
		return stageReroll
	case Explode, IndefiniteExplode:
		return stageExplode
	default:
		return stageSelect
	}
}

// plan returns the modifiers to apply, in application order. Only the last
// occurrence of each kind survives, at the position of that occurrence.
func plan(mods []Modifier) []Modifier {
	last := make(map[ModifierKind]int, len(mods))
	for i, m := range mods {
		last[m.Kind] = i
	}
	idx := make([]int, 0, len(last))
	for _, i := range last {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool {
		sa, sb := stageOf(mods[idx[a]].Kind), stageOf(mods[idx[b]].Kind)
		if sa != sb {
			return sa < sb
		}
		return idx[a] < idx[b]
	})
	out := make([]Modifier, len(idx))
	for i, j := range idx {
		out[i] = mods[j]
	}
	return out
}

// evaluateTerm rolls term against src.
//
// Precondition: term satisfies the DiceTerm invariant; src is non-nil.
// Postcondition: len(result.Dice) >= term.Count; the first term.Count dice
// are the initial roll in draw order.
func evaluateTerm(term *DiceTerm, src Source) *DiceRoll {
	roll := &DiceRoll{Term: term, Dice: make([]Die, 0, term.Count)}

	if term.Sides.Fudge {
		var sum int64
		for i := 0; i < term.Count; i++ {
			v := src.Intn(3) - 1
			d := Die{Value: v}
			switch v {
			case -1:
				d.Crit = CritMin
			case 1:
				d.Crit = CritMax
			}
			roll.Dice = append(roll.Dice, d)
			sum += int64(v)
		}
		roll.Total = valueTotal(decimal.NewFromInt(sum))
		return roll
	}

	sides := term.Sides.N
	for i := 0; i < term.Count; i++ {
		roll.Dice = append(roll.Dice, rollDie(src, sides, OriginInitial))
	}

	for _, m := range plan(term.Modifiers) {
		switch m.Kind {
		case Reroll:
			reroll(roll, src, m.Value, 1)
		case IndefiniteReroll:
			reroll(roll, src, m.Value, MaxRerolls)
		case Explode:
			explode(roll, src, m.threshold(sides), false)
		case IndefiniteExplode:
			explode(roll, src, m.threshold(sides), true)
		case DropLow:
			drop(roll, m.Value, false)
		case DropHigh:
			drop(roll, m.Value, true)
		case KeepHigh:
			keep(roll, m.Value, true)
		case KeepLow:
			keep(roll, m.Value, false)
		}
	}

	roll.Total = score(roll.Dice, term.Target)
	return roll
}

func rollDie(src Source, sides int, origin Origin) Die {
	v := src.Intn(sides) + 1
	d := Die{Value: v, Origin: origin}
	switch {
	case v == sides:
		d.Crit = CritMax
	case v == 1:
		d.Crit = CritMin
	}
	return d
}

// reroll replaces every live die <= threshold, at most limit times per die.
// Only dice present when the stage starts are examined; each replacement is
// appended and the replaced die is marked Rerolled.
func reroll(roll *DiceRoll, src Source, threshold, limit int) {
	sides := roll.Term.Sides.N
	n := len(roll.Dice)
	for i := 0; i < n; i++ {
		if !roll.Dice[i].Live() {
			continue
		}
		cur := i
		for attempt := 0; attempt < limit && roll.Dice[cur].Value <= threshold; attempt++ {
			roll.Dice[cur].Fate = Rerolled
			roll.Dice = append(roll.Dice, rollDie(src, sides, OriginReroll))
			cur = len(roll.Dice) - 1
		}
	}
}

// explode appends a bonus die for every live die >= threshold. A chained
// explosion also examines the bonus dice it adds, up to MaxExplosions per term.
func explode(roll *DiceRoll, src Source, threshold int, chained bool) {
	sides := roll.Term.Sides.N
	if !chained {
		n := len(roll.Dice)
		for i := 0; i < n; i++ {
			if roll.Dice[i].Live() && roll.Dice[i].Value >= threshold {
				roll.Dice = append(roll.Dice, rollDie(src, sides, OriginExploded))
			}
		}
		return
	}
	added := 0
	for i := 0; i < len(roll.Dice) && added < MaxExplosions; i++ {
		if roll.Dice[i].Live() && roll.Dice[i].Value >= threshold {
			roll.Dice = append(roll.Dice, rollDie(src, sides, OriginExploded))
			added++
		}
	}
}

func liveIndices(dice []Die) []int {
	out := make([]int, 0, len(dice))
	for i, d := range dice {
		if d.Live() {
			out = append(out, i)
		}
	}
	return out
}

// drop marks the n highest (or lowest) live dice as Dropped. Among equal
// values the earliest-rolled die goes first. n is clamped to the live count.
func drop(roll *DiceRoll, n int, high bool) {
	live := liveIndices(roll.Dice)
	if n > len(live) {
		n = len(live)
	}
	if n <= 0 {
		return
	}
	sort.SliceStable(live, func(a, b int) bool {
		va, vb := roll.Dice[live[a]].Value, roll.Dice[live[b]].Value
		if high {
			return va > vb
		}
		return va < vb
	})
	for _, i := range live[:n] {
		roll.Dice[i].Fate = Dropped
	}
}

// keep retains the n highest (or lowest) live dice by dropping the rest from
// the opposite end.
func keep(roll *DiceRoll, n int, high bool) {
	live := len(liveIndices(roll.Dice))
	if n >= live {
		return
	}
	if n < 0 {
		n = 0
	}
	drop(roll, live-n, !high)
}

// score sums the live dice, or counts successes when t is active.
func score(dice []Die, t *TargetSpec) Total {
	if !t.active() {
		var sum int64
		for _, d := range dice {
			if d.Live() {
				sum += int64(d.Value)
			}
		}
		return valueTotal(decimal.NewFromInt(sum))
	}
	var successes int64
	for _, d := range dice {
		if !d.Live() {
			continue
		}
		switch {
		case t.Double > 0 && d.Value >= t.Double:
			successes += 2
		case t.hit(d.Value):
			successes++
		}
		if t.Failure > 0 && d.Value <= t.Failure {
			successes--
		}
	}
	return successTotal(successes)
}

func (t *TargetSpec) hit(v int) bool {
	if len(t.Values) > 0 {
		for _, want := range t.Values {
			if v == want {
				return true
			}
		}
		return false
	}
	return t.Target > 0 && v >= t.Target
}
