package dice

import (
	"strconv"
	"strings"
)

// Face renders the value of d the way it appears in a trace: fudge dice as
// "-", "0" or "+", numeric dice as their value.
func Face(d Die, fudge bool) string {
	if fudge {
		switch {
		case d.Value < 0:
			return "-"
		case d.Value > 0:
			return "+"
		default:
			return "0"
		}
	}
	return strconv.Itoa(d.Value)
}

// Annotate decorates a rendered face with the fate and origin markers:
// "!" for an exploded bonus die, "r" for a reroll replacement, "~v~" for a
// die that no longer counts.
func Annotate(face string, d Die) string {
	switch d.Origin {
	case OriginExploded:
		face += "!"
	case OriginReroll:
		face += "r"
	}
	if !d.Live() {
		face = "~" + face + "~"
	}
	return face
}

func (r *DiceRoll) String() string {
	parts := make([]string, len(r.Dice))
	for i, d := range r.Dice {
		parts[i] = Annotate(Face(d, r.Term.Sides.Fudge), d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (h RollHistory) String() string {
	var b strings.Builder
	for _, e := range h {
		switch e.Kind {
		case HistoryDice:
			b.WriteString(e.Roll.String())
		case HistoryOperator:
			b.WriteString(" " + e.Text + " ")
		default:
			b.WriteString(e.Text)
		}
	}
	return b.String()
}

// Describe renders a total with its unit: "4 successes" or "15".
func (t Total) Describe() string {
	if t.Kind != TotalSuccess {
		return t.String()
	}
	if t.Successes == 1 || t.Successes == -1 {
		return t.String() + " success"
	}
	return t.String() + " successes"
}

func (s *SingleResult) String() string {
	return s.History.String() + " = " + s.Total.Describe()
}

func (r *RepeatedResult) String() string {
	lines := make([]string, 0, len(r.Rolls)+1)
	for i := range r.Rolls {
		lines = append(lines, r.Rolls[i].String())
	}
	if r.Sum != nil {
		lines = append(lines, "Sum: "+r.Sum.String())
	}
	return strings.Join(lines, "\n")
}

// String renders the default text form of the result.
//
// Single:   "[6, 3!, ~1~] + 4 = 13, reason: attack"
// Repeated: one line per roll, then "Sum: n" and "Reason: …" lines as needed.
func (r *RollResult) String() string {
	if r.Single != nil {
		s := r.Single.String()
		if r.HasReason {
			s += ", reason: " + r.Reason
		}
		return s
	}
	s := r.Repeated.String()
	if r.HasReason {
		s += "\nReason: " + r.Reason
	}
	return s
}
