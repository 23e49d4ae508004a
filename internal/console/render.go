package console

import (
	"errors"
	"strings"

	"github.com/cory-johannsen/diceroll/internal/dice"
)

// RenderResult formats res for the terminal. With color disabled the output
// is exactly res.String().
func RenderResult(p Painter, res *dice.RollResult) string {
	if res.Single != nil {
		s := renderSingle(p, res.Single)
		if res.HasReason {
			s += ", reason: " + p.Paint(Cyan, res.Reason)
		}
		return s
	}

	lines := make([]string, 0, len(res.Repeated.Rolls)+2)
	for i := range res.Repeated.Rolls {
		lines = append(lines, renderSingle(p, &res.Repeated.Rolls[i]))
	}
	if res.Repeated.Sum != nil {
		lines = append(lines, "Sum: "+p.Paint(Bold+BrightWhite, res.Repeated.Sum.String()))
	}
	if res.HasReason {
		lines = append(lines, "Reason: "+p.Paint(Cyan, res.Reason))
	}
	return strings.Join(lines, "\n")
}

func renderSingle(p Painter, s *dice.SingleResult) string {
	var b strings.Builder
	for _, e := range s.History {
		switch e.Kind {
		case dice.HistoryDice:
			b.WriteString(renderRoll(p, e.Roll))
		case dice.HistoryOperator:
			b.WriteString(" " + e.Text + " ")
		default:
			b.WriteString(e.Text)
		}
	}
	b.WriteString(" = ")
	b.WriteString(renderTotal(p, s.Total))
	return b.String()
}

func renderRoll(p Painter, r *dice.DiceRoll) string {
	parts := make([]string, len(r.Dice))
	for i, d := range r.Dice {
		face := dice.Face(d, r.Term.Sides.Fudge)
		switch {
		case !d.Live():
		case d.Crit == dice.CritMax:
			face = p.Paint(Bold+BrightGreen, face)
		case d.Crit == dice.CritMin:
			face = p.Paint(BrightRed, face)
		}
		text := dice.Annotate(face, d)
		if !d.Live() {
			text = p.Paint(Dim, text)
		}
		parts[i] = text
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func renderTotal(p Painter, t dice.Total) string {
	if t.Kind != dice.TotalSuccess {
		return p.Paint(Bold+BrightWhite, t.Describe())
	}
	switch {
	case t.Successes > 0:
		return p.Paint(Bold+Green, t.Describe())
	case t.Successes < 0:
		return p.Paint(Bold+Red, t.Describe())
	default:
		return p.Paint(Yellow, t.Describe())
	}
}

// RenderError formats err for the terminal. Parse errors point at the
// offending column of line.
func RenderError(p Painter, line string, err error) string {
	msg := p.Paint(Red, "error: "+err.Error())
	var pe *dice.ParseError
	if errors.As(err, &pe) && pe.Line == 1 && pe.Column >= 1 && pe.Column <= len(line)+1 {
		caret := strings.Repeat(" ", pe.Column-1) + "^"
		return line + "\n" + p.Paint(Magenta, caret) + "\n" + msg
	}
	return msg
}
