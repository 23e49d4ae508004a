package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/diceroll/internal/dice"
)

// RegisterModules registers the dice and log Lua tables into L.
//
//	dice.roll(expr)  -> result table (see ResultTable); raises on invalid expr
//	dice.list(expr)  -> array of the expression's dice terms
//	log.debug|info|warn|error(msg)
//
// Precondition: L must be a sandboxed state.
// Postcondition: dice and log globals are defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	L.SetGlobal("dice", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"roll": m.luaRoll,
		"list": m.luaList,
	}))
	L.SetGlobal("log", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"debug": m.luaLog(zap.DebugLevel),
		"info":  m.luaLog(zap.InfoLevel),
		"warn":  m.luaLog(zap.WarnLevel),
		"error": m.luaLog(zap.ErrorLevel),
	}))
}

func (m *Manager) luaRoll(L *lua.LState) int {
	expr := L.CheckString(1)
	res, err := m.roller.RollExpr(expr)
	if err != nil {
		L.RaiseError("dice.roll: %s", err.Error())
		return 0
	}
	L.Push(ResultTable(L, res))
	return 1
}

func (m *Manager) luaList(L *lua.LState) int {
	expr := L.CheckString(1)
	r, err := m.roller.Parse(expr)
	if err != nil {
		L.RaiseError("dice.list: %s", err.Error())
		return 0
	}
	t := L.NewTable()
	for _, d := range r.Dice() {
		t.Append(lua.LString(d))
	}
	L.Push(t)
	return 1
}

func (m *Manager) luaLog(level zapcore.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		msg := L.CheckString(1)
		if ce := m.logger.Check(level, msg); ce != nil {
			ce.Write(zap.String("source", "lua"))
		}
		return 0
	}
}

// ResultTable converts res into the table handed to Lua:
//
//	id, expression, text   strings
//	total                  number; nil for a plain or sorted repetition
//	successes              number of successes; nil unless success-counted
//	reason                 string; nil when absent
//	terms                  single results: array of {term, total, dice, kept}
//	results                repeated results: array of {total, text}
func ResultTable(L *lua.LState, res *dice.RollResult) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(res.ID))
	t.RawSetString("expression", lua.LString(res.Expression))
	t.RawSetString("text", lua.LString(res.String()))
	if total, ok := res.Total(); ok {
		f, _ := total.Float64()
		t.RawSetString("total", lua.LNumber(f))
	}
	if res.HasReason {
		t.RawSetString("reason", lua.LString(res.Reason))
	}

	if res.Single != nil {
		if res.Single.Total.Kind == dice.TotalSuccess {
			t.RawSetString("successes", lua.LNumber(res.Single.Total.Successes))
		}
		terms := L.NewTable()
		for _, roll := range res.Single.History.Rolls() {
			terms.Append(rollTable(L, roll))
		}
		t.RawSetString("terms", terms)
		return t
	}

	results := L.NewTable()
	for i := range res.Repeated.Rolls {
		r := &res.Repeated.Rolls[i]
		row := L.NewTable()
		f, _ := r.Total.Decimal().Float64()
		row.RawSetString("total", lua.LNumber(f))
		row.RawSetString("text", lua.LString(r.String()))
		results.Append(row)
	}
	t.RawSetString("results", results)
	return t
}

func rollTable(L *lua.LState, roll *dice.DiceRoll) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("term", lua.LString(roll.Term.String()))
	f, _ := roll.Total.Decimal().Float64()
	t.RawSetString("total", lua.LNumber(f))
	all, kept := L.NewTable(), L.NewTable()
	for _, d := range roll.Dice {
		all.Append(lua.LNumber(d.Value))
		if d.Live() {
			kept.Append(lua.LNumber(d.Value))
		}
	}
	t.RawSetString("dice", all)
	t.RawSetString("kept", kept)
	return t
}
