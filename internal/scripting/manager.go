package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/diceroll/internal/dice"
)

var (
	// ErrNotLoaded is returned by Interpret before LoadDir succeeded.
	ErrNotLoaded = errors.New("scripting: no scripts loaded")
	// ErrNoFunction is returned by Interpret when the named global is not a function.
	ErrNoFunction = errors.New("scripting: no such function")
)

// Manager owns one sandboxed LState holding the loaded interpretation scripts.
//
// A Manager is safe for concurrent use; calls into the VM are serialized.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	roller    *dice.LoggedRoller
	logger    *zap.Logger
}

// NewManager creates a Manager. Each Lua call may run at most instLimit
// opcodes; 0 uses DefaultInstructionLimit.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scripts loaded.
func NewManager(roller *dice.LoggedRoller, logger *zap.Logger, instLimit int) *Manager {
	return &Manager{
		roller:    roller,
		logger:    logger,
		instLimit: instLimit,
	}
}

// LoadDir creates a fresh sandboxed VM, registers the dice and log modules,
// then executes every *.lua file in scriptDir in lexicographic order. A
// previously loaded VM is replaced only when every file loads.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Returns nil and the new VM is active, or an error naming the failing file.
func (m *Manager) LoadDir(scriptDir string) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := newSandbox()
	m.RegisterModules(L)

	for _, path := range luaFiles {
		err := withBudget(L, m.instLimit, func() error { return L.DoFile(path) })
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.L != nil {
		m.L.Close()
	}
	m.L = L
	m.mu.Unlock()

	m.logger.Debug("scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// Functions returns the names of the global functions the loaded scripts
// define, sorted.
func (m *Manager) Functions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		return nil
	}
	builtin := builtinGlobals()
	var out []string
	m.L.G.Global.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok || v.Type() != lua.LTFunction || builtin[string(name)] {
			return
		}
		out = append(out, string(name))
	})
	sort.Strings(out)
	return out
}

// builtinGlobals lists the globals a bare sandboxed state defines.
func builtinGlobals() map[string]bool {
	L := newSandbox()
	defer L.Close()
	out := make(map[string]bool)
	L.G.Global.ForEach(func(k, _ lua.LValue) {
		if name, ok := k.(lua.LString); ok {
			out[string(name)] = true
		}
	})
	return out
}

// Interpret calls the global Lua function fn with res converted to a table
// (see ResultTable) and returns the function's result as text.
//
// Precondition: res must be non-nil.
// Postcondition: Returns the string, number or boolean the function returned
// rendered as text ("" for nil), or an error. Lua runtime errors, including
// an exhausted instruction budget, are logged at Warn level and returned.
func (m *Manager) Interpret(fn string, res *dice.RollResult) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.L == nil {
		return "", ErrNotLoaded
	}
	L := m.L
	f := L.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return "", fmt.Errorf("%w: %q", ErrNoFunction, fn)
	}

	var ret lua.LValue
	err := withBudget(L, m.instLimit, func() error {
		if err := L.CallByParam(lua.P{Fn: f, NRet: 1, Protect: true}, ResultTable(L, res)); err != nil {
			return err
		}
		ret = L.Get(-1)
		L.Pop(1)
		return nil
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("function", fn),
			zap.String("roll_id", res.ID),
			zap.Error(err),
		)
		return "", fmt.Errorf("scripting: %s: %w", fn, err)
	}

	switch v := ret.(type) {
	case *lua.LNilType:
		return "", nil
	case lua.LString, lua.LNumber, lua.LBool:
		return v.String(), nil
	default:
		return "", fmt.Errorf("scripting: %s returned a %s, want string", fn, ret.Type())
	}
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
}
